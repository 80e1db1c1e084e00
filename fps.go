package marionette

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// perfHUD is the debug overlay: frame rates, the effective performance tier,
// and the scene being played. The text refreshes every ~0.5 seconds.
type perfHUD struct {
	img     *ebiten.Image
	elapsed float64
}

func newPerfHUD() *perfHUD {
	// 180x64 fits four DebugPrint lines.
	return &perfHUD{img: ebiten.NewImage(180, 64), elapsed: 1}
}

// Update redraws the overlay text at a readable cadence.
func (h *perfHUD) Update(dt float64, d *Director) {
	h.elapsed += dt
	if h.elapsed < 0.5 {
		return
	}
	h.elapsed = 0

	perf := d.ctx.Perf
	h.img.Clear()
	h.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(h.img, fmt.Sprintf(
		"FPS: %.1f\nTPS: %.1f\nTIER: %v  AVG: %.1fms\nSCENE: %v",
		ebiten.ActualFPS(), ebiten.ActualTPS(),
		perf.Tier(), perf.AverageDelta()*1000, d.Scene(),
	))
}

func (h *perfHUD) Draw(screen *ebiten.Image) {
	screen.DrawImage(h.img, nil)
}

func (h *perfHUD) dispose() {
	h.img.Deallocate()
}
