package marionette

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/hajimehoshi/ebiten/v2"
)

// GlowSprite returns a cached radial-gradient sprite, white at the center
// falling to transparent at the edge. Sparks, text glow, and the brain all
// tint it at draw time.
func (l *Loader) GlowSprite(size int) (*ebiten.Image, error) {
	return loadAs(l, fmt.Sprintf("tex:glow:%d", size), func() (*ebiten.Image, error) {
		return rasterGlow(size), nil
	})
}

// DotSprite returns a cached filled circle with a one-pixel soft edge, used
// for spark cores and backdrop dust.
func (l *Loader) DotSprite(size int) (*ebiten.Image, error) {
	return loadAs(l, fmt.Sprintf("tex:dot:%d", size), func() (*ebiten.Image, error) {
		return rasterDot(size), nil
	})
}

// PanelSprite returns a cached rounded translucent panel used behind the
// brain label.
func (l *Loader) PanelSprite(w, h int) (*ebiten.Image, error) {
	return loadAs(l, fmt.Sprintf("tex:panel:%dx%d", w, h), func() (*ebiten.Image, error) {
		return rasterPanel(w, h), nil
	})
}

func rasterGlow(size int) *ebiten.Image {
	dc := gg.NewContext(size, size)
	c := float64(size) / 2
	grad := gg.NewRadialGradient(c, c, 0, c, c, c)
	grad.AddColorStop(0, color.NRGBA{255, 255, 255, 255})
	grad.AddColorStop(0.35, color.NRGBA{255, 255, 255, 140})
	grad.AddColorStop(1, color.NRGBA{255, 255, 255, 0})
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()
	return ebiten.NewImageFromImage(dc.Image())
}

func rasterDot(size int) *ebiten.Image {
	dc := gg.NewContext(size, size)
	c := float64(size) / 2
	grad := gg.NewRadialGradient(c, c, 0, c, c, c)
	grad.AddColorStop(0, color.NRGBA{255, 255, 255, 255})
	grad.AddColorStop(0.8, color.NRGBA{255, 255, 255, 255})
	grad.AddColorStop(1, color.NRGBA{255, 255, 255, 0})
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()
	return ebiten.NewImageFromImage(dc.Image())
}

func rasterPanel(w, h int) *ebiten.Image {
	dc := gg.NewContext(w, h)
	dc.SetRGBA(0, 0, 0, 0.55)
	dc.DrawRoundedRectangle(1, 1, float64(w-2), float64(h-2), float64(h)/4)
	dc.Fill()
	dc.SetRGBA(1, 1, 1, 0.25)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(1, 1, float64(w-2), float64(h-2), float64(h)/4)
	dc.Stroke()
	return ebiten.NewImageFromImage(dc.Image())
}
