package marionette

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Show adapts a Director to ebiten.Game: it meters real frame time into the
// performance monitor, polls input, and forwards window resizes. Tests drive
// the Director directly with synthetic deltas; Show exists for the windowed
// build.
type Show struct {
	ctx      *Context
	director *Director
	hud      *perfHUD
	capture  capturer

	hudVisible bool
	lastTick   time.Time
	w, h       int
	touchBuf   []ebiten.TouchID
}

// NewShow builds a context and director for cfg.
func NewShow(cfg *Config) *Show {
	ctx := NewContext(cfg)
	s := &Show{
		ctx:      ctx,
		director: NewDirector(ctx),
		hud:      newPerfHUD(),
		capture:  capturer{dir: cfg.ScreenshotDir},
	}
	// Tier changes reallocate the fluid's buffers at the new resolutions.
	ctx.Perf.OnChange = func(Tier) {
		if s.director.fluid != nil {
			s.director.fluid.Resize()
		}
	}
	return s
}

// Update implements ebiten.Game. The piece is driven by measured wall-clock
// deltas rather than the fixed tick, so animation speed survives dropped
// frames.
func (s *Show) Update() error {
	now := time.Now()
	dt := 1.0 / 60
	if !s.lastTick.IsZero() {
		dt = now.Sub(s.lastTick).Seconds()
	}
	s.lastTick = now
	if dt > 0.25 {
		// The window sat in the background; do not replay the whole gap.
		dt = 0.25
	}

	s.ctx.Perf.SetHidden(ebiten.IsWindowMinimized())
	s.ctx.Perf.AddSample(dt)

	d := s.director
	d.Run()

	cfg := s.ctx.Cfg
	if inpututil.IsKeyJustPressed(cfg.SkipKey) {
		d.Skip()
	}
	if inpututil.IsKeyJustPressed(cfg.HUDKey) {
		s.hudVisible = !s.hudVisible
	}
	if inpututil.IsKeyJustPressed(cfg.CaptureKey) {
		s.capture.Request(d.Scene().String())
	}

	d.Pointers().Update()
	if x, y, ok := s.justPressed(); ok {
		d.HandlePress(x, y)
	}

	d.Update(dt)
	if s.hudVisible {
		s.hud.Update(dt, d)
	}
	return nil
}

// Skip jumps the piece to its terminal fluid scene.
func (s *Show) Skip() {
	s.director.Skip()
}

// justPressed reports a fresh press this tick in screen pixels, from the
// mouse or the first new touch.
func (s *Show) justPressed() (x, y float64, ok bool) {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		return float64(mx), float64(my), true
	}
	s.touchBuf = inpututil.AppendJustPressedTouchIDs(s.touchBuf[:0])
	for _, id := range s.touchBuf {
		tx, ty := ebiten.TouchPosition(id)
		return float64(tx), float64(ty), true
	}
	return 0, 0, false
}

// Draw implements ebiten.Game.
func (s *Show) Draw(screen *ebiten.Image) {
	s.director.Draw(screen)
	if s.hudVisible {
		s.hud.Draw(screen)
	}
	s.capture.Flush(screen)
}

// Layout implements ebiten.Game and feeds size changes to the director.
func (s *Show) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != s.w || outsideHeight != s.h {
		s.w, s.h = outsideWidth, outsideHeight
		s.director.Resize(float64(outsideWidth), float64(outsideHeight))
	}
	return outsideWidth, outsideHeight
}

// RunConfig configures the window Run opens.
type RunConfig struct {
	Title         string
	Width, Height int
	// ShowHUD opens with the perf overlay visible.
	ShowHUD bool
}

// Run opens a resizable window and plays the piece until it closes.
func Run(cfg *Config, rc RunConfig) error {
	if rc.Width <= 0 {
		rc.Width = 1280
	}
	if rc.Height <= 0 {
		rc.Height = 720
	}
	if rc.Title == "" {
		rc.Title = "marionette"
	}
	ebiten.SetWindowSize(rc.Width, rc.Height)
	ebiten.SetWindowTitle(rc.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	show := NewShow(cfg)
	show.hudVisible = rc.ShowHUD
	return ebiten.RunGame(show)
}
