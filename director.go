package marionette

import (
	"fmt"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// SceneState names the stage the piece is currently playing.
type SceneState uint8

const (
	SceneBoot SceneState = iota
	ScenePhrase
	SceneColorChange
	SceneTunnel
	SceneFluid
)

func (s SceneState) String() string {
	switch s {
	case SceneBoot:
		return "boot"
	case ScenePhrase:
		return "phrase"
	case SceneColorChange:
		return "color-change"
	case SceneTunnel:
		return "tunnel"
	case SceneFluid:
		return "fluid"
	}
	return "unknown"
}

// Director runs the whole sequence: the hanging phrases, the palette flip,
// the tunnel, and finally the fluid with its brain. It owns every stage
// entity and is the only component that creates or destroys them. A skip
// request can arrive at any instant; pending transitions re-check the skip
// flag at fire time, so the director never has to chase callbacks that are
// already in flight.
type Director struct {
	ctx      *Context
	sched    *Scheduler
	pointers *Pointers

	scene    SceneState
	started  bool
	skipping bool
	inFlight bool

	flipped     bool
	bg          Color
	bgFrom      Color
	bgTo        Color
	bgFade      *gween.Tween
	clickableAt float64

	texts     []*HangingText
	phraseIdx int
	ground    *GroundManager
	sparks    *SparkPool
	backdrop  *Backdrop

	tunnel *Tunnel
	fluid  *Fluid
	brain  *Brain

	pressQueued bool
	pressAt     Vec2
}

// NewDirector wires a director to ctx. Nothing runs until Run.
func NewDirector(ctx *Context) *Director {
	d := &Director{
		ctx:    ctx,
		scene:  SceneBoot,
		bg:     ctx.Cfg.Background,
		bgFrom: ctx.Cfg.Background,
		bgTo:   ctx.Cfg.Background,
	}
	d.sched = NewScheduler(func() bool { return !d.skipping })
	d.pointers = NewPointers(ctx)
	return d
}

// Scene returns the stage currently playing.
func (d *Director) Scene() SceneState { return d.scene }

// Pointers returns the input table feeding the piece.
func (d *Director) Pointers() *Pointers { return d.pointers }

// Run starts the sequence. Only the first call does anything.
func (d *Director) Run() {
	if d.started {
		return
	}
	d.started = true
	cfg := d.ctx.Cfg

	d.ground = NewGroundManager(d.ctx)
	if sp, err := NewSparkPool(d.ctx); err != nil {
		log.Printf("[marionette] sparks unavailable: %v", err)
	} else {
		d.sparks = sp
	}
	if b, err := NewBackdrop(d.ctx); err != nil {
		log.Printf("[marionette] backdrop unavailable: %v", err)
	} else {
		d.backdrop = b
	}

	if cfg.StartAtTunnel {
		d.startTunnel()
		return
	}
	d.scene = ScenePhrase
	d.spawnPhrase(0)
}

// HandlePress feeds one press in screen pixels into the piece. It is
// consumed on the next Update.
func (d *Director) HandlePress(x, y float64) {
	d.pressQueued = true
	d.pressAt = Vec2{x, y}
}

// Skip jumps straight to the terminal fluid scene from wherever the piece
// currently is. Pending transitions are cancelled and can no longer fire,
// the stage and any running tunnel are torn down, and a fresh fluid and
// brain come up immediately. Once the piece is already in the fluid scene
// with no tunnel left, Skip does nothing.
func (d *Director) Skip() {
	if d.skipping {
		return
	}
	if d.scene == SceneFluid && d.fluid != nil && d.tunnel == nil {
		return
	}
	d.skipping = true
	if Verbose {
		log.Printf("[marionette] skip from %v", d.scene)
	}

	d.sched.CancelAll()
	if d.tunnel != nil {
		d.tunnel.Destroy()
		d.tunnel = nil
	}
	d.CleanupAll()
	d.startFluidScene()

	d.inFlight = false
	d.skipping = false
}

// CleanupAll tears everything down to a blank stage: phrases, sparks, dust,
// ground, and the fluid and brain if they are up. Safe to call repeatedly
// and mid-transition; the removal helpers swallow double-removes.
func (d *Director) CleanupAll() {
	d.teardownStage()
	if d.tunnel != nil {
		d.tunnel.Destroy()
		d.tunnel = nil
	}
	if d.fluid != nil {
		d.fluid.Destroy()
		d.fluid = nil
	}
	if d.brain != nil {
		d.brain.Destroy()
		d.brain = nil
	}
	d.inFlight = false
	d.flipped = false
	d.bg = d.ctx.Cfg.Background
	d.bgFrom, d.bgTo = d.bg, d.bg
	d.bgFade = nil
	d.scene = SceneBoot
}

// teardownStage destroys the 2D stage only: phrases, spark bodies, the dust
// backdrop, and the ground slabs. The tunnel fires this when it reaches its
// active phase and becomes the sole visual.
func (d *Director) teardownStage() {
	for _, ht := range d.texts {
		ht.Destroy()
	}
	d.texts = d.texts[:0]
	if d.sparks != nil {
		d.sparks.Clear()
	}
	if d.backdrop != nil {
		d.backdrop.Destroy()
		d.backdrop = nil
	}
	if d.ground != nil {
		d.ground.Destroy()
		d.ground = nil
	}
}

// beginTransition marks a logical transition in flight. It refuses when a
// skip is running or another transition has not finished.
func (d *Director) beginTransition() bool {
	if d.skipping || d.inFlight {
		return false
	}
	d.inFlight = true
	return true
}

func (d *Director) endTransition() { d.inFlight = false }

func (d *Director) textColors() TextColors {
	if d.flipped {
		return d.ctx.Cfg.Mono
	}
	return d.ctx.Cfg.Gold
}

func (d *Director) spawnPhrase(i int) {
	cfg := d.ctx.Cfg
	if i < 0 || i >= len(cfg.Phrases) {
		return
	}
	d.phraseIdx = i
	ht, err := NewHangingText(d.ctx, cfg.Phrases[i], d.textColors())
	if err != nil {
		log.Printf("[marionette] phrase %q failed: %v", cfg.Phrases[i].Text, err)
		return
	}
	ht.OnFall = d.onTextFall
	d.texts = append(d.texts, ht)

	d.clickableAt = 0
	if i == 0 {
		d.clickableAt = d.ctx.Now() + cfg.Timing.HelloHold
	}
	if Verbose {
		log.Printf("[marionette] phrase %d up: %q", i, cfg.Phrases[i].Text)
	}
}

// onTextFall is every phrase's fall callback: burst sparks where the body
// was, then line up the next beat of the sequence.
func (d *Director) onTextFall(ht *HangingText, mode FallMode) {
	if d.sparks != nil {
		pos := ht.BodyPosition()
		d.sparks.Burst(pos.X, pos.Y, ht.Colors().Spark)
	}
	t := d.ctx.Cfg.Timing
	if d.phraseIdx+1 < len(d.ctx.Cfg.Phrases) {
		next := d.phraseIdx + 1
		d.sched.After(t.NextPhraseDelay, func() { d.spawnPhrase(next) }, nil)
		return
	}
	d.sched.After(t.ColorChangeDelay, d.triggerColorChange, nil)
}

// triggerColorChange flips the stage from gold-on-dark to black-on-white in
// one step, lets everything resting on the floor drop away, and lines up
// the tunnel.
func (d *Director) triggerColorChange() {
	cfg := d.ctx.Cfg
	d.scene = SceneColorChange
	d.flipped = true
	for _, ht := range d.texts {
		ht.SetColors(cfg.Mono)
	}
	d.bgFrom = d.bg
	d.bgTo = cfg.BackgroundFlipped
	d.bgFade = gween.New(0, 1, float32(cfg.Timing.ColorFade), ease.InOutQuad)
	if d.ground != nil {
		d.ground.SetEnabled(false)
	}
	if Verbose {
		log.Printf("[marionette] colors flipped")
	}

	d.sched.After(cfg.Timing.TunnelDelay, d.startTunnel, nil)
}

func (d *Director) startTunnel() {
	if !d.beginTransition() {
		return
	}
	d.scene = SceneTunnel
	d.bgFrom = d.bg
	d.bgTo = Color{0, 0, 0, 1}
	d.bgFade = gween.New(0, 1, float32(d.ctx.Cfg.Tunnel.FadeIn), ease.InQuad)
	d.tunnel = NewTunnel(d.ctx, TunnelCallbacks{
		OnActive:   d.teardownStage,
		OnFadeOut:  d.beginFluid,
		OnComplete: d.finishTunnel,
	})
}

// beginFluid brings the fluid and brain up underneath the tunnel's fade.
// The tunnel logs any error and keeps fading regardless.
func (d *Director) beginFluid() error {
	if d.fluid == nil {
		d.fluid = NewFluid(d.ctx)
	}
	if d.brain != nil {
		return nil
	}
	br, err := NewBrain(d.ctx)
	if err != nil {
		return fmt.Errorf("brain startup: %w", err)
	}
	d.brain = br
	return nil
}

func (d *Director) finishTunnel() {
	d.scene = SceneFluid
	d.endTransition()
}

// startFluidScene is the skip landing: whatever is missing comes up fresh.
func (d *Director) startFluidScene() {
	if d.fluid == nil {
		d.fluid = NewFluid(d.ctx)
	}
	if d.brain == nil {
		br, err := NewBrain(d.ctx)
		if err != nil {
			log.Printf("[marionette] brain unavailable: %v", err)
		} else {
			d.brain = br
		}
	}
	d.bg = Color{0, 0, 0, 1}
	d.bgFrom, d.bgTo = d.bg, d.bg
	d.bgFade = nil
	d.scene = SceneFluid
}

// routePress lets a press release the phrase it lands on. Only one phrase
// accepts clicks at a time; ones already falling are dead to input.
func (d *Director) routePress(p Vec2) {
	if d.scene != ScenePhrase {
		return
	}
	if d.ctx.Now() < d.clickableAt {
		return
	}
	for _, ht := range d.texts {
		if ht.Falling() || !ht.Contains(p.X, p.Y) {
			continue
		}
		mode := FallNormal
		if ht.cfg.Detach {
			mode = FallDetach
		}
		ht.Fall(mode)
		return
	}
}

// reapTexts retires phrases that have left the screen. A detached phrase
// loses only its body; the strings keep hanging until the stage goes down.
func (d *Director) reapTexts() {
	vp := d.ctx.Viewport()
	kept := d.texts[:0]
	for _, ht := range d.texts {
		if ht.Detached() {
			if ht.OffBottom(vp.Y, 120) {
				ht.ReapBody()
			}
			kept = append(kept, ht)
			continue
		}
		if ht.Falling() && ht.OffBottom(vp.Y, 120) {
			ht.Destroy()
			continue
		}
		kept = append(kept, ht)
	}
	d.texts = kept
}

// Update advances the whole piece by dt seconds. Input polling lives in the
// show wrapper; tests drive this directly with synthetic deltas.
func (d *Director) Update(dt float64) {
	if !d.started {
		return
	}
	d.ctx.advance(dt)
	d.sched.Update(dt)

	cursor := d.pointers.Cursor()
	pressed := d.pressQueued
	d.pressQueued = false
	if pressed {
		cursor = d.pressAt
		d.routePress(d.pressAt)
	}

	if d.bgFade != nil {
		v, done := d.bgFade.Update(float32(dt))
		d.bg = lerpColor(d.bgFrom, d.bgTo, float64(v))
		if done {
			d.bgFade = nil
		}
	}

	if len(d.texts) > 0 || (d.sparks != nil && d.sparks.AliveCount() > 0) {
		d.ctx.Space.Step(math.Min(dt, 1.0/30))
		d.reapTexts()
	}
	if d.sparks != nil {
		d.sparks.Update()
	}
	if d.backdrop != nil {
		d.backdrop.Update(dt)
	}

	if d.tunnel != nil {
		d.tunnel.Update(dt, cursor)
		if d.tunnel.Phase() == TunnelComplete &&
			(d.fluid == nil || d.fluid.Reveal() >= d.ctx.Cfg.Fluid.HandoffReveal) {
			d.tunnel.Destroy()
			d.tunnel = nil
		}
	}
	if d.fluid != nil {
		emitter := Vec2{0.5, 0.5}
		emitterOn := false
		if d.brain != nil {
			emitter = d.brain.ScreenPos()
			emitterOn = true
		}
		d.fluid.Update(dt, d.pointers, emitter, emitterOn)
	}
	if d.brain != nil {
		d.brain.Update(dt, cursor, pressed)
	}
}

// Draw renders the piece back to front.
func (d *Director) Draw(screen *ebiten.Image) {
	screen.Fill(d.bg.toRGBA())
	if d.backdrop != nil {
		d.backdrop.Draw(screen, d.textColors().Glow)
	}
	for _, ht := range d.texts {
		ht.Draw(screen)
	}
	if d.sparks != nil {
		d.sparks.Draw(screen)
	}
	if d.tunnel != nil {
		d.tunnel.Draw(screen)
	}
	if d.fluid != nil {
		d.fluid.Draw(screen)
	}
	if d.brain != nil {
		d.brain.Draw(screen)
	}
}

// Resize refits every live entity to a new viewport. Phrases that are not
// yet falling rebuild at their responsive rest positions; falling ones keep
// tumbling where they are.
func (d *Director) Resize(w, h float64) {
	d.ctx.SetViewport(w, h)
	if d.ground != nil {
		d.ground.Rebuild()
	}
	if d.backdrop != nil {
		d.backdrop.seed()
	}
	for _, ht := range d.texts {
		if ht.Falling() {
			continue
		}
		if err := ht.Recreate(); err != nil {
			log.Printf("[marionette] phrase rebuild failed: %v", err)
		}
	}
	if d.tunnel != nil {
		d.tunnel.Resize(w, h)
	}
	if d.fluid != nil {
		d.fluid.Resize()
	}
	if d.brain != nil {
		d.brain.Resize(w, h)
	}
}
