package marionette

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	cp "github.com/jakecoffman/cp/v2"
)

// spark holds one transient circular body. Unexported; managed by SparkPool.
type spark struct {
	body     *cp.Body
	shape    *cp.Shape
	born     float64
	lifetime float64
	radius   float64
	clr      Color
}

// SparkPool spawns, ages, culls, and renders the burst bodies a falling
// phrase emits. Sparks live in the shared space; the pool reaps them when
// their lifetime ends or they sink far below the viewport.
type SparkPool struct {
	ctx    *Context
	sparks []spark
	alive  int
	glow   *ebiten.Image
}

// NewSparkPool preallocates the pool and resolves the glow sprite.
func NewSparkPool(ctx *Context) (*SparkPool, error) {
	max := ctx.Cfg.Sparks.MaxSparks
	if max <= 0 {
		max = 256
	}
	glow, err := ctx.Loader.GlowSprite(64)
	if err != nil {
		return nil, err
	}
	return &SparkPool{
		ctx:    ctx,
		sparks: make([]spark, max),
		glow:   glow,
	}, nil
}

// AliveCount returns the number of live sparks.
func (sp *SparkPool) AliveCount() int {
	return sp.alive
}

// Burst spawns a radial spray of sparks at (x, y). Sparks beyond the pool
// size are silently dropped.
func (sp *SparkPool) Burst(x, y float64, clr Color) {
	cfg := sp.ctx.Cfg.Sparks
	n := int(cfg.Count.Random())
	for i := 0; i < n; i++ {
		if sp.alive >= len(sp.sparks) {
			return
		}
		sp.spawn(x, y, clr)
	}
}

func (sp *SparkPool) spawn(x, y float64, clr Color) {
	cfg := sp.ctx.Cfg.Sparks
	radius := cfg.Radius.Random()
	speed := cfg.Speed.Random()
	// Bias the spray upward; gravity brings it back down through the text.
	angle := sp.ctx.Rand.Float64()*math.Pi*2*0.6 + math.Pi*1.2

	mass := 0.02
	body := cp.NewBody(mass, cp.MomentForCircle(mass, 0, radius, cp.Vector{}))
	body.SetPosition(cp.Vector{X: x, Y: y})
	body.SetVelocity(math.Cos(angle)*speed, math.Sin(angle)*speed)
	sp.ctx.Space.AddBody(body)

	shape := cp.NewCircle(body, radius, cp.Vector{})
	shape.SetFriction(0.2)
	shape.SetElasticity(0.6)
	shape.SetFilter(filterSpark)
	sp.ctx.Space.AddShape(shape)

	s := &sp.sparks[sp.alive]
	s.body = body
	s.shape = shape
	s.born = sp.ctx.Now()
	s.lifetime = cfg.Lifetime.Random()
	s.radius = radius
	s.clr = clr
	sp.alive++
}

// Update reaps expired and sunken sparks, swap-removing dead slots.
func (sp *SparkPool) Update() {
	now := sp.ctx.Now()
	cull := sp.ctx.Viewport().Y + sp.ctx.Cfg.Sparks.CullMargin

	i := 0
	for i < sp.alive {
		s := &sp.sparks[i]
		if now-s.born > s.lifetime || s.body.Position().Y > cull {
			sp.remove(i)
			continue
		}
		i++
	}
}

// remove frees slot i's physics objects and swaps the last live spark in.
func (sp *SparkPool) remove(i int) {
	s := &sp.sparks[i]
	sp.ctx.safeRemoveShape(s.shape)
	sp.ctx.safeRemoveBody(s.body)
	sp.alive--
	sp.sparks[i] = sp.sparks[sp.alive]
	sp.sparks[sp.alive] = spark{}
}

// Clear reaps every live spark immediately. Safe to call repeatedly.
func (sp *SparkPool) Clear() {
	for sp.alive > 0 {
		sp.remove(sp.alive - 1)
	}
}

// Draw renders each spark as an additive glow fading over its lifetime.
func (sp *SparkPool) Draw(screen *ebiten.Image) {
	if sp.alive == 0 {
		return
	}
	now := sp.ctx.Now()
	gb := sp.glow.Bounds()
	gw := float64(gb.Dx())

	for i := 0; i < sp.alive; i++ {
		s := &sp.sparks[i]
		t := (now - s.born) / s.lifetime
		alpha := (1 - clamp(t, 0, 1)) * s.clr.A
		pos := s.body.Position()
		size := s.radius * 6

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(-gw/2, -gw/2)
		op.GeoM.Scale(size/gw, size/gw)
		op.GeoM.Translate(pos.X, pos.Y)
		op.Blend = BlendAdd.EbitenBlend()
		op.ColorScale.ScaleWithColor(s.clr.WithAlpha(alpha).toRGBA())
		screen.DrawImage(sp.glow, op)
	}
}
