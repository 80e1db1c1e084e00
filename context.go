package marionette

import (
	"log"
	"math/rand/v2"

	"github.com/aquilax/go-perlin"
	cp "github.com/jakecoffman/cp/v2"
)

// Collision categories partition the physics world. Strings never collide
// with strings, and sparks never collide with strings.
const (
	CategoryString uint = 1 << iota
	CategoryText
	CategoryGround
	CategorySpark
)

// filterString collides with text and ground only.
var filterString = cp.ShapeFilter{
	Categories: CategoryString,
	Mask:       CategoryText | CategoryGround,
}

// filterText collides with everything except nothing in particular; its own
// strings are excluded per-entity via a shared group.
var filterText = cp.ShapeFilter{
	Categories: CategoryText,
	Mask:       CategoryText | CategoryString | CategoryGround | CategorySpark,
}

// filterSpark collides with ground, text, and other sparks.
var filterSpark = cp.ShapeFilter{
	Categories: CategorySpark,
	Mask:       CategoryGround | CategoryText | CategorySpark,
}

// filterGround collides with everything while enabled.
var filterGround = cp.ShapeFilter{
	Categories: CategoryGround,
	Mask:       CategoryString | CategoryText | CategorySpark,
}

// Context carries the shared state every component receives at construction:
// the physics space, configuration, random source, noise field, performance
// monitor, and asset loader. It replaces module-level singletons so tests
// can build isolated worlds.
type Context struct {
	Cfg    *Config
	Space  *cp.Space
	Rand   *rand.Rand
	Noise  *perlin.Perlin
	Perf   *PerfMonitor
	Loader *Loader

	viewW, viewH float64
	now          float64
	nextGroup    uint
}

// NewContext builds a Context with a fresh physics space seeded from cfg.
func NewContext(cfg *Config) *Context {
	space := cp.NewSpace()
	space.Iterations = 12
	space.SetGravity(cp.Vector{X: cfg.Physics.Gravity.X, Y: cfg.Physics.Gravity.Y})
	space.SetDamping(0.99)

	seed := rand.Uint64()
	return &Context{
		Cfg:       cfg,
		Space:     space,
		Rand:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		Noise:     perlin.NewPerlin(2, 2, 3, int64(seed)),
		Perf:      NewPerfMonitor(cfg.Perf),
		Loader:    NewLoader(),
		nextGroup: 1,
	}
}

// SetViewport records the logical viewport size in pixels.
func (ctx *Context) SetViewport(w, h float64) {
	ctx.viewW, ctx.viewH = w, h
}

// Viewport returns the logical viewport size in pixels.
func (ctx *Context) Viewport() Vec2 {
	return Vec2{ctx.viewW, ctx.viewH}
}

// Now returns seconds since the context started advancing.
func (ctx *Context) Now() float64 {
	return ctx.now
}

// advance moves the context clock forward.
func (ctx *Context) advance(dt float64) {
	ctx.now += dt
}

// NextGroup allocates a collision group so an entity's own parts never
// collide with each other.
func (ctx *Context) NextGroup() uint {
	g := ctx.nextGroup
	ctx.nextGroup++
	return g
}

// TierSettings returns the quality knobs for the current effective tier.
func (ctx *Context) TierSettings() TierSettings {
	return ctx.Cfg.TierSettings(ctx.Perf.Tier())
}

// safeRemoveConstraint removes a constraint if the space still holds it.
// Double removal during overlapping cleanup passes is expected; it is
// logged and never propagated.
func (ctx *Context) safeRemoveConstraint(c *cp.Constraint) {
	if c == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[marionette] remove constraint skipped: %v", r)
		}
	}()
	if !ctx.Space.ContainsConstraint(c) {
		return
	}
	ctx.Space.RemoveConstraint(c)
}

// safeRemoveShape removes a shape if the space still holds it.
func (ctx *Context) safeRemoveShape(s *cp.Shape) {
	if s == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[marionette] remove shape skipped: %v", r)
		}
	}()
	if !ctx.Space.ContainsShape(s) {
		return
	}
	ctx.Space.RemoveShape(s)
}

// safeRemoveBody removes a body if the space still holds it. Shapes and
// constraints attached to the body must be removed first.
func (ctx *Context) safeRemoveBody(b *cp.Body) {
	if b == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[marionette] remove body skipped: %v", r)
		}
	}()
	if !ctx.Space.ContainsBody(b) {
		return
	}
	ctx.Space.RemoveBody(b)
}

// BodyCount returns the number of bodies currently in the space, counting
// dynamic and static bodies alike.
func (ctx *Context) BodyCount() int {
	n := 0
	ctx.Space.EachBody(func(*cp.Body) { n++ })
	return n
}

// ConstraintCount returns the number of constraints currently in the space.
func (ctx *Context) ConstraintCount() int {
	n := 0
	ctx.Space.EachConstraint(func(*cp.Constraint) { n++ })
	return n
}
