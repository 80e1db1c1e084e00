package marionette

import (
	cp "github.com/jakecoffman/cp/v2"
)

// GroundManager owns the static floor and side walls. Collision is toggled
// by mutating the shapes' filter mask at runtime, so bodies already resting
// on the floor fall through the moment it is disabled.
type GroundManager struct {
	ctx     *Context
	body    *cp.Body
	shapes  []*cp.Shape
	enabled bool
}

// NewGroundManager builds the slabs for the current viewport, enabled.
func NewGroundManager(ctx *Context) *GroundManager {
	g := &GroundManager{ctx: ctx, enabled: true}
	g.Rebuild()
	return g
}

// Rebuild recreates the slabs for the current viewport, preserving the
// enabled state.
func (g *GroundManager) Rebuild() {
	g.removeAll()

	vp := g.ctx.Viewport()
	thick := g.ctx.Cfg.Physics.GroundThickness

	g.body = cp.NewStaticBody()
	g.ctx.Space.AddBody(g.body)

	floor := cp.NewBox2(g.body, cp.BB{
		L: -thick, B: vp.Y, R: vp.X + thick, T: vp.Y + thick,
	}, 0)
	left := cp.NewBox2(g.body, cp.BB{
		L: -thick, B: -vp.Y, R: 0, T: vp.Y,
	}, 0)
	right := cp.NewBox2(g.body, cp.BB{
		L: vp.X, B: -vp.Y, R: vp.X + thick, T: vp.Y,
	}, 0)

	for _, s := range []*cp.Shape{floor, left, right} {
		s.SetFriction(0.8)
		s.SetElasticity(0.2)
		g.ctx.Space.AddShape(s)
		g.shapes = append(g.shapes, s)
	}
	g.applyFilter()
}

// SetEnabled toggles collision with the slabs by swapping their masks.
func (g *GroundManager) SetEnabled(enabled bool) {
	if g.enabled == enabled {
		return
	}
	g.enabled = enabled
	g.applyFilter()
}

// Enabled reports whether the slabs currently collide.
func (g *GroundManager) Enabled() bool {
	return g.enabled
}

func (g *GroundManager) applyFilter() {
	filter := filterGround
	if !g.enabled {
		filter.Mask = 0
	}
	for _, s := range g.shapes {
		s.SetFilter(filter)
	}
}

// Destroy removes the slabs and their body from the space. Safe to call
// more than once.
func (g *GroundManager) Destroy() {
	g.removeAll()
}

func (g *GroundManager) removeAll() {
	for _, s := range g.shapes {
		g.ctx.safeRemoveShape(s)
	}
	g.shapes = g.shapes[:0]
	if g.body != nil {
		g.ctx.safeRemoveBody(g.body)
		g.body = nil
	}
}
