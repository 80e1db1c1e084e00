package marionette

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// FluidPointer is one input source feeding the fluid solver. Coordinates are
// texture space ([0,1] with the origin at the top-left). A pointer carries
// splat obligations rather than raw events: a move while down obliges one
// splat along the accumulated delta, a press obliges one splat even if the
// pointer never moves, so a tap always perturbs the fluid.
type FluidPointer struct {
	// ID is -1 for the synthetic mouse pointer, touch identifier + 1 for
	// touches.
	ID int

	X, Y         float64
	PrevX, PrevY float64
	Down         bool
	Color        colorful.Color

	moved   bool
	pending bool
}

func (pt *FluidPointer) press(x, y float64, c colorful.Color) {
	pt.Down = true
	pt.pending = true
	pt.moved = false
	pt.X, pt.Y = x, y
	pt.PrevX, pt.PrevY = x, y
	pt.Color = c
}

func (pt *FluidPointer) move(x, y float64) {
	if !pt.Down {
		return
	}
	pt.X, pt.Y = x, y
	if pt.X != pt.PrevX || pt.Y != pt.PrevY {
		pt.moved = true
	}
}

func (pt *FluidPointer) release() {
	// Obligations survive the release so a final move or a bare tap still
	// lands on the next simulation step.
	pt.Down = false
}

// TakeSplat consumes the pointer's splat obligation for this simulation
// step. It returns the texture-space delta to inject and whether a splat is
// due at all. At most one obligation is consumed per call.
func (pt *FluidPointer) TakeSplat() (dx, dy float64, ok bool) {
	if pt.moved {
		dx = pt.X - pt.PrevX
		dy = pt.Y - pt.PrevY
		pt.PrevX, pt.PrevY = pt.X, pt.Y
		pt.moved = false
		pt.pending = false
		return dx, dy, true
	}
	if pt.pending {
		pt.pending = false
		return 0, 0, true
	}
	return 0, 0, false
}

// idle reports whether the pointer holds no state worth keeping.
func (pt *FluidPointer) idle() bool {
	return !pt.Down && !pt.moved && !pt.pending
}

// Pointers tracks the mouse and all touches as FluidPointer records. Index
// 0 is always the synthetic mouse pointer (ID -1), reused across presses;
// touch records are created on demand and pruned once idle.
type Pointers struct {
	ctx  *Context
	list []*FluidPointer

	touchBuf  []ebiten.TouchID
	prevTouch []ebiten.TouchID

	cursor Vec2
}

// NewPointers creates the table with the synthetic mouse pointer in place.
func NewPointers(ctx *Context) *Pointers {
	return &Pointers{
		ctx:  ctx,
		list: []*FluidPointer{{ID: -1}},
	}
}

// List returns the live pointer records. Index 0 is the synthetic pointer.
func (p *Pointers) List() []*FluidPointer {
	return p.list
}

// Primary returns the synthetic mouse pointer.
func (p *Pointers) Primary() *FluidPointer {
	return p.list[0]
}

// Cursor returns the last known cursor position in screen pixels, from the
// mouse or the first active touch.
func (p *Pointers) Cursor() Vec2 {
	return p.cursor
}

// Update polls the mouse and touches and advances every record's state.
func (p *Pointers) Update() {
	vp := p.ctx.Viewport()
	if vp.X <= 0 || vp.Y <= 0 {
		return
	}

	mx, my := ebiten.CursorPosition()
	p.cursor = Vec2{float64(mx), float64(my)}
	tx := float64(mx) / vp.X
	ty := float64(my) / vp.Y

	primary := p.list[0]
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		primary.press(tx, ty, p.splatColor())
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		primary.move(tx, ty)
		primary.release()
	default:
		primary.move(tx, ty)
	}

	p.touchBuf = ebiten.AppendTouchIDs(p.touchBuf[:0])
	for _, id := range p.touchBuf {
		x, y := ebiten.TouchPosition(id)
		ttx := float64(x) / vp.X
		tty := float64(y) / vp.Y
		pt := p.byID(int(id) + 1)
		if pt == nil {
			pt = &FluidPointer{ID: int(id) + 1}
			p.list = append(p.list, pt)
			pt.press(ttx, tty, p.splatColor())
			p.cursor = Vec2{float64(x), float64(y)}
		} else {
			pt.move(ttx, tty)
		}
	}
	for _, id := range p.prevTouch {
		if !containsTouch(p.touchBuf, id) {
			if pt := p.byID(int(id) + 1); pt != nil {
				pt.release()
			}
		}
	}
	p.prevTouch = append(p.prevTouch[:0], p.touchBuf...)

	p.prune()
}

// InjectDown simulates a press at texture coordinates. ID -1 addresses the
// synthetic pointer. Used by scripted runs and tests.
func (p *Pointers) InjectDown(id int, x, y float64) {
	pt := p.byID(id)
	if pt == nil {
		pt = &FluidPointer{ID: id}
		p.list = append(p.list, pt)
	}
	pt.press(x, y, p.splatColor())
}

// InjectMove simulates pointer movement at texture coordinates.
func (p *Pointers) InjectMove(id int, x, y float64) {
	if pt := p.byID(id); pt != nil {
		pt.move(x, y)
	}
}

// InjectUp simulates a release.
func (p *Pointers) InjectUp(id int) {
	if pt := p.byID(id); pt != nil {
		pt.release()
	}
}

func (p *Pointers) byID(id int) *FluidPointer {
	for _, pt := range p.list {
		if pt.ID == id {
			return pt
		}
	}
	return nil
}

// prune drops idle touch records. The synthetic pointer always stays.
func (p *Pointers) prune() {
	kept := p.list[:1]
	for _, pt := range p.list[1:] {
		if !pt.idle() {
			kept = append(kept, pt)
		}
	}
	p.list = kept
}

// splatColor picks a dim organic color for a new press.
func (p *Pointers) splatColor() colorful.Color {
	c := p.ctx.Cfg.OrganicPalette.Sample(p.ctx.Rand.Float64())
	return colorful.Color{R: c.R * 0.15, G: c.G * 0.15, B: c.B * 0.15}
}

func containsTouch(ids []ebiten.TouchID, id ebiten.TouchID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
