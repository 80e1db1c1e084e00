package marionette

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	cp "github.com/jakecoffman/cp/v2"
)

// FallMode selects what a fall releases.
type FallMode uint8

const (
	// FallNormal releases the ceiling anchors: strings and body drop
	// together.
	FallNormal FallMode = iota
	// FallDetach releases the body from its strings: the body drops alone
	// and the strings stay hanging.
	FallDetach
)

const textPadding = 14

// HangingText is one phrase suspended from the ceiling: a box body, two
// string chains, two static anchors, and exactly four boundary constraints
// while intact (anchor to string head on each side, string tail to body on
// each side). Falling removes one pair; which pair depends on the mode.
type HangingText struct {
	ctx    *Context
	cfg    PhraseConfig
	colors TextColors
	group  uint

	body    *cp.Body
	shape   *cp.Shape
	anchors [2]*cp.Body
	chains  [2]*StringChain
	// boundary holds the tracked constraints: [0] and [1] are the
	// anchor-side pair, [2] and [3] the body-side pair. Removed entries are
	// nilled.
	boundary [4]*cp.Constraint

	face       *text.GoTextFace
	glow       *ebiten.Image
	w, h       float64
	restX      float64
	restY      float64
	bodyGone   bool
	falling    bool
	detached   bool
	destroyed  bool

	// OnFall fires once, on the first fall.
	OnFall func(ht *HangingText, mode FallMode)
}

// NewHangingText measures the phrase, builds its physics assembly at the
// responsive rest position, and adds everything to the space.
func NewHangingText(ctx *Context, cfg PhraseConfig, colors TextColors) (*HangingText, error) {
	ht := &HangingText{
		ctx:    ctx,
		cfg:    cfg,
		colors: colors,
		group:  ctx.NextGroup(),
	}
	if err := ht.build(); err != nil {
		return nil, err
	}
	return ht, nil
}

func (ht *HangingText) build() error {
	ctx := ht.ctx
	vp := ctx.Viewport()
	phys := ctx.Cfg.Physics

	face, err := ctx.Loader.FontFace("bold", FontScale(vp.X))
	if err != nil {
		return fmt.Errorf("hanging text %q: %w", ht.cfg.Text, err)
	}
	ht.face = face
	glow, err := ctx.Loader.GlowSprite(256)
	if err != nil {
		return fmt.Errorf("hanging text %q: %w", ht.cfg.Text, err)
	}
	ht.glow = glow

	tw, th := text.Measure(ht.cfg.Text, face, 0)
	ht.w = tw + textPadding*2
	ht.h = th + textPadding

	x := ht.cfg.X.Evaluate(DefaultPhraseX(vp.X))
	y := ht.cfg.Y.Evaluate(DefaultPhraseY(vp.Y))
	ht.restX, ht.restY = x, y

	startY := StartY(vp.Y, phys.StartYFrac)
	segs := StringSegments(y, startY, phys.SegmentLength)
	spread := AnchorSpread(ht.w, phys.AnchorSpreadFrac)

	// Body.
	mass := ht.w * ht.h * phys.TextDensity
	ht.body = cp.NewBody(mass, cp.MomentForBox(mass, ht.w, ht.h))
	ht.body.SetPosition(cp.Vector{X: x, Y: y})
	ctx.Space.AddBody(ht.body)

	ht.shape = cp.NewBox(ht.body, ht.w, ht.h, 2)
	ht.shape.SetFriction(0.6)
	ht.shape.SetElasticity(0.15)
	filter := filterText
	filter.Group = ht.group
	ht.shape.SetFilter(filter)
	ctx.Space.AddShape(ht.shape)

	// Anchors and chains, left then right.
	sides := [2]float64{-1, 1}
	for i, side := range sides {
		ax := x + side*spread
		anchor := cp.NewStaticBody()
		anchor.SetPosition(cp.Vector{X: ax, Y: startY})
		ctx.Space.AddBody(anchor)
		ht.anchors[i] = anchor

		chain := newStringChain(ctx, Vec2{ax, startY}, segs, ht.group)
		ht.chains[i] = chain

		top := cp.NewDampedSpring(
			anchor, chain.Head(),
			cp.Vector{}, chain.TopAnchor(),
			0, phys.StringStiffness, phys.StringDamping,
		)
		ctx.Space.AddConstraint(top)
		ht.boundary[i] = top

		bottom := cp.NewDampedSpring(
			chain.Tail(), ht.body,
			chain.BottomAnchor(), cp.Vector{X: side * ht.w * 0.3, Y: -ht.h / 2},
			0, phys.StringStiffness, phys.StringDamping,
		)
		ctx.Space.AddConstraint(bottom)
		ht.boundary[2+i] = bottom
	}
	return nil
}

// Text returns the phrase.
func (ht *HangingText) Text() string {
	return ht.cfg.Text
}

// Falling reports whether a fall already happened.
func (ht *HangingText) Falling() bool {
	return ht.falling
}

// Detached reports whether the fall was a detach fall.
func (ht *HangingText) Detached() bool {
	return ht.detached
}

// BoundaryConstraints returns how many of the four tracked constraints are
// still live.
func (ht *HangingText) BoundaryConstraints() int {
	n := 0
	for _, c := range ht.boundary {
		if c != nil {
			n++
		}
	}
	return n
}

// SetColors replaces the render color set.
func (ht *HangingText) SetColors(colors TextColors) {
	ht.colors = colors
}

// Colors returns the current render color set.
func (ht *HangingText) Colors() TextColors {
	return ht.colors
}

// Contains reports whether the screen point lies on the text body, in the
// body's rotated frame.
func (ht *HangingText) Contains(x, y float64) bool {
	if ht.destroyed || ht.bodyGone {
		return false
	}
	local := ht.body.WorldToLocal(cp.Vector{X: x, Y: y})
	return local.X >= -ht.w/2 && local.X <= ht.w/2 &&
		local.Y >= -ht.h/2 && local.Y <= ht.h/2
}

// Fall releases the phrase. A second call is a no-op: the entity can only
// fall once.
func (ht *HangingText) Fall(mode FallMode) {
	if ht.falling || ht.destroyed {
		return
	}
	ht.falling = true

	if mode == FallDetach {
		ht.detached = true
		ht.removeBoundary(2)
		ht.removeBoundary(3)
	} else {
		ht.removeBoundary(0)
		ht.removeBoundary(1)
	}

	// A touch of spin reads better than a straight drop.
	ht.body.SetAngularVelocity((ht.ctx.Rand.Float64() - 0.5) * 3)

	if ht.OnFall != nil {
		ht.OnFall(ht, mode)
	}
}

func (ht *HangingText) removeBoundary(i int) {
	ht.ctx.safeRemoveConstraint(ht.boundary[i])
	ht.boundary[i] = nil
}

// BodyPosition returns the body's current position, or the rest position
// once the body has been reaped.
func (ht *HangingText) BodyPosition() Vec2 {
	if ht.bodyGone {
		return Vec2{ht.restX, ht.restY}
	}
	p := ht.body.Position()
	return Vec2{p.X, p.Y}
}

// OffBottom reports whether everything that can still fall has left the
// viewport. Detached strings stay hanging and do not count against it.
func (ht *HangingText) OffBottom(viewH, margin float64) bool {
	if ht.destroyed {
		return false
	}
	limit := viewH + margin
	if !ht.bodyGone && ht.body.Position().Y-ht.h <= limit {
		return false
	}
	if !ht.detached {
		for _, chain := range ht.chains {
			if chain.HighestY() <= limit {
				return false
			}
		}
	}
	return true
}

// ReapBody removes just the body and its shape, used when a detached body
// sinks out of view while its strings stay hanging.
func (ht *HangingText) ReapBody() {
	if ht.bodyGone || ht.destroyed {
		return
	}
	ht.bodyGone = true
	ht.removeBoundary(2)
	ht.removeBoundary(3)
	ht.ctx.safeRemoveShape(ht.shape)
	ht.ctx.safeRemoveBody(ht.body)
}

// Destroy removes the whole assembly from the space. Safe to call more
// than once; overlapping cleanup passes log and continue.
func (ht *HangingText) Destroy() {
	if ht.destroyed {
		return
	}
	ht.destroyed = true
	for i := range ht.boundary {
		ht.removeBoundary(i)
	}
	for _, chain := range ht.chains {
		if chain != nil {
			chain.Destroy()
		}
	}
	if !ht.bodyGone {
		ht.ctx.safeRemoveShape(ht.shape)
		ht.ctx.safeRemoveBody(ht.body)
		ht.bodyGone = true
	}
	for _, anchor := range ht.anchors {
		ht.ctx.safeRemoveBody(anchor)
	}
}

// Recreate rebuilds the assembly from its config at the current viewport,
// used after a resize. The fall state resets.
func (ht *HangingText) Recreate() error {
	ht.Destroy()
	ht.destroyed = false
	ht.bodyGone = false
	ht.falling = false
	ht.detached = false
	return ht.build()
}

// Draw renders the chains, the glow, and the phrase with its stroke.
func (ht *HangingText) Draw(screen *ebiten.Image) {
	if ht.destroyed {
		return
	}
	for _, chain := range ht.chains {
		chain.Draw(screen, ht.colors.String)
	}
	if ht.bodyGone {
		return
	}

	pos := ht.body.Position()
	angle := ht.body.Angle()

	// Glow behind the phrase.
	gb := ht.glow.Bounds()
	gw, gh := float64(gb.Dx()), float64(gb.Dy())
	gop := &ebiten.DrawImageOptions{}
	gop.GeoM.Translate(-gw/2, -gh/2)
	gop.GeoM.Scale(ht.w*2.2/gw, ht.h*3.2/gh)
	gop.GeoM.Rotate(angle)
	gop.GeoM.Translate(pos.X, pos.Y)
	gop.Blend = BlendAdd.EbitenBlend()
	gop.ColorScale.ScaleWithColor(ht.colors.Glow.WithAlpha(ht.colors.Glow.A * 0.35).toRGBA())
	screen.DrawImage(ht.glow, gop)

	// Stroke as four offset passes under the fill.
	tw, th := text.Measure(ht.cfg.Text, ht.face, 0)
	offsets := [4]Vec2{{-1.5, 0}, {1.5, 0}, {0, -1.5}, {0, 1.5}}
	for _, off := range offsets {
		op := &text.DrawOptions{}
		op.GeoM.Translate(-tw/2+off.X, -th/2+off.Y)
		op.GeoM.Rotate(angle)
		op.GeoM.Translate(pos.X, pos.Y)
		op.ColorScale.ScaleWithColor(ht.colors.Stroke.toRGBA())
		text.Draw(screen, ht.cfg.Text, ht.face, op)
	}

	op := &text.DrawOptions{}
	op.GeoM.Translate(-tw/2, -th/2)
	op.GeoM.Rotate(angle)
	op.GeoM.Translate(pos.X, pos.Y)
	op.ColorScale.ScaleWithColor(ht.colors.Fill.toRGBA())
	text.Draw(screen, ht.cfg.Text, ht.face, op)
}
