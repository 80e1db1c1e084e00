package marionette

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	cp "github.com/jakecoffman/cp/v2"
)

const segmentMass = 0.12

// StringChain is one hanging string: an ordered run of rigid segment bodies
// linked by pivot joints, rendered as a triangle ribbon through the segment
// positions. Boundary constraints (anchor side and body side) belong to the
// owning HangingText, not the chain.
type StringChain struct {
	ctx      *Context
	segLen   float64
	width    float64
	segments []*cp.Body
	shapes   []*cp.Shape
	links    []*cp.Constraint

	points  []Vec2
	verts   []ebiten.Vertex
	indices []uint16

	destroyed bool
}

// newStringChain builds count segments hanging straight down from top and
// adds them to the space. group excludes the chain from colliding with its
// own text body.
func newStringChain(ctx *Context, top Vec2, count int, group uint) *StringChain {
	if count < 1 {
		count = 1
	}
	segLen := ctx.Cfg.Physics.SegmentLength
	radius := ctx.Cfg.Physics.SegmentRadius

	sc := &StringChain{
		ctx:      ctx,
		segLen:   segLen,
		width:    radius * 2,
		segments: make([]*cp.Body, 0, count),
		shapes:   make([]*cp.Shape, 0, count),
		links:    make([]*cp.Constraint, 0, count-1),
	}

	a := cp.Vector{X: 0, Y: -segLen / 2}
	b := cp.Vector{X: 0, Y: segLen / 2}
	filter := filterString
	filter.Group = group

	for i := 0; i < count; i++ {
		body := cp.NewBody(segmentMass, cp.MomentForSegment(segmentMass, a, b, radius))
		body.SetPosition(cp.Vector{X: top.X, Y: top.Y + (float64(i)+0.5)*segLen})
		ctx.Space.AddBody(body)

		shape := cp.NewSegment(body, a, b, radius)
		shape.SetFriction(0.4)
		shape.SetFilter(filter)
		ctx.Space.AddShape(shape)

		sc.segments = append(sc.segments, body)
		sc.shapes = append(sc.shapes, shape)

		if i > 0 {
			pivot := cp.Vector{X: top.X, Y: top.Y + float64(i)*segLen}
			link := cp.NewPivotJoint(sc.segments[i-1], body, pivot)
			ctx.Space.AddConstraint(link)
			sc.links = append(sc.links, link)
		}
	}
	return sc
}

// Head returns the topmost segment body.
func (sc *StringChain) Head() *cp.Body {
	return sc.segments[0]
}

// Tail returns the bottommost segment body.
func (sc *StringChain) Tail() *cp.Body {
	return sc.segments[len(sc.segments)-1]
}

// TopAnchor is the head segment's upper end in body-local coordinates.
func (sc *StringChain) TopAnchor() cp.Vector {
	return cp.Vector{X: 0, Y: -sc.segLen / 2}
}

// BottomAnchor is the tail segment's lower end in body-local coordinates.
func (sc *StringChain) BottomAnchor() cp.Vector {
	return cp.Vector{X: 0, Y: sc.segLen / 2}
}

// SegmentCount returns the number of segments.
func (sc *StringChain) SegmentCount() int {
	return len(sc.segments)
}

// LinkCount returns the number of internal pivot links.
func (sc *StringChain) LinkCount() int {
	return len(sc.links)
}

// HighestY returns the chain's topmost edge, the last part of a falling
// chain to leave the viewport.
func (sc *StringChain) HighestY() float64 {
	highest := math.Inf(1)
	for _, b := range sc.segments {
		if p := b.Position(); p.Y < highest {
			highest = p.Y
		}
	}
	return highest - sc.segLen/2
}

// Destroy removes every link, shape, and segment body from the space.
// Safe to call more than once.
func (sc *StringChain) Destroy() {
	if sc.destroyed {
		return
	}
	sc.destroyed = true
	for _, link := range sc.links {
		sc.ctx.safeRemoveConstraint(link)
	}
	for _, shape := range sc.shapes {
		sc.ctx.safeRemoveShape(shape)
	}
	for _, body := range sc.segments {
		sc.ctx.safeRemoveBody(body)
	}
}

// Draw renders the chain as a ribbon through the segment endpoints.
func (sc *StringChain) Draw(screen *ebiten.Image, clr Color) {
	if sc.destroyed {
		return
	}
	sc.points = sc.points[:0]

	// Walk top end, every segment center, bottom end.
	head := sc.segments[0]
	top := head.LocalToWorld(sc.TopAnchor())
	sc.points = append(sc.points, Vec2{top.X, top.Y})
	for _, b := range sc.segments {
		p := b.Position()
		sc.points = append(sc.points, Vec2{p.X, p.Y})
	}
	tail := sc.segments[len(sc.segments)-1]
	bottom := tail.LocalToWorld(sc.BottomAnchor())
	sc.points = append(sc.points, Vec2{bottom.X, bottom.Y})

	sc.buildRibbon(clr)
	if len(sc.verts) == 0 {
		return
	}
	screen.DrawTriangles(sc.verts, sc.indices, WhitePixel, &ebiten.DrawTrianglesOptions{
		AntiAlias: true,
	})
}

// buildRibbon rebuilds the vertex/index buffers from sc.points: two
// vertices per point offset along the averaged segment normals, two
// triangles per span. Buffers grow to a high-water mark and are reused.
func (sc *StringChain) buildRibbon(clr Color) {
	pts := sc.points
	n := len(pts)
	if n < 2 {
		sc.verts = sc.verts[:0]
		sc.indices = sc.indices[:0]
		return
	}

	numVerts := n * 2
	numInds := (n - 1) * 6
	if cap(sc.verts) < numVerts {
		sc.verts = make([]ebiten.Vertex, numVerts)
	}
	sc.verts = sc.verts[:numVerts]
	if cap(sc.indices) < numInds {
		sc.indices = make([]uint16, numInds)
	}
	sc.indices = sc.indices[:numInds]

	halfW := sc.width / 2
	cr := float32(clr.R * clr.A)
	cg := float32(clr.G * clr.A)
	cb := float32(clr.B * clr.A)
	ca := float32(clr.A)

	for i := 0; i < n; i++ {
		var nx, ny float64
		switch {
		case i == 0:
			nx, ny = ribbonNormal(pts[0], pts[1])
		case i == n-1:
			nx, ny = ribbonNormal(pts[n-2], pts[n-1])
		default:
			nx0, ny0 := ribbonNormal(pts[i-1], pts[i])
			nx1, ny1 := ribbonNormal(pts[i], pts[i+1])
			nx, ny = nx0+nx1, ny0+ny1
			ln := math.Sqrt(nx*nx + ny*ny)
			if ln > 1e-10 {
				nx /= ln
				ny /= ln
			}
		}

		vi := i * 2
		sc.verts[vi] = ebiten.Vertex{
			DstX: float32(pts[i].X + nx*halfW), DstY: float32(pts[i].Y + ny*halfW),
			SrcX: 0.5, SrcY: 0.5,
			ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca,
		}
		sc.verts[vi+1] = ebiten.Vertex{
			DstX: float32(pts[i].X - nx*halfW), DstY: float32(pts[i].Y - ny*halfW),
			SrcX: 0.5, SrcY: 0.5,
			ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca,
		}
	}

	for i := 0; i < n-1; i++ {
		ii := i * 6
		v := uint16(i * 2)
		sc.indices[ii+0] = v
		sc.indices[ii+1] = v + 1
		sc.indices[ii+2] = v + 2
		sc.indices[ii+3] = v + 1
		sc.indices[ii+4] = v + 3
		sc.indices[ii+5] = v + 2
	}
}

// ribbonNormal returns the unit left-perpendicular of the segment a->b.
func ribbonNormal(a, b Vec2) (float64, float64) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	ln := math.Sqrt(dx*dx + dy*dy)
	if ln < 1e-10 {
		return 0, -1
	}
	return -dy / ln, dx / ln
}
