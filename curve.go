package marionette

import "math"

// TubeFrame is an orthonormal frame at a point along a CurvePath: the
// tangent plus a normal/binormal pair carried along the curve by parallel
// transport, so cross-sections never flip at inflection points.
type TubeFrame struct {
	Origin   Vec3
	Tangent  Vec3
	Normal   Vec3
	Binormal Vec3
}

// CurvePath is a Catmull-Rom spline through a fixed set of control points.
// Interior points may be moved every frame (the tunnel bends them toward
// the cursor); the evaluated geometry follows without reallocating.
type CurvePath struct {
	ctrl     []Vec3
	frameBuf []TubeFrame // high-water-mark buffer for Frames
}

// NewCurvePath creates a path through the given control points. At least
// two points are required; the slice is copied.
func NewCurvePath(ctrl []Vec3) *CurvePath {
	c := &CurvePath{ctrl: make([]Vec3, len(ctrl))}
	copy(c.ctrl, ctrl)
	return c
}

// ControlCount returns the number of control points.
func (c *CurvePath) ControlCount() int { return len(c.ctrl) }

// Control returns control point i.
func (c *CurvePath) Control(i int) Vec3 { return c.ctrl[i] }

// SetControl moves control point i.
func (c *CurvePath) SetControl(i int, p Vec3) { c.ctrl[i] = p }

// clampedCtrl returns control point i with the index clamped to the valid
// range, which duplicates the end points for the spline's phantom neighbors.
func (c *CurvePath) clampedCtrl(i int) Vec3 {
	if i < 0 {
		i = 0
	}
	if i >= len(c.ctrl) {
		i = len(c.ctrl) - 1
	}
	return c.ctrl[i]
}

// Point evaluates the spline at t in [0, 1].
func (c *CurvePath) Point(t float64) Vec3 {
	p0, p1, p2, p3, u := c.segment(t)
	u2 := u * u
	u3 := u2 * u
	// Uniform Catmull-Rom basis.
	return Vec3{
		X: 0.5 * ((2 * p1.X) + (-p0.X+p2.X)*u + (2*p0.X-5*p1.X+4*p2.X-p3.X)*u2 + (-p0.X+3*p1.X-3*p2.X+p3.X)*u3),
		Y: 0.5 * ((2 * p1.Y) + (-p0.Y+p2.Y)*u + (2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*u2 + (-p0.Y+3*p1.Y-3*p2.Y+p3.Y)*u3),
		Z: 0.5 * ((2 * p1.Z) + (-p0.Z+p2.Z)*u + (2*p0.Z-5*p1.Z+4*p2.Z-p3.Z)*u2 + (-p0.Z+3*p1.Z-3*p2.Z+p3.Z)*u3),
	}
}

// Tangent evaluates the spline derivative at t, normalized. Falls back to
// a finite difference when the analytic derivative degenerates (coincident
// control points).
func (c *CurvePath) Tangent(t float64) Vec3 {
	p0, p1, p2, p3, u := c.segment(t)
	u2 := u * u
	d := Vec3{
		X: 0.5 * ((-p0.X + p2.X) + 2*(2*p0.X-5*p1.X+4*p2.X-p3.X)*u + 3*(-p0.X+3*p1.X-3*p2.X+p3.X)*u2),
		Y: 0.5 * ((-p0.Y + p2.Y) + 2*(2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*u + 3*(-p0.Y+3*p1.Y-3*p2.Y+p3.Y)*u2),
		Z: 0.5 * ((-p0.Z + p2.Z) + 2*(2*p0.Z-5*p1.Z+4*p2.Z-p3.Z)*u + 3*(-p0.Z+3*p1.Z-3*p2.Z+p3.Z)*u2),
	}
	if d.Length() < 1e-9 {
		const h = 1e-4
		d = c.Point(math.Min(t+h, 1)).Sub(c.Point(math.Max(t-h, 0)))
	}
	return d.Normalize()
}

// segment maps t in [0, 1] to a spline segment and local parameter.
func (c *CurvePath) segment(t float64) (p0, p1, p2, p3 Vec3, u float64) {
	n := len(c.ctrl) - 1
	ft := clamp(t, 0, 1) * float64(n)
	i := int(ft)
	if i >= n {
		i = n - 1
	}
	u = ft - float64(i)
	return c.clampedCtrl(i - 1), c.clampedCtrl(i), c.clampedCtrl(i + 1), c.clampedCtrl(i + 2), u
}

// Frames samples n+1 parallel-transport frames along the curve into a
// reused buffer. The first normal is seeded perpendicular to the initial
// tangent; each subsequent frame rotates the previous normal by the
// minimal rotation between consecutive tangents.
func (c *CurvePath) Frames(n int) []TubeFrame {
	count := n + 1
	if cap(c.frameBuf) < count {
		c.frameBuf = make([]TubeFrame, count)
	}
	c.frameBuf = c.frameBuf[:count]

	t0 := c.Tangent(0)
	normal := seedNormal(t0)
	c.frameBuf[0] = TubeFrame{
		Origin:   c.Point(0),
		Tangent:  t0,
		Normal:   normal,
		Binormal: t0.Cross(normal),
	}
	for i := 1; i < count; i++ {
		t := float64(i) / float64(n)
		tan := c.Tangent(t)
		normal = transportNormal(normal, c.frameBuf[i-1].Tangent, tan)
		c.frameBuf[i] = TubeFrame{
			Origin:   c.Point(t),
			Tangent:  tan,
			Normal:   normal,
			Binormal: tan.Cross(normal),
		}
	}
	return c.frameBuf
}

// seedNormal picks a stable perpendicular to the first tangent, preferring
// world-up so tunnels opening along +Z keep Y as "up" on screen.
func seedNormal(tan Vec3) Vec3 {
	up := Vec3{0, 1, 0}
	if math.Abs(tan.Dot(up)) > 0.99 {
		up = Vec3{1, 0, 0}
	}
	return tan.Cross(up).Cross(tan).Normalize()
}

// transportNormal rotates prev around the axis between consecutive tangents
// by the angle between them (Rodrigues), keeping the frame twist-free.
func transportNormal(prev, fromTan, toTan Vec3) Vec3 {
	axis := fromTan.Cross(toTan)
	s := axis.Length()
	if s < 1e-9 {
		return prev
	}
	axis = axis.Scale(1 / s)
	cosA := clamp(fromTan.Dot(toTan), -1, 1)
	sinA := s
	// v' = v cosA + (axis x v) sinA + axis (axis . v)(1 - cosA)
	rotated := prev.Scale(cosA).
		Add(axis.Cross(prev).Scale(sinA)).
		Add(axis.Scale(axis.Dot(prev) * (1 - cosA)))
	return rotated.Normalize()
}
