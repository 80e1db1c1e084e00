package marionette

import "math"

// Vec3 is a 3D vector used by the tunnel and brain geometry.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v scaled by f.
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns the cross product.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Length returns the Euclidean length.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns a unit-length copy, or the zero vector unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l < 1e-12 {
		return v
	}
	return v.Scale(1 / l)
}

// Camera3D is a fixed-axis perspective camera looking down +Z, with a
// smoothed pointer sway that shears the view slightly toward the cursor.
type Camera3D struct {
	Pos  Vec3
	FOV  float64 // vertical field of view in radians
	Near float64
	// SwayAmount scales the pointer shear; SwayRate how fast it follows.
	SwayAmount float64
	SwayRate   float64

	viewW, viewH     float64
	swayX, swayY     float64
	targetX, targetY float64
}

// NewCamera3D creates a camera at the origin with sensible defaults.
func NewCamera3D() *Camera3D {
	return &Camera3D{
		FOV:        math.Pi / 3,
		Near:       0.5,
		SwayAmount: 0.06,
		SwayRate:   4,
	}
}

// SetViewport records the projection target size in pixels.
func (c *Camera3D) SetViewport(w, h float64) {
	c.viewW, c.viewH = w, h
}

// PointAt sets the sway target from a cursor position in pixels. The sway
// itself eases toward the target in Update.
func (c *Camera3D) PointAt(cursor Vec2) {
	if c.viewW <= 0 || c.viewH <= 0 {
		return
	}
	c.targetX = clamp(cursor.X/c.viewW*2-1, -1, 1)
	c.targetY = clamp(cursor.Y/c.viewH*2-1, -1, 1)
}

// Update eases the sway toward its target.
func (c *Camera3D) Update(dt float64) {
	k := clamp(dt*c.SwayRate, 0, 1)
	c.swayX = lerp(c.swayX, c.targetX, k)
	c.swayY = lerp(c.swayY, c.targetY, k)
}

// Sway returns the current sway in [-1, 1] on each axis.
func (c *Camera3D) Sway() Vec2 {
	return Vec2{c.swayX, c.swayY}
}

// Project maps a world point to screen pixels. ok is false when the point
// is at or behind the near plane; callers skip those.
func (c *Camera3D) Project(p Vec3) (sx, sy, depth float64, ok bool) {
	x := p.X - c.Pos.X
	y := p.Y - c.Pos.Y
	z := p.Z - c.Pos.Z
	if z <= c.Near {
		return 0, 0, z, false
	}
	// Small-angle shear stands in for a rotation toward the cursor.
	x -= z * c.swayX * c.SwayAmount
	y -= z * c.swayY * c.SwayAmount

	f := (c.viewH / 2) / math.Tan(c.FOV/2)
	sx = c.viewW/2 + x/z*f
	sy = c.viewH/2 + y/z*f
	return sx, sy, z, true
}
