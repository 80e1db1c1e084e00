package marionette

import "testing"

func testTunnelPath() *CurvePath {
	return NewCurvePath([]Vec3{
		{0, 0, 0},
		{20, 10, 100},
		{-15, 5, 200},
		{10, -10, 300},
		{0, 0, 400},
	})
}

func TestCurvePathPoint(t *testing.T) {
	c := testTunnelPath()

	start := c.Point(0)
	if start != c.Control(0) {
		t.Errorf("Point(0) = %v, want %v", start, c.Control(0))
	}
	end := c.Point(1)
	if d := end.Sub(c.Control(4)).Length(); d > epsilon {
		t.Errorf("Point(1) = %v, want %v", end, c.Control(4))
	}

	// The spline interpolates every control point at its knot.
	for i := 0; i < c.ControlCount(); i++ {
		knot := float64(i) / float64(c.ControlCount()-1)
		p := c.Point(knot)
		if d := p.Sub(c.Control(i)).Length(); d > 1e-6 {
			t.Errorf("Point(%v) = %v, want control %d at %v", knot, p, i, c.Control(i))
		}
	}
}

func TestCurvePathPointClampsParameter(t *testing.T) {
	c := testTunnelPath()
	if got := c.Point(-0.5); got != c.Point(0) {
		t.Errorf("Point(-0.5) = %v, want Point(0)", got)
	}
	if got := c.Point(2); got != c.Point(1) {
		t.Errorf("Point(2) = %v, want Point(1)", got)
	}
}

func TestCurvePathTangent(t *testing.T) {
	line := NewCurvePath([]Vec3{{0, 0, 0}, {0, 0, 100}, {0, 0, 200}})
	for _, tv := range []float64{0, 0.25, 0.5, 1} {
		tan := line.Tangent(tv)
		assertNear(t, "straight tangent X", tan.X, 0)
		assertNear(t, "straight tangent Y", tan.Y, 0)
		assertNear(t, "straight tangent Z", tan.Z, 1)
	}

	c := testTunnelPath()
	for _, tv := range []float64{0, 0.3, 0.7, 1} {
		if l := c.Tangent(tv).Length(); l < 1-epsilon || l > 1+epsilon {
			t.Errorf("Tangent(%v) length = %v, want 1", tv, l)
		}
	}
}

func TestCurvePathSetControl(t *testing.T) {
	c := testTunnelPath()
	before := c.Point(0.5)
	c.SetControl(2, Vec3{80, 40, 200})
	after := c.Point(0.5)
	if before == after {
		t.Error("Point(0.5) unchanged after moving an interior control point")
	}
}

func TestCurvePathFrames(t *testing.T) {
	c := testTunnelPath()
	const n = 64
	frames := c.Frames(n)

	if got := len(frames); got != n+1 {
		t.Fatalf("len(Frames(%d)) = %d, want %d", n, got, n+1)
	}
	for i, f := range frames {
		assertNearTol(t, "tangent length", f.Tangent.Length(), 1, 1e-6)
		assertNearTol(t, "normal length", f.Normal.Length(), 1, 1e-6)
		assertNearTol(t, "binormal length", f.Binormal.Length(), 1, 1e-6)
		if d := f.Tangent.Dot(f.Normal); d > 1e-6 || d < -1e-6 {
			t.Fatalf("frame %d tangent.normal = %v, want 0", i, d)
		}
		if d := f.Tangent.Dot(f.Binormal); d > 1e-6 || d < -1e-6 {
			t.Fatalf("frame %d tangent.binormal = %v, want 0", i, d)
		}
	}

	// Parallel transport keeps consecutive normals aligned; a flipped
	// cross-section would show as a sign change.
	for i := 1; i < len(frames); i++ {
		if d := frames[i].Normal.Dot(frames[i-1].Normal); d < 0.9 {
			t.Fatalf("normal %d swung by dot %v from its neighbor", i, d)
		}
	}
}

func TestCurvePathFramesReusesBuffer(t *testing.T) {
	c := testTunnelPath()
	first := c.Frames(32)
	second := c.Frames(32)
	if &first[0] != &second[0] {
		t.Error("Frames reallocated its buffer for the same sample count")
	}
	smaller := c.Frames(16)
	if len(smaller) != 17 {
		t.Errorf("len(Frames(16)) = %d, want 17", len(smaller))
	}
	if &smaller[0] != &second[0] {
		t.Error("Frames reallocated when shrinking below the high-water mark")
	}
}

func TestSeedNormalPerpendicular(t *testing.T) {
	for _, tan := range []Vec3{
		{0, 0, 1},
		{1, 0, 0},
		{0, 1, 0}, // parallel to world-up, falls back to X
		{0.577, 0.577, 0.577},
	} {
		tan = tan.Normalize()
		n := seedNormal(tan)
		assertNearTol(t, "seed normal length", n.Length(), 1, 1e-6)
		if d := n.Dot(tan); d > 1e-6 || d < -1e-6 {
			t.Errorf("seedNormal(%v) not perpendicular: dot = %v", tan, d)
		}
	}
}
