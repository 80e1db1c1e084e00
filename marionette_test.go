package marionette

import (
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertNearTol(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v (±%v)", name, got, want, tol)
	}
}

// --- Color ---

func TestColorToRGBA(t *testing.T) {
	tests := []struct {
		name       string
		c          Color
		r, g, b, a uint8
	}{
		{"white", Color{1, 1, 1, 1}, 255, 255, 255, 255},
		{"black", Color{0, 0, 0, 1}, 0, 0, 0, 255},
		{"transparent", Color{1, 1, 1, 0}, 0, 0, 0, 0},
		{"half alpha premultiplies", Color{1, 0, 0, 0.5}, 127, 0, 0, 127},
		{"overrange clamps", Color{2, 0, 0, 1}, 255, 0, 0, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.c.toRGBA()
			if got.R != tt.r || got.G != tt.g || got.B != tt.b || got.A != tt.a {
				t.Errorf("toRGBA(%v) = %v, want {%d %d %d %d}", tt.c, got, tt.r, tt.g, tt.b, tt.a)
			}
		})
	}
}

func TestColorScaledWithAlpha(t *testing.T) {
	c := Color{0.5, 0.25, 1, 1}
	s := c.Scaled(0.5)
	assertNear(t, "Scaled.R", s.R, 0.25)
	assertNear(t, "Scaled.G", s.G, 0.125)
	assertNear(t, "Scaled.B", s.B, 0.5)
	assertNear(t, "Scaled.A", s.A, 0.5)

	a := c.WithAlpha(0.3)
	assertNear(t, "WithAlpha.A", a.A, 0.3)
	assertNear(t, "WithAlpha.R", a.R, c.R)
}

func TestLerpColor(t *testing.T) {
	a := Color{0, 0, 0, 0}
	b := Color{1, 0.5, 0.25, 1}
	mid := lerpColor(a, b, 0.5)
	assertNear(t, "mid.R", mid.R, 0.5)
	assertNear(t, "mid.G", mid.G, 0.25)
	assertNear(t, "mid.B", mid.B, 0.125)
	assertNear(t, "mid.A", mid.A, 0.5)

	if got := lerpColor(a, b, 0); got != a {
		t.Errorf("lerpColor(a, b, 0) = %v, want %v", got, a)
	}
	if got := lerpColor(a, b, 1); got != b {
		t.Errorf("lerpColor(a, b, 1) = %v, want %v", got, b)
	}
}

// --- Vec2 ---

func TestVec2Ops(t *testing.T) {
	v := Vec2{3, 4}
	o := Vec2{1, -2}
	if got := v.Add(o); got != (Vec2{4, 2}) {
		t.Errorf("Add = %v, want {4 2}", got)
	}
	if got := v.Sub(o); got != (Vec2{2, 6}) {
		t.Errorf("Sub = %v, want {2 6}", got)
	}
	if got := v.Scale(2); got != (Vec2{6, 8}) {
		t.Errorf("Scale = %v, want {6 8}", got)
	}
}

// --- Rect ---

func TestRectContains(t *testing.T) {
	r := Rect{10, 20, 100, 50}
	tests := []struct {
		name   string
		x, y   float64
		expect bool
	}{
		{"inside", 50, 40, true},
		{"top-left corner", 10, 20, true},
		{"bottom-right corner", 110, 70, true},
		{"outside left", 9, 40, false},
		{"outside right", 111, 40, false},
		{"outside above", 50, 19, false},
		{"outside below", 50, 71, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Contains(tt.x, tt.y)
			if got != tt.expect {
				t.Errorf("Rect%v.Contains(%v, %v) = %v, want %v", r, tt.x, tt.y, got, tt.expect)
			}
		})
	}
}

// --- Range ---

func TestRangeRandom(t *testing.T) {
	r := Range{2, 5}
	for i := 0; i < 100; i++ {
		v := r.Random()
		if v < r.Min || v > r.Max {
			t.Fatalf("Random() = %v, want in [%v, %v]", v, r.Min, r.Max)
		}
	}
	fixed := Range{3, 3}
	if got := fixed.Random(); got != 3 {
		t.Errorf("Random() on degenerate range = %v, want 3", got)
	}
}

// --- BlendMode ---

func TestBlendModeEbitenBlend(t *testing.T) {
	if got := BlendNormal.EbitenBlend(); got != ebiten.BlendSourceOver {
		t.Errorf("BlendNormal = %v, want BlendSourceOver", got)
	}
	if got := BlendAdd.EbitenBlend(); got != ebiten.BlendLighter {
		t.Errorf("BlendAdd = %v, want BlendLighter", got)
	}
	screen := BlendScreen.EbitenBlend()
	if screen.BlendFactorDestinationRGB != ebiten.BlendFactorOneMinusSourceColor {
		t.Errorf("BlendScreen destination RGB factor = %v, want OneMinusSourceColor",
			screen.BlendFactorDestinationRGB)
	}
}

// --- scalar helpers ---

func TestLerpClamp(t *testing.T) {
	assertNear(t, "lerp(0,10,0)", lerp(0, 10, 0), 0)
	assertNear(t, "lerp(0,10,1)", lerp(0, 10, 1), 10)
	assertNear(t, "lerp(0,10,0.25)", lerp(0, 10, 0.25), 2.5)
	assertNear(t, "clamp low", clamp(-1, 0, 1), 0)
	assertNear(t, "clamp high", clamp(2, 0, 1), 1)
	assertNear(t, "clamp pass", clamp(0.5, 0, 1), 0.5)
}

func TestSmoothstep(t *testing.T) {
	assertNear(t, "smoothstep(0)", smoothstep(0), 0)
	assertNear(t, "smoothstep(1)", smoothstep(1), 1)
	assertNear(t, "smoothstep(0.5)", smoothstep(0.5), 0.5)
	assertNear(t, "smoothstep(-5) clamps", smoothstep(-5), 0)
	assertNear(t, "smoothstep(5) clamps", smoothstep(5), 1)
	// Monotone on [0, 1].
	prev := -1.0
	for i := 0; i <= 20; i++ {
		v := smoothstep(float64(i) / 20)
		if v < prev {
			t.Fatalf("smoothstep not monotone at %d/20: %v < %v", i, v, prev)
		}
		prev = v
	}
}
