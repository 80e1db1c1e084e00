package marionette

import (
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// newTestFluid builds a fluid context pinned to the ultra-low tier so the
// solver tests stay cheap.
func newTestFluid(t *testing.T, w, h float64) (*Context, *Fluid) {
	t.Helper()
	ctx := newTestContext(t, w, h)
	ctx.Perf.SetHidden(true)
	return ctx, NewFluid(ctx)
}

func dyeTotal(f *Fluid) float64 {
	return f.dye.Src.Sum(0) + f.dye.Src.Sum(1) + f.dye.Src.Sum(2)
}

func TestGridSize(t *testing.T) {
	tests := []struct {
		name   string
		res    int
		vw, vh float64
		wantW  int
		wantH  int
	}{
		{"landscape", 96, 1024, 768, 128, 96},
		{"portrait", 96, 768, 1024, 96, 128},
		{"square", 64, 500, 500, 64, 64},
		{"no viewport", 32, 0, 0, 32, 32},
		{"rounded aspect", 40, 1024, 768, 53, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := gridSize(tt.res, tt.vw, tt.vh)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("gridSize(%d, %v, %v) = (%d, %d), want (%d, %d)",
					tt.res, tt.vw, tt.vh, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestFieldAtClampsEdges(t *testing.T) {
	f := NewField(3, 3, 1)
	f.Set(0, 0, 0, 1)
	f.Set(2, 2, 0, 9)

	if got := f.At(-5, 0, 0); got != 1 {
		t.Errorf("At(-5, 0) = %v, want the left border texel 1", got)
	}
	if got := f.At(0, -1, 0); got != 1 {
		t.Errorf("At(0, -1) = %v, want 1", got)
	}
	if got := f.At(7, 7, 0); got != 9 {
		t.Errorf("At(7, 7) = %v, want the corner texel 9", got)
	}

	// Writes outside the grid are dropped, not clamped.
	f.Set(3, 0, 0, 5)
	f.Set(-1, 2, 0, 5)
	if got := f.At(2, 0, 0); got != 0 {
		t.Errorf("At(2, 0) = %v after out-of-range writes, want 0", got)
	}
}

func TestFieldBilerp(t *testing.T) {
	f := NewField(4, 4, 1)
	f.Set(1, 2, 0, 8)

	// Sampling a texel center returns the texel exactly.
	if got := f.Bilerp(1.5/4, 2.5/4, 0); got != 8 {
		t.Errorf("Bilerp at texel center = %v, want 8", got)
	}
	// Halfway toward the empty neighbor blends to half.
	if got := f.Bilerp(2.0/4, 2.5/4, 0); got != 4 {
		t.Errorf("Bilerp between texels = %v, want 4", got)
	}
}

func TestFieldSumAndClear(t *testing.T) {
	f := NewField(2, 2, 2)
	f.Set(0, 0, 0, 1)
	f.Set(1, 1, 0, 2)
	f.Set(0, 1, 1, 5)

	assertNear(t, "Sum(0)", f.Sum(0), 3)
	assertNear(t, "Sum(1)", f.Sum(1), 5)

	f.Clear()
	assertNear(t, "Sum after Clear", f.Sum(0)+f.Sum(1), 0)
}

func TestFluidGridsFollowTier(t *testing.T) {
	ctx, f := newTestFluid(t, 1024, 768)

	if f.simW != 53 || f.simH != 40 {
		t.Errorf("sim grid = %dx%d, want 53x40 at the ultra-low tier", f.simW, f.simH)
	}
	if f.dyeW != 128 || f.dyeH != 96 {
		t.Errorf("dye grid = %dx%d, want 128x96", f.dyeW, f.dyeH)
	}
	if f.bloom != nil || f.sunrays != nil {
		t.Error("bloom/sunrays allocated on the ultra-low tier")
	}

	ctx.Perf.SetHidden(false)
	f.Resize()
	if f.dyeW != 384 || f.dyeH != 288 {
		t.Errorf("dye grid = %dx%d after refit, want 384x288", f.dyeW, f.dyeH)
	}
	if f.bloom == nil || f.sunrays == nil {
		t.Error("bloom/sunrays missing on the high tier")
	}
}

func TestFluidDyeNeverGains(t *testing.T) {
	_, f := newTestFluid(t, 1024, 768)

	// Pure dye, no motion: every step must bleed energy out, never in.
	f.Splat(0.5, 0.5, 0, 0, colorful.Color{R: 1, G: 0.8, B: 0.6})
	prev := dyeTotal(f)
	if prev <= 0 {
		t.Fatal("splat injected no dye")
	}
	for i := 0; i < 60; i++ {
		f.Step(1.0 / 64)
		cur := dyeTotal(f)
		if cur > prev {
			t.Fatalf("dye grew from %v to %v on step %d", prev, cur, i)
		}
		prev = cur
	}
	if prev <= 0 {
		t.Error("dye fully vanished within a second, dissipation too hot")
	}
}

func TestFluidPointerSplatConsumedOnce(t *testing.T) {
	ctx, f := newTestFluid(t, 1024, 768)
	pointers := NewPointers(ctx)

	pointers.InjectDown(-1, 0.5, 0.5)
	f.Update(1.0/64, pointers, Vec2{}, false)
	afterPress := dyeTotal(f)
	if afterPress <= 0 {
		t.Fatal("press splat injected no dye")
	}

	// No new input: the second frame only dissipates.
	f.Update(1.0/64, pointers, Vec2{}, false)
	afterIdle := dyeTotal(f)
	if afterIdle >= afterPress {
		t.Errorf("dye = %v after an idle frame, want below %v", afterIdle, afterPress)
	}

	// A drag step owes exactly one more splat.
	pointers.InjectMove(-1, 0.55, 0.5)
	f.Update(1.0/64, pointers, Vec2{}, false)
	afterDrag := dyeTotal(f)
	if afterDrag <= afterIdle {
		t.Errorf("dye = %v after a drag, want above %v", afterDrag, afterIdle)
	}
}

func TestFluidEmitterForcing(t *testing.T) {
	t.Run("off stays empty", func(t *testing.T) {
		_, f := newTestFluid(t, 1024, 768)
		for i := 0; i < 5; i++ {
			f.Update(1.0/64, nil, Vec2{0.5, 0.5}, false)
		}
		if got := dyeTotal(f); got != 0 {
			t.Errorf("dye = %v with no forcing, want exactly 0", got)
		}
	})
	t.Run("on keeps the scene alive", func(t *testing.T) {
		_, f := newTestFluid(t, 1024, 768)
		for i := 0; i < 5; i++ {
			f.Update(1.0/64, nil, Vec2{0.5, 0.5}, true)
		}
		if got := dyeTotal(f); got <= 0 {
			t.Error("emitter injected no dye")
		}
		// Opposite ring splats cancel in a signed sum; energy does not.
		var energy float64
		for _, v := range f.velocity.Src.Data {
			energy += float64(v) * float64(v)
		}
		if energy == 0 {
			t.Error("emitter left the velocity field untouched")
		}
	})
}

func TestFluidRevealRamp(t *testing.T) {
	_, f := newTestFluid(t, 1024, 768)

	if got := f.Reveal(); got != 0 {
		t.Fatalf("Reveal = %v before any update, want 0", got)
	}
	f.Update(0.9, nil, Vec2{}, false)
	assertNear(t, "half reveal", f.Reveal(), 0.5)

	f.Update(10, nil, Vec2{}, false)
	assertNear(t, "capped reveal", f.Reveal(), 1)
}

func TestFluidResizeCarriesDye(t *testing.T) {
	ctx, f := newTestFluid(t, 1024, 768)
	f.Splat(0.5, 0.5, 0, 0, colorful.Color{R: 1, G: 1, B: 1})
	center := f.dye.Src.Bilerp(0.5, 0.5, 0)
	if center <= 0 {
		t.Fatal("splat missed the center")
	}

	ctx.SetViewport(1280, 720)
	f.Resize()

	if f.dyeW != 171 || f.dyeH != 96 {
		t.Errorf("dye grid = %dx%d after resize, want 171x96", f.dyeW, f.dyeH)
	}
	if got := f.dye.Src.Bilerp(0.5, 0.5, 0); got <= 0 {
		t.Error("resize dropped the dye content")
	}
}

func TestFluidSplatAtEdges(t *testing.T) {
	_, f := newTestFluid(t, 1024, 768)
	for _, p := range []Vec2{{0, 0}, {1, 1}, {-0.2, 0.5}, {0.5, 1.4}} {
		f.Splat(p.X, p.Y, 500, -500, colorful.Color{R: 1})
	}
	f.Step(1.0 / 64)
	if got := dyeTotal(f); got < 0 {
		t.Errorf("dye total = %v, want non-negative", got)
	}
}

func TestFluidDestroyIdempotent(t *testing.T) {
	ctx, f := newTestFluid(t, 1024, 768)
	f.Destroy()
	f.Destroy()

	// Everything downstream of Destroy is a no-op, never a panic.
	f.Update(0.1, NewPointers(ctx), Vec2{0.5, 0.5}, true)
	f.Splat(0.5, 0.5, 100, 100, colorful.Color{R: 1})
	f.Resize()
	if f.Reveal() != 0 {
		t.Errorf("Reveal = %v after Destroy, want 0", f.Reveal())
	}
}

func TestFluidStepDoesNotAllocate(t *testing.T) {
	_, f := newTestFluid(t, 1024, 768)
	f.Splat(0.5, 0.5, 200, 0, colorful.Color{R: 1})
	f.Step(1.0 / 64)

	result := testing.AllocsPerRun(100, func() {
		f.Step(1.0 / 64)
	})
	if result > 0 {
		t.Errorf("Step allocated %f times per run, want 0", result)
	}
}

func BenchmarkFluidStep(b *testing.B) {
	cfg := DefaultConfig()
	ctx := NewContext(cfg)
	ctx.SetViewport(1280, 720)
	f := NewFluid(ctx)
	f.Splat(0.5, 0.5, 300, -120, colorful.Color{R: 1, G: 0.5, B: 0.2})

	b.ReportAllocs()
	for b.Loop() {
		f.Step(1.0 / 60)
	}
}

func BenchmarkFluidSplat(b *testing.B) {
	cfg := DefaultConfig()
	ctx := NewContext(cfg)
	ctx.SetViewport(1280, 720)
	f := NewFluid(ctx)
	c := colorful.Color{R: 0.4, G: 0.2, B: 0.6}

	b.ReportAllocs()
	for b.Loop() {
		f.Splat(0.5, 0.5, 120, -60, c)
	}
}
