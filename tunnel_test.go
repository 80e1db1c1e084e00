package marionette

import (
	"errors"
	"math"
	"testing"
)

func TestTunnelGeometryCounts(t *testing.T) {
	tests := []struct {
		name   string
		hidden bool
		// per tier: segments, radial, rings
		segments, radial, rings int
	}{
		{"high tier", false, 96, 48, 5},
		{"ultra low tier", true, 32, 16, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newTestContext(t, 1024, 768)
			ctx.Perf.SetHidden(tt.hidden)
			tn := NewTunnel(ctx, TunnelCallbacks{})

			tube := (tt.segments + 1) * (tt.radial + 1)
			ring := (tt.radial + 1) * 2
			wantVerts := tube*2 + ring*tt.rings
			if got := tn.VertexCount(); got != wantVerts {
				t.Errorf("VertexCount = %d, want %d", got, wantVerts)
			}
			wantIdx := tt.segments*tt.radial*6*2 + tt.radial*6*tt.rings
			if got := tn.IndexCount(); got != wantIdx {
				t.Errorf("IndexCount = %d, want %d", got, wantIdx)
			}

			// Geometry is immutable for the tunnel's whole life.
			for i := 0; i < 30; i++ {
				tn.Update(0.05, Vec2{512, 384})
			}
			if got := tn.VertexCount(); got != wantVerts {
				t.Errorf("VertexCount = %d after updates, want %d", got, wantVerts)
			}
			if got := tn.IndexCount(); got != wantIdx {
				t.Errorf("IndexCount = %d after updates, want %d", got, wantIdx)
			}
		})
	}
}

func TestTunnelPhaseWalk(t *testing.T) {
	ctx := newTestContext(t, 1024, 768)
	ctx.Perf.SetHidden(true)

	var order []string
	tn := NewTunnel(ctx, TunnelCallbacks{
		OnActive: func() { order = append(order, "active") },
		OnFadeOut: func() error {
			order = append(order, "fadeout")
			return nil
		},
		OnComplete: func() { order = append(order, "complete") },
	})

	if tn.Phase() != TunnelFadeIn {
		t.Fatalf("Phase = %v, want fade-in", tn.Phase())
	}
	cursor := Vec2{512, 384}

	tn.Update(1.5, cursor)
	assertNear(t, "half fade-in opacity", tn.Opacity(), 0.5)

	tn.Update(2.5, cursor) // 4s total: 1s into active
	if tn.Phase() != TunnelActive {
		t.Fatalf("Phase = %v, want active", tn.Phase())
	}
	assertNear(t, "active opacity", tn.Opacity(), 1)

	tn.Update(5.0, cursor) // 9s total: 1s into fade-out
	if tn.Phase() != TunnelFadeOut {
		t.Fatalf("Phase = %v, want fade-out", tn.Phase())
	}
	assertNear(t, "half fade-out opacity", tn.Opacity(), 0.5)

	tn.Update(1.0, cursor) // 10s total: complete
	if tn.Phase() != TunnelComplete {
		t.Fatalf("Phase = %v, want complete", tn.Phase())
	}
	assertNear(t, "complete opacity", tn.Opacity(), 0)

	want := []string{"active", "fadeout", "complete"}
	if len(order) != len(want) {
		t.Fatalf("callbacks = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("callbacks = %v, want %v", order, want)
		}
	}

	// Further updates change nothing and fire nothing.
	tn.Update(3, cursor)
	if len(order) != 3 {
		t.Errorf("callbacks fired again after completion: %v", order)
	}
}

func TestTunnelPhaseWalkSingleStep(t *testing.T) {
	ctx := newTestContext(t, 1024, 768)
	ctx.Perf.SetHidden(true)

	fired := map[string]int{}
	tn := NewTunnel(ctx, TunnelCallbacks{
		OnActive: func() { fired["active"]++ },
		OnFadeOut: func() error {
			fired["fadeout"]++
			return nil
		},
		OnComplete: func() { fired["complete"]++ },
	})

	// One enormous frame crosses every phase at once.
	tn.Update(20, Vec2{512, 384})

	if tn.Phase() != TunnelComplete {
		t.Fatalf("Phase = %v, want complete", tn.Phase())
	}
	for _, name := range []string{"active", "fadeout", "complete"} {
		if fired[name] != 1 {
			t.Errorf("%s fired %d times, want 1", name, fired[name])
		}
	}
}

func TestTunnelFadeOutErrorStillCompletes(t *testing.T) {
	ctx := newTestContext(t, 1024, 768)
	ctx.Perf.SetHidden(true)

	completed := false
	tn := NewTunnel(ctx, TunnelCallbacks{
		OnFadeOut: func() error { return errors.New("no fluid for you") },
		OnComplete: func() { completed = true },
	})

	tn.Update(20, Vec2{512, 384})

	if tn.Phase() != TunnelComplete {
		t.Errorf("Phase = %v, want complete despite the handover error", tn.Phase())
	}
	if !completed {
		t.Error("OnComplete never fired after a failed handover")
	}
}

func TestTunnelDestroyIdempotent(t *testing.T) {
	ctx := newTestContext(t, 1024, 768)
	ctx.Perf.SetHidden(true)
	tn := NewTunnel(ctx, TunnelCallbacks{})
	tn.Update(0.1, Vec2{512, 384})

	tn.Destroy()
	tn.Destroy()

	if tn.Phase() != TunnelComplete {
		t.Errorf("Phase = %v after Destroy, want complete", tn.Phase())
	}
	if got := tn.VertexCount(); got != 0 {
		t.Errorf("VertexCount = %d after Destroy, want 0", got)
	}
	// Updates after destruction must not touch the released buffers.
	tn.Update(0.1, Vec2{512, 384})
}

func TestPolygonRadius(t *testing.T) {
	const clampMax = 1.5
	for _, n := range []int{3, 4, 5, 6, 8, 12} {
		apothem := math.Cos(math.Pi / float64(n))
		step := 2 * math.Pi / float64(n)

		// Vertex at angle zero, edge midpoint half a step later.
		assertNearTol(t, "vertex radius", polygonRadius(0, n, clampMax), 1, 1e-9)
		assertNearTol(t, "apothem radius", polygonRadius(step/2, n, clampMax), apothem, 1e-9)

		for theta := 0.0; theta < 2*math.Pi; theta += 0.01 {
			r := polygonRadius(theta, n, clampMax)
			if r < apothem-1e-9 || r > 1+1e-9 {
				t.Fatalf("polygonRadius(%v, %d) = %v, want within [%v, 1]", theta, n, r, apothem)
			}
			if rp := polygonRadius(theta+step, n, clampMax); math.Abs(rp-r) > 1e-9 {
				t.Fatalf("polygonRadius not %v-periodic at theta=%v for n=%d", step, theta, n)
			}
		}
	}
}

func TestPolygonRadiusClamps(t *testing.T) {
	if got := polygonRadius(0, 3, 0.9); got != 0.9 {
		t.Errorf("polygonRadius clamped = %v, want 0.9", got)
	}
}

func TestTunnelUpdateDoesNotAllocate(t *testing.T) {
	ctx := newTestContext(t, 1024, 768)
	ctx.Perf.SetHidden(true)
	tn := NewTunnel(ctx, TunnelCallbacks{})
	cursor := Vec2{600, 400}

	// Warm the frame buffer before measuring.
	tn.Update(0.001, cursor)

	result := testing.AllocsPerRun(100, func() {
		tn.Update(0.001, cursor)
	})
	if result > 0 {
		t.Errorf("Update allocated %f times per run, want 0", result)
	}
}

func BenchmarkTunnelUpdate(b *testing.B) {
	cfg := DefaultConfig()
	ctx := NewContext(cfg)
	ctx.SetViewport(1280, 720)
	tn := NewTunnel(ctx, TunnelCallbacks{})
	cursor := Vec2{640, 360}
	tn.Update(0.016, cursor)

	b.ReportAllocs()
	for b.Loop() {
		tn.Update(0.0, cursor)
	}
}
