package marionette

import "testing"

// --- Value ---

func TestValueEvaluate(t *testing.T) {
	var unset Value
	if unset.IsSet() {
		t.Error("zero Value.IsSet() = true, want false")
	}
	assertNear(t, "unset fallback", unset.Evaluate(42), 42)

	px := Px(100)
	if !px.IsSet() {
		t.Error("Px(100).IsSet() = false, want true")
	}
	assertNear(t, "Px", px.Evaluate(0), 100)

	calls := 0
	def := Deferred(func() float64 {
		calls++
		return float64(calls) * 10
	})
	assertNear(t, "Deferred first", def.Evaluate(0), 10)
	assertNear(t, "Deferred second", def.Evaluate(0), 20)
	if calls != 2 {
		t.Errorf("deferred fn called %d times, want 2", calls)
	}
}

// --- layout helpers ---

func TestStartY(t *testing.T) {
	assertNear(t, "768 tall", StartY(768, 0.4), -307.2)
	assertNear(t, "600 tall", StartY(600, 0.4), -240)
	assertNear(t, "zero frac", StartY(768, 0), 0)
}

func TestStringSegments(t *testing.T) {
	tests := []struct {
		name             string
		y, startY, segLn float64
		want             int
	}{
		{"1024x768 default layout", 291.84, -307.2, 50, 12},
		{"exact multiple", 100, -100, 50, 4},
		{"just over rounds up", 101, -100, 50, 5},
		{"short drop", 10, -10, 50, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StringSegments(tt.y, tt.startY, tt.segLn)
			if got != tt.want {
				t.Errorf("StringSegments(%v, %v, %v) = %d, want %d",
					tt.y, tt.startY, tt.segLn, got, tt.want)
			}
		})
	}
}

func TestFontScale(t *testing.T) {
	assertNear(t, "1024 wide", FontScale(1024), 76.8)
	assertNear(t, "tiny window clamps up", FontScale(200), 36)
	assertNear(t, "huge window clamps down", FontScale(4000), 120)
}

func TestDefaultPhrasePosition(t *testing.T) {
	assertNear(t, "x centers", DefaultPhraseX(1024), 512)
	assertNear(t, "y at 38%", DefaultPhraseY(768), 291.84)
}

func TestAnchorSpread(t *testing.T) {
	assertNear(t, "spread", AnchorSpread(400, 0.35), 140)
	assertNear(t, "zero width", AnchorSpread(0, 0.35), 0)
}

// A window resize reruns the same arithmetic the first build used, so a
// rebuilt phrase on a 1024x768 stage hangs from chains twelve segments long.
func TestResponsiveLayoutAt1024x768(t *testing.T) {
	viewW, viewH := 1024.0, 768.0
	cfg := DefaultConfig()

	startY := StartY(viewH, cfg.Physics.StartYFrac)
	assertNear(t, "startY", startY, -307.2)

	y := DefaultPhraseY(viewH)
	got := StringSegments(y, startY, cfg.Physics.SegmentLength)
	if got != 12 {
		t.Errorf("StringSegments = %d, want 12", got)
	}

	if s := FontScale(viewW); s < 36 || s > 120 {
		t.Errorf("FontScale(%v) = %v, want within [36, 120]", viewW, s)
	}
}
