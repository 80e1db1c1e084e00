package marionette

import "testing"

// testPerfConfig uses exact binary fractions so the streak accumulators hit
// their thresholds without float drift.
func testPerfConfig() PerfConfig {
	return PerfConfig{
		WindowSize:        8,
		SlowFrame:         0.03,
		FastFrame:         0.018,
		DegradeAfter:      1.0,
		UpgradeAfter:      1.0,
		MinSwitchInterval: 3.0,
	}
}

func TestPerfMonitorStartsHigh(t *testing.T) {
	m := NewPerfMonitor(testPerfConfig())
	if m.Tier() != TierHigh {
		t.Errorf("fresh Tier() = %v, want %v", m.Tier(), TierHigh)
	}
}

func TestPerfMonitorDegradesOncePerStreak(t *testing.T) {
	m := NewPerfMonitor(testPerfConfig())
	slow := 0.0625 // 1/16: sixteen samples accumulate exactly 1.0s

	for i := 0; i < 15; i++ {
		m.AddSample(slow)
	}
	if m.Tier() != TierHigh {
		t.Fatalf("Tier after 15 slow samples = %v, want %v", m.Tier(), TierHigh)
	}
	m.AddSample(slow)
	if m.Tier() != TierMedium {
		t.Fatalf("Tier after 16 slow samples = %v, want %v", m.Tier(), TierMedium)
	}

	// The streak keeps running, but the next step has to wait out the
	// minimum switch interval: 3.0s = 48 samples since the change.
	for i := 0; i < 47; i++ {
		m.AddSample(slow)
	}
	if m.Tier() != TierMedium {
		t.Fatalf("Tier before interval elapsed = %v, want %v", m.Tier(), TierMedium)
	}
	m.AddSample(slow)
	if m.Tier() != TierLow {
		t.Errorf("Tier after interval elapsed = %v, want %v", m.Tier(), TierLow)
	}
}

func TestPerfMonitorUpgradeAfterSustainedFastFrames(t *testing.T) {
	m := NewPerfMonitor(testPerfConfig())
	slow, fast := 0.0625, 0.015625 // 1/16 and 1/64

	for i := 0; i < 16; i++ {
		m.AddSample(slow)
	}
	if m.Tier() != TierMedium {
		t.Fatalf("setup degrade failed: Tier = %v", m.Tier())
	}

	// 1.0s of fast frames is enough streak, but the switch interval
	// dominates: 3.0s = 192 fast samples.
	for i := 0; i < 191; i++ {
		m.AddSample(fast)
	}
	if m.Tier() != TierMedium {
		t.Fatalf("Tier before upgrade interval = %v, want %v", m.Tier(), TierMedium)
	}
	m.AddSample(fast)
	if m.Tier() != TierHigh {
		t.Errorf("Tier after sustained fast frames = %v, want %v", m.Tier(), TierHigh)
	}
}

func TestPerfMonitorMidRangeFrameBreaksStreak(t *testing.T) {
	m := NewPerfMonitor(testPerfConfig())
	slow := 0.0625

	for i := 0; i < 15; i++ {
		m.AddSample(slow)
	}
	m.AddSample(0.02) // between FastFrame and SlowFrame
	for i := 0; i < 15; i++ {
		m.AddSample(slow)
	}
	if m.Tier() != TierHigh {
		t.Errorf("Tier = %v after broken streak, want %v", m.Tier(), TierHigh)
	}
	m.AddSample(slow)
	if m.Tier() != TierMedium {
		t.Errorf("Tier = %v after rebuilt streak, want %v", m.Tier(), TierMedium)
	}
}

func TestPerfMonitorHiddenForcesUltraLow(t *testing.T) {
	m := NewPerfMonitor(testPerfConfig())
	m.SetHidden(true)
	if m.Tier() != TierUltraLow {
		t.Fatalf("hidden Tier() = %v, want %v", m.Tier(), TierUltraLow)
	}
	if !m.Hidden() {
		t.Error("Hidden() = false after SetHidden(true)")
	}
	m.SetHidden(false)
	if m.Tier() != TierHigh {
		t.Errorf("restored Tier() = %v, want %v (measured tier kept)", m.Tier(), TierHigh)
	}
}

func TestPerfMonitorOnChange(t *testing.T) {
	m := NewPerfMonitor(testPerfConfig())
	var changes []Tier
	m.OnChange = func(tier Tier) { changes = append(changes, tier) }

	for i := 0; i < 16; i++ {
		m.AddSample(0.0625)
	}
	if len(changes) != 1 || changes[0] != TierMedium {
		t.Fatalf("changes = %v, want [medium]", changes)
	}

	m.SetHidden(true)
	m.SetHidden(false)
	if len(changes) != 3 || changes[1] != TierUltraLow || changes[2] != TierMedium {
		t.Errorf("changes = %v, want [medium ultraLow medium]", changes)
	}
}

func TestPerfMonitorAverageDelta(t *testing.T) {
	m := NewPerfMonitor(testPerfConfig())
	if got := m.AverageDelta(); got != 0 {
		t.Fatalf("AverageDelta with no samples = %v, want 0", got)
	}
	m.AddSample(0.01)
	m.AddSample(0.02)
	m.AddSample(0.03)
	assertNearTol(t, "partial window mean", m.AverageDelta(), 0.02, 1e-12)

	// Overfill the 8-slot window; the mean covers only the newest samples.
	for i := 0; i < 8; i++ {
		m.AddSample(0.04)
	}
	assertNearTol(t, "full window mean", m.AverageDelta(), 0.04, 1e-12)
}

func TestTierString(t *testing.T) {
	tests := []struct {
		tier Tier
		want string
	}{
		{TierHigh, "high"},
		{TierMedium, "medium"},
		{TierLow, "low"},
		{TierUltraLow, "ultraLow"},
	}
	for _, tt := range tests {
		if got := tt.tier.String(); got != tt.want {
			t.Errorf("Tier(%d).String() = %q, want %q", tt.tier, got, tt.want)
		}
	}
}

func TestConfigTierSettingsClamps(t *testing.T) {
	cfg := DefaultConfig()
	high := cfg.TierSettings(TierHigh)
	if got := cfg.TierSettings(Tier(99)); got != high {
		t.Errorf("TierSettings(99) = %+v, want the TierHigh settings", got)
	}
	low := cfg.TierSettings(TierUltraLow)
	if low.SimResolution >= high.SimResolution {
		t.Errorf("ultra-low sim resolution %d not below high %d",
			low.SimResolution, high.SimResolution)
	}
}
