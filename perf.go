package marionette

import "log"

// Tier is a discrete quality level. Tiers are ordered: TierHigh > TierMedium
// > TierLow > TierUltraLow.
type Tier uint8

const (
	TierUltraLow Tier = iota // minimum resolution, all extras off
	TierLow                  // reduced resolution, extras off
	TierMedium               // bloom and shading, no sunrays
	TierHigh                 // full resolution, all extras on
)

// String returns the tier's name.
func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	default:
		return "ultraLow"
	}
}

// TierSettings returns the quality knobs for a tier.
func (c *Config) TierSettings(t Tier) TierSettings {
	if t > TierHigh {
		t = TierHigh
	}
	return c.Tiers[t]
}

// PerfMonitor samples frame deltas and classifies the device into a Tier.
// Separate degrade and upgrade streaks with a minimum interval between
// changes keep the tier from oscillating. A hidden window forces
// TierUltraLow regardless of the measured tier.
type PerfMonitor struct {
	cfg PerfConfig

	tier      Tier
	slowAccum float64
	fastAccum float64
	// sinceSwitch starts satisfied so the first change is not delayed.
	sinceSwitch float64

	window []float64
	next   int
	filled bool

	hidden   bool
	reported Tier

	// OnChange, if set, fires whenever the effective tier changes, including
	// hidden-window overrides.
	OnChange func(Tier)
}

// NewPerfMonitor creates a monitor starting at TierHigh.
func NewPerfMonitor(cfg PerfConfig) *PerfMonitor {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 60
	}
	return &PerfMonitor{
		cfg:         cfg,
		tier:        TierHigh,
		sinceSwitch: cfg.MinSwitchInterval,
		window:      make([]float64, cfg.WindowSize),
		reported:    TierHigh,
	}
}

// AddSample records one frame delta in seconds and applies the hysteresis
// rules. At most one tier step happens per qualifying streak.
func (m *PerfMonitor) AddSample(dt float64) {
	m.window[m.next] = dt
	m.next++
	if m.next == len(m.window) {
		m.next = 0
		m.filled = true
	}

	m.sinceSwitch += dt

	switch {
	case dt > m.cfg.SlowFrame:
		m.slowAccum += dt
		m.fastAccum = 0
	case dt < m.cfg.FastFrame:
		m.fastAccum += dt
		m.slowAccum = 0
	default:
		// Mid-range frames break both streaks.
		m.slowAccum = 0
		m.fastAccum = 0
	}

	if m.slowAccum >= m.cfg.DegradeAfter && m.sinceSwitch >= m.cfg.MinSwitchInterval && m.tier > TierUltraLow {
		m.tier--
		m.resetStreaks()
	} else if m.fastAccum >= m.cfg.UpgradeAfter && m.sinceSwitch >= m.cfg.MinSwitchInterval && m.tier < TierHigh {
		m.tier++
		m.resetStreaks()
	}

	m.report()
}

func (m *PerfMonitor) resetStreaks() {
	m.slowAccum = 0
	m.fastAccum = 0
	m.sinceSwitch = 0
}

// SetHidden marks the window as hidden or visible. Hidden forces the
// effective tier to TierUltraLow without losing the measured tier.
func (m *PerfMonitor) SetHidden(hidden bool) {
	m.hidden = hidden
	m.report()
}

// Hidden reports whether the window is currently marked hidden.
func (m *PerfMonitor) Hidden() bool {
	return m.hidden
}

// Tier returns the effective tier.
func (m *PerfMonitor) Tier() Tier {
	if m.hidden {
		return TierUltraLow
	}
	return m.tier
}

// AverageDelta returns the mean frame delta over the rolling window, or 0
// before any sample arrives.
func (m *PerfMonitor) AverageDelta() float64 {
	n := m.next
	if m.filled {
		n = len(m.window)
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, dt := range m.window[:n] {
		sum += dt
	}
	return sum / float64(n)
}

func (m *PerfMonitor) report() {
	eff := m.Tier()
	if eff == m.reported {
		return
	}
	m.reported = eff
	if Verbose {
		log.Printf("[marionette] perf tier -> %s", eff)
	}
	if m.OnChange != nil {
		m.OnChange(eff)
	}
}
