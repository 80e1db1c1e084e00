package marionette

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// TextColors is the color set a HangingText renders with. String tints the
// two chains, Spark tints the burst emitted when the text lands.
type TextColors struct {
	Fill   Color
	Stroke Color
	Glow   Color
	String Color
	Spark  Color
}

// PhraseConfig describes one hanging phrase in the opening sequence.
type PhraseConfig struct {
	// Text is the phrase rendered on the body.
	Text string
	// X and Y locate the body's rest position. Left unset they fall back to
	// the viewport center (X) and 38% height (Y).
	X, Y Value
	// Detach, when true, makes a fall separate the body from its strings
	// instead of dropping strings and body together.
	Detach bool
}

// PhysicsConfig groups the rigid-body constants.
type PhysicsConfig struct {
	// Gravity is the world gravity in pixels per second squared, Y down.
	Gravity Vec2
	// SegmentLength is the length of one string segment in pixels.
	SegmentLength float64
	// SegmentRadius is the collision radius of a string segment.
	SegmentRadius float64
	// StartYFrac positions the ceiling anchors at -viewportHeight*StartYFrac.
	StartYFrac float64
	// AnchorSpreadFrac is the horizontal anchor offset as a fraction of the
	// measured text width.
	AnchorSpreadFrac float64
	// TextDensity converts text box area to body mass.
	TextDensity float64
	// StringStiffness and StringDamping tune the boundary springs.
	StringStiffness float64
	StringDamping   float64
	// GroundThickness is the static floor/wall slab thickness.
	GroundThickness float64
}

// TimingConfig groups the scene-sequence delays, in seconds.
type TimingConfig struct {
	// HelloHold is the pause before the first phrase becomes clickable.
	HelloHold float64
	// NextPhraseDelay is the gap between a fall and the next phrase.
	NextPhraseDelay float64
	// ColorChangeDelay is the gap between the last fall and the palette flip.
	ColorChangeDelay float64
	// TunnelDelay is the gap between the palette flip and the tunnel.
	TunnelDelay float64
	// ColorFade is the duration of the visual palette crossfade.
	ColorFade float64
}

// TunnelConfig groups the tunnel tuning constants. Durations are wall-clock
// seconds; the phase machine is driven by frame deltas, not frame counts.
type TunnelConfig struct {
	FadeIn  float64
	Active  float64
	FadeOut float64
	// Radius is the tube radius in world units, Length its extent along +Z.
	Radius float64
	Length float64
	// ShapeSpeed is the cross-section morph rate in shapes per second, and
	// WaveLag how far the morph trails from the far end to the near end.
	ShapeSpeed float64
	WaveLag    float64
	// RadiusClamp bounds the analytic polygon radius near vertex boundaries.
	RadiusClamp float64
	// Twist is the total twist along the tube in radians; TwistSpeed the
	// additional time twist in radians per second.
	Twist      float64
	TwistSpeed float64
	// DistortAmp scales the noise wave distortion of the cross-section.
	DistortAmp float64
	// PaletteCycle is the seconds between palette switches.
	PaletteCycle float64
	// ColorWave is the palette-position travel speed along the tube.
	ColorWave float64
	// InnerScale sizes the inner tube relative to the outer.
	InnerScale float64
	// BendReach scales how far the pointer drags the interior control points.
	BendReach float64
}

// FluidConfig groups the solver constants.
type FluidConfig struct {
	// DensityDissipation and VelocityDissipation are per-second decay rates
	// applied during advection (0 keeps a field forever).
	DensityDissipation  float64
	VelocityDissipation float64
	// PressureDecay scales the previous frame's pressure field when seeding
	// the Jacobi iteration.
	PressureDecay float64
	// Curl is the vorticity confinement strength.
	Curl float64
	// SplatRadius is the Gaussian falloff radius in texture space,
	// aspect-corrected at splat time. SplatForce scales pointer deltas into
	// velocity injection.
	SplatRadius float64
	SplatForce  float64
	// Bloom tuning. BloomResolution is the smaller dimension of the bloom
	// pyramid's base level.
	BloomIntensity  float64
	BloomThreshold  float64
	BloomSoftKnee   float64
	BloomLevels     int
	BloomResolution int
	// Sunrays tuning.
	SunraysWeight     float64
	SunraysResolution int
	// Gamma is the display encode exponent.
	Gamma float64
	// RevealDuration is the opacity fade-in after the tunnel hands over, and
	// HandoffReveal the reveal level at which the tunnel may release its
	// geometry without leaving a black frame.
	RevealDuration float64
	HandoffReveal  float64
	// Emitter is the synthetic turbulence source tied to the brain.
	Emitter EmitterConfig
}

// EmitterConfig tunes the synthetic turbulence forcing that keeps the fluid
// alive without user input.
type EmitterConfig struct {
	// Enabled gates all emitter forcing.
	Enabled bool
	// Radius is the emitter ring radius in texture space.
	Radius float64
	// Intensity scales the injected force.
	Intensity float64
	// SpinRate is the ring rotation in radians per second.
	SpinRate float64
	// JitterMax bounds the random per-frame velocity jitter.
	JitterMax float64
}

// PerfConfig tunes the performance tier hysteresis.
type PerfConfig struct {
	// WindowSize is the rolling frame-delta sample count used for reporting.
	WindowSize int
	// SlowFrame and FastFrame are the frame-delta thresholds in seconds.
	SlowFrame float64
	FastFrame float64
	// DegradeAfter and UpgradeAfter are the sustained streak durations
	// required before a tier change.
	DegradeAfter float64
	UpgradeAfter float64
	// MinSwitchInterval is the minimum spacing between tier changes.
	MinSwitchInterval float64
}

// SparkConfig tunes the fall burst.
type SparkConfig struct {
	MaxSparks int
	Count     Range
	Speed     Range
	Lifetime  Range
	Radius    Range
	// CullMargin is how far below the viewport a spark may sink before it
	// is reaped regardless of lifetime.
	CullMargin float64
}

// BackdropConfig tunes the ambient dust motes behind the stage.
type BackdropConfig struct {
	Count int
	Drift float64
	Size  Range
	Alpha Range
}

// BrainConfig tunes the terminal-scene model.
type BrainConfig struct {
	Radius     float64
	Detail     int
	BobAmp     float64
	PulseScale float64
	PulseTime  float64
	Label      string
}

// TierSettings are the quality knobs a performance tier grants. Resolutions
// are the smaller framebuffer dimension; the larger follows the aspect ratio.
type TierSettings struct {
	SimResolution      int
	DyeResolution      int
	Bloom              bool
	Sunrays            bool
	Shading            bool
	PressureIterations int
	EmitterSplats      int
	TunnelSegments     int
	TunnelRadial       int
	Rings              int
}

// Config is the static configuration read once at startup. All tuning
// constants live here; retuning them does not change any contract.
type Config struct {
	// Phrases is the opening sequence, in order.
	Phrases []PhraseConfig
	// SkipKey jumps to the terminal fluid scene from anywhere.
	SkipKey ebiten.Key
	// HUDKey toggles the perf HUD; CaptureKey saves a frame PNG.
	HUDKey     ebiten.Key
	CaptureKey ebiten.Key
	// StartAtTunnel skips the hanging-text scenes entirely.
	StartAtTunnel bool

	// Background is the stage color before the flip, BackgroundFlipped after.
	Background        Color
	BackgroundFlipped Color
	// Gold is the phrase color set before the flip, Mono after.
	Gold TextColors
	Mono TextColors

	Physics  PhysicsConfig
	Timing   TimingConfig
	Tunnel   TunnelConfig
	Fluid    FluidConfig
	Perf     PerfConfig
	Sparks   SparkConfig
	Backdrop BackdropConfig
	Brain    BrainConfig

	// Tiers is indexed by Tier (TierUltraLow..TierHigh).
	Tiers [4]TierSettings

	// TunnelPalettes cycle during the tunnel's active phase. OrganicPalette
	// colors pointer splats and the emitter forcing.
	TunnelPalettes []Palette
	OrganicPalette Palette

	// ScreenshotDir receives frame captures.
	ScreenshotDir string
}

// DefaultConfig returns the tuning the piece ships with.
func DefaultConfig() *Config {
	return &Config{
		Phrases: []PhraseConfig{
			{Text: "Hello!"},
			{Text: "I'm Julian."},
			{Text: "Ready?", Detach: true},
		},
		SkipKey:       ebiten.KeyS,
		HUDKey:        ebiten.KeyH,
		CaptureKey:    ebiten.KeyP,
		StartAtTunnel: false,

		Background:        Color{0.051, 0.039, 0.024, 1},
		BackgroundFlipped: Color{0.949, 0.941, 0.918, 1},
		Gold: TextColors{
			Fill:   Color{0.961, 0.773, 0.259, 1},
			Stroke: Color{0.541, 0.427, 0.122, 1},
			Glow:   Color{1, 0.875, 0.502, 1},
			String: Color{0.792, 0.659, 0.306, 1},
			Spark:  Color{1, 0.847, 0.4, 1},
		},
		Mono: TextColors{
			Fill:   Color{0.067, 0.067, 0.067, 1},
			Stroke: Color{0, 0, 0, 1},
			Glow:   Color{0.2, 0.2, 0.2, 1},
			String: Color{0.133, 0.133, 0.133, 1},
			Spark:  Color{0.267, 0.267, 0.267, 1},
		},

		Physics: PhysicsConfig{
			Gravity:          Vec2{0, 900},
			SegmentLength:    50,
			SegmentRadius:    2,
			StartYFrac:       0.4,
			AnchorSpreadFrac: 0.35,
			TextDensity:      0.0008,
			StringStiffness:  900,
			StringDamping:    18,
			GroundThickness:  60,
		},
		Timing: TimingConfig{
			HelloHold:        2.2,
			NextPhraseDelay:  1.4,
			ColorChangeDelay: 1.2,
			TunnelDelay:      1.6,
			ColorFade:        0.9,
		},
		Tunnel: TunnelConfig{
			FadeIn:       3,
			Active:       5,
			FadeOut:      2,
			Radius:       220,
			Length:       2400,
			ShapeSpeed:   0.45,
			WaveLag:      1.5,
			RadiusClamp:  1.5,
			Twist:        2.4,
			TwistSpeed:   0.35,
			DistortAmp:   0.06,
			PaletteCycle: 6,
			ColorWave:    0.8,
			InnerScale:   0.6,
			BendReach:    160,
		},
		Fluid: FluidConfig{
			DensityDissipation:  1.0,
			VelocityDissipation: 0.2,
			PressureDecay:       0.8,
			Curl:                30,
			SplatRadius:         0.25,
			SplatForce:          6000,
			BloomIntensity:      0.8,
			BloomThreshold:      0.6,
			BloomSoftKnee:       0.7,
			BloomLevels:         5,
			BloomResolution:     128,
			SunraysWeight:       1.0,
			SunraysResolution:   96,
			Gamma:               2.2,
			RevealDuration:      1.8,
			HandoffReveal:       0.35,
			Emitter: EmitterConfig{
				Enabled:   true,
				Radius:    0.09,
				Intensity: 320,
				SpinRate:  0.9,
				JitterMax: 40,
			},
		},
		Perf: PerfConfig{
			WindowSize:        60,
			SlowFrame:         1.0 / 45,
			FastFrame:         1.0 / 58,
			DegradeAfter:      2.0,
			UpgradeAfter:      6.0,
			MinSwitchInterval: 4.0,
		},
		Sparks: SparkConfig{
			MaxSparks:  256,
			Count:      Range{14, 22},
			Speed:      Range{180, 420},
			Lifetime:   Range{0.5, 1.1},
			Radius:     Range{1.5, 3.5},
			CullMargin: 200,
		},
		Backdrop: BackdropConfig{
			Count: 90,
			Drift: 14,
			Size:  Range{1, 3},
			Alpha: Range{0.05, 0.22},
		},
		Brain: BrainConfig{
			Radius:     130,
			Detail:     3,
			BobAmp:     10,
			PulseScale: 1.18,
			PulseTime:  0.45,
			Label:      "this is your brain on fluid",
		},

		Tiers: [4]TierSettings{
			TierUltraLow: {
				SimResolution: 40, DyeResolution: 96,
				PressureIterations: 8, EmitterSplats: 2,
				TunnelSegments: 32, TunnelRadial: 16, Rings: 0,
			},
			TierLow: {
				SimResolution: 56, DyeResolution: 144,
				PressureIterations: 12, EmitterSplats: 3,
				TunnelSegments: 48, TunnelRadial: 24, Rings: 2,
			},
			TierMedium: {
				SimResolution: 72, DyeResolution: 216,
				Bloom: true, Shading: true,
				PressureIterations: 16, EmitterSplats: 4,
				TunnelSegments: 72, TunnelRadial: 36, Rings: 3,
			},
			TierHigh: {
				SimResolution: 96, DyeResolution: 288,
				Bloom: true, Sunrays: true, Shading: true,
				PressureIterations: 20, EmitterSplats: 6,
				TunnelSegments: 96, TunnelRadial: 48, Rings: 5,
			},
		},

		TunnelPalettes: defaultTunnelPalettes(),
		OrganicPalette: organicPalette(),

		ScreenshotDir: "screenshots",
	}
}
