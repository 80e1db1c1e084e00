package marionette

// Bloom spreads the bright end of the dye field through a blur pyramid:
// a soft-knee prefilter into the base level, iterative downsampling, then
// additive upsampling back. The final intensity scale is applied at
// composite time.
type Bloom struct {
	intensity float32
	threshold float32
	curve     [3]float32 // (threshold - knee, 2 knee, 0.25 / knee)

	base   *Field // RGB at the pyramid's base resolution
	levels []*Field
}

// NewBloom allocates the pyramid. Levels halve until the configured depth
// or a 2-texel floor, whichever comes first.
func NewBloom(w, h int, cfg FluidConfig) *Bloom {
	knee := float32(cfg.BloomThreshold*cfg.BloomSoftKnee) + 1e-4
	b := &Bloom{
		intensity: float32(cfg.BloomIntensity),
		threshold: float32(cfg.BloomThreshold),
		curve: [3]float32{
			float32(cfg.BloomThreshold) - knee,
			knee * 2,
			0.25 / knee,
		},
		base: NewField(w, h, 3),
	}
	lw, lh := w, h
	for i := 0; i < cfg.BloomLevels; i++ {
		lw >>= 1
		lh >>= 1
		if lw < 2 || lh < 2 {
			break
		}
		b.levels = append(b.levels, NewField(lw, lh, 3))
	}
	return b
}

// Run rebuilds the pyramid from the dye field.
func (b *Bloom) Run(dye *Field) {
	b.prefilter(dye)
	src := b.base
	for _, lv := range b.levels {
		blurInto(src, lv)
		src = lv
	}
	for i := len(b.levels) - 1; i > 0; i-- {
		blurAdd(b.levels[i], b.levels[i-1])
	}
	if len(b.levels) > 0 {
		blurAdd(b.levels[0], b.base)
	}
}

// Sample reads the bloom contribution at UV, intensity applied.
func (b *Bloom) Sample(u, v float64, c int) float32 {
	return b.base.Bilerp(u, v, c) * b.intensity
}

// prefilter resamples the dye into the base level through the soft-knee
// threshold curve, keeping only what should glow.
func (b *Bloom) prefilter(dye *Field) {
	for y := 0; y < b.base.H; y++ {
		v := (float64(y) + 0.5) / float64(b.base.H)
		for x := 0; x < b.base.W; x++ {
			u := (float64(x) + 0.5) / float64(b.base.W)
			r := dye.Bilerp(u, v, 0)
			g := dye.Bilerp(u, v, 1)
			bl := dye.Bilerp(u, v, 2)

			br := r
			if g > br {
				br = g
			}
			if bl > br {
				br = bl
			}
			rq := clamp32(br-b.curve[0], 0, b.curve[1])
			rq = b.curve[2] * rq * rq
			hard := br - b.threshold
			if rq > hard {
				hard = rq
			}
			div := br
			if div < 1e-4 {
				div = 1e-4
			}
			m := hard / div
			if m < 0 {
				m = 0
			}

			i := (y*b.base.W + x) * 3
			b.base.Data[i] = r * m
			b.base.Data[i+1] = g * m
			b.base.Data[i+2] = bl * m
		}
	}
}

// blurInto writes a 4-tap cross blur of src into dst, resampling across
// the resolution change.
func blurInto(src, dst *Field) {
	tx := 1 / float64(src.W)
	ty := 1 / float64(src.H)
	for y := 0; y < dst.H; y++ {
		v := (float64(y) + 0.5) / float64(dst.H)
		for x := 0; x < dst.W; x++ {
			u := (float64(x) + 0.5) / float64(dst.W)
			i := (y*dst.W + x) * dst.C
			for c := 0; c < dst.C; c++ {
				sum := src.Bilerp(u-tx, v, c) +
					src.Bilerp(u+tx, v, c) +
					src.Bilerp(u, v-ty, c) +
					src.Bilerp(u, v+ty, c)
				dst.Data[i+c] = sum * 0.25
			}
		}
	}
}

// blurAdd is blurInto with additive blending into dst.
func blurAdd(src, dst *Field) {
	tx := 1 / float64(src.W)
	ty := 1 / float64(src.H)
	for y := 0; y < dst.H; y++ {
		v := (float64(y) + 0.5) / float64(dst.H)
		for x := 0; x < dst.W; x++ {
			u := (float64(x) + 0.5) / float64(dst.W)
			i := (y*dst.W + x) * dst.C
			for c := 0; c < dst.C; c++ {
				sum := src.Bilerp(u-tx, v, c) +
					src.Bilerp(u+tx, v, c) +
					src.Bilerp(u, v-ty, c) +
					src.Bilerp(u, v+ty, c)
				dst.Data[i+c] += sum * 0.25
			}
		}
	}
}
