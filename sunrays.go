package marionette

// sunraysIterations is the radial march sample count per texel.
const sunraysIterations = 16

// Sunrays builds a light-shaft factor from the dye field: bright dye
// occludes a light source at the viewport center, and a decaying march
// toward the center accumulates how much light survives along each ray.
type Sunrays struct {
	weight float32
	mask   *Field // transmission per texel, 1 where dye is absent
	out    *Field
	tmp    *Field
}

// NewSunrays allocates the grids at the given resolution.
func NewSunrays(w, h int, cfg FluidConfig) *Sunrays {
	return &Sunrays{
		weight: float32(cfg.SunraysWeight),
		mask:   NewField(w, h, 1),
		out:    NewField(w, h, 1),
		tmp:    NewField(w, h, 1),
	}
}

// Run rebuilds the shaft factor from the dye field.
func (s *Sunrays) Run(dye *Field) {
	s.buildMask(dye)
	s.march()
	blurInto(s.out, s.tmp)
	blurInto(s.tmp, s.out)
}

// Sample reads the shaft factor at UV.
func (s *Sunrays) Sample(u, v float64) float32 {
	return s.out.Bilerp(u, v, 0)
}

// buildMask converts dye brightness to transmission: dense dye blocks most
// of the light but never all of it.
func (s *Sunrays) buildMask(dye *Field) {
	for y := 0; y < s.mask.H; y++ {
		v := (float64(y) + 0.5) / float64(s.mask.H)
		for x := 0; x < s.mask.W; x++ {
			u := (float64(x) + 0.5) / float64(s.mask.W)
			br := dye.Bilerp(u, v, 0)
			if g := dye.Bilerp(u, v, 1); g > br {
				br = g
			}
			if b := dye.Bilerp(u, v, 2); b > br {
				br = b
			}
			s.mask.Data[y*s.mask.W+x] = 1 - clamp32(br*20, 0, 0.8)
		}
	}
}

// march accumulates transmission along each texel's ray toward the center
// with exponential decay.
func (s *Sunrays) march() {
	const (
		density  = 0.3
		decay    = float32(0.95)
		exposure = float32(0.7)
	)
	for y := 0; y < s.out.H; y++ {
		v := (float64(y) + 0.5) / float64(s.out.H)
		for x := 0; x < s.out.W; x++ {
			u := (float64(x) + 0.5) / float64(s.out.W)
			dirX := (u - 0.5) * density / sunraysIterations
			dirY := (v - 0.5) * density / sunraysIterations

			cu, cv := u, v
			illum := float32(1)
			color := s.mask.Data[y*s.out.W+x]
			for i := 0; i < sunraysIterations; i++ {
				cu -= dirX
				cv -= dirY
				color += s.mask.Bilerp(cu, cv, 0) * illum * s.weight
				illum *= decay
			}
			s.out.Data[y*s.out.W+x] = color * exposure
		}
	}
}
