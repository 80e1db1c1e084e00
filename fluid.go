package marionette

import (
	"log"
	"math"

	"github.com/chewxy/math32"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Field is one simulation grid: W x H texels of C float32 components,
// row-major, component-interleaved. Reads off the edge clamp to the border
// texel, matching clamp-to-edge sampling.
type Field struct {
	W, H, C int
	Data    []float32
}

// NewField allocates a zeroed grid.
func NewField(w, h, c int) *Field {
	return &Field{W: w, H: h, C: c, Data: make([]float32, w*h*c)}
}

// At reads component c at texel (x, y), edges clamped.
func (f *Field) At(x, y, c int) float32 {
	if x < 0 {
		x = 0
	} else if x >= f.W {
		x = f.W - 1
	}
	if y < 0 {
		y = 0
	} else if y >= f.H {
		y = f.H - 1
	}
	return f.Data[(y*f.W+x)*f.C+c]
}

// Set writes component c at texel (x, y). Out-of-range texels are ignored.
func (f *Field) Set(x, y, c int, v float32) {
	if x < 0 || x >= f.W || y < 0 || y >= f.H {
		return
	}
	f.Data[(y*f.W+x)*f.C+c] = v
}

// Bilerp samples component c at UV coordinates in [0, 1] with manual
// bilinear filtering. Texel centers sit at (i+0.5)/W, so sampling a center
// returns that texel exactly.
func (f *Field) Bilerp(u, v float64, c int) float32 {
	x := u*float64(f.W) - 0.5
	y := v*float64(f.H) - 0.5
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := float32(x - float64(x0))
	fy := float32(y - float64(y0))
	a := f.At(x0, y0, c)
	b := f.At(x0+1, y0, c)
	cc := f.At(x0, y0+1, c)
	d := f.At(x0+1, y0+1, c)
	return lerp32(lerp32(a, b, fx), lerp32(cc, d, fx), fy)
}

// Clear zeroes the grid.
func (f *Field) Clear() {
	for i := range f.Data {
		f.Data[i] = 0
	}
}

// Sum adds component c across the grid.
func (f *Field) Sum(c int) float64 {
	var s float64
	for i := c; i < len(f.Data); i += f.C {
		s += float64(f.Data[i])
	}
	return s
}

// DoubleField ping-pongs two grids so a pass reads Src while writing Dst.
type DoubleField struct {
	Src, Dst *Field
}

// NewDoubleField allocates both grids.
func NewDoubleField(w, h, c int) DoubleField {
	return DoubleField{Src: NewField(w, h, c), Dst: NewField(w, h, c)}
}

// Swap exchanges the read and write grids.
func (d *DoubleField) Swap() {
	d.Src, d.Dst = d.Dst, d.Src
}

// gridSize maps a resolution knob to grid dimensions: the smaller viewport
// axis gets res texels, the larger follows the aspect ratio.
func gridSize(res int, vw, vh float64) (w, h int) {
	if vw <= 0 || vh <= 0 {
		return res, res
	}
	aspect := vw / vh
	if aspect < 1 {
		aspect = 1 / aspect
	}
	lo := res
	hi := int(math.Round(float64(res) * aspect))
	if vw > vh {
		return hi, lo
	}
	return lo, hi
}

// Fluid is the incompressible-flow solver behind the terminal scene. It
// advances velocity and dye grids with vorticity confinement, a Jacobi
// pressure projection and semi-Lagrangian advection, forced by pointer
// splats and the synthetic emitter parked on the brain.
type Fluid struct {
	ctx *Context
	cfg FluidConfig

	simW, simH int
	dyeW, dyeH int
	aspect     float64

	velocity   DoubleField // 2 components, sim-texel units per second
	dye        DoubleField // 3 components
	pressure   DoubleField // 1 component, seeded from the prior frame
	divergence *Field
	curl       *Field

	bloom   *Bloom
	sunrays *Sunrays
	display *fluidDisplay

	reveal       float64
	emitterAngle float64
	destroyed    bool
}

// NewFluid sizes the grids for the current viewport and performance tier.
func NewFluid(ctx *Context) *Fluid {
	f := &Fluid{ctx: ctx, cfg: ctx.Cfg.Fluid}
	f.alloc(false)
	if Verbose {
		log.Printf("[marionette] fluid up: sim %dx%d, dye %dx%d", f.simW, f.simH, f.dyeW, f.dyeH)
	}
	return f
}

// alloc builds every grid for the current viewport and tier. With resample
// set, the old velocity and dye fields are bilinearly carried over so a
// quality switch does not blank the picture.
func (f *Fluid) alloc(resample bool) {
	vp := f.ctx.Viewport()
	ts := f.ctx.TierSettings()
	f.aspect = 1
	if vp.Y > 0 {
		f.aspect = vp.X / vp.Y
	}
	f.simW, f.simH = gridSize(ts.SimResolution, vp.X, vp.Y)
	f.dyeW, f.dyeH = gridSize(ts.DyeResolution, vp.X, vp.Y)

	oldVel, oldDye := f.velocity, f.dye
	f.velocity = NewDoubleField(f.simW, f.simH, 2)
	f.dye = NewDoubleField(f.dyeW, f.dyeH, 3)
	f.pressure = NewDoubleField(f.simW, f.simH, 1)
	f.divergence = NewField(f.simW, f.simH, 1)
	f.curl = NewField(f.simW, f.simH, 1)
	if resample {
		resampleField(oldVel.Src, f.velocity.Src)
		resampleField(oldDye.Src, f.dye.Src)
	}

	f.bloom = nil
	f.sunrays = nil
	if ts.Bloom {
		bw, bh := gridSize(f.cfg.BloomResolution, vp.X, vp.Y)
		f.bloom = NewBloom(bw, bh, f.cfg)
	}
	if ts.Sunrays {
		sw, sh := gridSize(f.cfg.SunraysResolution, vp.X, vp.Y)
		f.sunrays = NewSunrays(sw, sh, f.cfg)
	}
	f.display = newFluidDisplay(f.dyeW, f.dyeH, f.cfg)
}

// resampleField bilinearly copies src into dst across a resolution change.
func resampleField(src, dst *Field) {
	if src == nil || dst == nil || src.C != dst.C {
		return
	}
	for y := 0; y < dst.H; y++ {
		v := (float64(y) + 0.5) / float64(dst.H)
		for x := 0; x < dst.W; x++ {
			u := (float64(x) + 0.5) / float64(dst.W)
			i := (y*dst.W + x) * dst.C
			for c := 0; c < dst.C; c++ {
				dst.Data[i+c] = src.Bilerp(u, v, c)
			}
		}
	}
}

// Resize rebuilds the grids for a new viewport or tier, preserving the
// dye and velocity content.
func (f *Fluid) Resize() {
	if f.destroyed {
		return
	}
	f.alloc(true)
	if Verbose {
		log.Printf("[marionette] fluid refit: sim %dx%d, dye %dx%d", f.simW, f.simH, f.dyeW, f.dyeH)
	}
}

// Reveal returns the handover fade in [0, 1]. The tunnel waits for this to
// cross its destruction threshold before releasing its geometry.
func (f *Fluid) Reveal() float64 { return f.reveal }

// Update runs one frame: the reveal ramp, pointer and emitter forcing, a
// solver step, then the display composite. emitter is the forcing center
// in texture space, ignored unless emitterOn.
func (f *Fluid) Update(dt float64, pointers *Pointers, emitter Vec2, emitterOn bool) {
	if f.destroyed {
		return
	}
	if f.reveal < 1 {
		f.reveal = clamp(f.reveal+dt/f.cfg.RevealDuration, 0, 1)
	}
	if pointers != nil {
		for _, pt := range pointers.List() {
			dx, dy, ok := pt.TakeSplat()
			if !ok {
				continue
			}
			f.Splat(pt.X, pt.Y, dx*f.cfg.SplatForce, dy*f.cfg.SplatForce, pt.Color)
		}
	}
	if emitterOn && f.cfg.Emitter.Enabled {
		f.applyEmitter(dt, emitter)
	}
	f.Step(dt)
	f.display.composite(f.dye.Src, f.bloom, f.sunrays, f.ctx.TierSettings().Shading)
}

// Step advances the solver one tick: vorticity confinement, divergence,
// pressure relaxation seeded from the decayed prior field, gradient
// subtraction, then advection of velocity and dye.
func (f *Fluid) Step(dt float64) {
	if f.destroyed {
		return
	}
	f.computeCurl()
	f.applyVorticity(dt)
	f.computeDivergence()
	f.decayPressure()
	for i := 0; i < f.ctx.TierSettings().PressureIterations; i++ {
		f.relaxPressure()
	}
	f.subtractGradient()
	f.advect(&f.velocity, f.cfg.VelocityDissipation, dt)
	f.advect(&f.dye, f.cfg.DensityDissipation, dt)
	if f.bloom != nil {
		f.bloom.Run(f.dye.Src)
	}
	if f.sunrays != nil {
		f.sunrays.Run(f.dye.Src)
	}
}

// computeCurl writes the velocity rotation into the curl grid.
func (f *Fluid) computeCurl() {
	v := f.velocity.Src
	for y := 0; y < f.simH; y++ {
		for x := 0; x < f.simW; x++ {
			l := v.At(x-1, y, 1)
			r := v.At(x+1, y, 1)
			b := v.At(x, y-1, 0)
			t := v.At(x, y+1, 0)
			f.curl.Data[y*f.simW+x] = 0.5 * (r - l - t + b)
		}
	}
}

// applyVorticity re-injects curl-derived rotational force into velocity,
// pushing energy back into the swirls numerical diffusion eats.
func (f *Fluid) applyVorticity(dt float64) {
	v, out := f.velocity.Src, f.velocity.Dst
	strength := float32(f.cfg.Curl)
	fdt := float32(dt)
	for y := 0; y < f.simH; y++ {
		for x := 0; x < f.simW; x++ {
			l := math32.Abs(f.curl.At(x-1, y, 0))
			r := math32.Abs(f.curl.At(x+1, y, 0))
			b := math32.Abs(f.curl.At(x, y-1, 0))
			t := math32.Abs(f.curl.At(x, y+1, 0))
			c := f.curl.At(x, y, 0)

			fx := 0.5 * (t - b)
			fy := 0.5 * (r - l)
			inv := 1 / (math32.Sqrt(fx*fx+fy*fy) + 1e-4)
			fx *= inv * strength * c
			fy *= -inv * strength * c

			i := (y*f.simW + x) * 2
			out.Data[i] = clamp32(v.Data[i]+fx*fdt, -1000, 1000)
			out.Data[i+1] = clamp32(v.Data[i+1]+fy*fdt, -1000, 1000)
		}
	}
	f.velocity.Swap()
}

// computeDivergence measures the velocity divergence. Off-grid neighbors
// reflect the center value so the border behaves as a free-slip wall.
func (f *Fluid) computeDivergence() {
	v := f.velocity.Src
	for y := 0; y < f.simH; y++ {
		for x := 0; x < f.simW; x++ {
			i := (y*f.simW + x) * 2
			cx := v.Data[i]
			cy := v.Data[i+1]
			l := v.At(x-1, y, 0)
			r := v.At(x+1, y, 0)
			b := v.At(x, y-1, 1)
			t := v.At(x, y+1, 1)
			if x == 0 {
				l = -cx
			}
			if x == f.simW-1 {
				r = -cx
			}
			if y == 0 {
				b = -cy
			}
			if y == f.simH-1 {
				t = -cy
			}
			f.divergence.Data[y*f.simW+x] = 0.5 * (r - l + t - b)
		}
	}
}

// decayPressure seeds the Jacobi iteration from the scaled prior pressure
// field instead of zero, keeping the projection temporally coherent.
func (f *Fluid) decayPressure() {
	src, dst := f.pressure.Src, f.pressure.Dst
	k := float32(f.cfg.PressureDecay)
	for i := range src.Data {
		dst.Data[i] = src.Data[i] * k
	}
	f.pressure.Swap()
}

// relaxPressure runs one Jacobi iteration of the discrete Poisson solve.
func (f *Fluid) relaxPressure() {
	p, out := f.pressure.Src, f.pressure.Dst
	for y := 0; y < f.simH; y++ {
		for x := 0; x < f.simW; x++ {
			l := p.At(x-1, y, 0)
			r := p.At(x+1, y, 0)
			b := p.At(x, y-1, 0)
			t := p.At(x, y+1, 0)
			d := f.divergence.Data[y*f.simW+x]
			out.Data[y*f.simW+x] = (l + r + b + t - d) * 0.25
		}
	}
	f.pressure.Swap()
}

// subtractGradient projects velocity to be divergence-free.
func (f *Fluid) subtractGradient() {
	v, out := f.velocity.Src, f.velocity.Dst
	p := f.pressure.Src
	for y := 0; y < f.simH; y++ {
		for x := 0; x < f.simW; x++ {
			l := p.At(x-1, y, 0)
			r := p.At(x+1, y, 0)
			b := p.At(x, y-1, 0)
			t := p.At(x, y+1, 0)
			i := (y*f.simW + x) * 2
			out.Data[i] = v.Data[i] - (r - l)
			out.Data[i+1] = v.Data[i+1] - (t - b)
		}
	}
	f.velocity.Swap()
}

// advect carries a grid along the velocity field with a semi-Lagrangian
// backward trace and manual bilinear sampling, then applies the per-field
// decay. Velocity self-advects through the same path.
func (f *Fluid) advect(df *DoubleField, dissipation, dt float64) {
	src, dst := df.Src, df.Dst
	vel := f.velocity.Src
	decay := float32(1 / (1 + dissipation*dt))
	for y := 0; y < dst.H; y++ {
		v := (float64(y) + 0.5) / float64(dst.H)
		for x := 0; x < dst.W; x++ {
			u := (float64(x) + 0.5) / float64(dst.W)
			vx := float64(vel.Bilerp(u, v, 0))
			vy := float64(vel.Bilerp(u, v, 1))
			su := u - dt*vx/float64(f.simW)
			sv := v - dt*vy/float64(f.simH)
			i := (y*dst.W + x) * dst.C
			for c := 0; c < dst.C; c++ {
				dst.Data[i+c] = src.Bilerp(su, sv, c) * decay
			}
		}
	}
	df.Swap()
}

// Splat injects velocity (vx, vy in sim-texel units per second) and dye
// around a texture-space point with an aspect-corrected Gaussian falloff.
func (f *Fluid) Splat(x, y, vx, vy float64, c colorful.Color) {
	if f.destroyed {
		return
	}
	radius := f.cfg.SplatRadius / 100
	if f.aspect > 1 {
		radius *= f.aspect
	}
	splatField(f.velocity.Src, x, y, radius, f.aspect, float32(vx), float32(vy), 0)
	splatField(f.dye.Src, x, y, radius, f.aspect, float32(c.R), float32(c.G), float32(c.B))
}

// splatField adds a Gaussian-weighted amount into up to three components,
// visiting only the texels inside the falloff's reach.
func splatField(fl *Field, x, y, radius, aspect float64, a0, a1, a2 float32) {
	// exp(-14) is below one bit of an 8-bit channel.
	reach := math.Sqrt(radius * 14)
	reachX := reach
	if aspect != 0 {
		reachX = reach / aspect
	}
	x0 := int((x - reachX) * float64(fl.W))
	x1 := int((x+reachX)*float64(fl.W)) + 1
	y0 := int((y - reach) * float64(fl.H))
	y1 := int((y+reach)*float64(fl.H)) + 1
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > fl.W {
		x1 = fl.W
	}
	if y1 > fl.H {
		y1 = fl.H
	}
	amt := [3]float32{a0, a1, a2}
	inv := float32(1 / radius)
	for ty := y0; ty < y1; ty++ {
		dv := float32((float64(ty)+0.5)/float64(fl.H) - y)
		for tx := x0; tx < x1; tx++ {
			du := float32(((float64(tx)+0.5)/float64(fl.W) - x) * aspect)
			w := math32.Exp(-(du*du + dv*dv) * inv)
			i := (ty*fl.W + tx) * fl.C
			for c := 0; c < fl.C && c < 3; c++ {
				fl.Data[i+c] += w * amt[c]
			}
		}
	}
}

// applyEmitter injects the synthetic ring forcing centered on the brain.
// Splats sit on a spinning ring and push tangentially with bounded jitter,
// so the fluid keeps moving without user input.
func (f *Fluid) applyEmitter(dt float64, center Vec2) {
	em := f.cfg.Emitter
	n := f.ctx.TierSettings().EmitterSplats
	if n <= 0 {
		return
	}
	f.emitterAngle += em.SpinRate * dt
	for i := 0; i < n; i++ {
		ang := f.emitterAngle + 2*math.Pi*float64(i)/float64(n)
		px := center.X + math.Cos(ang)*em.Radius/f.aspect
		py := center.Y + math.Sin(ang)*em.Radius
		jx := (f.ctx.Rand.Float64()*2 - 1) * em.JitterMax
		jy := (f.ctx.Rand.Float64()*2 - 1) * em.JitterMax
		vx := -math.Sin(ang)*em.Intensity + jx
		vy := math.Cos(ang)*em.Intensity + jy
		c := f.ctx.Cfg.OrganicPalette.Sample(float64(i)/float64(n) + f.emitterAngle*0.05)
		f.Splat(px, py, vx, vy, colorful.Color{R: c.R * 0.05, G: c.G * 0.05, B: c.B * 0.05})
	}
}

// Destroy releases the grids and display. Idempotent.
func (f *Fluid) Destroy() {
	if f.destroyed {
		return
	}
	f.destroyed = true
	f.velocity = DoubleField{}
	f.dye = DoubleField{}
	f.pressure = DoubleField{}
	f.divergence = nil
	f.curl = nil
	f.bloom = nil
	f.sunrays = nil
	if f.display != nil {
		f.display.dispose()
		f.display = nil
	}
	if Verbose {
		log.Printf("[marionette] fluid destroyed")
	}
}
