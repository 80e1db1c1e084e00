package marionette

import (
	"github.com/chewxy/math32"
	"github.com/hajimehoshi/ebiten/v2"
)

// bayer8 is the 8x8 ordered dither matrix, values 0..63. Tiled over the
// composite it masks banding once the float dye collapses to 8-bit.
var bayer8 = [8][8]uint8{
	{0, 32, 8, 40, 2, 34, 10, 42},
	{48, 16, 56, 24, 50, 18, 58, 26},
	{12, 44, 4, 36, 14, 46, 6, 38},
	{60, 28, 52, 20, 62, 30, 54, 22},
	{3, 35, 11, 43, 1, 33, 9, 41},
	{51, 19, 59, 27, 49, 17, 57, 25},
	{15, 47, 7, 39, 13, 45, 5, 37},
	{63, 31, 55, 23, 61, 29, 53, 21},
}

// fluidDisplay converts the float dye field into the presented image:
// optional directional shading and sunrays, bloom add, ordered dither,
// gamma encode, alpha from the maximum channel, then one WritePixels
// upload per frame.
type fluidDisplay struct {
	w, h     int
	invGamma float32
	img      *ebiten.Image
	pix      []byte
}

func newFluidDisplay(w, h int, cfg FluidConfig) *fluidDisplay {
	return &fluidDisplay{
		w:        w,
		h:        h,
		invGamma: float32(1 / cfg.Gamma),
		img:      ebiten.NewImage(w, h),
		pix:      make([]byte, w*h*4),
	}
}

// composite rebuilds the pixel buffer from the dye field and uploads it.
func (d *fluidDisplay) composite(dye *Field, bloom *Bloom, sunrays *Sunrays, shading bool) {
	if d.img == nil {
		return
	}
	tx := 1 / float64(d.w)
	ty := 1 / float64(d.h)
	for y := 0; y < d.h; y++ {
		v := (float64(y) + 0.5) / float64(d.h)
		for x := 0; x < d.w; x++ {
			u := (float64(x) + 0.5) / float64(d.w)
			i := (y*d.w + x) * 3
			r := dye.Data[i]
			g := dye.Data[i+1]
			b := dye.Data[i+2]

			if shading {
				// Treat dye brightness as a height field and light it
				// head-on, which gives the smoke lobes a soft relief.
				lc := texelLen(dye, u-tx, v)
				rc := texelLen(dye, u+tx, v)
				bc := texelLen(dye, u, v-ty)
				tc := texelLen(dye, u, v+ty)
				dx := rc - lc
				dy := tc - bc
				nz := float32(tx)
				inv := 1 / math32.Sqrt(dx*dx+dy*dy+nz*nz)
				diffuse := clamp32(inv*nz+0.7, 0.7, 1)
				r *= diffuse
				g *= diffuse
				b *= diffuse
			}

			var sr float32 = 1
			if sunrays != nil {
				sr = sunrays.Sample(u, v)
				r *= sr
				g *= sr
				b *= sr
			}
			if bloom != nil {
				r += bloom.Sample(u, v, 0) * sr
				g += bloom.Sample(u, v, 1) * sr
				b += bloom.Sample(u, v, 2) * sr
			}

			dither := (float32(bayer8[y&7][x&7])/63 - 0.5) * (2.0 / 255)
			r = encode(r, d.invGamma) + dither
			g = encode(g, d.invGamma) + dither
			b = encode(b, d.invGamma) + dither

			r = clamp32(r, 0, 1)
			g = clamp32(g, 0, 1)
			b = clamp32(b, 0, 1)
			a := r
			if g > a {
				a = g
			}
			if b > a {
				a = b
			}

			o := (y*d.w + x) * 4
			d.pix[o] = uint8(r * 255)
			d.pix[o+1] = uint8(g * 255)
			d.pix[o+2] = uint8(b * 255)
			d.pix[o+3] = uint8(a * 255)
		}
	}
	d.img.WritePixels(d.pix)
}

// texelLen is the brightness magnitude at UV, used by the shading normal.
func texelLen(dye *Field, u, v float64) float32 {
	r := dye.Bilerp(u, v, 0)
	g := dye.Bilerp(u, v, 1)
	b := dye.Bilerp(u, v, 2)
	return math32.Sqrt(r*r + g*g + b*b)
}

// encode applies the display gamma curve.
func encode(c, invGamma float32) float32 {
	if c <= 0 {
		return 0
	}
	return math32.Pow(c, invGamma)
}

// draw stretches the composite over the screen, scaled by the reveal fade.
func (d *fluidDisplay) draw(screen *ebiten.Image, reveal float64) {
	if d.img == nil || reveal <= 0 {
		return
	}
	bounds := screen.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(
		float64(bounds.Dx())/float64(d.w),
		float64(bounds.Dy())/float64(d.h),
	)
	op.Filter = ebiten.FilterLinear
	f := float32(reveal)
	op.ColorScale.Scale(f, f, f, f)
	screen.DrawImage(d.img, op)
}

func (d *fluidDisplay) dispose() {
	if d.img != nil {
		d.img.Deallocate()
		d.img = nil
	}
}

// Draw presents the fluid composite. No-op once destroyed.
func (f *Fluid) Draw(screen *ebiten.Image) {
	if f.destroyed || f.display == nil {
		return
	}
	f.display.draw(screen, f.reveal)
}
