package marionette

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Palette is an ordered color cycle sampled continuously, so a position
// between two entries blends them instead of stepping.
type Palette []colorful.Color

// Sample returns the palette color at position t. The palette wraps: t is
// taken modulo 1 and negative positions are folded in.
func (p Palette) Sample(t float64) colorful.Color {
	if len(p) == 0 {
		return colorful.Color{}
	}
	if len(p) == 1 {
		return p[0]
	}
	t = t - math.Floor(t)
	pos := t * float64(len(p))
	i := int(pos)
	f := pos - float64(i)
	j := i + 1
	if j == len(p) {
		j = 0
	}
	return p[i].BlendRgb(p[j], f)
}

// CrossfadeSample samples both palettes at t and blends them by f, used
// while one palette hands over to the next.
func CrossfadeSample(from, to Palette, t, f float64) colorful.Color {
	if f <= 0 {
		return from.Sample(t)
	}
	if f >= 1 {
		return to.Sample(t)
	}
	return from.Sample(t).BlendRgb(to.Sample(t), f)
}

// hueRotate shifts a color's hue by deg degrees, preserving saturation and
// value.
func hueRotate(c colorful.Color, deg float64) colorful.Color {
	h, s, v := c.Hsv()
	h = math.Mod(h+deg, 360)
	if h < 0 {
		h += 360
	}
	return colorful.Hsv(h, s, v)
}

// asColor converts a colorful.Color plus alpha into the package Color.
func asColor(c colorful.Color, a float64) Color {
	return Color{R: c.R, G: c.G, B: c.B, A: a}
}

// defaultTunnelPalettes returns the palettes the tunnel cycles through.
func defaultTunnelPalettes() []Palette {
	return []Palette{
		// ember
		{
			{R: 0.55, G: 0.08, B: 0.05},
			{R: 0.85, G: 0.28, B: 0.05},
			{R: 0.98, G: 0.55, B: 0.12},
			{R: 1.00, G: 0.80, B: 0.30},
			{R: 0.80, G: 0.20, B: 0.10},
		},
		// lagoon
		{
			{R: 0.02, G: 0.25, B: 0.40},
			{R: 0.05, G: 0.55, B: 0.65},
			{R: 0.20, G: 0.85, B: 0.80},
			{R: 0.55, G: 0.95, B: 0.90},
			{R: 0.05, G: 0.40, B: 0.60},
		},
		// violet
		{
			{R: 0.30, G: 0.05, B: 0.45},
			{R: 0.55, G: 0.15, B: 0.70},
			{R: 0.85, G: 0.30, B: 0.85},
			{R: 0.98, G: 0.55, B: 0.90},
			{R: 0.45, G: 0.10, B: 0.60},
		},
		// moss
		{
			{R: 0.05, G: 0.30, B: 0.10},
			{R: 0.15, G: 0.55, B: 0.15},
			{R: 0.45, G: 0.80, B: 0.25},
			{R: 0.80, G: 0.95, B: 0.45},
			{R: 0.10, G: 0.45, B: 0.20},
		},
	}
}

// organicPalette is the low-intensity flesh-toned set used for pointer
// splats and the ambient emitter forcing.
func organicPalette() Palette {
	return Palette{
		{R: 0.48, G: 0.18, B: 0.18},
		{R: 0.61, G: 0.29, B: 0.24},
		{R: 0.71, G: 0.39, B: 0.35},
		{R: 0.43, G: 0.23, B: 0.32},
		{R: 0.54, G: 0.35, B: 0.29},
	}
}
