package marionette

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestBayer8IsAPermutation(t *testing.T) {
	var seen [64]bool
	for y := range bayer8 {
		for x := range bayer8[y] {
			v := bayer8[y][x]
			if v > 63 {
				t.Fatalf("bayer8[%d][%d] = %d, out of range", y, x, v)
			}
			if seen[v] {
				t.Fatalf("bayer8 repeats value %d", v)
			}
			seen[v] = true
		}
	}
}

func TestEncode(t *testing.T) {
	if got := encode(0, 1/2.2); got != 0 {
		t.Errorf("encode(0) = %v, want 0", got)
	}
	if got := encode(-0.5, 1/2.2); got != 0 {
		t.Errorf("encode(-0.5) = %v, want 0", got)
	}
	if got := encode(1, 1/2.2); got != 1 {
		t.Errorf("encode(1) = %v, want 1", got)
	}
	// The curve brightens midtones.
	mid := encode(0.2, 1/2.2)
	if mid <= 0.2 || mid >= 1 {
		t.Errorf("encode(0.2) = %v, want in (0.2, 1)", mid)
	}
}

func TestCompositeAlphaTracksMaxChannel(t *testing.T) {
	cfg := DefaultConfig().Fluid
	d := newFluidDisplay(8, 8, cfg)
	defer d.dispose()

	dye := NewField(8, 8, 3)
	// One green-dominant texel away from the dither extremes.
	i := (3*8 + 3) * 3
	dye.Data[i] = 0.1
	dye.Data[i+1] = 0.8
	dye.Data[i+2] = 0.3

	d.composite(dye, nil, nil, false)

	o := (3*8 + 3) * 4
	r, g, b, a := d.pix[o], d.pix[o+1], d.pix[o+2], d.pix[o+3]
	if a != g {
		t.Errorf("alpha = %d, want the max channel (g = %d)", a, g)
	}
	if g <= r || g <= b {
		t.Errorf("channel order lost in encode: r=%d g=%d b=%d", r, g, b)
	}

	// Empty texels stay near transparent; only dither remains.
	o = (6*8 + 6) * 4
	if d.pix[o+3] > 2 {
		t.Errorf("empty texel alpha = %d, want ~0", d.pix[o+3])
	}
}

func TestCompositeShadingDarkensSlopes(t *testing.T) {
	cfg := DefaultConfig().Fluid
	flat := newFluidDisplay(8, 8, cfg)
	defer flat.dispose()
	lit := newFluidDisplay(8, 8, cfg)
	defer lit.dispose()

	dye := NewField(8, 8, 3)
	// A hard brightness step so the shaded pass sees a steep slope.
	for y := 0; y < 8; y++ {
		for x := 0; x < 4; x++ {
			i := (y*8 + x) * 3
			dye.Data[i], dye.Data[i+1], dye.Data[i+2] = 0.9, 0.9, 0.9
		}
	}

	flat.composite(dye, nil, nil, false)
	lit.composite(dye, nil, nil, true)

	// The texel on the bright side of the edge should be dimmed by shading.
	o := (4*8 + 3) * 4
	if lit.pix[o] >= flat.pix[o] {
		t.Errorf("shaded edge r = %d, want darker than flat %d", lit.pix[o], flat.pix[o])
	}
	// Flat interior is lit head-on; diffuse clamps to 1 and nothing changes.
	o = (4*8 + 0) * 4
	if lit.pix[o] != flat.pix[o] {
		t.Errorf("shaded interior r = %d, want %d", lit.pix[o], flat.pix[o])
	}
}

func TestFluidDisplayDrawRespectsReveal(t *testing.T) {
	cfg := DefaultConfig().Fluid
	d := newFluidDisplay(4, 4, cfg)
	defer d.dispose()

	dye := NewField(4, 4, 3)
	for i := range dye.Data {
		dye.Data[i] = 1
	}
	d.composite(dye, nil, nil, false)

	screen := ebiten.NewImage(16, 16)
	d.draw(screen, 0)
	if _, _, _, a := screen.At(8, 8).RGBA(); a != 0 {
		t.Fatalf("draw at reveal 0 painted alpha %d", a)
	}
	d.draw(screen, 1)
	if _, _, _, a := screen.At(8, 8).RGBA(); a == 0 {
		t.Fatal("draw at reveal 1 left the screen empty")
	}

	d.dispose()
	d.draw(screen, 1) // disposed display is a no-op
}
