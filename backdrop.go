package marionette

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// mote is one backdrop dust particle. Unexported; managed by Backdrop.
type mote struct {
	x, y  float64
	size  float64
	alpha float64
	seed  float64
}

// Backdrop is the ambient dust floating behind the stage: a render-only
// pool drifting on the noise field. It is destroyed by the full cleanup
// pass along with everything else 2D.
type Backdrop struct {
	ctx       *Context
	motes     []mote
	dot       *ebiten.Image
	time      float64
	destroyed bool
}

// NewBackdrop seeds the pool across the current viewport.
func NewBackdrop(ctx *Context) (*Backdrop, error) {
	dot, err := ctx.Loader.DotSprite(16)
	if err != nil {
		return nil, err
	}
	b := &Backdrop{ctx: ctx, dot: dot}
	b.seed()
	return b, nil
}

func (b *Backdrop) seed() {
	cfg := b.ctx.Cfg.Backdrop
	vp := b.ctx.Viewport()
	b.motes = make([]mote, cfg.Count)
	for i := range b.motes {
		b.motes[i] = mote{
			x:     b.ctx.Rand.Float64() * vp.X,
			y:     b.ctx.Rand.Float64() * vp.Y,
			size:  cfg.Size.Random(),
			alpha: cfg.Alpha.Random(),
			seed:  b.ctx.Rand.Float64() * 100,
		}
	}
}

// Update drifts each mote along the noise field and wraps it at the edges.
func (b *Backdrop) Update(dt float64) {
	if b.destroyed {
		return
	}
	b.time += dt
	cfg := b.ctx.Cfg.Backdrop
	vp := b.ctx.Viewport()
	if vp.X <= 0 || vp.Y <= 0 {
		return
	}

	for i := range b.motes {
		m := &b.motes[i]
		angle := b.ctx.Noise.Noise3D(m.x*0.002, m.y*0.002, m.seed+b.time*0.05) * 2 * math.Pi
		m.x += math.Cos(angle) * cfg.Drift * dt
		m.y += math.Sin(angle)*cfg.Drift*dt - cfg.Drift*0.3*dt

		switch {
		case m.x < -4:
			m.x += vp.X + 8
		case m.x > vp.X+4:
			m.x -= vp.X + 8
		}
		switch {
		case m.y < -4:
			m.y += vp.Y + 8
		case m.y > vp.Y+4:
			m.y -= vp.Y + 8
		}
	}
}

// Draw renders the motes additively.
func (b *Backdrop) Draw(screen *ebiten.Image, tint Color) {
	if b.destroyed {
		return
	}
	gb := b.dot.Bounds()
	gw := float64(gb.Dx())
	for i := range b.motes {
		m := &b.motes[i]
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(-gw/2, -gw/2)
		op.GeoM.Scale(m.size/gw, m.size/gw)
		op.GeoM.Translate(m.x, m.y)
		op.Blend = BlendAdd.EbitenBlend()
		op.ColorScale.ScaleWithColor(tint.WithAlpha(tint.A * m.alpha).toRGBA())
		screen.DrawImage(b.dot, op)
	}
}

// Destroy empties the pool. Safe to call more than once.
func (b *Backdrop) Destroy() {
	b.destroyed = true
	b.motes = nil
}
