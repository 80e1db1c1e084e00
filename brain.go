package marionette

import (
	"fmt"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// brainMesh is the generated blob geometry: displaced unit-sphere positions,
// sphere normals, a static per-vertex palette position, and CCW triangles.
// Cached in the Loader so recreation after a resize reuses it.
type brainMesh struct {
	local []Vec3
	norms []Vec3
	tint  []float64
	tris  []uint16
}

// Brain is the terminal scene's centerpiece: a procedurally wrinkled blob
// that bobs and spins over the fluid. Clicking it pulses the mesh and
// toggles the caption panel. The fluid's emitter tracks ScreenPos.
type Brain struct {
	ctx *Context
	cfg BrainConfig
	cam *Camera3D

	mesh     *brainMesh
	verts    []ebiten.Vertex
	idxDraw  []uint16
	rotated  []Vec3
	rotNorm  []Vec3
	elapsed  float64
	spin     float64
	scale    float64
	reveal   float64
	center   Vec3
	screenPx Vec2

	pulseUp   *gween.Tween
	pulseDown *gween.Tween

	panelOpen  bool
	panelAlpha *gween.Tween
	panelShown float64
	panel      *ebiten.Image
	face       *text.GoTextFace
	labelW     float64
	labelH     float64

	destroyed bool
}

// NewBrain builds the blob for the current viewport. Geometry generation is
// cached; a failed panel or font load degrades to a label-less brain.
func NewBrain(ctx *Context) (*Brain, error) {
	cfg := ctx.Cfg.Brain
	mesh, err := loadBrainMesh(ctx, cfg.Detail)
	if err != nil {
		return nil, err
	}

	b := &Brain{
		ctx:     ctx,
		cfg:     cfg,
		cam:     NewCamera3D(),
		mesh:    mesh,
		verts:   make([]ebiten.Vertex, len(mesh.local)),
		idxDraw: make([]uint16, 0, len(mesh.tris)),
		rotated: make([]Vec3, len(mesh.local)),
		rotNorm: make([]Vec3, len(mesh.local)),
		scale:   1,
		center:  Vec3{Z: 560},
	}
	vp := ctx.Viewport()
	b.cam.SetViewport(vp.X, vp.Y)

	face, err := ctx.Loader.FontFace("regular", 15)
	if err != nil {
		log.Printf("[marionette] brain label unavailable: %v", err)
	} else {
		b.face = face
		w, h := text.Measure(cfg.Label, face, 0)
		b.labelW, b.labelH = w, h
		panel, perr := ctx.Loader.PanelSprite(int(w)+28, int(h)+16)
		if perr != nil {
			log.Printf("[marionette] brain panel unavailable: %v", perr)
		} else {
			b.panel = panel
		}
	}

	if Verbose {
		log.Printf("[marionette] brain up: %d vertices", len(mesh.local))
	}
	return b, nil
}

// loadBrainMesh returns the cached blob geometry for a detail level.
func loadBrainMesh(ctx *Context, detail int) (*brainMesh, error) {
	if detail < 1 {
		detail = 1
	}
	return loadAs(ctx.Loader, fmt.Sprintf("mesh:brain:%d", detail), func() (*brainMesh, error) {
		return buildBrainMesh(ctx, detail), nil
	})
}

// buildBrainMesh generates a UV sphere warped by layered noise, with an
// interhemispheric groove and a flattened underside.
func buildBrainMesh(ctx *Context, detail int) *brainMesh {
	bands := 6 * detail
	sectors := 8 * detail
	m := &brainMesh{
		local: make([]Vec3, 0, (bands+1)*(sectors+1)),
		norms: make([]Vec3, 0, (bands+1)*(sectors+1)),
		tint:  make([]float64, 0, (bands+1)*(sectors+1)),
		tris:  make([]uint16, 0, bands*sectors*6),
	}
	for i := 0; i <= bands; i++ {
		theta := math.Pi * float64(i) / float64(bands)
		st, ct := math.Sin(theta), math.Cos(theta)
		for j := 0; j <= sectors; j++ {
			phi := 2 * math.Pi * float64(j) / float64(sectors)
			p := Vec3{
				X: st * math.Cos(phi),
				Y: ct,
				Z: st * math.Sin(phi),
			}
			wrinkle := 1 +
				0.16*ctx.Noise.Noise3D(p.X*2.3, p.Y*2.3, p.Z*2.3) +
				0.07*ctx.Noise.Noise3D(p.X*5.1+9, p.Y*5.1, p.Z*5.1)
			groove := 1 - 0.22*math.Exp(-p.X*p.X*10)
			d := p.Scale(wrinkle * groove)
			d.Y *= 0.85
			m.local = append(m.local, d)
			m.norms = append(m.norms, p)
			m.tint = append(m.tint, 0.5+0.5*ctx.Noise.Noise3D(p.X*1.4, p.Y*1.4, p.Z*1.4+4))
		}
	}
	for i := 0; i < bands; i++ {
		for j := 0; j < sectors; j++ {
			a := uint16(i*(sectors+1) + j)
			b := a + 1
			c := a + uint16(sectors+1)
			d := c + 1
			m.tris = append(m.tris, a, b, c, b, d, c)
		}
	}
	return m
}

// Resize updates the projection target.
func (b *Brain) Resize(w, h float64) {
	b.cam.SetViewport(w, h)
}

// Pulse kicks the two-stage scale tween: a fast swell, then a slower
// settle back to rest.
func (b *Brain) Pulse() {
	up := float32(b.cfg.PulseTime) * 0.35
	b.pulseUp = gween.New(float32(b.scale), float32(b.cfg.PulseScale), up, ease.OutQuad)
	b.pulseDown = nil
}

// Contains reports whether a screen-pixel point lands on the blob.
func (b *Brain) Contains(p Vec2) bool {
	r := b.projectedRadius() * 1.1
	dx := p.X - b.screenPx.X
	dy := p.Y - b.screenPx.Y
	return dx*dx+dy*dy <= r*r
}

// ScreenPos returns the blob's projected center in texture space, clamped
// to the viewport. The fluid emitter tracks this every frame.
func (b *Brain) ScreenPos() Vec2 {
	vp := b.ctx.Viewport()
	if vp.X <= 0 || vp.Y <= 0 {
		return Vec2{0.5, 0.5}
	}
	return Vec2{
		X: clamp(b.screenPx.X/vp.X, 0, 1),
		Y: clamp(b.screenPx.Y/vp.Y, 0, 1),
	}
}

// Update advances the bob, spin, tweens and geometry. clicked reports a
// press this frame at cursor (screen pixels); a hit pulses the blob and
// toggles the caption.
func (b *Brain) Update(dt float64, cursor Vec2, clicked bool) {
	if b.destroyed {
		return
	}
	b.elapsed += dt
	b.spin += dt * 0.35
	if b.reveal < 1 {
		b.reveal = clamp(b.reveal+dt/1.2, 0, 1)
	}

	if b.pulseUp != nil {
		v, done := b.pulseUp.Update(float32(dt))
		b.scale = float64(v)
		if done {
			rest := float32(b.cfg.PulseTime) * 0.65
			b.pulseDown = gween.New(v, 1, rest, ease.InOutQuad)
			b.pulseUp = nil
		}
	} else if b.pulseDown != nil {
		v, done := b.pulseDown.Update(float32(dt))
		b.scale = float64(v)
		if done {
			b.pulseDown = nil
		}
	}
	if b.panelAlpha != nil {
		v, done := b.panelAlpha.Update(float32(dt))
		b.panelShown = float64(v)
		if done {
			b.panelAlpha = nil
		}
	}

	b.cam.PointAt(cursor)
	b.cam.Update(dt)

	if clicked && b.Contains(cursor) {
		b.Pulse()
		b.panelOpen = !b.panelOpen
		to := float32(0)
		if b.panelOpen {
			to = 1
		}
		b.panelAlpha = gween.New(float32(b.panelShown), to, 0.3, ease.OutQuad)
	}

	b.rebuild()
}

// projectedRadius converts the configured pixel radius through the current
// world placement.
func (b *Brain) projectedRadius() float64 {
	return b.cfg.Radius * b.scale
}

// worldRadius sizes the model so it reads as cfg.Radius pixels at the
// blob's depth.
func (b *Brain) worldRadius() float64 {
	vp := b.ctx.Viewport()
	if vp.Y <= 0 {
		return b.cfg.Radius
	}
	f := (vp.Y / 2) / math.Tan(b.cam.FOV/2)
	return b.cfg.Radius * b.center.Z / f
}

// rebuild rotates, lights and projects the blob into the vertex buffer,
// back-face culling into the reused index buffer.
func (b *Brain) rebuild() {
	bob := math.Sin(b.elapsed*1.4) * b.cfg.BobAmp
	wr := b.worldRadius() * b.scale
	sy, cy := math.Sin(b.spin), math.Cos(b.spin)
	tilt := 0.12 * math.Sin(b.elapsed*0.6)
	sx, cx := math.Sin(tilt), math.Cos(tilt)

	vp := b.ctx.Viewport()
	bobWorld := bob * b.center.Z / ((vp.Y / 2) / math.Tan(b.cam.FOV/2))

	light := Vec3{-0.42, -0.55, -0.72}.Normalize()
	base := b.ctx.Cfg.OrganicPalette

	for i, p := range b.mesh.local {
		// Y spin then a slight X tilt.
		r := Vec3{X: p.X*cy + p.Z*sy, Y: p.Y, Z: -p.X*sy + p.Z*cy}
		r = Vec3{X: r.X, Y: r.Y*cx - r.Z*sx, Z: r.Y*sx + r.Z*cx}
		n := b.mesh.norms[i]
		rn := Vec3{X: n.X*cy + n.Z*sy, Y: n.Y, Z: -n.X*sy + n.Z*cy}
		rn = Vec3{X: rn.X, Y: rn.Y*cx - rn.Z*sx, Z: rn.Y*sx + rn.Z*cx}
		b.rotated[i] = r.Scale(wr).Add(b.center).Add(Vec3{Y: bobWorld})
		b.rotNorm[i] = rn
	}

	csx, csy, _, _ := b.cam.Project(b.center.Add(Vec3{Y: bobWorld}))
	b.screenPx = Vec2{csx, csy}

	for i := range b.rotated {
		sxp, syp, _, ok := b.cam.Project(b.rotated[i])
		v := &b.verts[i]
		if !ok {
			v.ColorA = 0
			continue
		}
		n := b.rotNorm[i]
		diffuse := clamp(-n.Dot(light), 0, 1)*0.72 + 0.28
		c := base.Sample(b.mesh.tint[i] * 0.35)
		a := b.reveal

		v.DstX, v.DstY = float32(sxp), float32(syp)
		v.SrcX, v.SrcY = 0.5, 0.5
		v.ColorR = float32(c.R * diffuse * a)
		v.ColorG = float32(c.G * diffuse * a)
		v.ColorB = float32(c.B * diffuse * a)
		v.ColorA = float32(a)
	}

	b.idxDraw = b.idxDraw[:0]
	for t := 0; t < len(b.mesh.tris); t += 3 {
		i0, i1, i2 := b.mesh.tris[t], b.mesh.tris[t+1], b.mesh.tris[t+2]
		v0, v1, v2 := &b.verts[i0], &b.verts[i1], &b.verts[i2]
		// Screen-space winding culls the far hemisphere.
		area := (v1.DstX-v0.DstX)*(v2.DstY-v0.DstY) - (v2.DstX-v0.DstX)*(v1.DstY-v0.DstY)
		if area <= 0 {
			continue
		}
		b.idxDraw = append(b.idxDraw, i0, i1, i2)
	}
}

// Draw renders the blob and, when open, the caption panel.
func (b *Brain) Draw(screen *ebiten.Image) {
	if b.destroyed || b.reveal <= 0 {
		return
	}
	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	screen.DrawTriangles(b.verts, b.idxDraw, WhitePixel, op)

	if b.panel != nil && b.panelShown > 0.01 {
		a := b.panelShown * b.reveal
		px := b.screenPx.X - float64(b.panel.Bounds().Dx())/2
		py := b.screenPx.Y + b.projectedRadius() + 26

		iop := &ebiten.DrawImageOptions{}
		iop.GeoM.Translate(px, py)
		iop.ColorScale.Scale(float32(a), float32(a), float32(a), float32(a))
		screen.DrawImage(b.panel, iop)

		top := &text.DrawOptions{}
		top.GeoM.Translate(px+14, py+8)
		top.ColorScale.ScaleWithColor(Color{0.92, 0.9, 0.88, a}.toRGBA())
		text.Draw(screen, b.cfg.Label, b.face, top)
	}
}

// Destroy releases the geometry buffers. Idempotent; the cached mesh stays
// in the Loader for reuse.
func (b *Brain) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.verts = nil
	b.idxDraw = nil
	b.rotated = nil
	b.rotNorm = nil
	if Verbose {
		log.Printf("[marionette] brain destroyed")
	}
}
