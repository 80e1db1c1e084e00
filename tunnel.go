package marionette

import (
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// TunnelPhase identifies where the tunnel is in its lifecycle.
type TunnelPhase uint8

const (
	// TunnelFadeIn ramps opacity up from black.
	TunnelFadeIn TunnelPhase = iota
	// TunnelActive is the fully visible window.
	TunnelActive
	// TunnelFadeOut ramps opacity and palette down to black.
	TunnelFadeOut
	// TunnelComplete means the tunnel no longer animates or draws.
	TunnelComplete
)

// String returns the phase name.
func (p TunnelPhase) String() string {
	switch p {
	case TunnelFadeIn:
		return "fade-in"
	case TunnelActive:
		return "active"
	case TunnelFadeOut:
		return "fade-out"
	case TunnelComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// shapeSequence is the cyclic cross-section order, as polygon side counts.
// The radial sample count is sized for the largest entry even while a
// 3-gon renders, so topology never changes mid-flight.
var shapeSequence = [...]int{6, 3, 4, 5, 8, 7, 12}

// TunnelCallbacks notify the scene of one-time phase entries.
type TunnelCallbacks struct {
	// OnActive fires once when fade-in completes. The scene tears down the
	// remaining 2D stage here.
	OnActive func()
	// OnFadeOut fires once when the active window elapses. The scene starts
	// the fluid handover here; a returned error is logged and does not stop
	// the fade.
	OnFadeOut func() error
	// OnComplete fires once when fade-out finishes.
	OnComplete func()
}

// tubeMesh holds one tube's fixed-topology buffers. Vertex positions and
// colors are rewritten every frame; the index buffer never changes after
// newTubeMesh.
type tubeMesh struct {
	verts []ebiten.Vertex
	idx   []uint16
}

// newTubeMesh allocates buffers for a closed tube of segments rings and
// radial angular samples. The seam vertex is duplicated per ring so the
// last quad column can index it directly.
func newTubeMesh(segments, radial int) tubeMesh {
	m := tubeMesh{
		verts: make([]ebiten.Vertex, (segments+1)*(radial+1)),
		idx:   make([]uint16, 0, segments*radial*6),
	}
	// Far rings first so the index order doubles as painter order.
	for s := segments - 1; s >= 0; s-- {
		for r := 0; r < radial; r++ {
			a := uint16(s*(radial+1) + r)
			b := a + 1
			c := a + uint16(radial+1)
			d := c + 1
			m.idx = append(m.idx, a, c, b, b, c, d)
		}
	}
	return m
}

// tunnelRing is one decorative band inside the tube. It spins, pulses and
// hue-rotates but shares the tube's shape sampling.
type tunnelRing struct {
	u        float64 // position along the tube
	spin     float64
	spinRate float64
	pulseOff float64
	verts    []ebiten.Vertex
	idx      []uint16
}

// Tunnel renders the morphing tube that bridges the hanging-text stage and
// the fluid scene. Cross-sections travel the shapeSequence with a
// back-to-front wave; an inner tube counter-twists at reduced scale.
type Tunnel struct {
	ctx *Context
	cam *Camera3D
	cfg TunnelConfig
	cb  TunnelCallbacks

	path     *CurvePath
	baseCtrl []Vec3
	bend     Vec2 // eased pointer deflection of the interior control points

	segments int
	radial   int

	phase     TunnelPhase
	phaseTime float64
	elapsed   float64
	opacity   float64

	shapeTime   float64
	paletteTime float64
	paletteIdx  int
	palettes    []Palette

	outer tubeMesh
	inner tubeMesh
	rings []tunnelRing

	destroyed bool
}

// NewTunnel builds the tunnel geometry for the current performance tier.
// The last control point carries a fixed downward hook that pointer bending
// never touches.
func NewTunnel(ctx *Context, cb TunnelCallbacks) *Tunnel {
	cfg := ctx.Cfg.Tunnel
	ts := ctx.TierSettings()

	ctrl := []Vec3{
		{X: 0, Y: 0, Z: 60},
		{X: 0, Y: 0, Z: 60 + cfg.Length*0.35},
		{X: 0, Y: 0, Z: 60 + cfg.Length*0.7},
		{X: 0, Y: cfg.Radius * 1.6, Z: 60 + cfg.Length},
	}

	t := &Tunnel{
		ctx:      ctx,
		cam:      NewCamera3D(),
		cfg:      cfg,
		cb:       cb,
		path:     NewCurvePath(ctrl),
		baseCtrl: append([]Vec3(nil), ctrl...),
		segments: ts.TunnelSegments,
		radial:   ts.TunnelRadial,
		phase:    TunnelFadeIn,
		palettes: ctx.Cfg.TunnelPalettes,
		outer:    newTubeMesh(ts.TunnelSegments, ts.TunnelRadial),
		inner:    newTubeMesh(ts.TunnelSegments, ts.TunnelRadial),
	}

	vp := ctx.Viewport()
	t.cam.SetViewport(vp.X, vp.Y)

	for i := 0; i < ts.Rings; i++ {
		rate := 0.6 + 0.25*float64(i)
		if i%2 == 1 {
			rate = -rate
		}
		t.rings = append(t.rings, tunnelRing{
			u:        0.12 + 0.16*float64(i),
			spinRate: rate,
			pulseOff: float64(i) * 1.3,
			verts:    make([]ebiten.Vertex, (ts.TunnelRadial+1)*2),
			idx:      ringIndices(ts.TunnelRadial),
		})
	}

	if Verbose {
		log.Printf("[marionette] tunnel up: %d segments, %d radial, %d rings",
			t.segments, t.radial, len(t.rings))
	}
	return t
}

// ringIndices builds the index buffer for one ring band.
func ringIndices(radial int) []uint16 {
	idx := make([]uint16, 0, radial*6)
	for r := 0; r < radial; r++ {
		a := uint16(r * 2)
		b := a + 1
		c := a + 2
		d := a + 3
		idx = append(idx, a, b, c, c, b, d)
	}
	return idx
}

// Phase returns the current lifecycle phase.
func (t *Tunnel) Phase() TunnelPhase { return t.phase }

// Opacity returns the current fade level in [0, 1].
func (t *Tunnel) Opacity() float64 { return t.opacity }

// VertexCount returns the total vertex count across the outer tube, inner
// tube and rings. It never changes between NewTunnel and Destroy.
func (t *Tunnel) VertexCount() int {
	n := len(t.outer.verts) + len(t.inner.verts)
	for i := range t.rings {
		n += len(t.rings[i].verts)
	}
	return n
}

// IndexCount returns the total index count. Fixed like VertexCount.
func (t *Tunnel) IndexCount() int {
	n := len(t.outer.idx) + len(t.inner.idx)
	for i := range t.rings {
		n += len(t.rings[i].idx)
	}
	return n
}

// Resize updates the projection target.
func (t *Tunnel) Resize(w, h float64) {
	t.cam.SetViewport(w, h)
}

// Update advances the phase machine and rebuilds the geometry. cursor is
// the pointer position in pixels; it deflects the camera and the two
// interior control points. No-op once the tunnel is complete.
func (t *Tunnel) Update(dt float64, cursor Vec2) {
	if t.destroyed || t.phase == TunnelComplete {
		return
	}
	t.advancePhase(dt)
	if t.phase == TunnelComplete {
		return
	}

	t.elapsed += dt
	t.shapeTime += dt * t.cfg.ShapeSpeed
	t.paletteTime += dt
	if t.paletteTime >= t.cfg.PaletteCycle && len(t.palettes) > 1 {
		t.paletteTime -= t.cfg.PaletteCycle
		t.paletteIdx = (t.paletteIdx + 1) % len(t.palettes)
		if Verbose {
			log.Printf("[marionette] tunnel palette -> %d", t.paletteIdx)
		}
	}

	t.cam.PointAt(cursor)
	t.cam.Update(dt)

	t.applyBend(dt, cursor)
	frames := t.path.Frames(t.segments)
	t.rebuildTube(&t.outer, frames, false)
	t.rebuildTube(&t.inner, frames, true)
	t.rebuildRings(dt, frames)
}

// advancePhase accumulates phase time and walks the lifecycle, firing each
// entry callback exactly once. A large dt can cross several phases.
func (t *Tunnel) advancePhase(dt float64) {
	t.phaseTime += dt
	for {
		var dur float64
		switch t.phase {
		case TunnelFadeIn:
			dur = t.cfg.FadeIn
		case TunnelActive:
			dur = t.cfg.Active
		case TunnelFadeOut:
			dur = t.cfg.FadeOut
		default:
			t.opacity = 0
			return
		}
		if t.phaseTime < dur {
			break
		}
		t.phaseTime -= dur
		switch t.phase {
		case TunnelFadeIn:
			t.phase = TunnelActive
			if Verbose {
				log.Printf("[marionette] tunnel phase -> %s", t.phase)
			}
			if t.cb.OnActive != nil {
				t.cb.OnActive()
			}
		case TunnelActive:
			t.phase = TunnelFadeOut
			if Verbose {
				log.Printf("[marionette] tunnel phase -> %s", t.phase)
			}
			if t.cb.OnFadeOut != nil {
				if err := t.cb.OnFadeOut(); err != nil {
					log.Printf("[marionette] fluid handover failed: %v", err)
				}
			}
		case TunnelFadeOut:
			t.phase = TunnelComplete
			t.opacity = 0
			if Verbose {
				log.Printf("[marionette] tunnel phase -> %s", t.phase)
			}
			if t.cb.OnComplete != nil {
				t.cb.OnComplete()
			}
			return
		}
	}
	switch t.phase {
	case TunnelFadeIn:
		t.opacity = clamp(t.phaseTime/t.cfg.FadeIn, 0, 1)
	case TunnelActive:
		t.opacity = 1
	case TunnelFadeOut:
		t.opacity = clamp(1-t.phaseTime/t.cfg.FadeOut, 0, 1)
	}
}

// applyBend eases the interior control points toward the cursor. The first
// and last control points stay put so the camera mouth and the terminal
// hook are stable.
func (t *Tunnel) applyBend(dt float64, cursor Vec2) {
	vp := t.ctx.Viewport()
	var target Vec2
	if vp.X > 0 && vp.Y > 0 {
		target = Vec2{
			X: clamp(cursor.X/vp.X*2-1, -1, 1) * t.cfg.BendReach,
			Y: clamp(cursor.Y/vp.Y*2-1, -1, 1) * t.cfg.BendReach,
		}
	}
	k := clamp(dt*3, 0, 1)
	t.bend.X = lerp(t.bend.X, target.X, k)
	t.bend.Y = lerp(t.bend.Y, target.Y, k)

	t.path.SetControl(1, t.baseCtrl[1].Add(Vec3{X: t.bend.X * 0.55, Y: t.bend.Y * 0.55}))
	t.path.SetControl(2, t.baseCtrl[2].Add(Vec3{X: t.bend.X, Y: t.bend.Y}))
}

// polygonRadius is the boundary distance of a unit-circumradius regular
// n-gon at angle theta, clamped near vertex boundaries to avoid spikes.
func polygonRadius(theta float64, n int, clampMax float64) float64 {
	step := 2 * math.Pi / float64(n)
	local := math.Mod(theta, step)
	if local < 0 {
		local += step
	}
	r := math.Cos(math.Pi/float64(n)) / math.Cos(local-math.Pi/float64(n))
	if r > clampMax {
		r = clampMax
	}
	return r
}

// shapePair returns the two polygon side counts bracketing shapeTime plus
// the raw transition fraction between them.
func (t *Tunnel) shapePair(offset float64) (n1, n2 int, frac float64) {
	st := t.shapeTime + offset
	i := int(math.Floor(st))
	frac = st - float64(i)
	i %= len(shapeSequence)
	if i < 0 {
		i += len(shapeSequence)
	}
	return shapeSequence[i], shapeSequence[(i+1)%len(shapeSequence)], frac
}

// rebuildTube rewrites one tube's vertex positions and colors in place.
// The inner tube renders at reduced scale with the twist reversed and the
// morph phase offset.
func (t *Tunnel) rebuildTube(m *tubeMesh, frames []TubeFrame, innerTube bool) {
	scale := 1.0
	twistSign := 1.0
	phaseOffset := 0.0
	layerAlpha := 1.0
	if innerTube {
		scale = t.cfg.InnerScale
		twistSign = -1
		phaseOffset = 0.35
		layerAlpha = 0.8
	}
	n1, n2, frac := t.shapePair(phaseOffset)

	noise := t.ctx.Noise
	darken := 1.0
	if t.phase == TunnelFadeOut {
		darken = t.opacity
	}
	travel := t.elapsed * t.cfg.ColorWave
	timeTwist := t.elapsed * t.cfg.TwistSpeed

	for s := 0; s <= t.segments; s++ {
		u := float64(s) / float64(t.segments)
		fr := frames[s]

		// Back-to-front shape wave: the far end leads the morph, the near
		// end trails by WaveLag.
		local := smoothstep(clamp(frac*(1+t.cfg.WaveLag)-t.cfg.WaveLag*(1-u), 0, 1))
		twist := twistSign * (u*t.cfg.Twist + timeTwist)

		cx, cy, _, centerOK := t.cam.Project(fr.Origin)

		for r := 0; r <= t.radial; r++ {
			ang := 2 * math.Pi * float64(r) / float64(t.radial)
			theta := ang + twist

			rad := lerp(
				polygonRadius(theta, n1, t.cfg.RadiusClamp),
				polygonRadius(theta, n2, t.cfg.RadiusClamp),
				local,
			)
			rad *= t.cfg.Radius * scale
			rad *= 1 + t.cfg.DistortAmp*math.Sin(u*11+t.elapsed*2.1+3*theta+phaseOffset*4)

			world := fr.Origin.
				Add(fr.Normal.Scale(math.Cos(theta) * rad)).
				Add(fr.Binormal.Scale(math.Sin(theta) * rad))

			v := &m.verts[s*(t.radial+1)+r]
			sx, sy, depth, ok := t.cam.Project(world)
			if !ok {
				if centerOK {
					sx, sy = cx, cy
				}
				v.DstX, v.DstY = float32(sx), float32(sy)
				v.SrcX, v.SrcY = 0.5, 0.5
				v.ColorR, v.ColorG, v.ColorB, v.ColorA = 0, 0, 0, 0
				continue
			}

			jitter := noise.Noise3D(
				u*2.7+math.Cos(ang)*0.3,
				math.Sin(ang)*0.3,
				t.elapsed*0.25,
			) * 0.06
			pos := u*1.4 - travel + jitter
			c := CrossfadeSample(
				t.palettes[t.paletteIdx],
				t.palettes[(t.paletteIdx+1)%len(t.palettes)],
				pos,
				t.paletteTime/t.cfg.PaletteCycle,
			)

			fog := clamp(1.15-depth/t.cfg.Length, 0, 1)
			a := t.opacity * layerAlpha * fog
			shade := darken * fog

			v.DstX, v.DstY = float32(sx), float32(sy)
			v.SrcX, v.SrcY = 0.5, 0.5
			v.ColorR = float32(c.R * shade * a)
			v.ColorG = float32(c.G * shade * a)
			v.ColorB = float32(c.B * shade * a)
			v.ColorA = float32(a)
		}
	}
}

// rebuildRings rewrites the decorative bands. Rings spin, pulse-scale and
// hue-rotate against the tube palette.
func (t *Tunnel) rebuildRings(dt float64, frames []TubeFrame) {
	if len(t.rings) == 0 {
		return
	}
	n1, n2, frac := t.shapePair(0)
	darken := 1.0
	if t.phase == TunnelFadeOut {
		darken = t.opacity
	}

	for i := range t.rings {
		ring := &t.rings[i]
		ring.spin += ring.spinRate * dt

		fi := int(ring.u * float64(t.segments))
		if fi > t.segments {
			fi = t.segments
		}
		fr := frames[fi]

		local := smoothstep(clamp(frac*(1+t.cfg.WaveLag)-t.cfg.WaveLag*(1-ring.u), 0, 1))
		pulse := 1 + 0.09*math.Sin(t.elapsed*2+ring.pulseOff)
		base := CrossfadeSample(
			t.palettes[t.paletteIdx],
			t.palettes[(t.paletteIdx+1)%len(t.palettes)],
			ring.u*1.4-t.elapsed*t.cfg.ColorWave,
			t.paletteTime/t.cfg.PaletteCycle,
		)
		c := hueRotate(base, t.elapsed*35+float64(i)*50)

		for r := 0; r <= t.radial; r++ {
			ang := 2*math.Pi*float64(r)/float64(t.radial) + ring.spin
			rad := lerp(
				polygonRadius(ang, n1, t.cfg.RadiusClamp),
				polygonRadius(ang, n2, t.cfg.RadiusClamp),
				local,
			) * t.cfg.Radius * 0.82 * pulse

			dir := fr.Normal.Scale(math.Cos(ang)).Add(fr.Binormal.Scale(math.Sin(ang)))
			outerP := fr.Origin.Add(dir.Scale(rad))
			innerP := fr.Origin.Add(dir.Scale(rad * 0.94))

			for k, p := range [2]Vec3{outerP, innerP} {
				v := &ring.verts[r*2+k]
				sx, sy, depth, ok := t.cam.Project(p)
				if !ok {
					v.ColorA = 0
					continue
				}
				fog := clamp(1.15-depth/t.cfg.Length, 0, 1)
				a := t.opacity * 0.9 * fog
				shade := darken * fog
				v.DstX, v.DstY = float32(sx), float32(sy)
				v.SrcX, v.SrcY = 0.5, 0.5
				v.ColorR = float32(c.R * shade * a)
				v.ColorG = float32(c.G * shade * a)
				v.ColorB = float32(c.B * shade * a)
				v.ColorA = float32(a)
			}
		}
	}
}

// Draw renders the outer tube, the inner tube, then the rings. Skipped
// once complete or destroyed.
func (t *Tunnel) Draw(screen *ebiten.Image) {
	if t.destroyed || t.phase == TunnelComplete || t.opacity <= 0 {
		return
	}
	op := &ebiten.DrawTrianglesOptions{}
	screen.DrawTriangles(t.outer.verts, t.outer.idx, WhitePixel, op)
	screen.DrawTriangles(t.inner.verts, t.inner.idx, WhitePixel, op)
	for i := range t.rings {
		screen.DrawTriangles(t.rings[i].verts, t.rings[i].idx, WhitePixel, op)
	}
}

// Destroy releases the geometry and forces the phase to complete so any
// straggling update is a no-op. Idempotent.
func (t *Tunnel) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.phase = TunnelComplete
	t.opacity = 0
	t.outer.verts, t.outer.idx = nil, nil
	t.inner.verts, t.inner.idx = nil, nil
	t.rings = nil
	t.path = nil
	if Verbose {
		log.Printf("[marionette] tunnel destroyed")
	}
}
