// Package demo builds a small DAW mixer scene: an arrangement view with a
// cached waveform and a moving playhead, a row of channel strips with level
// meters, and a transport bar.
package demo

import (
	"fmt"
	"math"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/phanxgames/canopy"
)

// Options configures NewMixer.
type Options struct {
	Channels int

	// Cache enables offscreen caching of the waveform and the fader panels.
	Cache bool
}

// Fixed sizes in logical pixels.
const (
	arrangementHeight = 120
	transportHeight   = 32
	muteHeight        = 18
	meterWidth        = 10
	playheadWidth     = 2

	// playheadSpeed is in logical pixels per second.
	playheadSpeed = 80
)

// Palette, resolved from CSS color names.
var (
	colorPanel    = mustColor("darkslategray")
	colorStrip    = mustColor("dimgray")
	colorWave     = mustColor("mediumseagreen")
	colorPlayhead = mustColor("gold")
	colorMuted    = mustColor("orangered")
	colorButton   = mustColor("slategray")
	colorTrack    = mustColor("black")
	colorKnob     = mustColor("gainsboro")
	colorLevelLow = mustColor("limegreen")
	colorLevelMid = mustColor("yellow")
	colorLevelHot = mustColor("red")
)

func mustColor(name string) canopy.Color {
	c, ok := canopy.ColorFromName(name)
	if !ok {
		panic("demo: unknown color " + name)
	}
	return c
}

// Host is what the mixer needs from a renderer.
type Host interface {
	canopy.AnimationHost
	TextureCache() *canopy.TextureCache
}

// Mixer is the scene. Root is the node to render.
type Mixer struct {
	Root        *canopy.LinearLayout
	Arrangement *canopy.Node
	Waveform    *canopy.Node
	Playhead    *canopy.Widget
	Strips      []*Strip
	Transport   *canopy.LinearLayout
	PlayButton  *canopy.Node

	host    Host
	playing bool
	start   time.Time
	clicks  map[*canopy.Node]func()
}

// NewMixer builds the scene and hooks its animated widgets up to host.
func NewMixer(host Host, opts Options) *Mixer {
	if opts.Channels <= 0 {
		opts.Channels = 8
	}
	m := &Mixer{host: host, clicks: make(map[*canopy.Node]func())}

	m.Root = canopy.NewLinearLayout("mixer", canopy.Vertical)
	m.Root.SetPadding(canopy.UniformInsets(8))
	m.Root.SetSpacing(8)
	m.Root.OnPaint = fillWith(colorPanel)

	m.buildArrangement(opts.Cache)
	m.Root.AddChild(m.Arrangement)

	strips := canopy.NewLinearLayout("strips", canopy.Horizontal)
	strips.SetSpacing(4)
	for i := range opts.Channels {
		s := newStrip(i, host, opts.Cache)
		m.Strips = append(m.Strips, s)
		strips.AddChild(&s.Node)
		strips.SetStretch(&s.Node, 1)
		m.clicks[s.Mute] = func() { m.ToggleMute(i) }
	}
	m.Root.AddChild(&strips.Node)
	m.Root.SetStretch(&strips.Node, 1)

	m.buildTransport()
	m.Root.AddChild(&m.Transport.Node)
	return m
}

func (m *Mixer) buildArrangement(cache bool) {
	m.Arrangement = canopy.NewNode("arrangement")
	m.Arrangement.SetSize(0, arrangementHeight)

	m.Waveform = canopy.NewNode("waveform")
	m.Waveform.OnPaint = paintWaveform(waveformSamples(256))
	m.Arrangement.AddChild(m.Waveform)
	if cache {
		m.host.TextureCache().EnableCaching(m.Waveform)
	}

	m.Playhead = canopy.NewWidget("playhead")
	m.Playhead.SetSize(playheadWidth, 0)
	m.Playhead.OnPaint = fillWith(colorPlayhead)
	m.Playhead.OnTick = func(_ *canopy.Widget, now time.Time) { m.advancePlayhead(now) }
	m.Playhead.SetAnimationHost(m.host)
	m.Arrangement.AddChild(&m.Playhead.Node)

	// The waveform fills the arrangement; the playhead keeps its x.
	m.Arrangement.OnLayout = func(n *canopy.Node) {
		b := n.LocalBounds()
		m.Waveform.SetBounds(b)
		p := m.Playhead.Bounds()
		m.Playhead.SetBounds(canopy.RectXYWH(p.X, 0, playheadWidth, b.Height))
	}
}

func (m *Mixer) buildTransport() {
	m.Transport = canopy.NewLinearLayout("transport", canopy.Horizontal)
	m.Transport.SetSize(0, transportHeight)
	m.Transport.SetSpacing(4)

	m.PlayButton = canopy.NewNode("play")
	m.PlayButton.SetSize(transportHeight, transportHeight)
	r := transportHeight / 2.0
	m.PlayButton.HitShape = canopy.HitCircle{CenterX: r, CenterY: r, Radius: r}
	m.PlayButton.OnPaint = func(n *canopy.Node, c canopy.Canvas) {
		c.FillRect(n.LocalBounds(), colorButton)
		col := colorPlayhead
		if !m.playing {
			col = colorKnob
		}
		c.FillRect(canopy.RectXYWH(r-5, r-6, 10, 12), col)
	}
	m.Transport.AddChild(m.PlayButton)
	m.clicks[m.PlayButton] = m.TogglePlay
}

// SetSize sizes the scene to the window.
func (m *Mixer) SetSize(w, h float64) {
	m.Root.SetBounds(canopy.RectXYWH(0, 0, w, h))
}

// Playing reports whether the transport is running.
func (m *Mixer) Playing() bool { return m.playing }

// Play starts the transport: the playhead moves and the meters follow the
// signal.
func (m *Mixer) Play() {
	if m.playing {
		return
	}
	m.playing = true
	m.start = time.Time{}
	m.Playhead.SetContinuous(true)
	for _, s := range m.Strips {
		s.Meter.follow(true)
	}
	m.PlayButton.Invalidate()
}

// Stop halts the transport. Meters fall back to silence.
func (m *Mixer) Stop() {
	if !m.playing {
		return
	}
	m.playing = false
	m.Playhead.SetContinuous(false)
	for _, s := range m.Strips {
		s.Meter.follow(false)
	}
	m.PlayButton.Invalidate()
}

// TogglePlay starts or stops the transport.
func (m *Mixer) TogglePlay() {
	if m.playing {
		m.Stop()
	} else {
		m.Play()
	}
}

// ToggleMute mutes or unmutes channel i. A muted strip fades to 35%.
func (m *Mixer) ToggleMute(i int) {
	if i < 0 || i >= len(m.Strips) {
		return
	}
	s := m.Strips[i]
	s.muted = !s.muted
	to := 1.0
	if s.muted {
		to = 0.35
	}
	s.Mute.Invalidate()
	s.Play(canopy.TweenOpacity(&s.Node, to, 0.2, ease.OutQuad))
}

// Click dispatches a click at (x, y) in root coordinates to the control
// under it. It reports whether a control handled the click.
func (m *Mixer) Click(x, y float64) bool {
	for n := m.Root.FindNodeAt(x, y); n != nil; n = n.Parent() {
		if fn, ok := m.clicks[n]; ok {
			fn()
			return true
		}
	}
	return false
}

func (m *Mixer) advancePlayhead(now time.Time) {
	if m.start.IsZero() {
		m.start = now
	}
	width := m.Arrangement.Bounds().Width - playheadWidth
	if width <= 0 {
		return
	}
	x := math.Mod(now.Sub(m.start).Seconds()*playheadSpeed, width)
	m.Playhead.SetPosition(x, 0)
}

// Strip is one mixer channel: a mute button above a cached fader panel and
// a level meter.
type Strip struct {
	*canopy.LinearLayout

	Index int
	Mute  *canopy.Node
	Fader *canopy.Node
	Meter *Meter

	gain  float64
	muted bool
}

func newStrip(i int, host Host, cache bool) *Strip {
	s := &Strip{
		LinearLayout: canopy.NewLinearLayout(fmt.Sprintf("strip%d", i+1), canopy.Vertical),
		Index:        i,
		gain:         0.75,
	}
	s.SetPadding(canopy.UniformInsets(2))
	s.SetSpacing(2)
	s.OnPaint = fillWith(colorStrip)
	s.SetAnimationHost(host)

	s.Mute = canopy.NewNode("mute")
	s.Mute.SetSize(0, muteHeight)
	s.Mute.OnPaint = func(n *canopy.Node, c canopy.Canvas) {
		col := colorButton
		if s.muted {
			col = colorMuted
		}
		c.FillRect(n.LocalBounds(), col)
	}
	s.AddChild(s.Mute)

	body := canopy.NewLinearLayout("body", canopy.Horizontal)
	body.SetSpacing(2)

	s.Fader = canopy.NewNode("fader")
	s.Fader.OnPaint = func(n *canopy.Node, c canopy.Canvas) { paintFader(n, c, s.gain) }
	body.AddChild(s.Fader)
	body.SetStretch(s.Fader, 1)
	if cache {
		host.TextureCache().EnableCaching(s.Fader)
	}

	s.Meter = newMeter(i, host)
	body.AddChild(&s.Meter.Node)

	s.AddChild(&body.Node)
	s.SetStretch(&body.Node, 1)
	return s
}

// Gain returns the fader position in [0, 1].
func (s *Strip) Gain() float64 { return s.gain }

// SetGain moves the fader. The fader panel repaints (and recaches) on the
// next frame.
func (s *Strip) SetGain(g float64) {
	g = math.Max(0, math.Min(1, g))
	if g == s.gain {
		return
	}
	s.gain = g
	s.Fader.Invalidate()
}

// Muted reports whether the strip is muted.
func (s *Strip) Muted() bool { return s.muted }

// Meter is a level meter driven by a synthetic signal while playing.
type Meter struct {
	*canopy.Widget

	level     float64
	following bool
	freq      float64
	phase     float64
	start     time.Time
}

func newMeter(i int, host Host) *Meter {
	m := &Meter{
		Widget: canopy.NewWidget("meter"),
		freq:   0.7 + 0.23*float64(i),
		phase:  float64(i) * 0.9,
	}
	m.SetSize(meterWidth, 0)
	m.OnPaint = m.paint
	m.OnTick = func(_ *canopy.Widget, now time.Time) {
		if m.following {
			m.SetLevel(m.signal(now))
		}
	}
	m.SetAnimationHost(host)
	return m
}

// follow switches between tracking the signal and a release to silence.
func (m *Meter) follow(on bool) {
	if on == m.following {
		return
	}
	m.following = on
	if on {
		m.start = time.Time{}
		m.SetContinuous(true)
		return
	}
	m.SetContinuous(false)
	m.Play(canopy.TweenValue(m.level, 0, 0.3, ease.OutQuad, m.SetLevel))
}

func (m *Meter) signal(now time.Time) float64 {
	if m.start.IsZero() {
		m.start = now
	}
	t := now.Sub(m.start).Seconds()
	return 0.5 + 0.45*math.Sin(2*math.Pi*m.freq*t+m.phase)
}

// Level returns the displayed level in [0, 1].
func (m *Meter) Level() float64 { return m.level }

// SetLevel sets the displayed level, repainting only on change.
func (m *Meter) SetLevel(v float64) {
	v = math.Max(0, math.Min(1, v))
	if v == m.level {
		return
	}
	m.level = v
	m.Invalidate()
}

func (m *Meter) paint(n *canopy.Node, c canopy.Canvas) {
	b := n.LocalBounds()
	c.FillRect(b, colorTrack)
	h := b.Height * m.level
	col := colorLevelLow
	switch {
	case m.level > 0.9:
		col = colorLevelHot
	case m.level > 0.7:
		col = colorLevelMid
	}
	c.FillRect(canopy.RectXYWH(0, b.Height-h, b.Width, h), col)
}

func paintFader(n *canopy.Node, c canopy.Canvas, gain float64) {
	b := n.LocalBounds()
	cx := b.Width / 2
	c.DrawLine(cx, 4, cx, b.Height-4, colorTrack, 3)
	for i := 0; i <= 10; i++ {
		y := 4 + (b.Height-8)*float64(i)/10
		c.DrawLine(cx-6, y, cx-3, y, colorKnob, 1)
	}
	y := 4 + (b.Height-8)*(1-gain)
	knob := canopy.RectXYWH(cx-8, y-4, 16, 8)
	c.FillRect(knob, colorKnob)
	c.StrokeRect(knob, colorTrack, 1)
}

func paintWaveform(samples []float64) func(*canopy.Node, canopy.Canvas) {
	return func(n *canopy.Node, c canopy.Canvas) {
		b := n.LocalBounds()
		c.FillRect(b, colorTrack)
		mid := b.Height / 2
		step := b.Width / float64(len(samples))
		for i, s := range samples {
			x := (float64(i) + 0.5) * step
			a := s * (mid - 4)
			c.DrawLine(x, mid-a, x, mid+a, colorWave, math.Max(1, step-1))
		}
		c.StrokeRect(b, colorButton, 1)
	}
}

// waveformSamples returns n peak amplitudes in [0, 1] of a decaying
// two-tone signal with a few transients.
func waveformSamples(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / float64(n)
		beat := math.Mod(t*8, 1)
		env := math.Exp(-4 * beat)
		tone := 0.6*math.Abs(math.Sin(2*math.Pi*13*t)) + 0.4*math.Abs(math.Sin(2*math.Pi*31*t))
		out[i] = math.Min(1, 0.08+0.9*env*tone)
	}
	return out
}

func fillWith(col canopy.Color) func(*canopy.Node, canopy.Canvas) {
	return func(n *canopy.Node, c canopy.Canvas) {
		c.FillRect(n.LocalBounds(), col)
	}
}
