package canopy

import (
	"fmt"
	"time"
)

// --- Recording backend used by the package tests ---

type fakeCanvasState struct {
	opacity float64
}

// fakeCanvas records every call as a short string.
type fakeCanvas struct {
	log     *[]string
	opacity float64
	stack   []fakeCanvasState
}

func (c *fakeCanvas) record(format string, args ...any) {
	*c.log = append(*c.log, fmt.Sprintf(format, args...))
}

func (c *fakeCanvas) Save() {
	c.stack = append(c.stack, fakeCanvasState{opacity: c.opacity})
	c.record("save")
}

func (c *fakeCanvas) Restore() {
	if len(c.stack) > 0 {
		c.opacity = c.stack[len(c.stack)-1].opacity
		c.stack = c.stack[:len(c.stack)-1]
	}
	c.record("restore")
}

func (c *fakeCanvas) Translate(x, y float64) { c.record("translate %g %g", x, y) }
func (c *fakeCanvas) Scale(sx, sy float64) { c.record("scale %g %g", sx, sy) }
func (c *fakeCanvas) Concat(m Affine) { c.record("concat %v", [6]float64(m)) }
func (c *fakeCanvas) ClipRect(r Rect) { c.record("clip %g %g %g %g", r.X, r.Y, r.Width, r.Height) }
func (c *fakeCanvas) SetOpacity(a float64) { c.opacity = a; c.record("opacity %g", a) }
func (c *fakeCanvas) Clear(col Color) { c.record("clear") }
func (c *fakeCanvas) FillRect(r Rect, _ Color) { c.record("fill %g %g %g %g", r.X, r.Y, r.Width, r.Height) }

func (c *fakeCanvas) StrokeRect(r Rect, _ Color, w float64) {
	c.record("stroke %g %g %g %g", r.X, r.Y, r.Width, r.Height)
}

func (c *fakeCanvas) DrawLine(x0, y0, x1, y1 float64, _ Color, _ float64) {
	c.record("line %g %g %g %g", x0, y0, x1, y1)
}

func (c *fakeCanvas) DrawSurface(s Surface, x, y, scale float64) {
	c.record("surface %dx%d at %g %g scale %g", s.Width(), s.Height(), x, y, scale)
}

type fakeSurface struct {
	w, h     int
	log      []string
	canvas   *fakeCanvas
	released bool
	clears   int
}

func newFakeSurface(w, h int) *fakeSurface {
	s := &fakeSurface{w: w, h: h}
	s.canvas = &fakeCanvas{log: &s.log, opacity: 1}
	return s
}

func (s *fakeSurface) Width() int { return s.w }
func (s *fakeSurface) Height() int { return s.h }
func (s *fakeSurface) Canvas() Canvas { return s.canvas }
func (s *fakeSurface) Clear() { s.clears++ }
func (s *fakeSurface) Release() { s.released = true }

type fakeBackend struct {
	width, height int
	scale         float64
	notReady      bool
	failOffscreen bool

	frame      *fakeSurface
	beginCalls int
	endCalls   int
	offscreen  []*fakeSurface
}

func newFakeBackend(w, h int, scale float64) *fakeBackend {
	return &fakeBackend{width: w, height: h, scale: scale}
}

func (b *fakeBackend) BeginFrame() (Surface, error) {
	b.beginCalls++
	if b.notReady {
		return nil, ErrSurfaceUnavailable
	}
	b.frame = newFakeSurface(b.width, b.height)
	return b.frame, nil
}

func (b *fakeBackend) EndFrame(Surface) error {
	b.endCalls++
	return nil
}

func (b *fakeBackend) CreateOffscreenSurface(w, h int) (Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrInvalidSurfaceSize
	}
	if b.failOffscreen {
		return nil, fmt.Errorf("out of video memory")
	}
	s := newFakeSurface(w, h)
	b.offscreen = append(b.offscreen, s)
	return s, nil
}

func (b *fakeBackend) Width() int { return b.width }
func (b *fakeBackend) Height() int { return b.height }
func (b *fakeBackend) Scale() float64 { return b.scale }

// fakeClock advances by step on every call.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), step: step}
}

func (c *fakeClock) now() time.Time {
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

// --- Tree helpers ---

func nodeAt(name string, x, y, w, h float64) *Node {
	n := NewNode(name)
	n.SetBounds(RectXYWH(x, y, w, h))
	return n
}

// countPaints installs an OnPaint hook that counts invocations.
func countPaints(n *Node) *int {
	count := new(int)
	n.OnPaint = func(*Node, Canvas) { *count++ }
	return count
}

// cleanTree clears every dirty flag, as if a frame had just been painted.
func cleanTree(n *Node) {
	n.dirty = false
	for _, c := range n.children {
		cleanTree(c)
	}
}
