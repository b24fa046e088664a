package canopy

import (
	"log/slog"
	"time"
)

// FrameResult reports what RenderFrame did.
type FrameResult uint8

const (
	FrameRendered FrameResult = iota // painted and presented
	FrameSkipped                     // nothing dirty or animating; backend untouched
	FrameAborted                     // backend had no presentable surface
)

func (f FrameResult) String() string {
	switch f {
	case FrameRendered:
		return "rendered"
	case FrameSkipped:
		return "skipped"
	case FrameAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// AnimationHost tracks widgets that need a tick every frame. Renderer
// implements it.
type AnimationHost interface {
	AddAnimatingWidget(w *Widget)
	RemoveAnimatingWidget(w *Widget)
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock replaces time.Now as the frame clock.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithClearColor sets the color the presentable surface is cleared to
// before each rendered frame. Defaults to transparent.
func WithClearColor(c Color) Option {
	return func(r *Renderer) { r.clearColor = c }
}

// WithTextureCache makes the Renderer use an existing cache.
func WithTextureCache(tc *TextureCache) Option {
	return func(r *Renderer) { r.cache = tc }
}

// WithDebug enables per-frame stats logging and tree sanity warnings.
func WithDebug(enabled bool) Option {
	return func(r *Renderer) { r.SetDebugMode(enabled) }
}

// Renderer drives one frame per display refresh: it ticks animating
// widgets, skips the frame when nothing changed, then runs layout and the
// cache-aware paint pass into the backend's frame surface.
//
// A Renderer is not safe for concurrent use; RenderFrame and every tree
// mutation must happen on the thread that owns the backend's GPU context.
type Renderer struct {
	backend    Backend
	cache      *TextureCache
	now        func() time.Time
	clearColor Color
	debug      bool

	// Animating widgets are not owned: they register and unregister
	// themselves. tickBuf is reused to iterate a stable snapshot.
	animating []*Widget
	tickBuf   []*Widget

	forceNext bool
	scale     float64
	lastScale float64

	frames            uint64
	skipped           uint64
	aborted           uint64
	lastFrameDuration time.Duration
	frame             frameCounters
}

// frameCounters are reset at the start of every rendered frame.
type frameCounters struct {
	painted     int
	cacheHits   int
	cacheMisses int
	layoutTime  time.Duration
	paintTime   time.Duration
}

// NewRenderer creates a Renderer presenting through b. The first frame is
// always rendered.
func NewRenderer(b Backend, opts ...Option) *Renderer {
	r := &Renderer{
		backend:   b,
		now:       time.Now,
		forceNext: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = NewTextureCache(b)
	}
	return r
}

// Backend returns the backend the Renderer presents through.
func (r *Renderer) Backend() Backend {
	return r.backend
}

// TextureCache returns the cache used for per-node surfaces.
func (r *Renderer) TextureCache() *TextureCache {
	return r.cache
}

// SetDebugMode enables or disables debug mode. When enabled, per-frame stats
// are logged at debug level and tree depth and child count warnings are
// emitted.
func (r *Renderer) SetDebugMode(enabled bool) {
	r.debug = enabled
	globalDebug = enabled
}

// ForceNextFrame makes the next RenderFrame paint even if nothing is dirty.
// Call it after events that change the presentable surface, such as a resize.
func (r *Renderer) ForceNextFrame() {
	r.forceNext = true
}

// AddAnimatingWidget registers w to be ticked every frame. Registering twice
// is a no-op.
func (r *Renderer) AddAnimatingWidget(w *Widget) {
	if w == nil {
		return
	}
	for _, a := range r.animating {
		if a == w {
			return
		}
	}
	r.animating = append(r.animating, w)
}

// RemoveAnimatingWidget unregisters w. Safe to call from inside a tick.
func (r *Renderer) RemoveAnimatingWidget(w *Widget) {
	for i, a := range r.animating {
		if a == w {
			copy(r.animating[i:], r.animating[i+1:])
			r.animating[len(r.animating)-1] = nil
			r.animating = r.animating[:len(r.animating)-1]
			return
		}
	}
}

// AnimatingWidgets returns the registered widgets. The returned slice MUST
// NOT be mutated.
func (r *Renderer) AnimatingWidgets() []*Widget {
	return r.animating
}

// Stats returns running totals and the last rendered frame's counters.
func (r *Renderer) Stats() FrameStats {
	return FrameStats{
		Frames:            r.frames,
		Skipped:           r.skipped,
		Aborted:           r.aborted,
		LastFrameDuration: r.lastFrameDuration,
		NodesPainted:      r.frame.painted,
		CacheHits:         r.frame.cacheHits,
		CacheMisses:       r.frame.cacheMisses,
		LayoutTime:        r.frame.layoutTime,
		PaintTime:         r.frame.paintTime,
		CachedNodes:       r.cache.Count(),
		CachedBytes:       r.cache.Bytes(),
	}
}

// FrameCount returns the number of presented frames.
func (r *Renderer) FrameCount() uint64 { return r.frames }

// SkippedFrames returns the number of frames elided because nothing changed.
func (r *Renderer) SkippedFrames() uint64 { return r.skipped }

// LastFrameDuration returns the wall-clock time of the last rendered frame.
func (r *Renderer) LastFrameDuration() time.Duration { return r.lastFrameDuration }

// RenderFrame renders root into the backend's frame surface. It returns
// FrameSkipped without touching the backend when nothing is dirty, nothing
// is animating and no frame was forced, and FrameAborted when the backend has
// no presentable surface this time.
func (r *Renderer) RenderFrame(root *Node) FrameResult {
	start := r.now()
	r.tickAnimations(start)

	if !r.forceNext && !needsRedraw(root, 1) && !r.anyAnimating() {
		r.skipped++
		return FrameSkipped
	}
	r.forceNext = false

	frame, err := r.backend.BeginFrame()
	if err != nil || frame == nil {
		r.aborted++
		Logger().Debug("canopy: frame aborted", slog.Any("err", err))
		return FrameAborted
	}

	r.frame = frameCounters{}
	r.scale = r.backend.Scale()
	if r.scale <= 0 {
		r.scale = 1
	}
	if r.lastScale != 0 && r.lastScale != r.scale {
		// Cached surfaces hold pixels at the old density.
		Logger().Debug("canopy: scale changed, dropping cache",
			slog.Float64("from", r.lastScale), slog.Float64("to", r.scale))
		r.cache.Clear()
	}
	r.lastScale = r.scale

	c := frame.Canvas()
	c.Save()
	c.Clear(r.clearColor)
	c.Scale(r.scale, r.scale)

	t0 := r.now()
	layoutPass(root)
	t1 := r.now()
	if root != nil {
		r.paintNode(c, root, 1)
	}
	r.frame.layoutTime = t1.Sub(t0)
	r.frame.paintTime = r.now().Sub(t1)
	c.Restore()

	if err := r.backend.EndFrame(frame); err != nil {
		Logger().Warn("canopy: present failed", slog.Any("err", err))
	}

	r.lastFrameDuration = r.now().Sub(start)
	r.frames++
	r.debugLog()
	return FrameRendered
}

// tickAnimations ticks every registered widget that reports it is animating.
// A snapshot is iterated so widgets may unregister during their tick.
func (r *Renderer) tickAnimations(now time.Time) {
	if len(r.animating) == 0 {
		return
	}
	r.tickBuf = append(r.tickBuf[:0], r.animating...)
	for _, w := range r.tickBuf {
		if w.IsAnimating() {
			w.Tick(now)
		}
	}
	clear(r.tickBuf)
}

func (r *Renderer) anyAnimating() bool {
	for _, w := range r.animating {
		if w.IsAnimating() {
			return true
		}
	}
	return false
}

// needsRedraw scans depth-first for a dirty node that the paint pass would
// reach. Hidden and fully transparent subtrees keep their dirty flags (so a
// stale cache is never shown when they reappear) but do not force frames.
func needsRedraw(n *Node, parentOpacity float64) bool {
	if n == nil || !n.visible {
		return false
	}
	eff := n.opacity * parentOpacity
	if eff <= 0 {
		return false
	}
	if n.dirty {
		return true
	}
	for _, child := range n.children {
		if needsRedraw(child, eff) {
			return true
		}
	}
	return false
}

// layoutPass runs every layout hook in depth-first pre-order.
func layoutPass(n *Node) {
	if n == nil {
		return
	}
	if n.OnLayout != nil {
		n.OnLayout(n)
	}
	for _, child := range n.children {
		layoutPass(child)
	}
}

// paintNode draws n and its subtree into c. A clean node with a cached
// surface is drawn as a single image and its subtree is skipped.
func (r *Renderer) paintNode(c Canvas, n *Node, parentOpacity float64) {
	if !n.visible {
		return
	}
	eff := n.opacity * parentOpacity
	if eff <= 0 {
		return
	}

	c.Save()
	c.Translate(n.bounds.X, n.bounds.Y)
	if !n.transform.IsIdentity() {
		c.Concat(n.transform)
	}
	c.SetOpacity(eff)

	// Cache hit: the surface holds physical pixels, so draw it at 1/scale.
	if n.cacheEnabled && !n.dirty && n.cacheSurface != nil {
		c.DrawSurface(n.cacheSurface, 0, 0, 1/r.scale)
		r.frame.cacheHits++
		c.Restore()
		return
	}

	c.ClipRect(n.LocalBounds())
	r.paintContent(c, n, eff)

	if n.cacheEnabled {
		r.frame.cacheMisses++
		if s := r.cache.GetOrCreateSurface(n); s != nil {
			oc := s.Canvas()
			oc.Save()
			oc.Scale(r.scale, r.scale)
			oc.ClipRect(n.LocalBounds())
			oc.SetOpacity(1)
			r.paintContent(oc, n, 1)
			oc.Restore()
		}
	}
	n.dirty = false
	c.Restore()
}

// paintContent runs the node's own paint hook, its children, then the
// overlay hook. Opacity is the node's effective opacity on c.
func (r *Renderer) paintContent(c Canvas, n *Node, opacity float64) {
	if n.OnPaint != nil {
		n.OnPaint(n, c)
		r.frame.painted++
	}
	for _, child := range n.children {
		r.paintNode(c, child, opacity)
	}
	if n.OnPaintOverChildren != nil {
		c.SetOpacity(opacity)
		n.OnPaintOverChildren(n, c)
	}
}
