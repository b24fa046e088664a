package canopy

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tanema/gween/ease"
)

func fillHook(n *Node, c Canvas) {
	c.FillRect(n.LocalBounds(), ColorWhite)
}

func TestFirstFrameIsAlwaysRendered(t *testing.T) {
	b := newFakeBackend(100, 100, 1)
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 100, 100)
	cleanTree(root)

	if got := r.RenderFrame(root); got != FrameRendered {
		t.Errorf("RenderFrame = %v, want rendered", got)
	}
	if b.beginCalls != 1 || b.endCalls != 1 {
		t.Errorf("begin, end = %d, %d, want 1, 1", b.beginCalls, b.endCalls)
	}
	if r.FrameCount() != 1 {
		t.Errorf("FrameCount = %d, want 1", r.FrameCount())
	}
}

func TestCleanTreeSkipsFrame(t *testing.T) {
	b := newFakeBackend(100, 100, 1)
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 100, 100)
	paints := countPaints(root)
	r.RenderFrame(root)

	got := r.RenderFrame(root)

	if got != FrameSkipped {
		t.Errorf("RenderFrame = %v, want skipped", got)
	}
	if b.beginCalls != 1 {
		t.Errorf("beginCalls = %d, want 1", b.beginCalls)
	}
	if r.FrameCount() != 1 {
		t.Errorf("FrameCount = %d, want 1", r.FrameCount())
	}
	if r.SkippedFrames() != 1 {
		t.Errorf("SkippedFrames = %d, want 1", r.SkippedFrames())
	}
	if *paints != 1 {
		t.Errorf("paints = %d, want 1", *paints)
	}
}

func TestDirtyNodeForcesFrame(t *testing.T) {
	b := newFakeBackend(100, 100, 1)
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 100, 100)
	leaf := nodeAt("leaf", 0, 0, 10, 10)
	root.AddChild(leaf)
	r.RenderFrame(root)

	leaf.Invalidate()

	if got := r.RenderFrame(root); got != FrameRendered {
		t.Errorf("RenderFrame = %v, want rendered", got)
	}
	if root.IsDirty() || leaf.IsDirty() {
		t.Error("painted nodes should be clean")
	}
}

func TestForceNextFrame(t *testing.T) {
	b := newFakeBackend(100, 100, 1)
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 100, 100)
	r.RenderFrame(root)

	r.ForceNextFrame()

	if got := r.RenderFrame(root); got != FrameRendered {
		t.Errorf("forced RenderFrame = %v, want rendered", got)
	}
	if got := r.RenderFrame(root); got != FrameSkipped {
		t.Errorf("next RenderFrame = %v, want skipped", got)
	}
}

func TestCachedScenario(t *testing.T) {
	b := newFakeBackend(800, 600, 2)
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 800, 600)
	a := nodeAt("A", 0, 0, 100, 100)
	bNode := nodeAt("B", 50, 50, 100, 100)
	root.AddChild(a)
	root.AddChild(bNode)
	r.TextureCache().EnableCaching(a)

	if got := r.RenderFrame(root); got != FrameRendered {
		t.Fatalf("RenderFrame = %v, want rendered", got)
	}

	if a.IsDirty() {
		t.Error("A should be clean after the frame")
	}
	s := a.CachedSurface()
	if s == nil {
		t.Fatal("A should have a cached surface")
	}
	if s.Width() != 200 || s.Height() != 200 {
		t.Errorf("A surface = %dx%d, want 200x200", s.Width(), s.Height())
	}
	if got := root.FindNodeAt(75, 75); got != bNode {
		t.Errorf("FindNodeAt(75,75) = %v, want B", nameOf(got))
	}
	if diff := cmp.Diff(CacheStats{Nodes: 1, Bytes: 200 * 200 * 4}, r.TextureCache().Stats()); diff != "" {
		t.Errorf("cache stats mismatch (-want +got):\n%s", diff)
	}
}

func TestCacheHitSkipsSubtreePaint(t *testing.T) {
	b := newFakeBackend(800, 600, 2)
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 800, 600)
	a := nodeAt("A", 0, 0, 100, 100)
	c := nodeAt("C", 10, 10, 20, 20)
	root.AddChild(a)
	a.AddChild(c)
	paints := countPaints(c)
	r.TextureCache().EnableCaching(a)

	r.RenderFrame(root)
	// Once on screen, once into the cache surface.
	if *paints != 2 {
		t.Fatalf("paints after miss = %d, want 2", *paints)
	}
	if st := r.Stats(); st.CacheMisses != 1 || st.CacheHits != 0 {
		t.Errorf("misses, hits = %d, %d, want 1, 0", st.CacheMisses, st.CacheHits)
	}

	r.ForceNextFrame()
	r.RenderFrame(root)

	if *paints != 2 {
		t.Errorf("paints after hit = %d, want 2", *paints)
	}
	if st := r.Stats(); st.CacheHits != 1 || st.CacheMisses != 0 {
		t.Errorf("hits, misses = %d, %d, want 1, 0", st.CacheHits, st.CacheMisses)
	}
	want := "surface 200x200 at 0 0 scale 0.5"
	found := false
	for _, op := range b.frame.log {
		if op == want {
			found = true
		}
	}
	if !found {
		t.Errorf("frame log missing %q:\n%s", want, strings.Join(b.frame.log, "\n"))
	}
}

func TestDirtyDescendantRepaintsIntoSameSurface(t *testing.T) {
	b := newFakeBackend(800, 600, 1)
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 800, 600)
	a := nodeAt("A", 0, 0, 100, 100)
	c := nodeAt("C", 10, 10, 20, 20)
	root.AddChild(a)
	a.AddChild(c)
	paints := countPaints(c)
	r.TextureCache().EnableCaching(a)
	r.RenderFrame(root)
	surface := a.CachedSurface()

	c.Invalidate()
	r.RenderFrame(root)

	if *paints != 4 {
		t.Errorf("paints = %d, want 4", *paints)
	}
	if a.CachedSurface() != surface {
		t.Error("same-size surface should be reused")
	}
	if n := len(b.offscreen); n != 1 {
		t.Errorf("allocations = %d, want 1", n)
	}
	if surface.(*fakeSurface).clears != 1 {
		t.Errorf("clears = %d, want 1", surface.(*fakeSurface).clears)
	}
}

func TestOffscreenPaintOps(t *testing.T) {
	b := newFakeBackend(800, 600, 2)
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 800, 600)
	a := nodeAt("A", 30, 40, 100, 100)
	a.SetOpacity(0.5)
	a.OnPaint = fillHook
	root.AddChild(a)
	r.TextureCache().EnableCaching(a)

	r.RenderFrame(root)

	want := []string{
		"save",
		"scale 2 2",
		"clip 0 0 100 100",
		"opacity 1",
		"fill 0 0 100 100",
		"restore",
	}
	got := b.offscreen[0].log
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("offscreen ops mismatch (-want +got):\n%s", diff)
	}

	// The cached surface is composited at the node's effective opacity.
	r.ForceNextFrame()
	r.RenderFrame(root)
	want = []string{
		"save",
		"clear",
		"scale 2 2",
		"save",
		"translate 0 0",
		"opacity 1",
		"clip 0 0 800 600",
		"save",
		"translate 30 40",
		"opacity 0.5",
		"surface 200x200 at 0 0 scale 0.5",
		"restore",
		"restore",
		"restore",
	}
	if diff := cmp.Diff(want, b.frame.log); diff != "" {
		t.Errorf("frame ops mismatch (-want +got):\n%s", diff)
	}
}

func TestPaintOrder(t *testing.T) {
	b := newFakeBackend(100, 100, 1)
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 100, 100)
	root.OnPaint = fillHook
	root.OnPaintOverChildren = func(n *Node, c Canvas) {
		c.DrawLine(0, 0, 10, 10, ColorBlack, 1)
	}
	child := nodeAt("child", 10, 10, 20, 20)
	child.SetTransform(ScaleAffine(2, 2))
	child.SetOpacity(0.5)
	child.OnPaint = fillHook
	root.AddChild(child)

	r.RenderFrame(root)

	want := []string{
		"save",
		"clear",
		"scale 1 1",
		"save",
		"translate 0 0",
		"opacity 1",
		"clip 0 0 100 100",
		"fill 0 0 100 100",
		"save",
		"translate 10 10",
		"concat [2 0 0 2 0 0]",
		"opacity 0.5",
		"clip 0 0 20 20",
		"fill 0 0 20 20",
		"restore",
		"opacity 1",
		"line 0 0 10 10",
		"restore",
		"restore",
	}
	if diff := cmp.Diff(want, b.frame.log); diff != "" {
		t.Errorf("paint ops mismatch (-want +got):\n%s", diff)
	}
	if got := r.Stats().NodesPainted; got != 2 {
		t.Errorf("NodesPainted = %d, want 2", got)
	}
}

func TestOpacityMultipliesDownTheTree(t *testing.T) {
	b := newFakeBackend(100, 100, 1)
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 100, 100)
	root.SetOpacity(0.5)
	mid := nodeAt("mid", 0, 0, 50, 50)
	mid.SetOpacity(0.5)
	var seen float64
	leaf := nodeAt("leaf", 0, 0, 10, 10)
	leaf.OnPaint = func(*Node, Canvas) {
		seen = b.frame.canvas.opacity
	}
	root.AddChild(mid)
	mid.AddChild(leaf)

	r.RenderFrame(root)

	if seen != 0.25 {
		t.Errorf("leaf opacity = %v, want 0.25", seen)
	}
}

func TestInvisibleAndTransparentNodesAreNotPainted(t *testing.T) {
	b := newFakeBackend(100, 100, 1)
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 100, 100)
	hidden := nodeAt("hidden", 0, 0, 10, 10)
	hiddenChild := nodeAt("hiddenChild", 0, 0, 5, 5)
	hidden.AddChild(hiddenChild)
	hidden.SetVisible(false)
	faded := nodeAt("faded", 0, 0, 10, 10)
	faded.SetOpacity(0)
	root.AddChild(hidden)
	root.AddChild(faded)
	hiddenPaints := countPaints(hidden)
	childPaints := countPaints(hiddenChild)
	fadedPaints := countPaints(faded)

	r.RenderFrame(root)

	if *hiddenPaints != 0 || *childPaints != 0 || *fadedPaints != 0 {
		t.Errorf("paints = %d, %d, %d, want 0, 0, 0", *hiddenPaints, *childPaints, *fadedPaints)
	}

	// Dirty nodes that would not be painted do not force frames.
	hiddenChild.Invalidate()
	faded.Invalidate()
	root.dirty = false
	if got := r.RenderFrame(root); got != FrameSkipped {
		t.Errorf("RenderFrame = %v, want skipped", got)
	}

	hidden.SetVisible(true)
	if got := r.RenderFrame(root); got != FrameRendered {
		t.Errorf("RenderFrame after show = %v, want rendered", got)
	}
	if *childPaints != 1 {
		t.Errorf("hidden child paints = %d, want 1", *childPaints)
	}
}

func TestTransparentParentStillLaysOutChildren(t *testing.T) {
	b := newFakeBackend(100, 100, 1)
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 100, 100)
	faded := nodeAt("faded", 0, 0, 50, 50)
	child := nodeAt("child", 0, 0, 20, 20)
	faded.AddChild(child)
	faded.SetOpacity(0)
	root.AddChild(faded)

	layouts := 0
	child.OnLayout = func(*Node) { layouts++ }
	paints := countPaints(child)

	if got := r.RenderFrame(root); got != FrameRendered {
		t.Fatalf("RenderFrame = %v, want rendered", got)
	}
	if layouts != 1 {
		t.Errorf("layouts = %d, want 1", layouts)
	}
	if *paints != 0 {
		t.Errorf("paints = %d, want 0", *paints)
	}
}

func TestScaleChangeRebuildsCache(t *testing.T) {
	b := newFakeBackend(800, 600, 1)
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 800, 600)
	a := nodeAt("A", 0, 0, 100, 100)
	root.AddChild(a)
	r.TextureCache().EnableCaching(a)

	r.RenderFrame(root)
	old := a.CachedSurface()
	if old == nil || old.Width() != 100 {
		t.Fatalf("A surface at scale 1 = %v, want 100x100", old)
	}

	b.scale = 2
	r.ForceNextFrame()
	r.RenderFrame(root)

	s := a.CachedSurface()
	if s == nil {
		t.Fatal("A should have a cached surface after the scale change")
	}
	if s.Width() != 200 || s.Height() != 200 {
		t.Errorf("A surface = %dx%d, want 200x200", s.Width(), s.Height())
	}
	if !old.(*fakeSurface).released {
		t.Error("surface from the old scale should be released")
	}
	want := "surface 200x200 at 0 0 scale 0.5"
	if !slices.Contains(b.frame.log, want) {
		t.Errorf("frame log missing %q:\n%s", want, strings.Join(b.frame.log, "\n"))
	}
	if st := r.Stats(); st.CacheMisses != 1 || st.CacheHits != 0 {
		t.Errorf("misses, hits = %d, %d, want 1, 0", st.CacheMisses, st.CacheHits)
	}

	r.ForceNextFrame()
	r.RenderFrame(root)
	if a.CachedSurface() != s {
		t.Error("same scale should reuse the cached surface")
	}
}

func TestAbortedFrame(t *testing.T) {
	b := newFakeBackend(100, 100, 1)
	b.notReady = true
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 100, 100)
	paints := countPaints(root)

	if got := r.RenderFrame(root); got != FrameAborted {
		t.Errorf("RenderFrame = %v, want aborted", got)
	}
	if *paints != 0 {
		t.Errorf("paints = %d, want 0", *paints)
	}
	if b.endCalls != 0 {
		t.Errorf("endCalls = %d, want 0", b.endCalls)
	}
	if r.FrameCount() != 0 || r.Stats().Aborted != 1 {
		t.Errorf("frames, aborted = %d, %d, want 0, 1", r.FrameCount(), r.Stats().Aborted)
	}
	if !root.IsDirty() {
		t.Error("root should stay dirty after an aborted frame")
	}

	// The still-dirty tree is retried once the backend is ready.
	b.notReady = false
	if got := r.RenderFrame(root); got != FrameRendered {
		t.Errorf("RenderFrame = %v, want rendered", got)
	}
	if *paints != 1 {
		t.Errorf("paints = %d, want 1", *paints)
	}
}

func TestOffscreenFailureFallsBackToDirectPaint(t *testing.T) {
	b := newFakeBackend(100, 100, 1)
	b.failOffscreen = true
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 100, 100)
	a := nodeAt("A", 0, 0, 50, 50)
	root.AddChild(a)
	paints := countPaints(a)
	r.TextureCache().EnableCaching(a)

	if got := r.RenderFrame(root); got != FrameRendered {
		t.Fatalf("RenderFrame = %v, want rendered", got)
	}

	if *paints != 1 {
		t.Errorf("paints = %d, want 1", *paints)
	}
	if a.HasCachedSurface() {
		t.Error("A should have no surface")
	}
	if diff := cmp.Diff(CacheStats{}, r.TextureCache().Stats()); diff != "" {
		t.Errorf("cache stats mismatch (-want +got):\n%s", diff)
	}

	r.ForceNextFrame()
	r.RenderFrame(root)
	if *paints != 2 {
		t.Errorf("paints = %d, want 2 (no surface to hit)", *paints)
	}
}

func TestContinuousWidgetPreventsSkip(t *testing.T) {
	b := newFakeBackend(100, 100, 1)
	r := NewRenderer(b)
	root := nodeAt("root", 0, 0, 100, 100)
	w := NewWidget("meter")
	w.SetBounds(RectXYWH(0, 0, 10, 10))
	ticks := 0
	w.OnTick = func(*Widget, time.Time) { ticks++ }
	w.SetAnimationHost(r)
	w.SetContinuous(true)
	root.AddChild(&w.Node)

	for i := 0; i < 3; i++ {
		if got := r.RenderFrame(root); got != FrameRendered {
			t.Errorf("frame %d = %v, want rendered", i, got)
		}
	}
	if ticks != 3 {
		t.Errorf("ticks = %d, want 3", ticks)
	}

	w.SetContinuous(false)
	r.RenderFrame(root)
	if got := r.RenderFrame(root); got != FrameSkipped {
		t.Errorf("RenderFrame after stop = %v, want skipped", got)
	}
}

func TestTweenRunsToCompletionAndUnregisters(t *testing.T) {
	clock := newFakeClock(50 * time.Millisecond)
	b := newFakeBackend(100, 100, 1)
	r := NewRenderer(b, WithClock(clock.now))
	root := nodeAt("root", 0, 0, 100, 100)
	w := NewWidget("fader")
	w.SetBounds(RectXYWH(0, 0, 10, 10))
	root.AddChild(&w.Node)
	w.SetAnimationHost(r)
	w.Play(TweenOpacity(&w.Node, 0, 0.1, ease.Linear))

	if n := len(r.AnimatingWidgets()); n != 1 {
		t.Fatalf("AnimatingWidgets = %d, want 1", n)
	}

	for i := 0; i < 10 && len(r.AnimatingWidgets()) > 0; i++ {
		r.RenderFrame(root)
	}

	if n := len(r.AnimatingWidgets()); n != 0 {
		t.Errorf("AnimatingWidgets = %d, want 0", n)
	}
	if w.Opacity() != 0 {
		t.Errorf("Opacity = %v, want 0", w.Opacity())
	}
	r.RenderFrame(root)
	if got := r.RenderFrame(root); got != FrameSkipped {
		t.Errorf("RenderFrame after tween = %v, want skipped", got)
	}
}

func TestAddAnimatingWidgetDeduplicates(t *testing.T) {
	r := NewRenderer(newFakeBackend(10, 10, 1))
	w := NewWidget("w")
	r.AddAnimatingWidget(w)
	r.AddAnimatingWidget(w)
	r.AddAnimatingWidget(nil)
	if n := len(r.AnimatingWidgets()); n != 1 {
		t.Errorf("AnimatingWidgets = %d, want 1", n)
	}
	r.RemoveAnimatingWidget(w)
	r.RemoveAnimatingWidget(w)
	if n := len(r.AnimatingWidgets()); n != 0 {
		t.Errorf("AnimatingWidgets = %d, want 0", n)
	}
}

func TestLayoutRunsBeforePaintInPreOrder(t *testing.T) {
	b := newFakeBackend(100, 100, 1)
	r := NewRenderer(b)
	var order []string
	record := func(n *Node) { order = append(order, n.Name) }
	root := nodeAt("root", 0, 0, 100, 100)
	a := nodeAt("a", 0, 0, 10, 10)
	a1 := nodeAt("a1", 0, 0, 5, 5)
	bNode := nodeAt("b", 0, 0, 10, 10)
	for _, n := range []*Node{root, a, a1, bNode} {
		n.OnLayout = record
	}
	root.OnPaint = func(*Node, Canvas) { order = append(order, "paint") }
	root.AddChild(a)
	a.AddChild(a1)
	root.AddChild(bNode)

	r.RenderFrame(root)

	want := []string{"root", "a", "a1", "b", "paint"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestNonPositiveScaleFallsBackToOne(t *testing.T) {
	b := newFakeBackend(100, 100, 0)
	r := NewRenderer(b)
	r.RenderFrame(nodeAt("root", 0, 0, 100, 100))
	if b.frame.log[2] != "scale 1 1" {
		t.Errorf("scale op = %q, want %q", b.frame.log[2], "scale 1 1")
	}
}

func TestFrameResultString(t *testing.T) {
	tests := map[FrameResult]string{
		FrameRendered:  "rendered",
		FrameSkipped:   "skipped",
		FrameAborted:   "aborted",
		FrameResult(9): "unknown",
	}
	for f, want := range tests {
		if got := f.String(); got != want {
			t.Errorf("FrameResult(%d).String() = %q, want %q", f, got, want)
		}
	}
}
