package canopy

import (
	"log/slog"
	"time"
)

// globalDebug mirrors the most recently set Renderer debug flag so that node
// operations (which lack a Renderer pointer) can check it cheaply. Only valid
// with a single Renderer; several Renderers with differing debug modes
// reflect whichever called SetDebugMode last.
var globalDebug bool

// FrameStats reports renderer activity. Frames, Skipped and Aborted are
// running totals; the per-frame fields describe the last rendered frame.
type FrameStats struct {
	Frames  uint64
	Skipped uint64
	Aborted uint64

	LastFrameDuration time.Duration
	NodesPainted      int
	CacheHits         int
	CacheMisses       int
	LayoutTime        time.Duration
	PaintTime         time.Duration

	CachedNodes int
	CachedBytes int64
}

// LogValue renders the stats as a structured group.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("frames", s.Frames),
		slog.Uint64("skipped", s.Skipped),
		slog.Uint64("aborted", s.Aborted),
		slog.Duration("frame", s.LastFrameDuration),
		slog.Duration("layout", s.LayoutTime),
		slog.Duration("paint", s.PaintTime),
		slog.Int("painted", s.NodesPainted),
		slog.Int("cache_hits", s.CacheHits),
		slog.Int("cache_misses", s.CacheMisses),
		slog.Int("cached_nodes", s.CachedNodes),
		slog.Int64("cached_bytes", s.CachedBytes),
	)
}

// debugLog reports the last frame's stats at debug level.
func (r *Renderer) debugLog() {
	if !r.debug {
		return
	}
	Logger().Debug("canopy: frame", slog.Any("stats", r.Stats()))
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		Logger().Warn("canopy: tree depth exceeds threshold",
			"node", n.Name, "depth", depth, "threshold", debugMaxTreeDepth)
	}
}

// debugCheckChildCount warns if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		Logger().Warn("canopy: child count exceeds threshold",
			"node", n.Name, "children", len(n.children), "threshold", debugMaxChildCount)
	}
}

// debugWarnDisposed reports a tree operation on a disposed node. The
// operation itself is already a no-op; this only makes misuse visible.
func debugWarnDisposed(parent, child *Node, op string) {
	if !globalDebug {
		return
	}
	Logger().Warn("canopy: "+op+" on disposed node",
		"parent", parent.Name, "parent_disposed", parent.disposed,
		"child", child.Name, "child_disposed", child.disposed)
}
