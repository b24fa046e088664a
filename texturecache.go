package canopy

import (
	"log/slog"
	"math"
)

// bytesPerPixel is the footprint assumed for every offscreen surface.
const bytesPerPixel = 4

// CacheStats is a snapshot of TextureCache bookkeeping.
type CacheStats struct {
	Nodes int
	Bytes int64
}

// TextureCache mediates per-node subtree caching and accounts for the
// offscreen memory it holds. Entries are explicitly invalidated, never
// evicted: a node keeps its surface until it changes, is disabled, or is
// disposed.
//
// The node's surface is the source of truth; the cache's counters are
// derived from an entry per node holding a surface.
type TextureCache struct {
	backend Backend
	entries map[*Node]int64
	bytes   int64
}

// NewTextureCache creates a cache that allocates offscreen surfaces from b.
func NewTextureCache(b Backend) *TextureCache {
	return &TextureCache{
		backend: b,
		entries: make(map[*Node]int64),
	}
}

// EnableCaching turns on subtree caching for n. The node is marked dirty so
// the next frame builds its surface.
func (tc *TextureCache) EnableCaching(n *Node) {
	if n == nil || n.disposed {
		return
	}
	if n.cache != nil && n.cache != tc {
		n.releaseCache()
	}
	n.cache = tc
	if n.cacheEnabled {
		return
	}
	n.cacheEnabled = true
	n.Invalidate()
}

// DisableCaching turns off caching for n and frees its surface.
func (tc *TextureCache) DisableCaching(n *Node) {
	if n == nil || !n.cacheEnabled {
		return
	}
	n.cacheEnabled = false
	n.releaseCache()
}

// Invalidate drops n's cached surface so the next frame repaints it.
func (tc *TextureCache) Invalidate(n *Node) {
	if n == nil {
		return
	}
	n.InvalidateCache()
}

// GetOrCreateSurface returns n's cached surface when it is present and n is
// clean. Otherwise it returns a cleared surface sized to n's bounds at the
// backend's pixel scale: the old surface when its size still fits, or a new
// allocation. It returns nil when no surface can be allocated; the node
// then paints uncached and the counters are left as they were.
func (tc *TextureCache) GetOrCreateSurface(n *Node) Surface {
	if n == nil || n.disposed {
		return nil
	}
	w, h := tc.pixelSize(n)
	if s := n.cacheSurface; s != nil {
		if !n.dirty {
			return s
		}
		if s.Width() == w && s.Height() == h {
			s.Clear()
			return s
		}
		n.releaseCache()
	}
	if w <= 0 || h <= 0 {
		Logger().Debug("canopy: skip cache surface", "node", n.Name, "width", w, "height", h)
		return nil
	}
	s, err := tc.backend.CreateOffscreenSurface(w, h)
	if err != nil || s == nil {
		Logger().Debug("canopy: offscreen allocation failed",
			"node", n.Name, "width", w, "height", h, slog.Any("err", err))
		return nil
	}
	n.cache = tc
	n.cacheSurface = s
	size := int64(w) * int64(h) * bytesPerPixel
	tc.entries[n] = size
	tc.bytes += size
	return s
}

// Clear releases every surface this cache accounts for and resets the
// counters. Caching stays enabled on the nodes; their surfaces are rebuilt
// on the next frame that paints them.
func (tc *TextureCache) Clear() {
	for n := range tc.entries {
		if n.cacheSurface != nil {
			n.cacheSurface.Release()
			n.cacheSurface = nil
		}
		n.Invalidate()
	}
	clear(tc.entries)
	tc.bytes = 0
}

// Count returns the number of nodes holding a cached surface.
func (tc *TextureCache) Count() int {
	return len(tc.entries)
}

// Bytes returns the offscreen memory attributed to cached surfaces.
func (tc *TextureCache) Bytes() int64 {
	return tc.bytes
}

// Stats returns both counters.
func (tc *TextureCache) Stats() CacheStats {
	return CacheStats{Nodes: len(tc.entries), Bytes: tc.bytes}
}

// forget removes n's entry and its byte contribution.
func (tc *TextureCache) forget(n *Node) {
	size, ok := tc.entries[n]
	if !ok {
		return
	}
	delete(tc.entries, n)
	tc.bytes -= size
}

// pixelSize returns n's bounds in physical pixels, rounded up.
func (tc *TextureCache) pixelSize(n *Node) (int, int) {
	scale := tc.backend.Scale()
	if scale <= 0 {
		scale = 1
	}
	return int(math.Ceil(n.bounds.Width * scale)), int(math.Ceil(n.bounds.Height * scale))
}
