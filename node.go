package canopy

// nodeIDCounter is a plain counter (no atomic: the node tree belongs to the
// draw thread).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is the fundamental scene graph element: a rectangle in its parent's
// space with a transform, opacity, visibility, a dirty flag and an optional
// cached offscreen rendering of its subtree.
//
// Nodes draw through the OnPaint and OnPaintOverChildren hooks; a node with
// neither is a pure container. All methods must be called from the goroutine
// that runs the Renderer.
type Node struct {
	// Identity
	ID   uint32
	Name string

	// Hierarchy
	parent   *Node
	children []*Node

	// Geometry & appearance
	bounds    Rect
	transform Affine
	opacity   float64
	visible   bool
	dirty     bool

	// Hooks (nil by default; zero cost when unused)
	OnPaint             func(n *Node, c Canvas)
	OnPaintOverChildren func(n *Node, c Canvas)
	OnLayout            func(n *Node)

	// HitShape, when set, replaces the default rectangular hit test.
	HitShape HitShape

	// Metadata
	UserData any

	// Cache state. cache is the TextureCache accounting for cacheSurface.
	cacheEnabled bool
	cacheSurface Surface
	cache        *TextureCache

	disposed bool
}

// NewNode creates a visible, fully opaque node with empty bounds. New nodes
// start dirty so their first frame is always painted.
func NewNode(name string) *Node {
	n := &Node{}
	initNode(n, name)
	return n
}

// initNode sets the defaults shared by all constructors, including nodes
// embedded in widgets.
func initNode(n *Node, name string) {
	n.ID = nextNodeID()
	n.Name = name
	n.transform = Identity()
	n.opacity = 1
	n.visible = true
	n.dirty = true
}

// --- Tree manipulation ---

// AddChild appends child to this node's children; later children are drawn
// in front of earlier ones. A child attached elsewhere is detached from its
// previous parent first.
//
// AddChild is a no-op when child is nil, is n itself, is already a direct
// child of n, or is an ancestor of n.
func (n *Node) AddChild(child *Node) {
	if child == nil || child == n || child.parent == n {
		return
	}
	if n.disposed || child.disposed {
		debugWarnDisposed(n, child, "AddChild")
		return
	}
	if isAncestor(child, n) {
		return
	}
	if old := child.parent; old != nil {
		old.removeChildByPtr(child)
		old.Invalidate()
	}
	child.parent = n
	n.children = append(n.children, child)
	n.Invalidate()
	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
}

// RemoveChild detaches child from this node. Removing a node that is not a
// direct child is a no-op.
func (n *Node) RemoveChild(child *Node) {
	if child == nil || child.parent != n {
		return
	}
	n.removeChildByPtr(child)
	child.parent = nil
	n.Invalidate()
}

// RemoveAllChildren detaches every child. Children are NOT disposed.
func (n *Node) RemoveAllChildren() {
	for i, child := range n.children {
		child.parent = nil
		n.children[i] = nil
	}
	n.children = n.children[:0]
	n.Invalidate()
}

// RemoveFromParent detaches this node from its parent. No-op without one.
func (n *Node) RemoveFromParent() {
	if n.parent == nil {
		return
	}
	n.parent.RemoveChild(n)
}

// Parent returns the parent node, or nil for a root or detached node.
func (n *Node) Parent() *Node {
	return n.parent
}

// Root returns the topmost ancestor (n itself when detached).
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Children returns the child list in paint order. The returned slice MUST
// NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// --- Disposal ---

// Dispose detaches this node from its parent, releases its cached surface
// and recursively disposes all descendants. Disposing twice is a no-op, and
// so is any tree or appearance change on a disposed node.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	for _, child := range n.children {
		child.dispose()
		child.parent = nil
	}
	n.children = nil
	n.releaseCache()
	n.cacheEnabled = false
	n.cache = nil
	n.OnPaint = nil
	n.OnPaintOverChildren = nil
	n.OnLayout = nil
	n.HitShape = nil
	n.UserData = nil
	n.disposed = true
	n.ID = 0
}

// IsDisposed reports whether Dispose has been called.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Geometry & appearance ---

// Bounds returns the node's rectangle in its parent's coordinate space.
func (n *Node) Bounds() Rect {
	return n.bounds
}

// LocalBounds returns the node's rectangle in its own space: (0, 0, w, h).
func (n *Node) LocalBounds() Rect {
	return Rect{Width: n.bounds.Width, Height: n.bounds.Height}
}

// SetBounds moves and resizes the node. Setting the current bounds again is
// a no-op; any change drops the cached surface and marks the node dirty.
func (n *Node) SetBounds(r Rect) {
	if n.disposed || r == n.bounds {
		return
	}
	n.bounds = r
	n.releaseCache()
	n.Invalidate()
}

// SetPosition moves the node, keeping its size.
func (n *Node) SetPosition(x, y float64) {
	n.SetBounds(Rect{X: x, Y: y, Width: n.bounds.Width, Height: n.bounds.Height})
}

// SetSize resizes the node, keeping its position.
func (n *Node) SetSize(w, h float64) {
	n.SetBounds(Rect{X: n.bounds.X, Y: n.bounds.Y, Width: w, Height: h})
}

// Transform returns the node's local transform, applied after the
// translation to its bounds origin.
func (n *Node) Transform() Affine {
	return n.transform
}

// SetTransform replaces the node's local transform and marks it dirty.
func (n *Node) SetTransform(m Affine) {
	if n.disposed {
		return
	}
	n.transform = m
	n.Invalidate()
}

// Opacity returns the node's own opacity in [0, 1].
func (n *Node) Opacity() float64 {
	return n.opacity
}

// SetOpacity sets the node's opacity, clamped to [0, 1], and marks it dirty.
func (n *Node) SetOpacity(a float64) {
	if n.disposed {
		return
	}
	n.opacity = clamp01(a)
	n.Invalidate()
}

// Visible reports whether the node (and therefore its subtree) is drawn.
func (n *Node) Visible() bool {
	return n.visible
}

// SetVisible shows or hides the node and marks it dirty.
func (n *Node) SetVisible(v bool) {
	if n.disposed {
		return
	}
	n.visible = v
	n.Invalidate()
}

// --- Dirty tracking ---

// Invalidate marks this node and every ancestor up to the root dirty.
func (n *Node) Invalidate() {
	if n.disposed {
		return
	}
	for p := n; p != nil; p = p.parent {
		p.dirty = true
	}
}

// IsDirty reports whether the node's visual output may differ from what was
// last painted.
func (n *Node) IsDirty() bool {
	return n.dirty
}

// --- Cache ---

// IsCacheEnabled reports whether subtree caching is enabled for this node.
// Caching is switched through a TextureCache.
func (n *Node) IsCacheEnabled() bool {
	return n.cacheEnabled
}

// HasCachedSurface reports whether the node currently holds a cached surface.
func (n *Node) HasCachedSurface() bool {
	return n.cacheSurface != nil
}

// CachedSurface returns the node's cached surface, or nil.
func (n *Node) CachedSurface() Surface {
	return n.cacheSurface
}

// InvalidateCache drops the cached surface and marks the node dirty so the
// next frame repaints it. Same as TextureCache.Invalidate.
func (n *Node) InvalidateCache() {
	n.releaseCache()
	n.Invalidate()
}

// releaseCache frees the cached surface, keeping the owning TextureCache's
// counters in step.
func (n *Node) releaseCache() {
	if n.cacheSurface == nil {
		return
	}
	if n.cache != nil {
		n.cache.forget(n)
	}
	n.cacheSurface.Release()
	n.cacheSurface = nil
}

// --- Hit testing ---

// HitTest reports whether the local point (x, y) hits this node. The default
// area is [0, width) x [0, height); set HitShape for other shapes.
func (n *Node) HitTest(x, y float64) bool {
	if n.HitShape != nil {
		return n.HitShape.Contains(x, y)
	}
	return n.LocalBounds().Contains(x, y)
}

// FindNodeAt returns the frontmost visible node under (x, y), given in the
// parent's coordinate space, or nil. Descendants win over ancestors and later
// siblings win over earlier ones. Invisible subtrees are skipped, and so is
// any point outside the node's bounds since children are clipped to them.
func (n *Node) FindNodeAt(x, y float64) *Node {
	if !n.visible || n.disposed {
		return nil
	}
	lx, ly, ok := n.ParentToLocal(x, y)
	if !ok || !n.LocalBounds().Contains(lx, ly) {
		return nil
	}
	for i := len(n.children) - 1; i >= 0; i-- {
		if hit := n.children[i].FindNodeAt(lx, ly); hit != nil {
			return hit
		}
	}
	if n.HitTest(lx, ly) {
		return n
	}
	return nil
}

// --- Coordinate conversion ---

// localToParentMatrix is Translate(bounds origin) * transform, the same
// matrix the paint pass concatenates.
func (n *Node) localToParentMatrix() Affine {
	if n.transform.IsIdentity() {
		return Translate(n.bounds.X, n.bounds.Y)
	}
	return Translate(n.bounds.X, n.bounds.Y).Multiply(n.transform)
}

// LocalToParent converts a point from this node's space to its parent's.
func (n *Node) LocalToParent(x, y float64) (px, py float64) {
	if n.transform.IsIdentity() {
		return x + n.bounds.X, y + n.bounds.Y
	}
	return n.localToParentMatrix().Apply(x, y)
}

// ParentToLocal converts a point from the parent's space to this node's.
// ok is false when the node's transform is singular.
func (n *Node) ParentToLocal(px, py float64) (x, y float64, ok bool) {
	if n.transform.IsIdentity() {
		return px - n.bounds.X, py - n.bounds.Y, true
	}
	inv, ok := n.localToParentMatrix().Invert()
	if !ok {
		return 0, 0, false
	}
	x, y = inv.Apply(px, py)
	return x, y, true
}

// LocalToGlobal converts a local point into the root's parent space.
func (n *Node) LocalToGlobal(x, y float64) (gx, gy float64) {
	for p := n; p != nil; p = p.parent {
		x, y = p.LocalToParent(x, y)
	}
	return x, y
}

// GlobalToLocal converts a point in the root's parent space into this
// node's space. ok is false when any transform on the path is singular.
func (n *Node) GlobalToLocal(gx, gy float64) (x, y float64, ok bool) {
	if n.parent != nil {
		gx, gy, ok = n.parent.GlobalToLocal(gx, gy)
		if !ok {
			return 0, 0, false
		}
	}
	return n.ParentToLocal(gx, gy)
}

// --- Helpers ---

// isAncestor reports whether candidate is node or one of its ancestors.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing
// child.parent. Uses copy+nil to avoid retaining a pointer in the backing
// array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}
