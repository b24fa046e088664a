package canopy

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 values simultaneously and hands them to an
// apply function each update. The constructors below apply through node
// setters, so dirty propagation happens automatically. If the target node is
// disposed, the group stops immediately.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	apply  func(v [4]float64)
	target *Node
	Done   bool
}

// Update advances all tweens by dt seconds and applies the new values.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}

	var vals [4]float64
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		vals[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	g.apply(vals)
}

// TweenOpacity animates node opacity to the target value.
func TweenOpacity(n *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: n}
	g.tweens[0] = gween.New(float32(n.Opacity()), float32(to), duration, fn)
	g.apply = func(v [4]float64) { n.SetOpacity(v[0]) }
	return g
}

// TweenPosition animates the node's bounds origin, keeping its size.
func TweenPosition(n *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	b := n.Bounds()
	g := &TweenGroup{count: 2, target: n}
	g.tweens[0] = gween.New(float32(b.X), float32(toX), duration, fn)
	g.tweens[1] = gween.New(float32(b.Y), float32(toY), duration, fn)
	g.apply = func(v [4]float64) { n.SetPosition(v[0], v[1]) }
	return g
}

// TweenSize animates the node's width and height, keeping its position.
func TweenSize(n *Node, toW, toH float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	b := n.Bounds()
	g := &TweenGroup{count: 2, target: n}
	g.tweens[0] = gween.New(float32(b.Width), float32(toW), duration, fn)
	g.tweens[1] = gween.New(float32(b.Height), float32(toH), duration, fn)
	g.apply = func(v [4]float64) { n.SetSize(v[0], v[1]) }
	return g
}

// TweenValue animates a single value for widget-specific state. apply must
// invalidate whatever node displays the value.
func TweenValue(from, to float64, duration float32, fn ease.TweenFunc, apply func(v float64)) *TweenGroup {
	g := &TweenGroup{count: 1}
	g.tweens[0] = gween.New(float32(from), float32(to), duration, fn)
	g.apply = func(v [4]float64) { apply(v[0]) }
	return g
}
