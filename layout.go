package canopy

import "math"

// Orientation selects the main axis of a LinearLayout.
type Orientation uint8

const (
	Horizontal Orientation = iota // children left to right
	Vertical                      // children top to bottom
)

// Insets is padding around a layout's content box.
type Insets struct {
	Top, Right, Bottom, Left float64
}

// UniformInsets returns the same padding on every side.
func UniformInsets(v float64) Insets {
	return Insets{Top: v, Right: v, Bottom: v, Left: v}
}

// LinearLayout arranges its visible children in a row or column.
//
// Children with a stretch weight of zero keep their main-axis size; the
// space left after fixed children and spacing is shared among stretched
// children in proportion to their weights. On the cross axis every child
// fills the content box. Layout goes through SetBounds, so an unchanged
// arrangement never dirties anything.
type LinearLayout struct {
	Widget

	Orientation Orientation
	Spacing     float64
	Padding     Insets

	weights map[*Node]float64
}

// NewLinearLayout creates a layout widget.
func NewLinearLayout(name string, o Orientation) *LinearLayout {
	l := &LinearLayout{Orientation: o, weights: make(map[*Node]float64)}
	initNode(&l.Node, name)
	l.OnLayout = l.layout
	return l
}

// SetStretch sets child's stretch weight. Zero (the default) keeps the
// child's own main-axis size.
func (l *LinearLayout) SetStretch(child *Node, weight float64) {
	if weight <= 0 {
		delete(l.weights, child)
	} else {
		l.weights[child] = weight
	}
	l.Invalidate()
}

// Stretch returns child's stretch weight.
func (l *LinearLayout) Stretch(child *Node) float64 {
	return l.weights[child]
}

// SetSpacing sets the gap between children.
func (l *LinearLayout) SetSpacing(v float64) {
	l.Spacing = v
	l.Invalidate()
}

// SetPadding sets the padding around the content box.
func (l *LinearLayout) SetPadding(p Insets) {
	l.Padding = p
	l.Invalidate()
}

func (l *LinearLayout) layout(n *Node) {
	b := n.Bounds()
	content := Rect{
		X:      l.Padding.Left,
		Y:      l.Padding.Top,
		Width:  math.Max(0, b.Width-l.Padding.Left-l.Padding.Right),
		Height: math.Max(0, b.Height-l.Padding.Top-l.Padding.Bottom),
	}

	var visible int
	var fixed, totalWeight float64
	for _, child := range n.children {
		if !child.visible {
			continue
		}
		visible++
		if w := l.weights[child]; w > 0 {
			totalWeight += w
		} else {
			fixed += l.mainSize(child.bounds)
		}
	}
	// Weights of removed children are dropped lazily.
	for child := range l.weights {
		if child.parent != n {
			delete(l.weights, child)
		}
	}
	if visible == 0 {
		return
	}

	mainAvail, cross := content.Width, content.Height
	if l.Orientation == Vertical {
		mainAvail, cross = content.Height, content.Width
	}
	remaining := math.Max(0, mainAvail-fixed-l.Spacing*float64(visible-1))

	pos := 0.0
	for _, child := range n.children {
		if !child.visible {
			continue
		}
		size := l.mainSize(child.bounds)
		if w := l.weights[child]; w > 0 {
			size = remaining * w / totalWeight
		}
		if l.Orientation == Horizontal {
			child.SetBounds(Rect{X: content.X + pos, Y: content.Y, Width: size, Height: cross})
		} else {
			child.SetBounds(Rect{X: content.X, Y: content.Y + pos, Width: cross, Height: size})
		}
		pos += size + l.Spacing
	}
}

func (l *LinearLayout) mainSize(r Rect) float64 {
	if l.Orientation == Vertical {
		return r.Height
	}
	return r.Width
}
