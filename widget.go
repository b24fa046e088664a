package canopy

import "time"

// Widget is a Node that takes part in layout and per-frame animation.
//
// A Widget animates while it has running tweens or is marked continuous.
// The Renderer only ticks registered widgets: Play registers the widget with
// its AnimationHost, and the widget unregisters itself once all animation
// has finished. Call Dispose (or RemoveAnimatingWidget) on teardown.
type Widget struct {
	Node

	// OnTick, when set, runs on every tick after tweens have advanced.
	OnTick func(w *Widget, now time.Time)

	tweens     []*TweenGroup
	continuous bool
	lastTick   time.Time
	host       AnimationHost
}

// NewWidget creates a widget with node defaults.
func NewWidget(name string) *Widget {
	w := &Widget{}
	initNode(&w.Node, name)
	return w
}

// SetAnimationHost sets where the widget registers itself while animating.
func (w *Widget) SetAnimationHost(h AnimationHost) {
	w.host = h
	if h != nil && w.IsAnimating() {
		h.AddAnimatingWidget(w)
	}
}

// Play starts a tween group on this widget.
func (w *Widget) Play(g *TweenGroup) {
	if g == nil || g.Done || w.disposed {
		return
	}
	w.tweens = append(w.tweens, g)
	w.register()
}

// SetContinuous keeps the widget animating until switched off, for content
// that changes every frame (meters, playheads).
func (w *Widget) SetContinuous(on bool) {
	w.continuous = on
	if on {
		w.register()
	} else if !w.IsAnimating() {
		w.lastTick = time.Time{}
		w.unregister()
	}
}

// StopAnimations drops all tweens (leaving their current values) and clears
// the continuous flag.
func (w *Widget) StopAnimations() {
	clear(w.tweens)
	w.tweens = w.tweens[:0]
	w.continuous = false
	w.unregister()
}

// IsAnimating reports whether the widget needs a tick this frame.
func (w *Widget) IsAnimating() bool {
	return w.continuous || len(w.tweens) > 0
}

// Tick advances tweens by the time since the previous tick, runs OnTick and
// unregisters the widget once it has stopped animating.
func (w *Widget) Tick(now time.Time) {
	var dt time.Duration
	if !w.lastTick.IsZero() {
		dt = now.Sub(w.lastTick)
	}
	w.lastTick = now

	live := w.tweens[:0]
	for _, g := range w.tweens {
		g.Update(float32(dt.Seconds()))
		if !g.Done {
			live = append(live, g)
		}
	}
	clear(w.tweens[len(live):])
	w.tweens = live

	if w.OnTick != nil {
		w.OnTick(w, now)
	}
	if !w.IsAnimating() {
		w.lastTick = time.Time{}
		w.unregister()
	}
}

// Dispose unregisters the widget from its host and disposes its node.
func (w *Widget) Dispose() {
	w.StopAnimations()
	w.host = nil
	w.Node.Dispose()
}

func (w *Widget) register() {
	if w.host != nil {
		w.host.AddAnimatingWidget(w)
	}
}

func (w *Widget) unregister() {
	if w.host != nil {
		w.host.RemoveAnimatingWidget(w)
	}
}
