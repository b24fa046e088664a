// Package canopy is a retained-mode 2D compositing engine for desktop audio
// software: a scene graph of rectangles with per-node transform, opacity and
// visibility, dirty tracking, frame skipping and per-node offscreen caching,
// painted through a pluggable GPU backend.
//
// # Scene graph
//
// Every visual element is a [Node]. Bounds are given in the parent's space;
// the node's [Affine] transform applies after the translation to the bounds
// origin. Later children draw in front of earlier ones.
//
//	root := canopy.NewNode("root")
//	root.SetBounds(canopy.RectXYWH(0, 0, 800, 600))
//
//	panel := canopy.NewNode("panel")
//	panel.SetBounds(canopy.RectXYWH(20, 20, 300, 120))
//	panel.OnPaint = func(n *canopy.Node, c canopy.Canvas) {
//		c.FillRect(n.LocalBounds(), canopy.RGB(0.15, 0.16, 0.2))
//	}
//	root.AddChild(panel)
//
// Any change that affects output must go through a setter or [Node.Invalidate];
// dirtiness propagates to the root.
//
// # Frames
//
// An external loop calls [Renderer.RenderFrame] once per display refresh.
// When nothing is dirty and no [Widget] is animating, the frame is skipped
// without touching the [Backend]. Otherwise layout hooks run, then the paint
// pass draws the tree, reusing cached surfaces of clean nodes:
//
//	r := canopy.NewRenderer(backend)
//	r.TextureCache().EnableCaching(waveform)
//	for range vsync {
//		r.RenderFrame(root)
//	}
//
// # Backends
//
// Backends live in sub-packages: backend/softbackend paints with the pure-Go
// [gg] rasterizer and runs headless; backend/ebitenbackend presents through
// [Ebitengine] on the platform GPU API.
//
// Widgets animate with [gween] tweens.
//
// [gg]: https://github.com/gogpu/gg
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package canopy
