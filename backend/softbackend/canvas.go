package softbackend

import (
	"log/slog"

	"github.com/gogpu/gg"

	"github.com/phanxgames/canopy"
)

// Canvas draws into a Surface through gg. gg has no global alpha, so the
// current opacity is folded into every color and image draw.
type Canvas struct {
	s       *Surface
	opacity float64
	stack   []float64
}

// Save pushes the transform, clip and opacity.
func (c *Canvas) Save() {
	c.s.dc.Push()
	c.stack = append(c.stack, c.opacity)
}

// Restore pops the state pushed by the matching Save.
func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.s.dc.Pop()
	c.opacity = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *Canvas) Translate(x, y float64) { c.s.dc.Translate(x, y) }
func (c *Canvas) Scale(sx, sy float64)   { c.s.dc.Scale(sx, sy) }

// Concat multiplies the current transform by m.
func (c *Canvas) Concat(m canopy.Affine) {
	c.s.dc.Transform(toMatrix(m))
}

// ClipRect intersects the clip with r. Under rotation gg clips to the
// device-space bounding box of r.
func (c *Canvas) ClipRect(r canopy.Rect) {
	c.s.dc.ClipRect(r.X, r.Y, r.Width, r.Height)
}

func (c *Canvas) SetOpacity(a float64) { c.opacity = a }

// Clear fills the whole surface with col, ignoring transform and clip.
func (c *Canvas) Clear(col canopy.Color) {
	if c.s.released {
		return
	}
	c.s.dc.ClearWithColor(toRGBA(col))
	c.s.touch()
}

func (c *Canvas) FillRect(r canopy.Rect, col canopy.Color) {
	if !c.drawable(col) {
		return
	}
	dc := c.s.dc
	c.setColor(col)
	dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	c.check("fill", dc.Fill())
}

func (c *Canvas) StrokeRect(r canopy.Rect, col canopy.Color, width float64) {
	if !c.drawable(col) || width <= 0 {
		return
	}
	dc := c.s.dc
	c.setColor(col)
	dc.SetLineWidth(width)
	dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	c.check("stroke", dc.Stroke())
}

func (c *Canvas) DrawLine(x0, y0, x1, y1 float64, col canopy.Color, width float64) {
	if !c.drawable(col) || width <= 0 {
		return
	}
	dc := c.s.dc
	c.setColor(col)
	dc.SetLineWidth(width)
	dc.DrawLine(x0, y0, x1, y1)
	c.check("line", dc.Stroke())
}

// DrawSurface composites another soft Surface with its top-left at (x, y),
// scaled uniformly by scale, at the current opacity. Surfaces from other
// backends are ignored.
func (c *Canvas) DrawSurface(s canopy.Surface, x, y, scale float64) {
	src, ok := s.(*Surface)
	if !ok || src.released || c.s.released || c.opacity <= 0 || src == c.s {
		return
	}
	c.s.dc.DrawImageEx(src.imageBuf(), gg.DrawImageOptions{
		X:             x,
		Y:             y,
		DstWidth:      float64(src.w) * scale,
		DstHeight:     float64(src.h) * scale,
		Interpolation: gg.InterpBilinear,
		Opacity:       c.opacity,
		BlendMode:     gg.BlendNormal,
	})
	c.s.touch()
}

func (c *Canvas) drawable(col canopy.Color) bool {
	return !c.s.released && c.opacity > 0 && col.A > 0
}

func (c *Canvas) setColor(col canopy.Color) {
	c.s.dc.SetRGBA(col.R, col.G, col.B, col.A*c.opacity)
	c.s.touch()
}

func (c *Canvas) check(op string, err error) {
	if err != nil {
		canopy.Logger().Debug("softbackend: draw failed", "op", op, slog.Any("err", err))
	}
}

// toMatrix converts canopy's column layout [a b c d tx ty] to gg's row
// layout (x' = A*x + B*y + C, y' = D*x + E*y + F).
func toMatrix(m canopy.Affine) gg.Matrix {
	return gg.Matrix{
		A: m[0], B: m[2], C: m[4],
		D: m[1], E: m[3], F: m[5],
	}
}

func toRGBA(col canopy.Color) gg.RGBA {
	return gg.RGBA{R: col.R, G: col.G, B: col.B, A: col.A}
}
