package ebitenbackend

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/canopy"
)

// --- White pixel singleton (no sync.Once: drawing is single-threaded) ---

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image.
// Rectangles and lines are drawn by stretching it.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(whiteColor)
	}
	return whitePixelImage
}

type canvasState struct {
	ctm     canopy.Affine
	clip    image.Rectangle // device pixels
	opacity float64
}

// Canvas draws onto an ebiten image. The transform is kept as a canopy
// Affine and converted per draw; clips are device-space rectangles applied
// through SubImage.
type Canvas struct {
	target *ebiten.Image
	state  canvasState
	stack  []canvasState
	op     ebiten.DrawImageOptions
}

func newCanvas(target *ebiten.Image) *Canvas {
	c := &Canvas{target: target}
	c.reset()
	return c
}

// reset drops all saved state, as at the start of a frame.
func (c *Canvas) reset() {
	c.state = canvasState{ctm: canopy.Identity(), clip: c.target.Bounds(), opacity: 1}
	c.stack = c.stack[:0]
}

func (c *Canvas) Save() {
	c.stack = append(c.stack, c.state)
}

func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.state = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *Canvas) Translate(x, y float64) {
	c.state.ctm = c.state.ctm.Multiply(canopy.Translate(x, y))
}

func (c *Canvas) Scale(sx, sy float64) {
	c.state.ctm = c.state.ctm.Multiply(canopy.ScaleAffine(sx, sy))
}

func (c *Canvas) Concat(m canopy.Affine) {
	c.state.ctm = c.state.ctm.Multiply(m)
}

// ClipRect intersects the clip with the device-space bounding box of r.
func (c *Canvas) ClipRect(r canopy.Rect) {
	c.state.clip = c.state.clip.Intersect(deviceRect(c.state.ctm.BoundingBox(r)))
}

func (c *Canvas) SetOpacity(a float64) {
	c.state.opacity = a
}

// Clear fills the whole target with col, ignoring transform and clip.
func (c *Canvas) Clear(col canopy.Color) {
	if col.A <= 0 {
		c.target.Clear()
		return
	}
	c.target.Fill(col.Premultiplied())
}

func (c *Canvas) FillRect(r canopy.Rect, col canopy.Color) {
	if r.IsEmpty() {
		return
	}
	m := c.state.ctm.
		Multiply(canopy.Translate(r.X, r.Y)).
		Multiply(canopy.ScaleAffine(r.Width, r.Height))
	c.fill(m, col)
}

// StrokeRect draws the four edges of r as bars of the given width centered
// on the edges.
func (c *Canvas) StrokeRect(r canopy.Rect, col canopy.Color, width float64) {
	if width <= 0 {
		return
	}
	h := width / 2
	c.FillRect(canopy.RectXYWH(r.X-h, r.Y-h, r.Width+width, width), col)
	c.FillRect(canopy.RectXYWH(r.X-h, r.Y+r.Height-h, r.Width+width, width), col)
	c.FillRect(canopy.RectXYWH(r.X-h, r.Y+h, width, r.Height-width), col)
	c.FillRect(canopy.RectXYWH(r.X+r.Width-h, r.Y+h, width, r.Height-width), col)
}

func (c *Canvas) DrawLine(x0, y0, x1, y1 float64, col canopy.Color, width float64) {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 || width <= 0 {
		return
	}
	m := c.state.ctm.
		Multiply(canopy.Translate(x0, y0)).
		Multiply(canopy.Rotate(math.Atan2(dy, dx))).
		Multiply(canopy.Translate(0, -width/2)).
		Multiply(canopy.ScaleAffine(length, width))
	c.fill(m, col)
}

// DrawSurface draws an ebiten Surface with its top-left at (x, y), scaled
// uniformly, at the current opacity. Surfaces from other backends are
// ignored.
func (c *Canvas) DrawSurface(s canopy.Surface, x, y, scale float64) {
	src, ok := s.(*Surface)
	if !ok || src.released || src.img == c.target || c.state.opacity <= 0 {
		return
	}
	dst := c.clipped()
	if dst == nil {
		return
	}
	m := c.state.ctm.
		Multiply(canopy.Translate(x, y)).
		Multiply(canopy.ScaleAffine(scale, scale))
	c.op.GeoM = toGeoM(m)
	c.op.ColorScale.Reset()
	c.op.ColorScale.ScaleAlpha(float32(c.state.opacity))
	c.op.Filter = ebiten.FilterLinear
	dst.DrawImage(src.img, &c.op)
}

// fill stretches the white pixel through m.
func (c *Canvas) fill(m canopy.Affine, col canopy.Color) {
	if col.A <= 0 || c.state.opacity <= 0 {
		return
	}
	dst := c.clipped()
	if dst == nil {
		return
	}
	c.op.GeoM = toGeoM(m)
	c.op.ColorScale = colorScale(col, c.state.opacity)
	c.op.Filter = ebiten.FilterNearest
	dst.DrawImage(ensureWhitePixel(), &c.op)
}

// clipped returns the target restricted to the clip, or nil when nothing
// is drawable. Sub-images share the target's coordinate space.
func (c *Canvas) clipped() *ebiten.Image {
	if c.state.clip.Empty() {
		return nil
	}
	if c.state.clip == c.target.Bounds() {
		return c.target
	}
	return c.target.SubImage(c.state.clip).(*ebiten.Image)
}

// toGeoM converts a canopy Affine into an ebiten.GeoM.
func toGeoM(m canopy.Affine) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}

// colorScale turns a straight-alpha color and opacity into the
// premultiplied scale applied to the white pixel.
func colorScale(col canopy.Color, opacity float64) ebiten.ColorScale {
	a := col.A * opacity
	var cs ebiten.ColorScale
	cs.Scale(float32(col.R*a), float32(col.G*a), float32(col.B*a), float32(a))
	return cs
}

// deviceRect rounds r outward to whole pixels.
func deviceRect(r canopy.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)), int(math.Ceil(r.Y+r.Height)),
	)
}
