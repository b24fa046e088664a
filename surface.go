package canopy

import "errors"

// Backend errors. Both are expected conditions: the Renderer absorbs them and
// retries on a later frame.
var (
	// ErrSurfaceUnavailable is returned by BeginFrame when the presentable
	// surface is not ready (window not shown, resize in flight, swapchain
	// out of date).
	ErrSurfaceUnavailable = errors.New("canopy: surface unavailable")

	// ErrInvalidSurfaceSize is returned by CreateOffscreenSurface for
	// zero or negative dimensions.
	ErrInvalidSurfaceSize = errors.New("canopy: invalid surface size")
)

// Canvas is a 2D drawing surface with a save/restore state stack. The
// current transform, clip and opacity are part of the saved state.
//
// A node's paint hooks receive a Canvas already translated into the node's
// local space and clipped to its bounds.
type Canvas interface {
	Save()
	Restore()

	Translate(x, y float64)
	Scale(sx, sy float64)
	Concat(m Affine)

	// ClipRect intersects the clip with r, given in current coordinates.
	ClipRect(r Rect)

	// SetOpacity sets the absolute opacity applied to every following draw.
	SetOpacity(a float64)

	// Clear fills the whole target with c, ignoring transform and clip.
	Clear(c Color)
	FillRect(r Rect, c Color)
	StrokeRect(r Rect, c Color, width float64)
	DrawLine(x0, y0, x1, y1 float64, c Color, width float64)

	// DrawSurface draws s with its top-left corner at (x, y), scaled
	// uniformly by scale. A surface from a different backend is ignored.
	DrawSurface(s Surface, x, y, scale float64)
}

// Surface is a render target measured in physical pixels.
type Surface interface {
	Width() int
	Height() int

	// Canvas returns the drawing interface for this surface. Its state
	// stack starts empty with an identity transform.
	Canvas() Canvas

	// Clear resets every pixel to transparent.
	Clear()

	// Release frees the GPU memory behind the surface. Release is
	// idempotent; the surface must not be drawn to afterwards.
	Release()
}

// Backend is the contract a platform rendering API must satisfy.
//
// A backend recreates its presentable surface chain on resize or when
// presentation reports it stale; the Renderer only observes BeginFrame
// returning ErrSurfaceUnavailable for such frames.
type Backend interface {
	// BeginFrame acquires the drawable surface for the current frame.
	BeginFrame() (Surface, error)

	// EndFrame flushes the frame's drawing commands and presents it. The
	// surface must not be used after EndFrame returns.
	EndFrame(frame Surface) error

	// CreateOffscreenSurface allocates a render target independent of the
	// presentable surface.
	CreateOffscreenSurface(width, height int) (Surface, error)

	// Width and Height report the presentable surface in physical pixels.
	Width() int
	Height() int

	// Scale is the ratio of physical to logical pixels.
	Scale() float64
}

// Resizer is implemented by backends whose presentable surface follows a
// window.
type Resizer interface {
	Resize(width, height int, scale float64)
}

// Namer is implemented by backends that report a short identifier.
type Namer interface {
	Name() string
}
