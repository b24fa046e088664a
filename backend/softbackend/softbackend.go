// Package softbackend is a headless canopy backend that rasterizes on the
// CPU with gogpu/gg. It stands in for a GPU API in tests and tools: frames
// are "presented" by keeping the last frame image.
package softbackend

import (
	"errors"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/gogpu/gg"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/backend"
	"github.com/phanxgames/canopy/internal/snapshot"
)

// ErrForeignSurface is returned by EndFrame for a surface this backend did
// not hand out from BeginFrame.
var ErrForeignSurface = errors.New("softbackend: surface is not the current frame")

func init() {
	backend.Register(backend.Software, func(o backend.Options) (canopy.Backend, error) {
		return New(o.Width, o.Height, o.Scale), nil
	})
}

// Backend renders into an in-memory frame surface sized to the logical size
// times the device scale.
type Backend struct {
	width, height int
	scale         float64

	ready bool
	stale bool
	frame *Surface

	presented uint64
	last      *image.RGBA
	captures  *snapshot.Queue
	now       func() time.Time
}

// New creates a ready backend with a logical size and device pixel scale.
// A non-positive scale is treated as 1.
func New(width, height int, scale float64) *Backend {
	if scale <= 0 {
		scale = 1
	}
	return &Backend{
		width:  width,
		height: height,
		scale:  scale,
		ready:  true,
		now:    time.Now,
	}
}

// Name implements canopy.Namer.
func (b *Backend) Name() string { return backend.Software }

// Width returns the frame width in physical pixels.
func (b *Backend) Width() int {
	w, _ := b.PixelSize()
	return w
}

// Height returns the frame height in physical pixels.
func (b *Backend) Height() int {
	_, h := b.PixelSize()
	return h
}

// Scale returns the device pixel scale.
func (b *Backend) Scale() float64 { return b.scale }

// PixelSize returns the frame surface size in physical pixels.
func (b *Backend) PixelSize() (int, int) {
	return int(math.Ceil(float64(b.width) * b.scale)), int(math.Ceil(float64(b.height) * b.scale))
}

// SetReady models a window that cannot present yet (false) or can (true).
func (b *Backend) SetReady(ready bool) { b.ready = ready }

// MarkStale invalidates the frame surface, as a lost swapchain would. The
// next BeginFrame fails once while the surface is rebuilt.
func (b *Backend) MarkStale() { b.stale = true }

// Resize implements canopy.Resizer. The frame surface is rebuilt on the next
// BeginFrame.
func (b *Backend) Resize(width, height int, scale float64) {
	if scale <= 0 {
		scale = 1
	}
	if width == b.width && height == b.height && scale == b.scale {
		return
	}
	b.width, b.height, b.scale = width, height, scale
	b.dropFrame()
}

// BeginFrame returns the frame surface, creating it on first use.
func (b *Backend) BeginFrame() (canopy.Surface, error) {
	if !b.ready {
		return nil, canopy.ErrSurfaceUnavailable
	}
	if b.stale {
		b.stale = false
		b.dropFrame()
		return nil, canopy.ErrSurfaceUnavailable
	}
	if b.frame == nil {
		w, h := b.PixelSize()
		if w <= 0 || h <= 0 {
			return nil, canopy.ErrSurfaceUnavailable
		}
		b.frame = newSurface(w, h)
	}
	return b.frame, nil
}

// EndFrame presents s: the pixels are kept as the last frame and any queued
// captures are written.
func (b *Backend) EndFrame(s canopy.Surface) error {
	if s == nil || s != canopy.Surface(b.frame) {
		return ErrForeignSurface
	}
	b.last = b.frame.Image()
	b.presented++
	if b.captures != nil && b.captures.Pending() {
		paths, err := b.captures.Flush(snapshot.FromImage(b.last), b.now())
		for _, p := range paths {
			canopy.Logger().Info("softbackend: captured frame", "path", p)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateOffscreenSurface allocates a cleared w x h pixel surface.
func (b *Backend) CreateOffscreenSurface(w, h int) (canopy.Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, canopy.ErrInvalidSurfaceSize
	}
	return newSurface(w, h), nil
}

// LastFrame returns a copy of the last presented frame, or nil.
func (b *Backend) LastFrame() *image.RGBA { return b.last }

// FramesPresented returns the number of successful EndFrame calls.
func (b *Backend) FramesPresented() uint64 { return b.presented }

// Capture queues a PNG capture of the next presented frame into dir.
func (b *Backend) Capture(dir, label string) {
	if b.captures == nil || b.captures.Dir != dir {
		b.captures = snapshot.NewQueue(dir)
	}
	b.captures.Request(label)
}

// Close releases the frame surface.
func (b *Backend) Close() {
	b.dropFrame()
}

func (b *Backend) dropFrame() {
	if b.frame != nil {
		b.frame.Release()
		b.frame = nil
	}
}

// Surface is a gg context of fixed pixel size.
type Surface struct {
	dc       *gg.Context
	w, h     int
	canvas   *Canvas
	released bool

	// version counts mutations; buf caches the pixels for DrawSurface.
	version    uint64
	buf        *gg.ImageBuf
	bufVersion uint64
}

func newSurface(w, h int) *Surface {
	s := &Surface{dc: gg.NewContext(w, h), w: w, h: h}
	s.canvas = &Canvas{s: s, opacity: 1}
	return s
}

// Width returns the width in pixels.
func (s *Surface) Width() int { return s.w }

// Height returns the height in pixels.
func (s *Surface) Height() int { return s.h }

// Canvas returns the surface's drawing context. Drawing on a released
// surface does nothing.
func (s *Surface) Canvas() canopy.Canvas { return s.canvas }

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	if s.released {
		return
	}
	s.dc.Clear()
	s.touch()
}

// Release frees the surface. Calling it again is a no-op.
func (s *Surface) Release() {
	if s.released {
		return
	}
	s.released = true
	if err := s.dc.Close(); err != nil {
		canopy.Logger().Debug("softbackend: close surface", slog.Any("err", err))
	}
	s.buf = nil
}

// Image returns a premultiplied copy of the surface pixels.
func (s *Surface) Image() *image.RGBA {
	img, _ := s.dc.Image().(*image.RGBA)
	return img
}

func (s *Surface) touch() { s.version++ }

// imageBuf returns the pixels as a straight-alpha gg image, rebuilt only
// after the surface changed.
func (s *Surface) imageBuf() *gg.ImageBuf {
	if s.buf == nil || s.bufVersion != s.version {
		s.buf = gg.ImageBufFromImage(snapshot.FromImage(s.dc.Image()))
		s.bufVersion = s.version
	}
	return s.buf
}
