// Package ebitenbackend presents canopy frames through Ebitengine, which
// drives the platform GPU API (Metal, DirectX or OpenGL).
//
// The frame surface is the screen image Ebitengine hands to Game.Draw, so
// frames can only be rendered from inside Draw. Offscreen surfaces are
// ebiten images.
package ebitenbackend

import (
	"errors"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/backend"
	"github.com/phanxgames/canopy/internal/snapshot"
)

// ErrForeignSurface is returned by EndFrame for a surface this backend did
// not hand out from BeginFrame.
var ErrForeignSurface = errors.New("ebitenbackend: surface is not the current frame")

var whiteColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

func init() {
	backend.Register(backend.Ebiten, func(o backend.Options) (canopy.Backend, error) {
		return New(o.Width, o.Height, o.Scale), nil
	})
}

// Backend implements canopy.Backend on top of Ebitengine.
type Backend struct {
	width, height int
	scale         float64

	screen   *ebiten.Image
	frame    *Surface
	captures *snapshot.Queue
}

// New creates a backend with a logical size and device pixel scale. Game
// keeps both in sync with the window.
func New(width, height int, scale float64) *Backend {
	if scale <= 0 {
		scale = 1
	}
	return &Backend{width: width, height: height, scale: scale}
}

// Name implements canopy.Namer.
func (b *Backend) Name() string { return backend.Ebiten }

// Width and Height report the screen in physical pixels.
func (b *Backend) Width() int {
	w, _ := physicalSize(b.width, b.height, b.scale)
	return w
}

func (b *Backend) Height() int {
	_, h := physicalSize(b.width, b.height, b.scale)
	return h
}

func (b *Backend) Scale() float64 { return b.scale }

// Resize implements canopy.Resizer.
func (b *Backend) Resize(width, height int, scale float64) {
	if scale <= 0 {
		scale = 1
	}
	b.width, b.height, b.scale = width, height, scale
}

// SetScreen hands the backend the image to render the next frame into.
// Game.Draw calls it; pass nil once the screen is no longer valid.
func (b *Backend) SetScreen(screen *ebiten.Image) {
	b.screen = screen
}

// BeginFrame wraps the current screen image. It fails outside Game.Draw.
func (b *Backend) BeginFrame() (canopy.Surface, error) {
	if b.screen == nil {
		return nil, canopy.ErrSurfaceUnavailable
	}
	if b.frame == nil || b.frame.img != b.screen {
		b.frame = &Surface{img: b.screen, canvas: newCanvas(b.screen)}
	} else {
		b.frame.canvas.reset()
	}
	return b.frame, nil
}

// EndFrame finishes the frame. Ebitengine presents the screen after Draw
// returns; queued captures read the pixels back here.
func (b *Backend) EndFrame(s canopy.Surface) error {
	if b.frame == nil || s != canopy.Surface(b.frame) {
		return ErrForeignSurface
	}
	if b.captures != nil && b.captures.Pending() {
		img := b.frame.img
		bounds := img.Bounds()
		w, h := bounds.Dx(), bounds.Dy()
		pixels := make([]byte, 4*w*h)
		img.ReadPixels(pixels)
		paths, err := b.captures.Flush(snapshot.Unpremultiply(pixels, w, h), time.Now())
		for _, p := range paths {
			canopy.Logger().Info("ebitenbackend: captured frame", "path", p)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateOffscreenSurface allocates a w x h pixel ebiten image.
func (b *Backend) CreateOffscreenSurface(w, h int) (canopy.Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, canopy.ErrInvalidSurfaceSize
	}
	img := ebiten.NewImage(w, h)
	return &Surface{img: img, canvas: newCanvas(img), owned: true}, nil
}

// Capture queues a PNG capture of the next rendered frame into dir. Frames
// skipped by the renderer are not captured.
func (b *Backend) Capture(dir, label string) {
	if b.captures == nil || b.captures.Dir != dir {
		b.captures = snapshot.NewQueue(dir)
	}
	b.captures.Request(label)
}

// Surface wraps an ebiten image.
type Surface struct {
	img      *ebiten.Image
	canvas   *Canvas
	owned    bool
	released bool
}

func (s *Surface) Width() int  { return s.img.Bounds().Dx() }
func (s *Surface) Height() int { return s.img.Bounds().Dy() }

// Canvas returns the drawing context for the surface.
func (s *Surface) Canvas() canopy.Canvas { return s.canvas }

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	if s.released {
		return
	}
	s.img.Clear()
}

// Release deallocates the image of an offscreen surface. The screen is
// owned by Ebitengine and is left alone. Calling Release again is a no-op.
func (s *Surface) Release() {
	if s.released {
		return
	}
	s.released = true
	if s.owned {
		s.img.Deallocate()
	}
}

// Image returns the underlying ebiten image.
func (s *Surface) Image() *ebiten.Image { return s.img }
