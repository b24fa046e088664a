// Package snapshot captures presented frames to PNG files.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Queue collects labeled capture requests until the next presented frame.
// Backends call Flush with the frame pixels after presenting.
type Queue struct {
	// Dir is where PNG files are written. Created on demand.
	Dir string

	labels []string
}

// NewQueue returns a queue writing into dir.
func NewQueue(dir string) *Queue {
	return &Queue{Dir: dir}
}

// Request queues a capture of the next presented frame.
func (q *Queue) Request(label string) {
	q.labels = append(q.labels, label)
}

// Pending reports whether any capture is queued.
func (q *Queue) Pending() bool {
	return len(q.labels) > 0
}

// Flush writes img once per queued label and empties the queue. It returns
// the written paths; failures for individual labels are joined into err.
func (q *Queue) Flush(img image.Image, now time.Time) ([]string, error) {
	if len(q.labels) == 0 {
		return nil, nil
	}
	defer func() { q.labels = q.labels[:0] }()

	if err := os.MkdirAll(q.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", q.Dir, err)
	}

	var (
		paths []string
		errs  []error
	)
	for _, label := range q.labels {
		path := Filename(q.Dir, label, now)
		if err := WritePNG(path, img); err != nil {
			errs = append(errs, err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

// Filename builds a timestamped file name for label inside dir.
func Filename(dir, label string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.png", now.Format("20060102_150405"), SanitizeLabel(label)))
}

// Unpremultiply converts premultiplied RGBA bytes, as read back from a GPU
// surface, to a straight-alpha image.
func Unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	n := min(len(pixels), len(img.Pix))
	for i := 0; i+3 < n; i += 4 {
		r, g, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img
}

// FromImage returns img as a straight-alpha image. *image.RGBA is treated
// as premultiplied and converted row by row; anything else goes through the
// color model.
func FromImage(img image.Image) *image.NRGBA {
	switch src := img.(type) {
	case *image.NRGBA:
		return src
	case *image.RGBA:
		w, h := src.Rect.Dx(), src.Rect.Dy()
		if src.Stride == 4*w {
			return Unpremultiply(src.Pix, w, h)
		}
		packed := make([]byte, 0, 4*w*h)
		for y := 0; y < h; y++ {
			off := y * src.Stride
			packed = append(packed, src.Pix[off:off+4*w]...)
		}
		return Unpremultiply(packed, w, h)
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return dst
}

// WritePNG encodes img to a PNG file at path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// SanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func SanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
