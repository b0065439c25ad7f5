// Package display keeps the most recent rendered frame and hands it to the
// outside world: as PNG over HTTP and as an image file on disk for
// wallpaper setters.
package display

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	"image/png"
	"sync"
)

// ErrNoFrame is returned before the first frame has been presented.
var ErrNoFrame = errors.New("no frame rendered yet")

// Store is a canvas.FrameSink that keeps a copy of the latest frame.
type Store struct {
	mu     sync.Mutex
	img    *image.RGBA
	seq    uint64
	png    []byte
	pngSeq uint64
}

func NewStore() *Store {
	return &Store{}
}

// PublishFrame copies img; the canvas reuses its buffer.
func (s *Store) PublishFrame(img image.Image) {
	b := img.Bounds()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.img == nil || s.img.Bounds().Size() != b.Size() {
		s.img = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	draw.Draw(s.img, s.img.Bounds(), img, b.Min, draw.Src)
	s.seq++
}

// Seq counts published frames.
func (s *Store) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Latest returns a copy of the latest frame.
func (s *Store) Latest() (*image.RGBA, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil, 0, ErrNoFrame
	}
	cp := image.NewRGBA(s.img.Bounds())
	copy(cp.Pix, s.img.Pix)
	return cp, s.seq, nil
}

// PNG encodes the latest frame. The encoding is cached until the next
// frame arrives.
func (s *Store) PNG() ([]byte, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil, 0, ErrNoFrame
	}
	if s.png != nil && s.pngSeq == s.seq {
		return s.png, s.seq, nil
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, s.img); err != nil {
		return nil, 0, err
	}
	s.png, s.pngSeq = buf.Bytes(), s.seq
	return s.png, s.seq, nil
}
