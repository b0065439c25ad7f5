package action

import (
	"context"
	"sync"
	"time"

	"github.com/pleimann/multipicture/internal/renderer"
)

// OffsetSink receives scroll positions.
type OffsetSink interface {
	OnOffsetsChanged(o renderer.Offsets)
}

// FrameInterval is the scroll animation step.
const FrameInterval = 16 * time.Millisecond

// Scroller moves the view between grid screens the way a home screen
// does: each request eases the position toward the target screen over a
// fixed duration, and a new request takes over from wherever the view is.
type Scroller struct {
	sink     OffsetSink
	duration time.Duration

	mu       sync.Mutex
	width    int
	height   int
	cols     int
	rows     int
	x, y     float64
	col, row int
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScroller creates a scroller for a cols x rows grid of width x height
// screens, resting on the first screen.
func NewScroller(sink OffsetSink, cols, rows, width, height int, duration time.Duration) *Scroller {
	return &Scroller{
		sink:     sink,
		duration: duration,
		width:    width,
		height:   height,
		cols:     max(cols, 1),
		rows:     max(rows, 1),
	}
}

// Publish sends the current position without animating.
func (s *Scroller) Publish() {
	s.mu.Lock()
	o := s.offsets(s.x, s.y)
	s.mu.Unlock()
	s.sink.OnOffsetsChanged(o)
}

// Position is the current view position in screens.
func (s *Scroller) Position() (x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.x, s.y
}

// Scroll moves the target screen by (dcol, drow), clamped to the grid.
func (s *Scroller) Scroll(dcol, drow int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := min(max(s.col+dcol, 0), s.cols-1)
	row := min(max(s.row+drow, 0), s.rows-1)
	if col == s.col && row == s.row {
		return
	}
	s.col, s.row = col, row
	s.stopLocked()

	if s.duration <= 0 {
		s.x, s.y = float64(col), float64(row)
		s.sink.OnOffsetsChanged(s.offsets(s.x, s.y))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go s.animate(ctx, done, s.x, s.y, float64(col), float64(row))
}

func (s *Scroller) animate(ctx context.Context, done chan struct{}, x0, y0, x1, y1 float64) {
	defer close(done)
	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	start := time.Now()
	for {
		t := min(float64(time.Since(start))/float64(s.duration), 1)
		e := t * (2 - t)

		s.mu.Lock()
		if ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		s.x, s.y = x0+(x1-x0)*e, y0+(y1-y0)*e
		o := s.offsets(s.x, s.y)
		s.mu.Unlock()
		s.sink.OnOffsetsChanged(o)

		if t >= 1 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Resize adopts a new grid and screen size. The view snaps to the nearest
// screen that still exists and the new offsets are published.
func (s *Scroller) Resize(cols, rows, width, height int) {
	s.mu.Lock()
	s.stopLocked()
	s.cols, s.rows = max(cols, 1), max(rows, 1)
	s.width, s.height = width, height
	s.col = min(s.col, s.cols-1)
	s.row = min(s.row, s.rows-1)
	s.x, s.y = float64(s.col), float64(s.row)
	o := s.offsets(s.x, s.y)
	s.mu.Unlock()
	s.sink.OnOffsetsChanged(o)
}

// Wait blocks until the running animation, if any, has finished.
func (s *Scroller) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Stop ends the running animation where it is.
func (s *Scroller) Stop() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

func (s *Scroller) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// offsets converts a position in screens to launcher-style offsets.
func (s *Scroller) offsets(x, y float64) renderer.Offsets {
	var o renderer.Offsets
	if s.cols > 1 {
		o.XStep = 1 / float64(s.cols-1)
		o.X = x * o.XStep
	}
	if s.rows > 1 {
		o.YStep = 1 / float64(s.rows-1)
		o.Y = y * o.YStep
	}
	o.XPixels = -int(x * float64(s.width))
	o.YPixels = -int(y * float64(s.height))
	return o
}
