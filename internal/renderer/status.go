package renderer

import (
	"fmt"
	"image"
	"time"

	"github.com/pleimann/multipicture/internal/canvas"
	"github.com/pleimann/multipicture/internal/imaging"
	"github.com/pleimann/multipicture/internal/source"
)

// Status is the display state of one slot.
type Status int

const (
	NotAvailable Status = iota
	Normal
	FadeOut
	Blackout
	Spinner
	FadeIn
)

var statusNames = [...]string{
	NotAvailable: "not_available",
	Normal:       "normal",
	FadeOut:      "fade_out",
	Blackout:     "blackout",
	Spinner:      "spinner",
	FadeIn:       "fade_in",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const (
	FadeFrameDuration     = 70 * time.Millisecond
	FadeTotalDuration     = 500 * time.Millisecond
	BlackoutTotalDuration = 500 * time.Millisecond
	SpinnerFrameDuration  = 100 * time.Millisecond
	SpinnerTotalFrames    = 15
	KeyguardFrameDuration = 70 * time.Millisecond
	KeyguardFadeDuration  = 1000 * time.Millisecond

	// BorderColor outlines screens while they are moved by a transition.
	BorderColor = 0x3f3f3f
)

// texHandle is where a slot's pixels currently live.
type texHandle interface{ isTexHandle() }

type texEmpty struct{}

// texPending holds decoded pixels waiting for the render goroutine.
type texPending struct{ img *image.RGBA }

type texUploaded struct{ id canvas.TextureID }

func (texEmpty) isTexHandle()    {}
func (texPending) isTexHandle()  {}
func (texUploaded) isTexHandle() {}

// textureInfo describes the picture a slot shows.
type textureInfo struct {
	handle           texHandle
	hasContent       bool
	enableReflection bool
	widthRatio       float64
	heightRatio      float64
	bgColor          uint32
	format           imaging.PixelFormat
}

func emptyTexture() textureInfo {
	return textureInfo{handle: texEmpty{}, enableReflection: true}
}

// uploadedID returns the canvas texture, if any.
func (t textureInfo) uploadedID() (canvas.TextureID, bool) {
	u, ok := t.handle.(texUploaded)
	return u.id, ok
}

// slot is one screen of the grid, or the keyguard screen at index -1.
type slot struct {
	index        int
	status       Status
	progress     time.Duration
	loadingCount int

	current       *source.Content
	binding       source.Binding
	needRestart   bool
	client        *source.Client
	updatePending bool

	tex textureInfo

	detectBackground bool
	bgColor          uint32
	clip             float64
	saturation       float64
	opacity          float64
}

// setStatus switches state. Reversing a fade keeps the visual position by
// mirroring the progress; every other change restarts it.
func (s *slot) setStatus(st Status) {
	if (st == FadeOut && s.status == FadeIn) || (st == FadeIn && s.status == FadeOut) {
		s.progress = max(FadeTotalDuration-s.progress, 0)
	} else {
		s.progress = 0
	}
	s.status = st
}

// doneLoading ends one outstanding load.
func (s *slot) doneLoading() {
	if s.loadingCount > 0 {
		s.loadingCount--
	}
}

// getNext asks the picture source for the next picture. It reports false
// when the slot has no running source.
func (s *slot) getNext() bool {
	if s.client == nil {
		return false
	}
	s.client.GetNext()
	return true
}

// fadeRatio is how much of the picture shows through, in [0, 1].
func (s *slot) fadeRatio() float64 {
	var step time.Duration
	switch s.status {
	case Normal, Spinner, NotAvailable:
		step = FadeTotalDuration
	case FadeIn:
		step = s.progress
	case FadeOut:
		step = FadeTotalDuration - s.progress
	}
	return clampUnit(float64(step) / float64(FadeTotalDuration))
}

// backgroundColor is the slot's opaque fill colour, darkened while fading.
func (s *slot) backgroundColor() uint32 {
	switch s.status {
	case Blackout, Spinner, NotAvailable:
		return 0xff000000
	}

	c := s.tex.bgColor
	if s.status == FadeIn || s.status == FadeOut {
		p := s.progress
		if s.status == FadeOut {
			p = FadeTotalDuration - s.progress
		}
		p = min(max(p, 0), FadeTotalDuration)
		a := uint32(0xff * p / FadeTotalDuration)
		c = mergeColor(c&0x00ffffff|a<<24, (0xff-a)<<24)
	}
	return c
}

// weightedColor is backgroundColor with alpha set by how much of the slot
// is on screen.
func (s *slot) weightedColor(dx, dy, da float64) uint32 {
	a := (1 - abs(dx)) * (1 - abs(dy)) * da
	return s.backgroundColor()&0x00ffffff | uint32(0xff*clampUnit(a))<<24
}

// mergeColor adds two alpha-weighted colours into an opaque one.
func mergeColor(c1, c2 uint32) uint32 {
	a1 := float64(c1>>24&0xff) / 0xff
	a2 := float64(c2>>24&0xff) / 0xff
	ch := func(shift uint) uint32 {
		v := float64(c1>>shift&0xff)*a1 + float64(c2>>shift&0xff)*a2
		return uint32(min(v, 0xff))
	}
	return 0xff000000 | ch(16)<<16 | ch(8)<<8 | ch(0)
}

func clampUnit(v float64) float64 {
	return min(max(v, 0), 1)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
