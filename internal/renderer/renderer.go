// Package renderer draws the screen grid. A scheduler goroutine owns the
// canvas and runs every frame; a loader goroutine decodes pictures; picture
// sources run on their own goroutines and feed the loader.
package renderer

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/pleimann/multipicture/internal/budget"
	"github.com/pleimann/multipicture/internal/canvas"
	"github.com/pleimann/multipicture/internal/config"
	"github.com/pleimann/multipicture/internal/imaging"
	"github.com/pleimann/multipicture/internal/logging"
	"github.com/pleimann/multipicture/internal/source"
	"github.com/pleimann/multipicture/internal/transition"
)

// Offsets is the scroll position reported by the host. X and Y run from 0
// to 1 across the whole grid; XStep and YStep are the distance between
// neighbouring screens.
type Offsets struct {
	X, Y         float64
	XStep, YStep float64
	XPixels      int
	YPixels      int
}

// Options are the renderer's collaborators. Nil fields get defaults.
type Options struct {
	Canvas   canvas.Canvas
	Registry *source.Registry
	Pipeline *imaging.Pipeline
	Clock    Clock
}

// Renderer draws the grid of screens plus the keyguard screen.
type Renderer struct {
	canvas   canvas.Canvas
	registry *source.Registry
	pipeline *imaging.Pipeline
	clock    Clock
	log      *slog.Logger

	mail    *queue[message]
	drawReq chan struct{}
	loads   *queue[loadRequest]
	quit    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	startOnce sync.Once
	closeOnce sync.Once

	// mu guards everything below, including every slot.
	mu     sync.Mutex
	cond   *sync.Cond
	closed bool

	cfg      *config.Config
	width    int
	height   int
	visible  bool
	cols     int
	rows     int
	xcur     float64
	ycur     float64
	memoryMB int
	budget   budget.Budget

	slots    []*slot
	keyguard *slot

	transitions    *transition.Picker
	reflectTop     bool
	reflectBottom  bool
	changeTap      bool
	changeDuration time.Duration
	launcher       string

	useKeyguard     bool
	locked          bool
	keyguardVisible bool
	keyguardDX      float64
	keyguardPrev    time.Time

	lastDuration    time.Duration
	stepTimer       Timer
	stepGen         int
	changeTimer     Timer
	changeGen       int
	durationPending bool

	spinner    textureInfo
	spinnerImg *image.RGBA

	frames  int
	bgColor uint32
}

// New creates a renderer for cfg. The grid starts at the configured number
// of columns and rows until the first offsets arrive.
func New(cfg *config.Config, opts Options) *Renderer {
	if opts.Canvas == nil {
		opts.Canvas = canvas.NewSoftware(cfg.Display.Width, cfg.Display.Height, nil)
	}
	if opts.Registry == nil {
		opts.Registry = source.DefaultRegistry()
	}
	if opts.Pipeline == nil {
		opts.Pipeline = imaging.NewPipeline(nil)
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Renderer{
		canvas:      opts.Canvas,
		registry:    opts.Registry,
		pipeline:    opts.Pipeline,
		clock:       opts.Clock,
		log:         logging.For("renderer"),
		mail:        newQueue[message](),
		drawReq:     make(chan struct{}, 1),
		loads:       newQueue[loadRequest](),
		quit:        make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
		cfg:         cfg,
		width:       max(cfg.Display.Width, 1),
		height:      max(cfg.Display.Height, 1),
		cols:        max(cfg.Display.Columns, 1),
		rows:        max(cfg.Display.Rows, 1),
		keyguardDX:  1,
		transitions: transition.NewPicker(cfg.Transition(), nil),
		spinner:     textureInfo{handle: texEmpty{}, hasContent: true, bgColor: 0xff000000},
	}
	r.cond = sync.NewCond(&r.mu)

	img, err := imaging.SpinnerTexture(imaging.DefaultSpinnerSize)
	if err != nil {
		r.log.Warn("spinner unavailable", "error", err)
	}
	r.spinnerImg = img
	return r
}

// Start launches the scheduler and loader goroutines.
func (r *Renderer) Start() {
	r.startOnce.Do(func() {
		r.wg.Add(2)
		go r.run()
		go r.loadLoop()
		r.post(message{kind: msgInit})
	})
}

// Close stops every picture source, frees the canvas textures and waits
// for the renderer goroutines to exit.
func (r *Renderer) Close() {
	r.closeOnce.Do(func() {
		started := true
		r.startOnce.Do(func() { started = false })
		if !started {
			r.destroy()
			return
		}
		r.post(message{kind: msgDestroy})
		r.wg.Wait()
	})
}

// OnVisibilityChanged shows or hides the renderer. Nothing is drawn while
// hidden and picture changes are deferred until it is shown again.
func (r *Renderer) OnVisibilityChanged(visible bool) {
	if visible {
		r.post(message{kind: msgShow})
	} else {
		r.post(message{kind: msgHide})
	}
}

func (r *Renderer) OnOffsetsChanged(o Offsets) {
	r.post(message{kind: msgOffsets, offsets: o})
}

func (r *Renderer) OnSurfaceChanged(width, height int) {
	r.post(message{kind: msgSurface, width: width, height: height})
}

// OnDoubleTap changes every picture when change_tap is enabled.
func (r *Renderer) OnDoubleTap() {
	r.post(message{kind: msgChangeByTap})
}

// OnLowMemory drops every texture. Visible screens reload their current
// picture on the next frame.
func (r *Renderer) OnLowMemory() {
	r.post(message{kind: msgLowMemory})
}

// SetLocked enters or leaves the keyguard. Unlocking fades the keyguard
// screen out over KeyguardFadeDuration.
func (r *Renderer) SetLocked(locked bool) {
	if locked {
		r.post(message{kind: msgLock})
	} else {
		r.post(message{kind: msgUnlock})
	}
}

// OnProvidersChanged restarts the screens fed by any of the named
// providers.
func (r *Renderer) OnProvidersChanged(names ...string) {
	r.post(message{kind: msgProviders, providers: names})
}

// OnSettingsChanged installs a new configuration. A full reload restarts
// every screen; a cosmetic one keeps the loaded pictures.
func (r *Renderer) OnSettingsChanged(cfg *config.Config, kind config.ReloadKind) {
	r.post(message{kind: msgSettings, cfg: cfg, reload: kind == config.ReloadFull})
}

// Sync waits until every message posted before it has been handled.
func (r *Renderer) Sync() {
	done := make(chan struct{})
	r.post(message{kind: msgSync, done: done})
	select {
	case <-done:
	case <-r.quit:
	}
}

func (r *Renderer) post(m message) {
	r.mail.push(m)
}

func (r *Renderer) requestDraw() {
	select {
	case r.drawReq <- struct{}{}:
	default:
	}
}

// slotAt returns the live slot for a screen index, or nil.
func (r *Renderer) slotAt(idx int) *slot {
	if r.slots == nil {
		return nil
	}
	if idx == config.KeyguardIndex {
		return r.keyguard
	}
	if idx < 0 || idx >= len(r.slots) {
		return nil
	}
	return r.slots[idx]
}

// allSlots lists the grid slots followed by the keyguard slot when in use.
func (r *Renderer) allSlots() []*slot {
	out := make([]*slot, 0, len(r.slots)+1)
	out = append(out, r.slots...)
	if r.useKeyguard && r.keyguard != nil {
		out = append(out, r.keyguard)
	}
	return out
}

// SlotState is a snapshot of one screen.
type SlotState struct {
	Index      int    `json:"index"`
	Status     Status `json:"status"`
	ProgressMs int64  `json:"progress_ms"`
	Loading    int    `json:"loading"`
	Provider   string `json:"provider"`
	URI        string `json:"uri,omitempty"`
	HasTexture bool   `json:"has_texture"`
}

// State is a snapshot of the renderer.
type State struct {
	Visible    bool        `json:"visible"`
	Locked     bool        `json:"locked"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Columns    int         `json:"columns"`
	Rows       int         `json:"rows"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Transition string      `json:"transition"`
	Current    string      `json:"current_transition"`
	Background uint32      `json:"background"`
	Frames     int         `json:"frames"`
	Slots      []SlotState `json:"slots"`
	Keyguard   *SlotState  `json:"keyguard,omitempty"`
}

// State returns a snapshot for status reporting.
func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := State{
		Visible:    r.visible,
		Locked:     r.locked,
		Width:      r.width,
		Height:     r.height,
		Columns:    r.cols,
		Rows:       r.rows,
		X:          r.xcur,
		Y:          r.ycur,
		Transition: r.transitions.Configured().String(),
		Current:    r.transitions.Current().String(),
		Background: r.bgColor,
		Frames:     r.frames,
		Slots:      make([]SlotState, 0, len(r.slots)),
	}
	for _, s := range r.slots {
		st.Slots = append(st.Slots, s.state())
	}
	if r.useKeyguard && r.keyguard != nil {
		kg := r.keyguard.state()
		st.Keyguard = &kg
	}
	return st
}

func (s *slot) state() SlotState {
	st := SlotState{
		Index:      s.index,
		Status:     s.status,
		ProgressMs: s.progress.Milliseconds(),
		Loading:    s.loadingCount,
		Provider:   s.binding.Provider,
		HasTexture: s.tex.hasContent,
	}
	if s.current != nil {
		st.URI = s.current.URI
	}
	return st
}
