package renderer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pleimann/multipicture/internal/canvas"
	"github.com/pleimann/multipicture/internal/config"
	"github.com/pleimann/multipicture/internal/source"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Time
	f       func()
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs every timer that came due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	keep := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.stopped:
		case !t.at.After(c.now):
			due = append(due, t)
		default:
			keep = append(keep, t)
		}
	}
	c.timers = keep
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

type testPicker struct {
	mu       sync.Mutex
	uris     []string
	n        int
	notify   func()
	stopped  bool
	startErr error
	// gate, when set, holds Start until it is closed.
	gate chan struct{}
}

func (p *testPicker) Start(hint source.ScreenHint, notify func()) error {
	if p.gate != nil {
		<-p.gate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notify = notify
	return p.startErr
}

func (p *testPicker) nextCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

func (p *testPicker) Next(ctx context.Context) (*source.Content, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.uris) == 0 {
		return nil, nil
	}
	u := p.uris[p.n%len(p.uris)]
	p.n++
	return &source.Content{URI: u}, nil
}

func (p *testPicker) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	return nil
}

func (p *testPicker) changed() {
	p.mu.Lock()
	notify := p.notify
	p.mu.Unlock()
	notify()
}

// harness drives a renderer without its goroutines: messages, frames and
// loads are run by the test.
type harness struct {
	t     *testing.T
	r     *Renderer
	rec   *canvas.Recorder
	clock *fakeClock

	mu       sync.Mutex
	pickers  []*testPicker
	startErr error
	gate     chan struct{}
}

const baseConfig = `
display:
  width: 64
  height: 32
  columns: 2
  rows: 1
screens:
  default:
    source:
      provider: single
      path: unused
folder:
  duration_sec: 0
`

func newHarness(t *testing.T, doc string, uris []string, failing bool) *harness {
	t.Helper()
	cfg, err := config.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("config.Parse() error = %v", err)
	}

	h := &harness{t: t, clock: newFakeClock()}
	h.rec = canvas.NewRecorder(cfg.Display.Width, cfg.Display.Height)

	reg := source.NewRegistry()
	reg.Register("single", func(b source.Binding) (source.Picker, error) {
		if failing {
			return nil, errors.New("source offline")
		}
		h.mu.Lock()
		p := &testPicker{uris: uris, startErr: h.startErr, gate: h.gate}
		h.pickers = append(h.pickers, p)
		h.mu.Unlock()
		return p, nil
	})

	h.r = New(cfg, Options{Canvas: h.rec, Registry: reg, Clock: h.clock})
	t.Cleanup(h.r.Close)
	h.r.handle(message{kind: msgInit})
	return h
}

func (h *harness) send(kind msgKind) {
	h.r.handle(message{kind: kind})
}

func (h *harness) picker(i int) *testPicker {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pickers[i]
}

func (h *harness) pickerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pickers)
}

// drainMail handles everything posted to the scheduler so far.
func (h *harness) drainMail() {
	for {
		m, ok := h.r.mail.pop()
		if !ok {
			return
		}
		h.r.handle(m)
	}
}

// mailUntil handles scheduler mail as it arrives until cond holds.
func (h *harness) mailUntil(what string, cond func() bool) {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		h.drainMail()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("%s never happened", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// step lets the next draw-step timer fire and runs the frame it posts.
func (h *harness) step() {
	h.clock.Advance(SpinnerFrameDuration)
	h.drainMail()
}

// waitLoads waits until the sources have queued n load requests.
func (h *harness) waitLoads(n int) {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.r.loads.len() < n {
		if time.Now().After(deadline) {
			h.t.Fatalf("queued loads = %d, want %d", h.r.loads.len(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

// runLoads processes queued loads. Slots must not be fading out.
func (h *harness) runLoads() {
	for {
		req, ok := h.r.loads.pop()
		if !ok {
			return
		}
		h.r.load(req)
	}
}

func (h *harness) slot(i int) SlotState {
	h.t.Helper()
	st := h.r.State()
	if i >= len(st.Slots) {
		h.t.Fatalf("slot %d does not exist (have %d)", i, len(st.Slots))
	}
	return st.Slots[i]
}

// stepUntil steps frames until cond holds.
func (h *harness) stepUntil(what string, cond func() bool) {
	h.t.Helper()
	for range 50 {
		if cond() {
			return
		}
		h.step()
	}
	if !cond() {
		h.t.Fatalf("%s never happened", what)
	}
}

// showAndLoad brings the renderer up and loads the first pictures.
func (h *harness) showAndLoad() {
	h.t.Helper()
	h.send(msgShow)
	h.r.frame(false)
	h.waitLoads(len(h.r.State().Slots))
	h.runLoads()
	h.stepUntil("first picture shown", func() bool { return h.slot(0).Status == Normal })
}

// keyguard reports how far the keyguard screen has faded and whether it is
// drawn.
func (h *harness) keyguard() (float64, bool) {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	return h.r.keyguardDX, h.r.keyguardVisible
}

func writePNG(t *testing.T, name string, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// loadInBackground runs a load on its own goroutine, as the loader would.
func (h *harness) loadInBackground(req loadRequest) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.r.load(req)
	}()
	return done
}

// framesUntilDone draws frames until done is closed so a waiting load can
// see the slot leave its fade-out.
func (h *harness) framesUntilDone(done <-chan struct{}) {
	h.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		select {
		case <-done:
			return
		default:
		}
		if time.Now().After(deadline) {
			h.t.Fatal("load never finished")
		}
		h.r.frame(false)
		time.Sleep(time.Millisecond)
	}
}

func countOps(ops []canvas.Op, kind canvas.OpKind) int {
	n := 0
	for _, op := range ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}
