package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakePicker struct {
	mu       sync.Mutex
	items    []*Content
	calls    int
	startErr error
	stopped  bool
	notify   func()
}

func (p *fakePicker) Start(hint ScreenHint, notify func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notify = notify
	return p.startErr
}

func (p *fakePicker) Next(ctx context.Context) (*Content, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.items) == 0 {
		return nil, errors.New("empty")
	}
	c := p.items[p.calls%len(p.items)]
	p.calls++
	return c, nil
}

func (p *fakePicker) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	return nil
}

type chanListener struct {
	next    chan *Content
	changed chan struct{}
	failed  chan error
}

func newChanListener() *chanListener {
	return &chanListener{
		next:    make(chan *Content, 16),
		changed: make(chan struct{}, 16),
		failed:  make(chan error, 1),
	}
}

func (l *chanListener) OnReceiveNext(c *Content) { l.next <- c }
func (l *chanListener) OnNotifyChanged()         { l.changed <- struct{}{} }
func (l *chanListener) OnStartFailed(err error)  { l.failed <- err }

// blockingPicker holds Start until release is closed.
type blockingPicker struct {
	fakePicker
	entered chan struct{}
	release chan struct{}
}

func (p *blockingPicker) Start(hint ScreenHint, notify func()) error {
	close(p.entered)
	<-p.release
	return p.fakePicker.Start(hint, notify)
}

func receive(t *testing.T, ch <-chan *Content) *Content {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnReceiveNext")
		return nil
	}
}

func TestClientDeliversOnePicturePerRequest(t *testing.T) {
	p := &fakePicker{items: []*Content{{URI: "a"}, {URI: "b"}}}
	l := newChanListener()
	c := NewClient(p, ScreenHint{Number: 0}, l)

	if err := c.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := receive(t, l.next); got == nil || got.URI != "a" {
		t.Errorf("first picture = %+v, want a", got)
	}

	c.GetNext()
	c.GetNext()
	if got := receive(t, l.next); got == nil || got.URI != "b" {
		t.Errorf("second picture = %+v, want b", got)
	}
	if got := receive(t, l.next); got == nil || got.URI != "a" {
		t.Errorf("third picture = %+v, want a", got)
	}

	p.notify()
	select {
	case <-l.changed:
	case <-time.After(time.Second):
		t.Error("OnNotifyChanged was not forwarded")
	}

	c.Stop()
	select {
	case <-c.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not close")
	}
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if !stopped {
		t.Error("picker was not stopped")
	}

	// Requests and notifications after Stop are dropped.
	c.GetNext()
	p.notify()
	select {
	case c := <-l.next:
		t.Errorf("unexpected OnReceiveNext(%+v) after Stop", c)
	case <-l.changed:
		t.Error("unexpected OnNotifyChanged after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClientPickerErrorDeliversNil(t *testing.T) {
	p := &fakePicker{}
	l := newChanListener()
	c := NewClient(p, ScreenHint{}, l)
	if err := c.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	if got := receive(t, l.next); got != nil {
		t.Errorf("OnReceiveNext(%+v), want nil", got)
	}
}

func TestClientStartFailure(t *testing.T) {
	p := &fakePicker{startErr: errors.New("unavailable")}
	l := newChanListener()
	c := NewClient(p, ScreenHint{}, l)

	if err := c.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	select {
	case err := <-l.failed:
		if err == nil || err.Error() != "unavailable" {
			t.Errorf("OnStartFailed(%v), want unavailable", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("start failure was not reported")
	}
	select {
	case c := <-l.next:
		t.Errorf("unexpected OnReceiveNext(%+v) after a failed start", c)
	case <-time.After(20 * time.Millisecond):
	}

	c.Stop()
	select {
	case <-c.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not close")
	}
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		t.Error("Stop called on a picker that never started")
	}

	if err := c.Start(); !errors.Is(err, ErrStopped) {
		t.Errorf("Start() after Stop = %v, want ErrStopped", err)
	}
}

func TestClientStartDoesNotWaitForPicker(t *testing.T) {
	p := &blockingPicker{
		fakePicker: fakePicker{items: []*Content{{URI: "a"}}},
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	l := newChanListener()
	c := NewClient(p, ScreenHint{}, l)

	returned := make(chan error, 1)
	go func() { returned <- c.Start() }()
	select {
	case err := <-returned:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() waited for the picker")
	}

	<-p.entered
	// Requests made while the picker starts are answered afterwards.
	c.GetNext()
	close(p.release)
	for range 2 {
		if got := receive(t, l.next); got == nil || got.URI != "a" {
			t.Errorf("picture = %+v, want a", got)
		}
	}

	c.Stop()
	select {
	case <-c.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not close")
	}
}

func TestClientStopDuringStart(t *testing.T) {
	p := &blockingPicker{
		fakePicker: fakePicker{items: []*Content{{URI: "a"}}},
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	l := newChanListener()
	c := NewClient(p, ScreenHint{}, l)
	if err := c.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-p.entered
	c.Stop()
	close(p.release)

	select {
	case <-c.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not close")
	}
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if !stopped {
		t.Error("picker was not stopped")
	}
	select {
	case c := <-l.next:
		t.Errorf("unexpected OnReceiveNext(%+v) after Stop", c)
	default:
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	names := r.Names()
	want := []string{"album", "folder", "single"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if _, err := r.NewPicker(Binding{Provider: "ftp"}); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("NewPicker(ftp) error = %v, want ErrUnknownProvider", err)
	}

	p, err := r.NewPicker(Binding{Provider: "single"})
	if err != nil {
		t.Fatalf("NewPicker(single) error = %v", err)
	}
	if _, ok := p.(*SinglePicker); !ok {
		t.Errorf("NewPicker(single) = %T, want *SinglePicker", p)
	}
}

func TestOrientationDegrees(t *testing.T) {
	tests := []struct {
		tag  int
		want int
	}{
		{0, 0}, {1, 0}, {2, 0},
		{3, 180}, {4, 180},
		{5, 90}, {6, 90},
		{7, 270}, {8, 270},
		{9, 0},
	}
	for _, tt := range tests {
		if got := orientationDegrees(tt.tag); got != tt.want {
			t.Errorf("orientationDegrees(%d) = %d, want %d", tt.tag, got, tt.want)
		}
	}
}

func TestParseOrder(t *testing.T) {
	tests := map[string]Order{
		"":       OrderRandom,
		"random": OrderRandom,
		" Name ": OrderName,
		"date":   OrderDate,
		"other":  OrderRandom,
	}
	for in, want := range tests {
		if got := ParseOrder(in); got != want {
			t.Errorf("ParseOrder(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCycleNameOrderWithOffset(t *testing.T) {
	c := newCycle(OrderName)
	c.reset([]entry{{path: "c"}, {path: "a"}, {path: "b"}}, 4)

	want := []string{"b", "c", "a", "b"}
	for i, w := range want {
		e, ok := c.next()
		if !ok || e.path != w {
			t.Errorf("next() #%d = %q, want %q", i, e.path, w)
		}
	}
}

func TestCycleDateOrder(t *testing.T) {
	now := time.Now()
	c := newCycle(OrderDate)
	c.reset([]entry{
		{path: "new", taken: now},
		{path: "old", taken: now.Add(-time.Hour)},
	}, 0)
	if e, _ := c.next(); e.path != "old" {
		t.Errorf("first = %q, want old", e.path)
	}
}

func TestCycleRandomNeverRepeats(t *testing.T) {
	c := newCycle(OrderRandom)
	c.reset([]entry{{path: "a"}, {path: "b"}, {path: "c"}}, 0)

	prev := ""
	for i := 0; i < 1000; i++ {
		e, ok := c.next()
		if !ok {
			t.Fatal("next() on a non-empty cycle failed")
		}
		if e.path == prev {
			t.Fatalf("repeat of %q at %d", prev, i)
		}
		prev = e.path
	}

	empty := newCycle(OrderRandom)
	if _, ok := empty.next(); ok {
		t.Error("next() on an empty cycle should fail")
	}
}
