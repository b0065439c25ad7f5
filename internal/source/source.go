// Package source supplies pictures to screens. A Picker chooses the next
// picture for one screen; a Client drives a Picker on its own goroutine and
// reports results to a Listener.
package source

import (
	"context"
	"errors"
	"sync"

	"github.com/pleimann/multipicture/internal/config"
	"github.com/pleimann/multipicture/internal/logging"
)

// Content identifies one picture.
type Content struct {
	URI         string
	Orientation int
}

// ScreenHint describes the screen a picker is feeding. Column and Row are
// -1 for the keyguard screen.
type ScreenHint struct {
	Number          int
	Columns         int
	Rows            int
	Column          int
	Row             int
	Width           int
	Height          int
	ChangeFrequency int
}

// Binding names the provider and settings feeding a screen. Screens that
// share the default source share its Key.
type Binding struct {
	Provider string
	Key      string
	Source   config.SourceConfig
}

// Listener receives picker results. Calls arrive on the client's goroutine
// or on the picker's watch goroutine and must not block for long.
type Listener interface {
	// OnReceiveNext delivers the next picture, or nil when none is available.
	OnReceiveNext(c *Content)
	// OnNotifyChanged reports that the source's pictures changed.
	OnNotifyChanged()
	// OnStartFailed reports that the picker could not start. No other call
	// follows it.
	OnStartFailed(err error)
}

// Picker chooses pictures for one screen.
type Picker interface {
	// Start prepares the picker. notify may be called at any time until Stop
	// returns.
	Start(hint ScreenHint, notify func()) error
	// Next returns the next picture, or nil when there is none.
	Next(ctx context.Context) (*Content, error)
	Stop() error
}

// ErrStopped is returned by Start on a client that was already stopped.
var ErrStopped = errors.New("source client stopped")

// Client serializes requests to a Picker. The picker is started on the
// client's goroutine, which then asks it for one picture.
type Client struct {
	picker   Picker
	hint     ScreenHint
	listener Listener

	mu      sync.Mutex
	pending int
	started bool
	stopped bool
	failed  bool

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	closed chan struct{}
}

func NewClient(p Picker, hint ScreenHint, l Listener) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		picker:   p,
		hint:     hint,
		listener: l,
		wake:     make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		closed:   make(chan struct{}),
	}
}

// Start launches the client goroutine and returns without waiting for the
// picker. A picker that fails to start is reported through OnStartFailed.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return ErrStopped
	}
	if c.started {
		return nil
	}
	c.started = true
	c.pending++
	go c.run()
	return nil
}

// GetNext queues a request for the next picture. Every call results in
// exactly one OnReceiveNext unless the client is stopped first.
func (c *Client) GetNext() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.pending++
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Stop stops the client without blocking. No listener calls are started
// after Stop; the picker itself is stopped in the background and Closed is
// signalled once it has.
func (c *Client) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	started := c.started
	c.mu.Unlock()

	c.cancel()
	if !started {
		close(c.closed)
		return
	}
	go func() {
		<-c.done
		c.mu.Lock()
		failed := c.failed
		c.mu.Unlock()
		if failed {
			close(c.closed)
			return
		}
		if err := c.picker.Stop(); err != nil {
			logging.For("source").Debug("picker stop failed", "screen", c.hint.Number, "error", err)
		}
		close(c.closed)
	}()
}

// Closed is closed once a stopped client has released its picker.
func (c *Client) Closed() <-chan struct{} {
	return c.closed
}

func (c *Client) run() {
	defer close(c.done)
	log := logging.For("source")

	if err := c.picker.Start(c.hint, c.notify); err != nil {
		c.mu.Lock()
		c.failed = true
		stopped := c.stopped
		c.mu.Unlock()
		if !stopped {
			c.listener.OnStartFailed(err)
		}
		return
	}

	for {
		for {
			c.mu.Lock()
			if c.stopped || c.pending == 0 {
				c.mu.Unlock()
				break
			}
			c.pending--
			c.mu.Unlock()

			content, err := c.picker.Next(c.ctx)
			if err != nil {
				if c.ctx.Err() != nil {
					return
				}
				log.Debug("next picture failed", "screen", c.hint.Number, "error", err)
				content = nil
			}

			c.mu.Lock()
			stopped := c.stopped
			c.mu.Unlock()
			if stopped {
				return
			}
			c.listener.OnReceiveNext(content)
		}

		select {
		case <-c.ctx.Done():
			return
		case <-c.wake:
		}
	}
}

func (c *Client) notify() {
	c.mu.Lock()
	stopped := c.stopped
	c.mu.Unlock()
	if !stopped {
		c.listener.OnNotifyChanged()
	}
}
