package display

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pleimann/multipicture/internal/logging"
)

// Manager periodically writes the latest frame to a PNG file when it has
// changed.
type Manager struct {
	store    *Store
	path     string
	interval time.Duration

	mu      sync.Mutex
	written uint64
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewManager(store *Store, path string, interval time.Duration) *Manager {
	return &Manager{store: store, path: path, interval: interval}
}

// Start runs the update loop until ctx is done or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	m.mu.Lock()
	m.cancel, m.done = cancel, done
	m.mu.Unlock()

	go func() {
		defer close(done)
		log := logging.For("display")
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.Flush(); err != nil && !errors.Is(err, ErrNoFrame) {
					log.Warn("frame not written", "path", m.path, "error", err)
				}
			}
		}
	}()
}

// Stop ends the update loop and writes the final frame.
func (m *Manager) Stop() error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	err := m.Flush()
	if errors.Is(err, ErrNoFrame) {
		return nil
	}
	return err
}

// Flush writes the latest frame if it has not been written yet. The file
// is replaced atomically so readers never see a partial image.
func (m *Manager) Flush() error {
	data, seq, err := m.store.PNG()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if seq == m.written {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".frame-*.png")
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write frame file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write frame file: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace frame file: %w", err)
	}
	m.written = seq
	return nil
}
