package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/pleimann/multipicture/internal/logging"
)

// SinglePicker always shows one file and reports when it changes on disk.
type SinglePicker struct {
	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewSinglePicker(path string) *SinglePicker {
	return &SinglePicker{path: path}
}

func (p *SinglePicker) Start(hint ScreenHint, notify func()) error {
	if p.path == "" {
		return fmt.Errorf("single picture source: no path configured")
	}
	p.path = filepath.Clean(p.path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logging.For("source").Warn("cannot watch picture", "path", p.path, "error", err)
		return nil
	}
	if err := w.Add(filepath.Dir(p.path)); err != nil {
		w.Close()
		logging.For("source").Warn("cannot watch picture", "path", p.path, "error", err)
		return nil
	}

	p.watcher = w
	p.done = make(chan struct{})
	p.wg.Add(1)
	go p.watch(notify)
	return nil
}

func (p *SinglePicker) watch(notify func()) {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) == p.path && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				notify()
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			logging.For("source").Debug("picture watcher error", "error", err)
		}
	}
}

// Next returns the file, or nil when it does not exist.
func (p *SinglePicker) Next(ctx context.Context) (*Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fi, err := os.Stat(p.path)
	if err != nil || fi.IsDir() {
		return nil, nil
	}
	return &Content{URI: p.path, Orientation: readMeta(p.path).Orientation}, nil
}

func (p *SinglePicker) Stop() error {
	if p.watcher == nil {
		return nil
	}
	close(p.done)
	err := p.watcher.Close()
	p.wg.Wait()
	p.watcher = nil
	return err
}
