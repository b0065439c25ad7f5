package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pleimann/multipicture/internal/logging"
)

// NotifyDelay batches bursts of directory events into one change
// notification.
const NotifyDelay = 500 * time.Millisecond

// FolderPicker cycles through the pictures in a directory.
type FolderPicker struct {
	dir       string
	recursive bool

	mu     sync.Mutex
	cyc    *cycle
	dirty  bool
	offset int
	timer  *time.Timer
	notify func()

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewFolderPicker(dir string, recursive bool, order Order) *FolderPicker {
	return &FolderPicker{dir: dir, recursive: recursive, cyc: newCycle(order)}
}

func (p *FolderPicker) Start(hint ScreenHint, notify func()) error {
	fi, err := os.Stat(p.dir)
	if err != nil {
		return fmt.Errorf("folder picture source: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("folder picture source: %s is not a directory", p.dir)
	}

	p.mu.Lock()
	p.notify = notify
	p.offset = max(hint.Number, 0)
	p.dirty = true
	p.mu.Unlock()

	log := logging.For("source")
	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("cannot watch folder", "dir", p.dir, "error", err)
		return nil
	}
	for _, d := range p.dirs() {
		if err := w.Add(d); err != nil {
			log.Debug("cannot watch folder", "dir", d, "error", err)
		}
	}

	p.watcher = w
	p.done = make(chan struct{})
	p.wg.Add(1)
	go p.watch()
	return nil
}

func (p *FolderPicker) dirs() []string {
	if !p.recursive {
		return []string{p.dir}
	}
	var out []string
	filepath.WalkDir(p.dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			out = append(out, path)
		}
		return nil
	})
	return out
}

func (p *FolderPicker) scan() []entry {
	var out []entry
	filepath.WalkDir(p.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != p.dir && !p.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsPicture(path) {
			return nil
		}
		e := entry{path: path}
		if info, err := d.Info(); err == nil {
			e.taken = info.ModTime()
		}
		out = append(out, e)
		return nil
	})
	return out
}

func (p *FolderPicker) watch() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			p.handle(ev)
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			logging.For("source").Debug("folder watcher error", "error", err)
		}
	}
}

func (p *FolderPicker) handle(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 && p.recursive {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			p.watcher.Add(ev.Name)
		}
	}
	if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirty = true
	if p.timer != nil {
		p.timer.Stop()
	}
	notify := p.notify
	p.timer = time.AfterFunc(NotifyDelay, func() {
		select {
		case <-p.done:
		default:
			notify()
		}
	})
}

// Next returns the following picture, or nil when the folder is empty.
func (p *FolderPicker) Next(ctx context.Context) (*Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.dirty {
		p.dirty = false
		p.cyc.reset(p.scan(), p.offset)
	}
	e, ok := p.cyc.next()
	p.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return &Content{URI: e.path, Orientation: readMeta(e.path).Orientation}, nil
}

func (p *FolderPicker) Stop() error {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()

	if p.watcher == nil {
		return nil
	}
	close(p.done)
	err := p.watcher.Close()
	p.wg.Wait()
	p.watcher = nil
	return err
}
