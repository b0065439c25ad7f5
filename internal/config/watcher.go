package config

import (
	"path/filepath"
	"reflect"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/pleimann/multipicture/internal/logging"
)

// ReloadKind says how much of the renderer a settings change affects.
type ReloadKind int

const (
	// ReloadFull drops every screen and reloads its picture.
	ReloadFull ReloadKind = iota
	// ReloadCosmetic only changed how pictures are drawn.
	ReloadCosmetic
)

func (k ReloadKind) String() string {
	if k == ReloadCosmetic {
		return "cosmetic"
	}
	return "full"
}

// Classify compares two configs. Changes confined to the draw section are
// cosmetic; everything else needs a full reload.
func Classify(prev, next *Config) ReloadKind {
	if prev == nil || next == nil {
		return ReloadFull
	}
	a, b := *prev, *next
	a.Draw, b.Draw = DrawConfig{}, DrawConfig{}
	if reflect.DeepEqual(a, b) {
		return ReloadCosmetic
	}
	return ReloadFull
}

// Watcher watches a config file for changes and reloads it
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	mu       sync.RWMutex
	config   *Config
	handlers []func(*Config, ReloadKind)
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a new config file watcher
func NewWatcher(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	cfg, err := Load(path)
	if err != nil {
		w.Close()
		return nil, err
	}

	cw := &Watcher{
		path:    path,
		watcher: w,
		config:  cfg,
		done:    make(chan struct{}),
	}

	// Watch the directory so atomic saves (write temp + rename) are seen.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	return cw, nil
}

// Start starts watching for config file changes
func (w *Watcher) Start() {
	go w.watch()
}

// Stop stops the config watcher
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

// OnReload registers a handler to be called when config is reloaded
func (w *Watcher) OnReload(handler func(*Config, ReloadKind)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Get returns the current config
func (w *Watcher) Get() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

func (w *Watcher) watch() {
	log := logging.For("config")
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	log := logging.For("config")
	cfg, err := Load(w.path)
	if err != nil {
		log.Warn("failed to reload config", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	kind := Classify(w.config, cfg)
	unchanged := reflect.DeepEqual(w.config, cfg)
	w.config = cfg
	handlers := make([]func(*Config, ReloadKind), len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()

	if unchanged {
		return
	}

	log.Info("config reloaded", "path", w.path, "kind", kind)

	for _, handler := range handlers {
		handler(cfg, kind)
	}
}
