package action

import (
	"sync"

	"github.com/pleimann/multipicture/internal/config"
	"github.com/pleimann/multipicture/internal/gesture"
)

// Mapper looks up the action bound to a gesture.
type Mapper struct {
	mu       sync.RWMutex
	bindings map[string]Action
}

func NewMapper(cfg *config.Config) *Mapper {
	m := &Mapper{}
	m.Reload(cfg)
	return m
}

// Reload replaces every binding with those in cfg.
func (m *Mapper) Reload(cfg *config.Config) {
	bindings := make(map[string]Action)
	bind := func(g gesture.Gesture, name string) {
		if a, err := Parse(name); err == nil {
			bindings[g.Key()] = a
		}
	}

	for _, btn := range cfg.Buttons {
		bind(gesture.NewPressGesture(btn.Index), btn.Press)
		bind(gesture.NewDoublePressGesture(btn.Index), btn.DoublePress)
		bind(gesture.NewLongPressGesture(btn.Index), btn.LongPress)
	}
	for _, chord := range cfg.Chords {
		bind(gesture.NewChordGesture(chord.Buttons), chord.Action)
	}

	m.mu.Lock()
	m.bindings = bindings
	m.mu.Unlock()
}

// Map returns the action bound to g.
func (m *Mapper) Map(g gesture.Gesture) (Action, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.bindings[g.Key()]
	return a, ok
}
