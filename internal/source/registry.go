package source

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownProvider is returned for a binding whose provider is not
// registered.
var ErrUnknownProvider = errors.New("unknown picture provider")

// Factory builds a picker for a binding.
type Factory func(b Binding) (Picker, error)

// Registry maps provider names to picker factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry knows the single, folder and album providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("single", func(b Binding) (Picker, error) {
		return NewSinglePicker(b.Source.Path), nil
	})
	r.Register("folder", func(b Binding) (Picker, error) {
		return NewFolderPicker(b.Source.Path, b.Source.Recursive, ParseOrder(b.Source.Order)), nil
	})
	r.Register("album", func(b Binding) (Picker, error) {
		return NewAlbumPicker(b.Source.Path, b.Source.Bucket, ParseOrder(b.Source.Order)), nil
	})
	return r
}

func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Provider looks up a factory by name.
func (r *Registry) Provider(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return f, nil
}

// NewPicker builds the picker for a binding.
func (r *Registry) NewPicker(b Binding) (Picker, error) {
	f, err := r.Provider(b.Provider)
	if err != nil {
		return nil, err
	}
	return f(b)
}

// Names lists the registered providers in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
