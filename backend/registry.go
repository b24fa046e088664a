// Package backend keeps a registry of canopy backends so tools can pick one
// by name. Backend packages register themselves from init.
package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/phanxgames/canopy"
)

// Names of the backends shipped with canopy.
const (
	Ebiten   = "ebiten"
	Software = "soft"
)

// ErrNotRegistered is returned by New for an unknown backend name.
var ErrNotRegistered = errors.New("backend: not registered")

// Options are the initial presentable surface parameters.
type Options struct {
	Width, Height int     // logical size
	Scale         float64 // device pixel scale
}

// Factory creates a backend instance.
type Factory func(opts Options) (canopy.Backend, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for Default (first registered wins).
	priority = []string{Ebiten, Software}
)

// Register registers a backend factory with the given name, replacing any
// factory already registered under it.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = f
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// New creates a backend by name.
func New(name string, opts Options) (canopy.Backend, error) {
	registryMu.RLock()
	f, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return f(opts)
}

// DefaultName returns the best registered backend name by priority, or ""
// if none is registered.
func DefaultName() string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range priority {
		if _, ok := factories[name]; ok {
			return name
		}
	}
	// Fallback: first registered in name order.
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	if len(names) == 0 {
		return ""
	}
	slices.Sort(names)
	return names[0]
}

// Default creates the best available backend.
func Default(opts Options) (canopy.Backend, error) {
	name := DefaultName()
	if name == "" {
		return nil, fmt.Errorf("%w: no backends", ErrNotRegistered)
	}
	return New(name, opts)
}
