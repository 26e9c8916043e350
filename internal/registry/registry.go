package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nfrund/organizapp/internal/config"
)

// Key names a service and fixes its type, e.g. Key[*websocket.Registry].
type Key[T any] string

// Registry is the service locator modules share between Register and
// Boot. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	services map[string]any
	cfg      config.Provider
}

// New creates an empty registry carrying the application configuration.
func New(cfg config.Provider) *Registry {
	return &Registry{
		services: make(map[string]any),
		cfg:      cfg,
	}
}

// Config returns the configuration the registry was created with.
func (r *Registry) Config() config.Provider {
	return r.cfg
}

// Set stores value under key, replacing any earlier value.
func Set[T any](r *Registry, key Key[T], value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[string(key)] = value
}

// Get returns the value stored under key. The second result is false when
// nothing is stored or the stored value has a different type.
func Get[T any](r *Registry, key Key[T]) (T, bool) {
	r.mu.RLock()
	val, ok := r.services[string(key)]
	r.mu.RUnlock()

	result, ok := val.(T)
	return result, ok
}

// MustGet is Get for startup wiring; it panics when the service is missing.
func MustGet[T any](r *Registry, key Key[T]) T {
	val, ok := Get(r, key)
	if !ok {
		panic(fmt.Sprintf("registry: no %T registered for key %q", val, string(key)))
	}
	return val
}

// Names lists the registered keys in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
