package shard

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/zond/wiremesh"
)

var errOwnedElsewhere = errors.New("shard already owned by another wire")

// Factory constructs a fresh, unconfigured Shard instance.
type Factory func() Shard

// Registry is the name→constructor table every host registers its
// operator library into: a plain map behind a mutex, writes rare
// (effectively startup-time), reads frequent via RLock.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Unregister removes name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, name)
}

// Create constructs a new Shard instance for name, or a RegistryError if
// name is unknown.
func (r *Registry) Create(name string) (Shard, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WithStack(&wiremesh.RegistryError{Name: name})
	}
	return f(), nil
}

// Names lists every registered shard name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	return out
}
