package permission

import (
	"errors"
	"sync"
)

// Registry is the frozen set of capability tags the engine accepts.
// Roles referencing an unregistered tag are rejected at definition time
// instead of silently never matching.
type Registry struct {
	mu     sync.RWMutex
	tags   map[string]struct{}
	order  []string
	frozen bool
}

// NewRegistry creates an empty tag [Registry].
func NewRegistry() *Registry {
	return &Registry{tags: make(map[string]struct{})}
}

// Register adds a capability tag. Must be called before [Registry.Freeze].
func (r *Registry) Register(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.New("registry frozen")
	}

	name = canonical(name)
	if name == "" {
		return errors.New("permission tag cannot be empty")
	}
	if _, exists := r.tags[name]; exists {
		return errors.New("permission tag already registered: " + name)
	}

	r.tags[name] = struct{}{}
	r.order = append(r.order, name)
	return nil
}

// Has reports whether the tag is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tags[canonical(name)]
	return ok
}

// Freeze prevents further registrations. Must be called before the
// registry is used for role validation.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered tags.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tags)
}

// All returns the registered tags in registration order.
func (r *Registry) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
