package store

import (
	"fmt"
	"sync"
)

// Registry maps URL schemes to registered stores so engine-side code can
// resolve "scheme:///name" references without knowing the backend.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]Store
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]Store)}
}

// Register binds a scheme to a store.
func (r *Registry) Register(scheme string, s Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stores[scheme]; ok {
		return fmt.Errorf("%q: %w", scheme, ErrSchemeRegistered)
	}
	r.stores[scheme] = s
	return nil
}

// Lookup returns the store bound to a scheme.
func (r *Registry) Lookup(scheme string) (Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stores[scheme]
	return s, ok
}

// Resolve returns the store responsible for a logical path.
func (r *Registry) Resolve(location Path) (Store, error) {
	s, ok := r.Lookup(location.Scheme())
	if !ok {
		return nil, fmt.Errorf("%q: %w", location.Scheme(), ErrSchemeUnknown)
	}
	return s, nil
}
