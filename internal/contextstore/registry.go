package contextstore

import "sync"

// Registry maps session IDs to identity-shared Store instances. Two
// agents asking for the same session get the same pointer, so their
// mutations are mutually visible. Entries live for the process
// lifetime unless removed explicitly.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{stores: map[string]*Store{}}
}

// Get returns the Store for a session, creating it on first use.
func (r *Registry) Get(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if store, ok := r.stores[sessionID]; ok {
		return store
	}
	store := New(sessionID)
	r.stores[sessionID] = store
	return store
}

// Has reports whether a session exists without creating it.
func (r *Registry) Has(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.stores[sessionID]
	return ok
}

// Remove drops a session from the registry.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, sessionID)
}

// Sessions lists the active session IDs.
func (r *Registry) Sessions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.stores))
	for id := range r.stores {
		ids = append(ids, id)
	}
	return ids
}

// ClearAll removes every session.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores = map[string]*Store{}
}
