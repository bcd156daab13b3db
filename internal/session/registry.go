package session

import (
	"sync"
)

// Registry is the authoritative map from session identifier to session. It
// is the only mutable shared state in the bridge; every component reads and
// writes sessions through it.
//
// Sessions in Pending state have no identifier yet, so the registry also
// tracks them in insertion order until Bind attaches an id.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]*Session
	order    []*Session // insertion order, doubles as tab order
	retired  map[string]struct{}
	activeID string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[string]*Session),
		retired: make(map[string]struct{}),
	}
}

// Register adds a session. Pending sessions (empty id) are tracked by order
// only until Bind is called.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, s)
	if id := s.ID(); id != "" {
		r.byID[id] = s
	}
}

// Bind attaches a resolved backend identifier to an already-registered
// session so id-keyed lookups find it.
func (r *Registry) Bind(id string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = s
}

// Get returns the session for an id, or nil when unknown or retired.
func (r *Registry) Get(id string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Remove drops the session entry and retires its id. Retirement is
// synchronous: once Remove returns, the router will no longer attribute
// events to the id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	r.retired[id] = struct{}{}
	for i, o := range r.order {
		if o == s {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.activeID == id {
		r.activeID = ""
	}
}

// Discard removes a session that never received an identifier, such as one
// whose spawn call failed.
func (r *Registry) Discard(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, o := range r.order {
		if o == s {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Retire marks an id as no longer valid for event attribution without
// removing the session from tab order. Used during respawn, where the pane
// survives but the old process identifier must stop routing.
func (r *Registry) Retire(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; ok {
		delete(r.byID, id)
	}
	r.retired[id] = struct{}{}
	if r.activeID == id {
		r.activeID = ""
	}
}

// IsRetired reports whether events for the id should be dropped.
func (r *Registry) IsRetired(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.retired[id]
	return ok
}

// ListActive returns snapshots of all registered sessions in tab order.
func (r *Registry) ListActive() []Info {
	r.mu.RLock()
	sessions := make([]*Session, len(r.order))
	copy(sessions, r.order)
	r.mu.RUnlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Snapshot())
	}
	return infos
}

// All returns the registered sessions in tab order.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]*Session, len(r.order))
	copy(sessions, r.order)
	return sessions
}

// SetActive marks the session that receives keyboard input. Exactly one
// session is active at a time.
func (r *Registry) SetActive(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; ok {
		r.activeID = id
	}
}

// ActiveID returns the id of the input-focused session, or "".
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// Active returns the input-focused session, or nil.
func (r *Registry) Active() *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.activeID == "" {
		return nil
	}
	return r.byID[r.activeID]
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
