package session

import (
	"errors"
	"sync"
)

var (
	ErrDuplicateCode = errors.New("code already in use")
	ErrNotFound      = errors.New("session not found")
)

// Registry is the single source of truth for which codes are active and
// who is in each session. Create, Get and Remove are atomic, so the
// registry stays correct even if callers stop funnelling everything
// through one goroutine.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create registers a new waiting session for code with host as its sole
// participant.
func (r *Registry) Create(code string, host *Conn) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[code]; ok {
		return nil, ErrDuplicateCode
	}
	s := New(code, host)
	r.sessions[code] = s
	return s, nil
}

func (r *Registry) Get(code string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[code]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Remove frees code for reuse. Removing an absent code is a no-op.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, code)
}

// Has reports whether code belongs to an active session. It is the taken
// predicate for the code generator.
func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[code]
	return ok
}

// ActiveCodes returns a snapshot of every active code.
func (r *Registry) ActiveCodes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sessions))
	for code := range r.sessions {
		out = append(out, code)
	}
	return out
}

// Counts returns the number of active sessions and bound participants.
// Participant slices are owned by the broker loop, so Counts must only be
// called from it.
func (r *Registry) Counts() (sessions, participants int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		participants += len(s.Participants)
	}
	return len(r.sessions), participants
}
