package state

import (
	"sync"

	"github.com/m3rciful/lexibot/core/keyed"
)

// Registry maps user ids to sessions of type S. Transitions for one user are
// mutually exclusive; different users never block each other.
type Registry[S any] struct {
	mu       sync.RWMutex
	sessions map[int64]S
	locks    *keyed.Mutex[int64]
}

// NewRegistry constructs an empty session registry.
func NewRegistry[S any]() *Registry[S] {
	return &Registry[S]{
		sessions: make(map[int64]S),
		locks:    keyed.NewMutex[int64](),
	}
}

// Get returns the stored session for a user.
func (r *Registry[S]) Get(userID int64) (S, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// InProgress reports whether the user has a stored session.
func (r *Registry[S]) InProgress(userID int64) bool {
	_, ok := r.Get(userID)
	return ok
}

// Transition runs fn with the user's current session while holding the
// user's lock for the whole call. fn returns the replacement session and
// whether to keep it; keep=false clears the session.
func (r *Registry[S]) Transition(userID int64, fn func(current S, ok bool) (next S, keep bool)) {
	unlock := r.locks.Lock(userID)
	defer unlock()

	current, ok := r.Get(userID)
	next, keep := fn(current, ok)

	r.mu.Lock()
	defer r.mu.Unlock()
	if keep {
		r.sessions[userID] = next
	} else {
		delete(r.sessions, userID)
	}
}

// Clear removes the session for a user.
func (r *Registry[S]) Clear(userID int64) {
	r.Transition(userID, func(S, bool) (S, bool) {
		var zero S
		return zero, false
	})
}

// Len returns the number of stored sessions.
func (r *Registry[S]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
