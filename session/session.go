// Package session holds the authenticated user for the lifetime of a
// login. Synchronization rules and queries consult it to decide what
// the current user may see.
package session

import (
	"sync"

	eventful "github.com/eventful-app/eventful-go"
)

// Store is the process-wide session state. The zero value is a logged
// out session and is ready to use.
type Store struct {
	mu   sync.RWMutex
	user *eventful.User
}

// New returns an empty, logged out Store.
func New() *Store {
	return &Store{}
}

// Set records the authenticated user. A copy is kept so later mutation
// of the argument does not leak into the session.
func (s *Store) Set(user eventful.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := user
	s.user = &u
}

// Clear logs the session out.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
}

// User returns the authenticated user, if any.
func (s *Store) User() (eventful.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return eventful.User{}, false
	}
	return *s.user, true
}

// UserID returns the authenticated user's id, or the zero ID when
// logged out.
func (s *Store) UserID() eventful.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// Active reports whether a user is logged in.
func (s *Store) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.user != nil
}
