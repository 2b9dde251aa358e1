package client

import (
	"sync"
	"time"

	"expense-tracker/api/models"
)

// Session holds the credential of the logged-in user. It is set by Login
// and Register and cleared by Logout or when the server reports the
// credential as expired or invalid.
type Session struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	user      *models.User
}

func (s *Session) set(token string, expiresAt time.Time, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = expiresAt
	s.user = user
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// User returns the user the session was opened for, or nil.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Active reports whether the session holds a credential that has not yet
// expired at now.
func (s *Session) Active(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && (s.expiresAt.IsZero() || now.Before(s.expiresAt))
}

func (s *Session) Clear() {
	s.set("", time.Time{}, nil)
}
