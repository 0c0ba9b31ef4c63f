// Package auth keeps login sessions server side. The session cookie only
// carries an opaque token.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Flash is a one-shot toast shown on the next rendered page.
type Flash struct {
	Type    string
	Message string
}

// Session represents an authenticated session.
type Session struct {
	ID        string
	User      string
	CreatedAt time.Time
	Flash     *Flash
}

// SessionStore is an in-memory session store with a fixed lifetime.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create stores a new session for user and returns it.
func (ss *SessionStore) Create(user string) (Session, error) {
	token, err := generateToken()
	if err != nil {
		return Session{}, err
	}
	s := Session{ID: token, User: user, CreatedAt: ss.now()}

	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = s
	return s, nil
}

// Get retrieves a live session by token.
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.RLock()
	s, ok := ss.sessions[token]
	ss.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if ss.expired(s) {
		ss.Delete(token)
		return Session{}, false
	}
	return s, true
}

func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// SetFlash replaces the pending flash of a session.
func (ss *SessionStore) SetFlash(token string, f Flash) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.sessions[token]
	if !ok {
		return false
	}
	s.Flash = &f
	ss.sessions[token] = s
	return true
}

// PopFlash returns and clears the pending flash of a session.
func (ss *SessionStore) PopFlash(token string) (Flash, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.sessions[token]
	if !ok || s.Flash == nil {
		return Flash{}, false
	}
	f := *s.Flash
	s.Flash = nil
	ss.sessions[token] = s
	return f, true
}

// Cleanup removes expired sessions and returns how many were dropped.
func (ss *SessionStore) Cleanup() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	n := 0
	for token, s := range ss.sessions {
		if ss.expired(s) {
			delete(ss.sessions, token)
			n++
		}
	}
	return n
}

func (ss *SessionStore) Size() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}

func (ss *SessionStore) expired(s Session) bool {
	return ss.ttl > 0 && ss.now().Sub(s.CreatedAt) > ss.ttl
}

// NewContext returns a context carrying the session.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// FromContext extracts the session from the request context.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(Session)
	return s, ok
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
