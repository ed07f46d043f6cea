// Package session implements the per-session state behind the anti-forgery
// token guard and the admin login flag.
//
// A session carries exactly two things: its current CSRF token and an
// authenticated boolean. The token is minted on demand, reusable across
// mutations for the life of the session, and rotated only by an explicit
// refresh. No user identity is modeled beyond the boolean.
package session

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snipbin/internal/apperror"
)

// DefaultTTL is how long a session lives after creation unless config
// overrides it.
const DefaultTTL = 12 * time.Hour

type session struct {
	csrfToken     string
	authenticated bool
	expiresAt     time.Time
}

// Manager owns the session table. All methods are safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration

	now func() time.Time
}

// NewManager creates a Manager with the given session lifetime; ttl <= 0
// selects DefaultTTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// newToken returns 32 random bytes, hex-encoded.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Create mints a new session and returns its ID.
func (m *Manager) Create() string {
	id := xid.New().String()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = &session{expiresAt: m.now().Add(m.ttl)}
	m.sweepLocked()
	return id
}

// Valid reports whether id names a live session.
func (m *Manager) Valid(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live(id)
	return ok
}

// live returns the session for id if it exists and has not expired.
// Callers must hold m.mu.
func (m *Manager) live(id string) (*session, bool) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if m.now().After(s.expiresAt) {
		delete(m.sessions, id)
		return nil, false
	}
	return s, true
}

// sweepLocked drops expired sessions. Called opportunistically on Create
// so the table cannot grow without bound; callers must hold m.mu.
func (m *Manager) sweepLocked() {
	now := m.now()
	for id, s := range m.sessions {
		if now.After(s.expiresAt) {
			delete(m.sessions, id)
		}
	}
}

// Token returns the session's current CSRF token, minting one on first
// use. The same token stays valid for every mutation in the session until
// Refresh is called or the session expires.
func (m *Manager) Token(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.live(id)
	if !ok {
		return "", apperror.TokenInvalid("unknown or expired session")
	}
	if s.csrfToken == "" {
		token, err := newToken()
		if err != nil {
			return "", err
		}
		s.csrfToken = token
	}
	return s.csrfToken, nil
}

// Refresh rotates the session's CSRF token and returns the new value. The
// old token stops validating immediately.
func (m *Manager) Refresh(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.live(id)
	if !ok {
		return "", apperror.TokenInvalid("unknown or expired session")
	}
	token, err := newToken()
	if err != nil {
		return "", err
	}
	s.csrfToken = token
	return token, nil
}

// Validate checks a presented token against the session's current one.
// A missing token, an unknown session, a never-issued token and a
// mismatch all fail the same way: apperror.ErrToken.
func (m *Manager) Validate(id, presented string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.live(id)
	if !ok {
		return apperror.TokenInvalid("unknown or expired session")
	}
	if presented == "" {
		return apperror.TokenInvalid("missing csrf token")
	}
	if s.csrfToken == "" || !hmac.Equal([]byte(s.csrfToken), []byte(presented)) {
		return apperror.TokenInvalid("stale csrf token")
	}
	return nil
}

// SetAuthenticated flips the session's admin flag after a successful (or
// explicit logout) login comparison.
func (m *Manager) SetAuthenticated(id string, ok bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, live := m.live(id)
	if !live {
		return apperror.Unauthenticated("unknown or expired session")
	}
	s.authenticated = ok
	return nil
}

// Authenticated reports whether the session passed the login comparison.
func (m *Manager) Authenticated(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.live(id)
	return ok && s.authenticated
}
