// Package session holds the authenticated actor for one login. The session
// object is created on login, passed explicitly to every component that
// needs the actor, and invalidated on logout.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/auralis-health/clinical-console/internal/clinical"
)

var (
	ErrNotLoggedIn        = errors.New("no active session")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Credentials struct {
	Email    string
	Password string
}

type Registration struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Provider is the authentication capability the manager wraps. The mock
// provider is the default; a real identity backend satisfies the same
// interface.
type Provider interface {
	Login(ctx context.Context, creds Credentials) (clinical.User, error)
	Register(ctx context.Context, reg Registration) (clinical.User, error)
	Logout(ctx context.Context, user clinical.User) error
}

// Session is the identity of one logged-in actor. Once invalidated it stays
// invalid; components holding a stale session fail closed.
type Session struct {
	User      clinical.User
	CreatedAt time.Time

	mu    sync.RWMutex
	valid bool
}

func (s *Session) IsValid() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.valid
}

func (s *Session) invalidate() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
}

// Manager owns the current session's lifecycle.
type Manager struct {
	provider Provider
	log      zerolog.Logger

	mu      sync.Mutex
	current *Session
}

func NewManager(provider Provider, log zerolog.Logger) *Manager {
	return &Manager{provider: provider, log: log.With().Str("component", "session").Logger()}
}

// Login authenticates and replaces any existing session. The previous
// session, if any, is invalidated first.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*Session, error) {
	user, err := m.provider.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.invalidate()
	}
	m.current = &Session{User: user, CreatedAt: time.Now(), valid: true}
	m.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("session created")
	return m.current, nil
}

// Register creates an account and logs the new user in.
func (m *Manager) Register(ctx context.Context, reg Registration) (*Session, error) {
	user, err := m.provider.Register(ctx, reg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.invalidate()
	}
	m.current = &Session{User: user, CreatedAt: time.Now(), valid: true}
	m.log.Info().Str("user_id", user.ID).Msg("session created via registration")
	return m.current, nil
}

// Logout invalidates the current session.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	cur := m.current
	m.current = nil
	m.mu.Unlock()

	if cur == nil {
		return ErrNotLoggedIn
	}
	cur.invalidate()
	m.log.Info().Str("user_id", cur.User.ID).Msg("session destroyed")
	return m.provider.Logout(ctx, cur.User)
}

// Current returns the active session or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}
