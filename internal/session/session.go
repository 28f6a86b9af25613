// Package session keeps the vendor user token and renews it on demand.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"heatzy_bridge/internal/gizwits"
	"heatzy_bridge/internal/logger"

	"golang.org/x/sync/singleflight"
)

// forcedExpiryOffset backdates the expiry of a fresh token so that every
// privileged call logs in again.
const forcedExpiryOffset = 10 * time.Second

const loginKey = "login"

var errNoToken = errors.New("no session token available")

// Authenticator performs the vendor login.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (gizwits.LoginResult, error)
}

// Session is a token together with the instant it stops being usable.
type Session struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Usable reports whether the token may be sent at now.
func (s Session) Usable(now time.Time) bool {
	return s.Token != "" && now.Before(s.ExpiresAt)
}

// AuthError wraps a failed login. Callers treat it as a hard stop.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return "authentication failed: " + e.Err.Error() }

func (e *AuthError) Unwrap() error { return e.Err }

// Config holds the account credentials and the expiry policy.
type Config struct {
	Username string
	Password string
	// HonorVendorExpiry keeps tokens until the expire_at reported at login
	// instead of renewing them on every call.
	HonorVendorExpiry bool
}

// Manager owns the single session of the process. Concurrent logins are
// collapsed into one vendor call.
type Manager struct {
	auth Authenticator
	cfg  Config
	log  *logger.Logger
	now  func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	current Session
}

// NewManager returns a manager that logs in through auth.
func NewManager(auth Authenticator, cfg Config, log *logger.Logger) *Manager {
	return &Manager{
		auth: auth,
		cfg:  cfg,
		log:  logger.OrNop(log),
		now:  time.Now,
	}
}

// NeedsAuthentication reports whether the held token is missing or expired.
func (m *Manager) NeedsAuthentication() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.current.Usable(m.now())
}

// Current returns a snapshot of the held session.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Authenticate logs in and stores the resulting session. Callers arriving
// while a login is in flight share its outcome. On failure the held
// session is left untouched.
func (m *Manager) Authenticate(ctx context.Context) (Session, error) {
	v, err, shared := m.group.Do(loginKey, func() (any, error) {
		// The login outlives the first caller's cancellation since other
		// callers may be waiting on it.
		res, err := m.auth.Login(context.WithoutCancel(ctx), m.cfg.Username, m.cfg.Password)
		if err != nil {
			return Session{}, &AuthError{Err: err}
		}
		if res.Token == "" {
			return Session{}, &AuthError{Err: errNoToken}
		}

		s := Session{Token: res.Token, ExpiresAt: m.now().Add(-forcedExpiryOffset)}
		if m.cfg.HonorVendorExpiry && !res.ExpireAt.IsZero() {
			s.ExpiresAt = res.ExpireAt
		}

		m.mu.Lock()
		m.current = s
		m.mu.Unlock()
		return s, nil
	})
	if err != nil {
		m.log.Errorw("session_authenticate_failed", "err", err, "shared", shared)
		return Session{}, err
	}

	s := v.(Session)
	m.log.Debugw("session_authenticated", "expires_at", s.ExpiresAt, "shared", shared)
	return s, nil
}

// Token returns a token ready to send, logging in first when the held one
// is not usable. A failed login is returned as *AuthError and no stale
// token is handed out.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	s := m.current
	m.mu.RUnlock()
	if s.Usable(m.now()) {
		return s.Token, nil
	}

	s, err := m.Authenticate(ctx)
	if err != nil {
		return "", err
	}
	return s.Token, nil
}
