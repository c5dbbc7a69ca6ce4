package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Session holds the bearer token of one signed-in visitor. Login sets it, Logout clears it,
// and every upstream call receives the Session explicitly instead of reading ambient state.
type Session struct {
	mu        sync.RWMutex
	id        string
	token     string
	expiresAt time.Time
	store     Store
	now       func() time.Time
}

// Anonymous returns a session with no token. Requests made with it go out unauthenticated.
func Anonymous() *Session {
	return &Session{now: time.Now}
}

// WithToken returns a detached session carrying token, for scripts and tests.
func WithToken(token string) *Session {
	return &Session{token: token, now: time.Now}
}

func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Token returns the bearer token, or "" when signed out or expired.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		return ""
	}
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Logout clears the token and removes the session from its store.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	id, store := s.id, s.store
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if store == nil || id == "" {
		return nil
	}
	return store.Delete(ctx, id)
}

// Manager creates and resumes sessions backed by a Store.
type Manager struct {
	store  Store
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		store:  store,
		ttl:    ttl,
		logger: log.With().Str("component", "sessionManager").Logger(),
		now:    time.Now,
	}
}

// Login starts a new session for token. The session expires at the earlier of the
// manager TTL and the token's own exp claim, when it has one.
func (m *Manager) Login(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, errors.New("token is required")
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	if exp, ok := tokenExpiry(token); ok {
		if !exp.After(now) {
			return nil, errors.New("token already expired")
		}
		if m.ttl <= 0 || exp.Before(expiresAt) {
			expiresAt = exp
		}
	} else if m.ttl <= 0 {
		expiresAt = time.Time{}
	}

	record := Record{
		ID:        uuid.NewString(),
		Token:     token,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := m.store.Save(ctx, record); err != nil {
		return nil, err
	}

	m.logger.Debug().Str("sessionID", record.ID).Time("expiresAt", expiresAt).Msg("Session started")
	return m.fromRecord(record), nil
}

// Resume loads an existing session by id.
func (m *Manager) Resume(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	record, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.expired(m.now()) {
		if err := m.store.Delete(ctx, id); err != nil {
			m.logger.Warn().Err(err).Str("sessionID", id).Msg("Failed to delete expired session")
		}
		return nil, ErrNotFound
	}
	return m.fromRecord(record), nil
}

func (m *Manager) fromRecord(record Record) *Session {
	return &Session{
		id:        record.ID,
		token:     record.Token,
		expiresAt: record.ExpiresAt,
		store:     m.store,
		now:       m.now,
	}
}

// tokenExpiry reads the exp claim without verifying the signature. The token is only
// inspected to know when to stop sending it; the API verifies it.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// String is used in logs; it never includes the token.
func (s *Session) String() string {
	return fmt.Sprintf("session(%s, authenticated=%t)", s.ID(), s.Authenticated())
}
