// Package session issues and resolves opaque server-side sessions.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/wardsuite/clinic-desk/internal/domain"
)

// DefaultTTL is the session lifetime used when none is configured.
const DefaultTTL = 12 * time.Hour

// Store persists sessions keyed by token. Implementations must be safe for
// concurrent use.
type Store interface {
	// Put stores the session under its token.
	Put(ctx context.Context, s domain.Session) error
	// Get returns the session for the token, or nil when unknown.
	Get(ctx context.Context, token string) (*domain.Session, error)
	// Delete removes the session for the token. Deleting an unknown token
	// is not an error.
	Delete(ctx context.Context, token string) error
}

// Manager binds authenticated identities to opaque tokens.
type Manager struct {
	store Store
	ttl   time.Duration
}

// NewManager creates a session manager over the given store.
func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl}
}

// Create issues a fresh unguessable token bound to the identity.
func (m *Manager) Create(ctx context.Context, identity domain.Identity) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	s := domain.Session{
		Token:     token,
		Identity:  identity,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Put(ctx, s); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Current resolves the token to its identity. Returns nil without error for
// an empty, unknown, destroyed, or expired token; those cases are
// indistinguishable to the caller.
func (m *Manager) Current(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, nil
	}

	s, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if s == nil {
		return nil, nil
	}

	if s.Expired(time.Now().UTC()) {
		_ = m.store.Delete(ctx, token)
		return nil, nil
	}

	identity := s.Identity
	return &identity, nil
}

// Destroy removes the session for the token. Destroying an unknown token is
// a no-op.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// generateToken returns 32 random bytes, hex encoded.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
