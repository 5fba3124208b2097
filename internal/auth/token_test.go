package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardsuite/clinic-desk/internal/domain"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 15*time.Minute)

	identity := &domain.Identity{ID: 42, Identifier: "drhouse", Role: domain.RoleDoctor}
	signed, err := issuer.Issue(identity)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	parsed, err := issuer.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, parsed.ID)
	assert.Equal(t, identity.Identifier, parsed.Identifier)
	assert.Equal(t, identity.Role, parsed.Role)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 15*time.Minute)
	other := NewTokenIssuer("other-secret", 15*time.Minute)

	signed, err := issuer.Issue(&domain.Identity{ID: 1, Identifier: "admin", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = other.Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -1*time.Minute)
	// A non-positive TTL falls back to the default, so build an expired token
	// with a tiny lifetime instead.
	issuer.ttl = time.Nanosecond

	signed, err := issuer.Issue(&domain.Identity{ID: 1, Identifier: "admin", Role: domain.RoleAdmin})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = issuer.Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Garbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 15*time.Minute)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Validate(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestTokenIssuer_DefaultTTL(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 0)
	assert.Equal(t, 15*time.Minute, issuer.TTL())
}
