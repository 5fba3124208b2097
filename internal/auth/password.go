package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// VerifierFormat identifies which stored verifier format a password matched.
type VerifierFormat int

// Verifier formats.
const (
	FormatNone VerifierFormat = iota
	// FormatLegacy is a plaintext verifier left over from pre-hashing
	// installations. A successful legacy match triggers a one-time upgrade.
	FormatLegacy
	// FormatModern is a bcrypt hash.
	FormatModern
)

func (f VerifierFormat) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatModern:
		return "modern"
	default:
		return "none"
	}
}

// IsModernVerifier reports whether the stored verifier is a bcrypt hash.
func IsModernVerifier(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

// VerifyPassword checks a plaintext attempt against a stored verifier.
// A modern verifier is checked with bcrypt's constant-time comparison; any
// other non-empty verifier is treated as legacy plaintext and compared
// byte-for-byte. An empty verifier never matches. Pure function.
func VerifyPassword(attempt, stored string) (bool, VerifierFormat) {
	if stored == "" {
		return false, FormatNone
	}

	if IsModernVerifier(stored) {
		if bcrypt.CompareHashAndPassword([]byte(stored), []byte(attempt)) == nil {
			return true, FormatModern
		}
		return false, FormatNone
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(attempt)) == 1 {
		return true, FormatLegacy
	}
	return false, FormatNone
}

// HashPassword produces a modern verifier for a plaintext password.
// A cost of zero selects the bcrypt default.
func HashPassword(plaintext string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
