package auth

import "errors"

// Authentication errors returned by the service.
var (
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidCredentials covers both unknown identifiers and wrong
	// passwords. Callers must not distinguish the two cases.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrRoleMismatch    = errors.New("selected role does not match account role")
	ErrTooManyAttempts = errors.New("too many login attempts")
	ErrInvalidToken    = errors.New("invalid or expired token")
)
