// Package domain contains the core entities shared across feature packages.
package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role classifies a principal for authorization decisions.
// Roles are stored as free text, so all comparisons are case-insensitive.
type Role string

const (
	RoleAdmin        Role = "Admin"
	RoleDoctor       Role = "Doctor"
	RoleNurse        Role = "Nurse"
	RoleReceptionist Role = "Receptionist"
)

// Equal reports whether two roles name the same role, ignoring case.
func (r Role) Equal(other Role) bool {
	return strings.EqualFold(string(r), string(other))
}

// Known reports whether the role is one of the recognized roles.
func (r Role) Known() bool {
	for _, known := range []Role{RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist} {
		if r.Equal(known) {
			return true
		}
	}
	return false
}

// Canonical returns the role in its canonical capitalization, regardless of
// the casing it was stored with ("ADMIN" and "admin" both render as "Admin").
func (r Role) Canonical() Role {
	return Role(cases.Title(language.Und).String(strings.ToLower(string(r))))
}

// Principal is a stored account record. Created administratively; the only
// mutation this system performs on it is the legacy verifier upgrade.
type Principal struct {
	ID         int64
	Identifier string
	Verifier   string // legacy plaintext or bcrypt hash
	Role       Role
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Identity is the result of a successful authentication attempt.
// Immutable once constructed.
type Identity struct {
	ID         int64  `json:"id"`
	Identifier string `json:"identifier"`
	Role       Role   `json:"role"`
}

// Session binds an authenticated identity to an opaque server-side token.
type Session struct {
	Token     string    `json:"token"`
	Identity  Identity  `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
