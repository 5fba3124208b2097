package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/wardsuite/clinic-desk/internal/audit"
	"github.com/wardsuite/clinic-desk/internal/domain"
	"github.com/wardsuite/clinic-desk/internal/pkg/ctxlog"
	"github.com/wardsuite/clinic-desk/internal/pkg/ratelimit"
)

// dummyVerifier is compared against when a lookup produced no bcrypt
// candidate, so that unknown identifiers cost the same as wrong passwords
// and cannot be enumerated through response timing.
const dummyVerifier = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Service authenticates credentials against the credential store.
type Service struct {
	repo       Repository
	limiter    *ratelimit.Keyed
	recorder   audit.Recorder
	bcryptCost int
}

// NewService creates an auth service. The limiter and recorder may be nil,
// disabling login throttling and audit recording respectively.
func NewService(repo Repository, limiter *ratelimit.Keyed, recorder audit.Recorder, bcryptCost int) *Service {
	return &Service{
		repo:       repo,
		limiter:    limiter,
		recorder:   recorder,
		bcryptCost: bcryptCost,
	}
}

// Authenticate verifies the identifier/attempt pair and returns the
// authenticated identity.
//
// A non-empty claimedRole acts as a second confirmation factor: the login
// fails unless it matches the account role case-insensitively. A match
// against a legacy verifier triggers a best-effort rewrite to a bcrypt
// verifier; rewrite failure never fails the login, since the credential has
// already been proven correct.
func (s *Service) Authenticate(ctx context.Context, identifier, attempt string, claimedRole domain.Role) (*domain.Identity, error) {
	if identifier == "" || attempt == "" {
		return nil, ErrMissingCredentials
	}

	if s.limiter != nil && !s.limiter.Allow(identifier) {
		recordLoginAttempt("throttled")
		s.record(ctx, identifier, audit.ActionLogin, audit.OutcomeThrottled, "")
		return nil, ErrTooManyAttempts
	}

	principals, err := s.repo.ListByIdentifier(ctx, identifier)
	if err != nil {
		recordLoginAttempt("error")
		return nil, fmt.Errorf("list principals: %w", err)
	}

	// First match wins, in the store's natural order. Duplicate identifier
	// rows are tolerated rather than locking the unaffected account out.
	var matched *domain.Principal
	var format VerifierFormat
	comparedModern := false

	for i := range principals {
		if IsModernVerifier(principals[i].Verifier) {
			comparedModern = true
		}
		if ok, f := VerifyPassword(attempt, principals[i].Verifier); ok {
			matched = &principals[i]
			format = f
			break
		}
	}

	if matched == nil {
		if !comparedModern {
			// Burn a hash comparison so that missing accounts take as long
			// as wrong passwords.
			_ = bcrypt.CompareHashAndPassword([]byte(dummyVerifier), []byte(attempt))
		}
		recordLoginAttempt("invalid")
		s.record(ctx, identifier, audit.ActionLogin, audit.OutcomeDenied, "invalid credentials")
		return nil, ErrInvalidCredentials
	}

	if claimedRole != "" && !matched.Role.Equal(claimedRole) {
		recordLoginAttempt("role_mismatch")
		s.record(ctx, identifier, audit.ActionLogin, audit.OutcomeDenied, "role mismatch")
		return nil, ErrRoleMismatch
	}

	if format == FormatLegacy {
		s.upgradeVerifier(ctx, matched, attempt)
	}

	recordLoginAttempt("success")
	s.record(ctx, identifier, audit.ActionLogin, audit.OutcomeSuccess, "")

	return &domain.Identity{
		ID:         matched.ID,
		Identifier: matched.Identifier,
		Role:       matched.Role,
	}, nil
}

// upgradeVerifier rewrites a legacy plaintext verifier to a bcrypt hash of
// the attempt, moving the principal permanently off the legacy path. The
// rewrite recomputes from the plaintext attempt, so concurrent logins for
// the same principal are last-writer-wins without a read-modify-write race.
func (s *Service) upgradeVerifier(ctx context.Context, principal *domain.Principal, attempt string) {
	logger := ctxlog.FromContext(ctx)

	hash, err := HashPassword(attempt, s.bcryptCost)
	if err != nil {
		logger.Warn("legacy verifier upgrade failed", "principal_id", principal.ID, "error", err)
		return
	}

	if err := s.repo.UpdateVerifier(ctx, principal.ID, hash); err != nil {
		logger.Warn("legacy verifier upgrade failed", "principal_id", principal.ID, "error", err)
		s.record(ctx, principal.Identifier, audit.ActionLegacyUpgrade, audit.OutcomeError, err.Error())
		return
	}

	recordLegacyUpgrade()
	s.record(ctx, principal.Identifier, audit.ActionLegacyUpgrade, audit.OutcomeSuccess, "")
	logger.Info("upgraded legacy verifier", "principal_id", principal.ID)
}

func (s *Service) record(ctx context.Context, actor, action, outcome, detail string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, audit.Entry{
		Actor:   actor,
		Action:  action,
		Outcome: outcome,
		Detail:  detail,
	})
}
