package auth

import (
	"context"

	"github.com/wardsuite/clinic-desk/internal/domain"
)

// Repository defines credential store access for the auth service.
type Repository interface {
	// ListByIdentifier returns all principals matching the identifier in the
	// store's natural order. The schema declares identifiers unique, but the
	// query layer does not assume it; duplicates are returned as-is.
	ListByIdentifier(ctx context.Context, identifier string) ([]domain.Principal, error)

	// UpdateVerifier rewrites the stored verifier for a principal.
	UpdateVerifier(ctx context.Context, id int64, verifier string) error
}
