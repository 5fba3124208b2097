// Package postgres provides the PostgreSQL implementation of the credential store.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardsuite/clinic-desk/internal/domain"
)

// Repository implements the auth.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL credential repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListByIdentifier returns all principals matching the identifier, ordered
// by insertion. Identifiers are not unique; the caller resolves duplicates.
func (r *Repository) ListByIdentifier(ctx context.Context, identifier string) ([]domain.Principal, error) {
	query := `
		SELECT id, identifier, verifier, role, created_at, updated_at
		FROM principals
		WHERE identifier = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, identifier)
	if err != nil {
		return nil, fmt.Errorf("list principals: %w", err)
	}
	defer rows.Close()

	principals := make([]domain.Principal, 0, 1)
	for rows.Next() {
		var p domain.Principal
		if err := rows.Scan(&p.ID, &p.Identifier, &p.Verifier, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan principal: %w", err)
		}
		principals = append(principals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list principals: %w", err)
	}

	return principals, nil
}

// UpdateVerifier rewrites the stored verifier for a principal.
func (r *Repository) UpdateVerifier(ctx context.Context, id int64, verifier string) error {
	query := `
		UPDATE principals
		SET verifier = $1, updated_at = now()
		WHERE id = $2
	`
	if _, err := r.db.Exec(ctx, query, verifier, id); err != nil {
		return fmt.Errorf("update verifier: %w", err)
	}
	return nil
}
