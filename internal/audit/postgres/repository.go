// Package postgres provides the PostgreSQL implementation of the audit repository.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wardsuite/clinic-desk/internal/audit"
)

// Repository implements audit.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL audit repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// InsertEntries writes a batch of audit entries.
func (r *Repository) InsertEntries(ctx context.Context, entries []audit.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []interface{}{e.OccurredAt, e.Actor, e.Action, e.Outcome, e.Detail})
	}

	_, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"audit_log"},
		[]string{"occurred_at", "actor", "action", "outcome", "detail"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert audit entries: %w", err)
	}
	return nil
}
