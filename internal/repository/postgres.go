package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// NewPostgresStore returns a Store whose repositories share db.
func NewPostgresStore(db *sql.DB) *Store {
	return &Store{
		Users:         NewPostgresUsersRepository(db),
		Teams:         NewPostgresTeamsRepository(db),
		Members:       NewPostgresMembershipRepository(db),
		Beneficiaries: NewPostgresBeneficiaryRepository(db),
		FormLinks:     NewPostgresFormLinkRepository(db),
		Submissions:   NewPostgresSubmissionRepository(db),
	}
}

// isUniqueViolation reports a unique_violation (23505) from postgres.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// affected converts a zero-row write into ErrNotFound.
func affected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}
