package approval

import (
	"context"
	"database/sql"
	"fmt"

	"namereg/pkg/domain"
)

// PostgresStore persists approvals in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Set(ctx context.Context, name domain.Name, delegate domain.Principal) error {
	if delegate.IsAnonymous() {
		return s.Clear(ctx, name)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO approvals (name, delegate) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET delegate = EXCLUDED.delegate, updated_at = now()`,
		name.String(), delegate.String(),
	)
	if err != nil {
		return fmt.Errorf("upsert approval: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsApproved(ctx context.Context, name domain.Name, candidate domain.Principal) (bool, error) {
	var delegate string
	err := s.db.QueryRowContext(ctx,
		`SELECT delegate FROM approvals WHERE name = $1`, name.String(),
	).Scan(&delegate)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query approval: %w", err)
	}
	return domain.Principal(delegate) == candidate, nil
}

func (s *PostgresStore) Clear(ctx context.Context, name domain.Name) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM approvals WHERE name = $1`, name.String()); err != nil {
		return fmt.Errorf("clear approval: %w", err)
	}
	return nil
}
