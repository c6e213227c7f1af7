package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"namereg/pkg/domain"
	"namereg/pkg/sentinel"
)

// PostgresStore persists registrations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) OwnerOf(ctx context.Context, name domain.Name) (domain.Principal, error) {
	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT owner FROM registrations WHERE name = $1`, name.String(),
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Anonymous, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.Anonymous, fmt.Errorf("query owner: %w", err)
	}
	return domain.Principal(owner), nil
}

func (s *PostgresStore) SetOwner(ctx context.Context, name domain.Name, owner domain.Principal) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE registrations SET owner = $2, updated_at = now() WHERE name = $1`,
		name.String(), owner.String(),
	)
	if err != nil {
		return fmt.Errorf("update owner: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update owner: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, name domain.Name, owner domain.Principal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registrations (name, owner) VALUES ($1, $2)`,
		name.String(), owner.String(),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, owner FROM registrations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var name, owner string
		if err := rows.Scan(&name, &owner); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		entries = append(entries, Entry{Name: domain.Name(name), Owner: domain.Principal(owner)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return entries, nil
}
