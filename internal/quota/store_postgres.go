package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"namereg/pkg/domain"
	"namereg/pkg/sentinel"
)

// PostgresStore persists quota balances in PostgreSQL. Non-negativity is
// enforced by guarded updates (`balance >= amount` in the WHERE clause);
// transfers run inside one transaction so a failed debit rolls the whole
// operation back.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, holder domain.Principal, category domain.QuotaCategory) (uint32, error) {
	var balance uint32
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM quota_balances WHERE holder = $1 AND category = $2`,
		holder.String(), category.String(),
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

func (s *PostgresStore) Add(ctx context.Context, holder domain.Principal, category domain.QuotaCategory, amount uint32) error {
	return addTx(ctx, s.db, holder, category, amount)
}

func (s *PostgresStore) Subtract(ctx context.Context, holder domain.Principal, category domain.QuotaCategory, amount uint32) error {
	return subtractTx(ctx, s.db, holder, category, amount)
}

func (s *PostgresStore) Transfer(ctx context.Context, from, to domain.Principal, category domain.QuotaCategory, amount uint32) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := subtractTx(ctx, tx, from, category, amount); err != nil {
			return err
		}
		return addTx(ctx, tx, to, category, amount)
	})
}

func (s *PostgresStore) BatchTransfer(ctx context.Context, from domain.Principal, items []TransferQuotaDetails) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, item := range items {
			if err := subtractTx(ctx, tx, from, item.Category, item.Amount); err != nil {
				return err
			}
			if err := addTx(ctx, tx, item.To, item.Category, item.Amount); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// execer covers both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func addTx(ctx context.Context, db execer, holder domain.Principal, category domain.QuotaCategory, amount uint32) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO quota_balances (holder, category, balance) VALUES ($1, $2, $3)
		ON CONFLICT (holder, category)
		DO UPDATE SET balance = quota_balances.balance + EXCLUDED.balance, updated_at = now()`,
		holder.String(), category.String(), amount,
	)
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	return nil
}

func subtractTx(ctx context.Context, db execer, holder domain.Principal, category domain.QuotaCategory, amount uint32) error {
	result, err := db.ExecContext(ctx, `
		UPDATE quota_balances
		SET balance = balance - $3, updated_at = now()
		WHERE holder = $1 AND category = $2 AND balance >= $3`,
		holder.String(), category.String(), amount,
	)
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrInsufficient
	}
	return nil
}
