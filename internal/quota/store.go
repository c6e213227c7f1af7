package quota

import (
	"context"

	"namereg/pkg/domain"
)

// Store is the ledger persistence contract. Implementations must be safe for
// concurrent use and must keep every balance non-negative: Subtract and the
// transfer operations fail with sentinel.ErrInsufficient instead of going
// below zero, leaving all balances untouched.
type Store interface {
	// Get returns the balance, zero when no entry exists.
	Get(ctx context.Context, holder domain.Principal, category domain.QuotaCategory) (uint32, error)

	// Add credits the balance, creating the entry on first credit. Each call
	// adds again; there is no idempotency at this layer.
	Add(ctx context.Context, holder domain.Principal, category domain.QuotaCategory, amount uint32) error

	// Subtract debits the balance. Fails with sentinel.ErrInsufficient when
	// the balance is lower than amount.
	Subtract(ctx context.Context, holder domain.Principal, category domain.QuotaCategory, amount uint32) error

	// Transfer atomically moves amount from one holder to another within a
	// category. If the debit fails the credit never happens.
	Transfer(ctx context.Context, from, to domain.Principal, category domain.QuotaCategory, amount uint32) error

	// BatchTransfer applies every leg or none: if any debit would go
	// negative, no balance changes.
	BatchTransfer(ctx context.Context, from domain.Principal, items []TransferQuotaDetails) error
}
