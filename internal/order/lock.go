// Package order implements name registration as an explicit two-phase
// protocol. A pending-order lock marks the name while the remote payment call
// is in flight; concurrent operations on the same name are rejected with a
// conflict instead of racing the suspension window.
package order

import (
	"context"
	"time"

	"namereg/pkg/domain"
)

// LockStore is the per-name pending marker. A lock is held by the principal
// that placed the order and expires after its TTL so a crashed process cannot
// wedge a name forever.
type LockStore interface {
	// Acquire marks name as pending for holder. Fails with
	// sentinel.ErrConflict when another unexpired lock exists.
	Acquire(ctx context.Context, name domain.Name, holder domain.Principal, ttl time.Duration) error

	// Release clears the mark if held by holder. Fails with
	// sentinel.ErrNotFound when holder does not hold the lock.
	Release(ctx context.Context, name domain.Name, holder domain.Principal) error
}
