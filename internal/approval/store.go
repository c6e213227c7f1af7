// Package approval holds the name-to-delegate map layered on top of the
// registry: at most one active delegate per name, allowed to transfer that
// name's ownership to itself once.
//
// No ownership check happens at this layer; the orchestrator verifies the
// requester is the current owner before writing here.
package approval

import (
	"context"

	"namereg/pkg/domain"
)

// Store is the approval persistence contract. Implementations must be safe
// for concurrent use.
type Store interface {
	// Set records delegate as the approved party for name, replacing any
	// previous delegate. A domain.Anonymous delegate removes the entry; that
	// is the defined way to clear an approval.
	Set(ctx context.Context, name domain.Name, delegate domain.Principal) error

	// IsApproved reports whether candidate is the current delegate for name.
	// False when no approval exists.
	IsApproved(ctx context.Context, name domain.Name, candidate domain.Principal) (bool, error)

	// Clear removes any approval entry for name. Clearing an absent entry is
	// not an error.
	Clear(ctx context.Context, name domain.Name) error
}
