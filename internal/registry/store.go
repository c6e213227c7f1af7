// Package registry holds the name-to-owner map. A name has at most one owner;
// absence means the name is unregistered, which stores report as
// sentinel.ErrNotFound.
package registry

import (
	"context"

	"namereg/pkg/domain"
)

// Entry is one registration: a normalized second-level name and its owner.
type Entry struct {
	Name  domain.Name
	Owner domain.Principal
}

// Store is the registry persistence contract. Implementations must be safe
// for concurrent use. Authorization is not this layer's concern; SetOwner is
// an unconditional write invoked only after the orchestrator has established
// the caller's right to it.
type Store interface {
	// OwnerOf returns the current owner, or sentinel.ErrNotFound when the
	// name is unregistered.
	OwnerOf(ctx context.Context, name domain.Name) (domain.Principal, error)

	// SetOwner reassigns an existing registration. Fails with
	// sentinel.ErrNotFound when the name is unregistered: ownership
	// reassignment never creates registrations.
	SetOwner(ctx context.Context, name domain.Name, owner domain.Principal) error

	// Create inserts a new registration. Fails with sentinel.ErrConflict when
	// the name is already taken. Used only by the order commit path and
	// admin seeding.
	Create(ctx context.Context, name domain.Name, owner domain.Principal) error

	// List returns all registrations.
	List(ctx context.Context) ([]Entry, error)
}
