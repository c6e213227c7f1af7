// Package registrar implements the transfer orchestrator: it composes the
// identity guard, name validation, the registry, and the approval table into
// the approve / transfer / transfer-from operations.
package registrar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"namereg/internal/approval"
	"namereg/internal/platform/metrics"
	"namereg/internal/registry"
	"namereg/pkg/audit"
	"namereg/pkg/domain"
	pkgerrors "namereg/pkg/errors"
	"namereg/pkg/sentinel"
)

type Service struct {
	registry  registry.Store
	approvals approval.Store
	logger    *slog.Logger
	publisher audit.Publisher
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(reg registry.Store, approvals approval.Store, opts ...Option) (*Service, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry store is required")
	}
	if approvals == nil {
		return nil, fmt.Errorf("approval store is required")
	}
	svc := &Service{registry: reg, approvals: approvals}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// requireOwner resolves the current owner of name and checks it is caller.
// Unregistered names fail with registration_not_found; a mismatch is
// permission_denied.
func (s *Service) requireOwner(ctx context.Context, name domain.Name, caller domain.Principal) error {
	owner, err := s.registry.OwnerOf(ctx, name)
	if errors.Is(err, sentinel.ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeRegistrationNotFound, "registration not found")
	}
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to look up owner")
	}
	if owner != caller {
		return pkgerrors.New(pkgerrors.CodePermissionDenied, "permission denied")
	}
	return nil
}

// Approve lets the current owner of rawName designate delegate as the party
// allowed to transfer the name to itself. An anonymous delegate clears any
// existing approval.
func (s *Service) Approve(ctx context.Context, caller domain.Principal, rawName string, delegate domain.Principal) (bool, error) {
	name, err := domain.ParseName(rawName)
	if err != nil {
		return false, err
	}
	if _, err := domain.RequireAuthenticated(caller); err != nil {
		return false, err
	}
	if err := s.requireOwner(ctx, name, caller); err != nil {
		return false, err
	}
	if err := s.approvals.Set(ctx, name, delegate); err != nil {
		return false, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to set approval")
	}

	if s.metrics != nil {
		s.metrics.ApprovalsSet.Inc()
	}
	action := audit.ActionApprovalSet
	if delegate.IsAnonymous() {
		action = audit.ActionApprovalCleared
	}
	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		ID:        uuid.NewString(),
		Action:    action,
		Timestamp: time.Now(),
		Actor:     caller,
		Subject:   name.String(),
		Decision:  "allowed",
		Details:   map[string]string{"delegate": delegate.String()},
	})
	return true, nil
}

// Transfer reassigns ownership of rawName from caller to newOwner. Any
// approval for the name is cleared on success so a delegate approved by the
// previous owner cannot act against the new one.
func (s *Service) Transfer(ctx context.Context, caller domain.Principal, rawName string, newOwner domain.Principal) (bool, error) {
	name, err := domain.ParseName(rawName)
	if err != nil {
		return false, err
	}
	if _, err := domain.RequireAuthenticated(caller); err != nil {
		return false, err
	}
	if _, err := domain.RequireAuthenticated(newOwner); err != nil {
		return false, pkgerrors.New(pkgerrors.CodeBadRequest, "new owner must not be anonymous")
	}
	if err := s.requireOwner(ctx, name, caller); err != nil {
		s.countTransfer("direct", metrics.OutcomeDenied)
		return false, err
	}
	if err := s.setOwnerAndClearApproval(ctx, name, newOwner); err != nil {
		s.countTransfer("direct", metrics.OutcomeError)
		return false, err
	}

	s.countTransfer("direct", metrics.OutcomeOK)
	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		ID:        uuid.NewString(),
		Action:    audit.ActionNameTransferred,
		Timestamp: time.Now(),
		Actor:     caller,
		Subject:   name.String(),
		Decision:  "allowed",
		Details:   map[string]string{"new_owner": newOwner.String(), "kind": "direct"},
	})
	return true, nil
}

// TransferFrom lets the approved delegate take ownership of rawName. The
// approval is consumed: it is cleared on success.
func (s *Service) TransferFrom(ctx context.Context, caller domain.Principal, rawName string) (bool, error) {
	name, err := domain.ParseName(rawName)
	if err != nil {
		return false, err
	}
	if _, err := domain.RequireAuthenticated(caller); err != nil {
		return false, err
	}
	approved, err := s.approvals.IsApproved(ctx, name, caller)
	if err != nil {
		return false, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to check approval")
	}
	if !approved {
		s.countTransfer("delegated", metrics.OutcomeDenied)
		return false, pkgerrors.New(pkgerrors.CodePermissionDenied, "permission denied")
	}
	if err := s.setOwnerAndClearApproval(ctx, name, caller); err != nil {
		s.countTransfer("delegated", metrics.OutcomeError)
		return false, err
	}

	s.countTransfer("delegated", metrics.OutcomeOK)
	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		ID:        uuid.NewString(),
		Action:    audit.ActionNameTransferred,
		Timestamp: time.Now(),
		Actor:     caller,
		Subject:   name.String(),
		Decision:  "allowed",
		Details:   map[string]string{"new_owner": caller.String(), "kind": "delegated"},
	})
	return true, nil
}

func (s *Service) setOwnerAndClearApproval(ctx context.Context, name domain.Name, newOwner domain.Principal) error {
	if err := s.registry.SetOwner(ctx, name, newOwner); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeRegistrationNotFound, "registration not found")
		}
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to set owner")
	}
	if err := s.approvals.Clear(ctx, name); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to clear approval")
	}
	return nil
}

// OwnerOf returns the current owner of rawName.
func (s *Service) OwnerOf(ctx context.Context, rawName string) (domain.Principal, error) {
	name, err := domain.ParseName(rawName)
	if err != nil {
		return domain.Anonymous, err
	}
	owner, err := s.registry.OwnerOf(ctx, name)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.Anonymous, pkgerrors.New(pkgerrors.CodeRegistrationNotFound, "registration not found")
	}
	if err != nil {
		return domain.Anonymous, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to look up owner")
	}
	return owner, nil
}

// ListNames returns all registrations.
func (s *Service) ListNames(ctx context.Context) ([]registry.Entry, error) {
	entries, err := s.registry.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to list registrations")
	}
	return entries, nil
}

// SeedRegistration creates a registration directly. Reachable only through
// the admin surface; ordinary registrations go through the order flow.
func (s *Service) SeedRegistration(ctx context.Context, actor domain.Principal, rawName string, owner domain.Principal) error {
	name, err := domain.ParseName(rawName)
	if err != nil {
		return err
	}
	if _, err := domain.RequireAuthenticated(owner); err != nil {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "owner must not be anonymous")
	}
	if err := s.registry.Create(ctx, name, owner); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return pkgerrors.New(pkgerrors.CodeConflict, "name is already registered")
		}
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to create registration")
	}
	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		ID:        uuid.NewString(),
		Action:    audit.ActionRegistrationSeed,
		Timestamp: time.Now(),
		Actor:     actor,
		Subject:   name.String(),
		Decision:  "allowed",
		Details:   map[string]string{"owner": owner.String()},
	})
	return nil
}

func (s *Service) countTransfer(kind, outcome string) {
	if s.metrics != nil {
		s.metrics.OwnershipTransfers.WithLabelValues(kind, outcome).Inc()
	}
}
