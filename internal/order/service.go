package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"namereg/internal/payments"
	"namereg/internal/platform/metrics"
	"namereg/internal/quota"
	"namereg/internal/registry"
	"namereg/pkg/audit"
	"namereg/pkg/domain"
	pkgerrors "namereg/pkg/errors"
	"namereg/pkg/sentinel"
)

const (
	// DefaultLockTTL bounds how long a name can sit pending if the process
	// dies between charge and commit.
	DefaultLockTTL = 5 * time.Minute

	// priceE8sPerYear is the registration price charged through the payment
	// ledger, in e8s units per year.
	priceE8sPerYear = 100_000_000

	maxRegistrationYears = 10
)

// Service orchestrates the registration order protocol:
//
//	phase 1: validate and mark the name pending (concurrent orders on the
//	         same name fail with conflict),
//	phase 2: charge the payment ledger (the suspension point),
//	phase 3: commit (debit quota, create the registration) or roll the
//	         charge back and clear the mark.
//
// State read in phase 1 is revalidated in phase 3 only through the store
// operations themselves: the quota debit and the registration insert are both
// guarded, so an interleaved mutation surfaces as an error, triggering the
// refund path rather than corrupting the ledger.
type Service struct {
	registry  registry.Store
	quota     *quota.Service
	locks     LockStore
	ledger    payments.Ledger
	lockTTL   time.Duration
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

func WithLockTTL(ttl time.Duration) Option {
	return func(s *Service) { s.lockTTL = ttl }
}

func New(reg registry.Store, quotaSvc *quota.Service, locks LockStore, ledger payments.Ledger, opts ...Option) (*Service, error) {
	if reg == nil || quotaSvc == nil || locks == nil || ledger == nil {
		return nil, fmt.Errorf("registry, quota service, lock store and ledger are required")
	}
	svc := &Service{
		registry: reg,
		quota:    quotaSvc,
		locks:    locks,
		ledger:   ledger,
		lockTTL:  DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Receipt reports a committed registration order.
type Receipt struct {
	OrderID string      `json:"order_id"`
	Name    domain.Name `json:"name"`
	TxID    string      `json:"tx_id"`
	Years   uint32      `json:"years"`
}

// Place runs the full order protocol for caller registering rawName using
// `years` units of the given quota category.
func (s *Service) Place(ctx context.Context, caller domain.Principal, rawName string, category domain.QuotaCategory, years uint32) (Receipt, error) {
	name, err := domain.ParseName(rawName)
	if err != nil {
		return Receipt{}, err
	}
	if _, err := domain.RequireAuthenticated(caller); err != nil {
		return Receipt{}, err
	}
	if !category.IsValid() {
		return Receipt{}, pkgerrors.Newf(pkgerrors.CodeBadRequest, "unknown quota category: %q", category)
	}
	if !category.Covers(len(name.Label())) {
		return Receipt{}, pkgerrors.Newf(pkgerrors.CodeBadRequest,
			"category %s does not cover a %d-character name", category, len(name.Label()))
	}
	if years == 0 || years > maxRegistrationYears {
		return Receipt{}, pkgerrors.Newf(pkgerrors.CodeBadRequest,
			"years must be between 1 and %d", maxRegistrationYears)
	}

	if _, err := s.registry.OwnerOf(ctx, name); err == nil {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeConflict, "name is already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return Receipt{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to check registration")
	}
	balance, err := s.quota.Get(ctx, caller, category)
	if err != nil {
		return Receipt{}, err
	}
	if balance < years {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeInsufficientQuota, "insufficient quota")
	}

	// Phase 1: mark the name pending. Anyone else touching it now gets a
	// conflict until we commit or roll back.
	if err := s.locks.Acquire(ctx, name, caller, s.lockTTL); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.countOrder("rejected")
			return Receipt{}, pkgerrors.New(pkgerrors.CodeConflict, "a pending order exists for this name")
		}
		return Receipt{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to mark order pending")
	}

	orderID := uuid.NewString()
	s.countOrder("placed")
	s.emit(ctx, audit.ActionOrderPlaced, caller, name, map[string]string{
		"order_id": orderID,
		"category": category.String(),
		"years":    strconv.FormatUint(uint64(years), 10),
	})

	// Phase 2: the suspension point. Everything read before this line is
	// stale once it returns.
	receipt, err := s.ledger.Charge(ctx, payments.ChargeRequest{
		OrderID: orderID,
		Payer:   caller,
		Name:    name,
		Amount:  uint64(years) * priceE8sPerYear,
		Memo:    "name registration",
	})
	if err != nil {
		s.release(ctx, name, caller)
		s.countOrder("cancelled")
		if s.metrics != nil {
			s.metrics.RemoteFailures.Inc()
		}
		s.emit(ctx, audit.ActionOrderCancelled, caller, name, map[string]string{
			"order_id": orderID,
			"reason":   "charge failed",
		})
		if pkgerrors.HasCode(err, pkgerrors.CodeRemote) {
			return Receipt{}, err
		}
		return Receipt{}, pkgerrors.Wrap(err, pkgerrors.CodeRemote, "payment charge failed")
	}

	// Phase 3: commit. The guarded quota debit and the unique-name insert
	// are the revalidation: if either fails, refund and release.
	if err := s.commit(ctx, caller, name, category, years); err != nil {
		s.refund(ctx, orderID, receipt.TxID, err)
		s.release(ctx, name, caller)
		s.countOrder("cancelled")
		s.emit(ctx, audit.ActionOrderCancelled, caller, name, map[string]string{
			"order_id": orderID,
			"reason":   "commit failed",
		})
		return Receipt{}, err
	}

	s.release(ctx, name, caller)
	s.countOrder("committed")
	s.emit(ctx, audit.ActionOrderCommitted, caller, name, map[string]string{
		"order_id": orderID,
		"tx_id":    receipt.TxID,
	})
	return Receipt{OrderID: orderID, Name: name, TxID: receipt.TxID, Years: years}, nil
}

func (s *Service) commit(ctx context.Context, caller domain.Principal, name domain.Name, category domain.QuotaCategory, years uint32) error {
	if err := s.quota.Subtract(ctx, caller, category, years); err != nil {
		return err
	}
	if err := s.registry.Create(ctx, name, caller); err != nil {
		// Undo the debit; the name was taken during the suspension window.
		if addErr := s.quota.Refund(ctx, caller, category, years); addErr != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to restore quota after commit failure",
				"name", name.String(), "error", addErr)
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return pkgerrors.New(pkgerrors.CodeConflict, "name is already registered")
		}
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to create registration")
	}
	return nil
}

// Cancel releases the caller's pending order on rawName. Only the principal
// that placed the order may cancel it.
func (s *Service) Cancel(ctx context.Context, caller domain.Principal, rawName string) error {
	name, err := domain.ParseName(rawName)
	if err != nil {
		return err
	}
	if _, err := domain.RequireAuthenticated(caller); err != nil {
		return err
	}
	if err := s.locks.Release(ctx, name, caller); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no pending order for this name")
		}
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to cancel order")
	}
	s.countOrder("cancelled")
	s.emit(ctx, audit.ActionOrderCancelled, caller, name, map[string]string{"reason": "cancelled by owner"})
	return nil
}

func (s *Service) refund(ctx context.Context, orderID, txID string, cause error) {
	err := s.ledger.Refund(ctx, payments.RefundRequest{
		OrderID: orderID,
		TxID:    txID,
		Reason:  pkgerrors.MessageOf(cause),
	})
	if err != nil && s.logger != nil {
		// The charge stands but the registration failed; an operator must
		// reconcile. Loud log, never retried from here.
		s.logger.ErrorContext(ctx, "refund failed after aborted commit",
			"order_id", orderID, "tx_id", txID, "error", err)
	}
	if s.metrics != nil && err != nil {
		s.metrics.RemoteFailures.Inc()
	}
}

func (s *Service) release(ctx context.Context, name domain.Name, holder domain.Principal) {
	if err := s.locks.Release(ctx, name, holder); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to release order lock",
			"name", name.String(), "error", err)
	}
}

func (s *Service) countOrder(phase string) {
	if s.metrics != nil {
		s.metrics.Orders.WithLabelValues(phase).Inc()
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, actor domain.Principal, name domain.Name, details map[string]string) {
	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		ID:        uuid.NewString(),
		Action:    action,
		Timestamp: time.Now(),
		Actor:     actor,
		Subject:   name.String(),
		Decision:  "allowed",
		Details:   details,
	})
}
