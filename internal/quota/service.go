package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"namereg/internal/platform/metrics"
	"namereg/pkg/audit"
	"namereg/pkg/domain"
	pkgerrors "namereg/pkg/errors"
	"namereg/pkg/sentinel"
)

// Service wraps the ledger store with the authorization and validation rules
// of the quota operations. The privileged operations (Add, TransferFrom) are
// restricted to the configured admin principals.
type Service struct {
	store     Store
	admins    map[domain.Principal]struct{}
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

// WithAdmins grants the privileged quota operations to the given principals.
func WithAdmins(admins ...domain.Principal) Option {
	return func(s *Service) {
		for _, a := range admins {
			if !a.IsAnonymous() {
				s.admins[a] = struct{}{}
			}
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("quota store is required")
	}
	svc := &Service{
		store:  store,
		admins: make(map[domain.Principal]struct{}),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *Service) requireAdmin(caller domain.Principal) error {
	if _, err := domain.RequireAuthenticated(caller); err != nil {
		return err
	}
	if _, ok := s.admins[caller]; !ok {
		return pkgerrors.New(pkgerrors.CodePermissionDenied, "caller is not a quota administrator")
	}
	return nil
}

// Get returns the caller's balance in a category, zero when absent.
func (s *Service) Get(ctx context.Context, holder domain.Principal, category domain.QuotaCategory) (uint32, error) {
	if !category.IsValid() {
		return 0, pkgerrors.Newf(pkgerrors.CodeBadRequest, "unknown quota category: %q", category)
	}
	balance, err := s.store.Get(ctx, holder, category)
	if err != nil {
		return 0, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to read quota balance")
	}
	return balance, nil
}

// Add credits owner's balance. Privileged: only admin principals may mint
// quota, everyone else moves existing units around.
func (s *Service) Add(ctx context.Context, caller, owner domain.Principal, category domain.QuotaCategory, amount uint32) (bool, error) {
	if err := s.requireAdmin(caller); err != nil {
		s.count("add", metrics.OutcomeDenied)
		return false, err
	}
	if _, err := domain.RequireAuthenticated(owner); err != nil {
		return false, pkgerrors.New(pkgerrors.CodeBadRequest, "quota owner must not be anonymous")
	}
	if err := validateCategoryAndAmount(category, amount); err != nil {
		return false, err
	}
	if err := s.store.Add(ctx, owner, category, amount); err != nil {
		s.count("add", metrics.OutcomeError)
		return false, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to add quota")
	}

	s.count("add", metrics.OutcomeOK)
	s.emit(ctx, audit.ActionQuotaAdded, caller, owner, category, amount, nil)
	return true, nil
}

// Transfer moves amount of category from the caller to details.To. Self
// transfers are rejected; both parties must be authenticated. Conservation:
// when the debit fails the credit never runs.
func (s *Service) Transfer(ctx context.Context, from domain.Principal, details TransferQuotaDetails) (bool, error) {
	if _, err := domain.RequireAuthenticated(from); err != nil {
		return false, err
	}
	if err := validateTransferLeg(from, details); err != nil {
		return false, err
	}
	if err := s.store.Transfer(ctx, from, details.To, details.Category, details.Amount); err != nil {
		if errors.Is(err, sentinel.ErrInsufficient) {
			s.count("transfer", metrics.OutcomeDenied)
			return false, pkgerrors.New(pkgerrors.CodeInsufficientQuota, "insufficient quota")
		}
		s.count("transfer", metrics.OutcomeError)
		return false, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to transfer quota")
	}

	s.count("transfer", metrics.OutcomeOK)
	s.emit(ctx, audit.ActionQuotaTransferred, from, from, details.Category, details.Amount,
		map[string]string{"to": details.To.String()})
	return true, nil
}

// TransferFrom moves quota between two arbitrary identities. Privileged:
// reserved for service-to-service flows settling a purchase on behalf of a
// user.
func (s *Service) TransferFrom(ctx context.Context, caller, from, to domain.Principal, category domain.QuotaCategory, amount uint32) (bool, error) {
	if err := s.requireAdmin(caller); err != nil {
		s.count("transfer_from", metrics.OutcomeDenied)
		return false, err
	}
	if _, err := domain.RequireAuthenticated(from); err != nil {
		return false, pkgerrors.New(pkgerrors.CodeBadRequest, "source must not be anonymous")
	}
	if err := validateTransferLeg(from, TransferQuotaDetails{To: to, Category: category, Amount: amount}); err != nil {
		return false, err
	}
	if err := s.store.Transfer(ctx, from, to, category, amount); err != nil {
		if errors.Is(err, sentinel.ErrInsufficient) {
			s.count("transfer_from", metrics.OutcomeDenied)
			return false, pkgerrors.New(pkgerrors.CodeInsufficientQuota, "insufficient quota")
		}
		s.count("transfer_from", metrics.OutcomeError)
		return false, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to transfer quota")
	}

	s.count("transfer_from", metrics.OutcomeOK)
	s.emit(ctx, audit.ActionQuotaTransferredFrom, caller, from, category, amount,
		map[string]string{"to": to.String()})
	return true, nil
}

// BatchTransfer applies several transfer legs all-or-nothing. Every item is
// validated before any mutation; a failing item, including one whose debit
// would go negative, leaves the whole ledger untouched.
func (s *Service) BatchTransfer(ctx context.Context, from domain.Principal, items []TransferQuotaDetails) (bool, error) {
	if _, err := domain.RequireAuthenticated(from); err != nil {
		return false, err
	}
	if len(items) == 0 {
		return false, pkgerrors.New(pkgerrors.CodeBadRequest, "batch must not be empty")
	}
	for i, item := range items {
		if err := validateTransferLeg(from, item); err != nil {
			return false, pkgerrors.Wrap(err, pkgerrors.CodeOf(err), fmt.Sprintf("batch item %d", i))
		}
	}
	if err := s.store.BatchTransfer(ctx, from, items); err != nil {
		if errors.Is(err, sentinel.ErrInsufficient) {
			s.count("batch_transfer", metrics.OutcomeDenied)
			return false, pkgerrors.New(pkgerrors.CodeInsufficientQuota, "insufficient quota")
		}
		s.count("batch_transfer", metrics.OutcomeError)
		return false, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to batch transfer quota")
	}

	s.count("batch_transfer", metrics.OutcomeOK)
	var total uint32
	for _, item := range items {
		total += item.Amount
	}
	s.emit(ctx, audit.ActionQuotaBatchTransfer, from, from, "", total,
		map[string]string{"legs": strconv.Itoa(len(items))})
	return true, nil
}

// Subtract debits a holder directly. Used by the order flow when a
// registration commits; not exposed at the transport boundary.
func (s *Service) Subtract(ctx context.Context, holder domain.Principal, category domain.QuotaCategory, amount uint32) error {
	if err := validateCategoryAndAmount(category, amount); err != nil {
		return err
	}
	if err := s.store.Subtract(ctx, holder, category, amount); err != nil {
		if errors.Is(err, sentinel.ErrInsufficient) {
			return pkgerrors.New(pkgerrors.CodeInsufficientQuota, "insufficient quota")
		}
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to subtract quota")
	}
	return nil
}

// Refund credits a holder back after an aborted commit. Internal use by the
// order flow only; it restores units the same flow debited, so the admin gate
// does not apply.
func (s *Service) Refund(ctx context.Context, holder domain.Principal, category domain.QuotaCategory, amount uint32) error {
	if err := validateCategoryAndAmount(category, amount); err != nil {
		return err
	}
	if err := s.store.Add(ctx, holder, category, amount); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to refund quota")
	}
	return nil
}

func validateTransferLeg(from domain.Principal, item TransferQuotaDetails) error {
	if _, err := domain.RequireAuthenticated(item.To); err != nil {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "recipient must not be anonymous")
	}
	if item.To == from {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "cannot transfer quota to self")
	}
	return validateCategoryAndAmount(item.Category, item.Amount)
}

func validateCategoryAndAmount(category domain.QuotaCategory, amount uint32) error {
	if !category.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeBadRequest, "unknown quota category: %q", category)
	}
	if amount == 0 {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "amount must be positive")
	}
	return nil
}

func (s *Service) count(kind, outcome string) {
	if s.metrics != nil {
		s.metrics.QuotaOperations.WithLabelValues(kind, outcome).Inc()
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, actor, subject domain.Principal, category domain.QuotaCategory, amount uint32, details map[string]string) {
	if details == nil {
		details = make(map[string]string)
	}
	if category != "" {
		details["category"] = category.String()
	}
	details["amount"] = strconv.FormatUint(uint64(amount), 10)
	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		ID:        uuid.NewString(),
		Action:    action,
		Timestamp: time.Now(),
		Actor:     actor,
		Subject:   subject.String(),
		Decision:  "allowed",
		Details:   details,
	})
}
