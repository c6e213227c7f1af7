package quota

import (
	"context"
	"sync"

	"namereg/pkg/domain"
	"namereg/pkg/sentinel"
)

type accountKey struct {
	holder   domain.Principal
	category domain.QuotaCategory
}

// InMemoryStore keeps quota balances in a map guarded by a mutex. Mutations
// within one lock hold are atomic with respect to every other operation,
// which is what the transfer conservation guarantees rely on.
type InMemoryStore struct {
	mu       sync.RWMutex
	balances map[accountKey]uint32
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{balances: make(map[accountKey]uint32)}
}

func (s *InMemoryStore) Get(_ context.Context, holder domain.Principal, category domain.QuotaCategory) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[accountKey{holder, category}], nil
}

func (s *InMemoryStore) Add(_ context.Context, holder domain.Principal, category domain.QuotaCategory, amount uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[accountKey{holder, category}] += amount
	return nil
}

func (s *InMemoryStore) Subtract(_ context.Context, holder domain.Principal, category domain.QuotaCategory, amount uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtractLocked(holder, category, amount)
}

func (s *InMemoryStore) subtractLocked(holder domain.Principal, category domain.QuotaCategory, amount uint32) error {
	key := accountKey{holder, category}
	balance := s.balances[key]
	if balance < amount {
		return sentinel.ErrInsufficient
	}
	// A zero balance is a valid steady state; entries are never deleted.
	s.balances[key] = balance - amount
	return nil
}

func (s *InMemoryStore) Transfer(_ context.Context, from, to domain.Principal, category domain.QuotaCategory, amount uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.subtractLocked(from, category, amount); err != nil {
		return err
	}
	s.balances[accountKey{to, category}] += amount
	return nil
}

func (s *InMemoryStore) BatchTransfer(_ context.Context, from domain.Principal, items []TransferQuotaDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check the total debit per category before touching anything, so a
	// failing leg leaves every balance exactly as it was. Totals accumulate
	// in uint64: a sum of uint32 legs must not wrap past the balance check.
	required := make(map[domain.QuotaCategory]uint64)
	for _, item := range items {
		required[item.Category] += uint64(item.Amount)
	}
	for category, total := range required {
		if uint64(s.balances[accountKey{from, category}]) < total {
			return sentinel.ErrInsufficient
		}
	}

	for _, item := range items {
		s.balances[accountKey{from, item.Category}] -= item.Amount
		s.balances[accountKey{item.To, item.Category}] += item.Amount
	}
	return nil
}
