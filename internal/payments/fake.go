package payments

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Ledger for tests and broker-less development. It
// settles every charge unless FailCharge is set.
type Fake struct {
	mu         sync.Mutex
	seq        int
	charges    []ChargeRequest
	refunds    []RefundRequest
	FailCharge error
	FailRefund error
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Charge(_ context.Context, req ChargeRequest) (Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCharge != nil {
		return Receipt{}, f.FailCharge
	}
	f.seq++
	f.charges = append(f.charges, req)
	return Receipt{TxID: fmt.Sprintf("tx-%d", f.seq)}, nil
}

func (f *Fake) Refund(_ context.Context, req RefundRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailRefund != nil {
		return f.FailRefund
	}
	f.refunds = append(f.refunds, req)
	return nil
}

// Charges returns a copy of all settled charges.
func (f *Fake) Charges() []ChargeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ChargeRequest{}, f.charges...)
}

// Refunds returns a copy of all processed refunds.
func (f *Fake) Refunds() []RefundRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RefundRequest{}, f.refunds...)
}
