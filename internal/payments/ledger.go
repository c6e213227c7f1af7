// Package payments is the remote ledger collaborator used to settle
// registration orders. The core depends only on the Ledger interface, which
// is injected so the order flow can be tested against an in-memory fake.
package payments

import (
	"context"

	"namereg/pkg/domain"
)

// ChargeRequest describes a payment to collect before a registration commits.
type ChargeRequest struct {
	OrderID string           `json:"order_id"`
	Payer   domain.Principal `json:"payer"`
	Name    domain.Name      `json:"name"`
	Amount  uint64           `json:"amount"`
	Memo    string           `json:"memo,omitempty"`
}

// Receipt acknowledges a settled charge.
type Receipt struct {
	TxID string `json:"tx_id"`
}

// RefundRequest reverses a previously settled charge. Issued when the local
// commit fails after the remote charge succeeded.
type RefundRequest struct {
	OrderID string `json:"order_id"`
	TxID    string `json:"tx_id"`
	Reason  string `json:"reason,omitempty"`
}

// Ledger is the remote payment capability. Calls may suspend the caller; any
// state read before a call must be treated as stale afterwards. Failures are
// surfaced as remote_error values preserving the remote code and message,
// never retried here.
type Ledger interface {
	Charge(ctx context.Context, req ChargeRequest) (Receipt, error)
	Refund(ctx context.Context, req RefundRequest) error
}
