// Package quota implements the per-identity, per-category registration quota
// ledger. Balances are non-negative integers; absence of an entry is balance
// zero. Transfers conserve quota: no operation, successful or failed, creates
// or destroys units.
package quota

import (
	"namereg/pkg/domain"
)

// TransferQuotaDetails describes one leg of a quota transfer.
type TransferQuotaDetails struct {
	To       domain.Principal     `json:"to"`
	Category domain.QuotaCategory `json:"category"`
	Amount   uint32               `json:"amount"`
}

// Balance is one ledger entry, used by listing and diagnostics.
type Balance struct {
	Holder   domain.Principal
	Category domain.QuotaCategory
	Amount   uint32
}
