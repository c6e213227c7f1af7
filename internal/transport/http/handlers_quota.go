package httptransport

import (
	"encoding/json"
	"net/http"

	"namereg/internal/platform/middleware"
	"namereg/internal/quota"
	"namereg/pkg/domain"
	pkgerrors "namereg/pkg/errors"
)

type quotaTransferRequest struct {
	To       string `json:"to"`
	Category string `json:"category"`
	Amount   uint32 `json:"amount"`
}

type quotaBatchTransferRequest struct {
	Items []quotaTransferRequest `json:"items"`
}

type quotaBalanceResponse struct {
	Holder   string `json:"holder"`
	Category string `json:"category"`
	Balance  uint32 `json:"balance"`
}

// transferLeg parses one wire-level transfer item. Category strings are parsed
// here so unknown categories never reach the service layer.
func transferLeg(req quotaTransferRequest) (quota.TransferQuotaDetails, error) {
	to, err := domain.ParsePrincipal(req.To)
	if err != nil {
		return quota.TransferQuotaDetails{}, err
	}
	category, err := domain.ParseQuotaCategory(req.Category)
	if err != nil {
		return quota.TransferQuotaDetails{}, err
	}
	return quota.TransferQuotaDetails{To: to, Category: category, Amount: req.Amount}, nil
}

func (h *Handler) handleGetQuota(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetPrincipal(ctx)

	category, err := domain.ParseQuotaCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}

	balance, err := h.quota.Get(ctx, caller, category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quotaBalanceResponse{
		Holder:   caller.String(),
		Category: category.String(),
		Balance:  balance,
	})
}

func (h *Handler) handleQuotaTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetPrincipal(ctx)

	var req quotaTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
		return
	}
	leg, err := transferLeg(req)
	if err != nil {
		writeError(w, err)
		return
	}

	ok, err := h.quota.Transfer(ctx, caller, leg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: ok})
}

func (h *Handler) handleQuotaBatchTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetPrincipal(ctx)

	var req quotaBatchTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
		return
	}
	items := make([]quota.TransferQuotaDetails, 0, len(req.Items))
	for _, item := range req.Items {
		leg, err := transferLeg(item)
		if err != nil {
			writeError(w, err)
			return
		}
		items = append(items, leg)
	}

	ok, err := h.quota.BatchTransfer(ctx, caller, items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: ok})
}
