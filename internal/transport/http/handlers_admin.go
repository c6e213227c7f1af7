package httptransport

import (
	"encoding/json"
	"net/http"

	"namereg/internal/platform/middleware"
	"namereg/pkg/domain"
	pkgerrors "namereg/pkg/errors"
)

type addQuotaRequest struct {
	Owner    string `json:"owner"`
	Category string `json:"category"`
	Amount   uint32 `json:"amount"`
}

type quotaTransferFromRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Category string `json:"category"`
	Amount   uint32 `json:"amount"`
}

type seedRegistrationRequest struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// handleAddQuota mints quota into an owner's balance. Admin-only; the service
// re-checks the caller so the guard holds even off the HTTP path.
func (h *Handler) handleAddQuota(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetPrincipal(ctx)

	var req addQuotaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
		return
	}
	owner, err := domain.ParsePrincipal(req.Owner)
	if err != nil {
		writeError(w, err)
		return
	}
	category, err := domain.ParseQuotaCategory(req.Category)
	if err != nil {
		writeError(w, err)
		return
	}

	ok, err := h.quota.Add(ctx, caller, owner, category, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: ok})
}

func (h *Handler) handleQuotaTransferFrom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetPrincipal(ctx)

	var req quotaTransferFromRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
		return
	}
	from, err := domain.ParsePrincipal(req.From)
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := domain.ParsePrincipal(req.To)
	if err != nil {
		writeError(w, err)
		return
	}
	category, err := domain.ParseQuotaCategory(req.Category)
	if err != nil {
		writeError(w, err)
		return
	}

	ok, err := h.quota.TransferFrom(ctx, caller, from, to, category, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: ok})
}

func (h *Handler) handleSeedRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetPrincipal(ctx)

	var req seedRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
		return
	}
	owner, err := domain.ParsePrincipal(req.Owner)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.registrar.SeedRegistration(ctx, caller, req.Name, owner); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ownerResponse{Name: req.Name, Owner: owner.String()})
}
