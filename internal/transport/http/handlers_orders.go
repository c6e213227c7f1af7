package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"namereg/internal/platform/middleware"
	"namereg/pkg/domain"
	pkgerrors "namereg/pkg/errors"
)

type placeOrderRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Years    uint32 `json:"years"`
}

// handlePlaceOrder runs the full registration order flow: pending lock,
// payment charge, quota debit, registration.
func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetPrincipal(ctx)

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
		return
	}
	category, err := domain.ParseQuotaCategory(req.Category)
	if err != nil {
		writeError(w, err)
		return
	}

	receipt, err := h.orders.Place(ctx, caller, req.Name, category, req.Years)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetPrincipal(ctx)
	name := chi.URLParam(r, "name")

	if err := h.orders.Cancel(ctx, caller, name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
