package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"namereg/internal/platform/middleware"
	"namereg/pkg/domain"
	pkgerrors "namereg/pkg/errors"
)

type approveRequest struct {
	Delegate string `json:"delegate"`
}

type transferRequest struct {
	NewOwner string `json:"new_owner"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type ownerResponse struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// handleApprove allows the owner of a name to appoint a transfer delegate.
func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetPrincipal(ctx)
	name := chi.URLParam(r, "name")

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
		return
	}
	delegate, err := domain.ParsePrincipal(req.Delegate)
	if err != nil {
		writeError(w, err)
		return
	}

	ok, err := h.registrar.Approve(ctx, caller, name, delegate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: ok})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetPrincipal(ctx)
	name := chi.URLParam(r, "name")

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
		return
	}
	newOwner, err := domain.ParsePrincipal(req.NewOwner)
	if err != nil {
		writeError(w, err)
		return
	}

	ok, err := h.registrar.Transfer(ctx, caller, name, newOwner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: ok})
}

func (h *Handler) handleTransferFrom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetPrincipal(ctx)
	name := chi.URLParam(r, "name")

	ok, err := h.registrar.TransferFrom(ctx, caller, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: ok})
}

func (h *Handler) handleOwnerOf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	owner, err := h.registrar.OwnerOf(ctx, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ownerResponse{Name: name, Owner: owner.String()})
}

func (h *Handler) handleListNames(w http.ResponseWriter, r *http.Request) {
	entries, err := h.registrar.ListNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ownerResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ownerResponse{Name: e.Name.String(), Owner: e.Owner.String()})
	}
	writeJSON(w, http.StatusOK, out)
}
