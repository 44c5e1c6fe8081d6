package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uGE89/gestion-compras-app-sub000/internal/api/dto"
	"github.com/uGE89/gestion-compras-app-sub000/internal/application/reconcile"
	"github.com/uGE89/gestion-compras-app-sub000/internal/infrastructure/storage"
)

// MatchesHandler handles confirming and removing matches.
type MatchesHandler struct {
	*Base
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(svc *reconcile.Service, runs *RunCache) *MatchesHandler {
	return &MatchesHandler{
		Base: NewBase(svc, runs),
	}
}

// Confirm handles PUT /api/sessions/{key}/bank/{txnID}/match.
func (h *MatchesHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	txnID := chi.URLParam(r, "txnID")

	var req dto.ConfirmMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}
	if len(req.LedgerIDs) == 0 {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("ledger_ids must not be empty"))
		return
	}

	var match storage.ConfirmedMatch
	err := h.runs.with(r.Context(), key, func(run *reconcile.Run) error {
		var err error
		match, err = h.svc.Confirm(r.Context(), run, txnID, req.LedgerIDs)
		return err
	})
	if err != nil {
		h.writeMatchError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toMatchResponse(match))
}

// Unconfirm handles DELETE /api/sessions/{key}/bank/{txnID}/match.
func (h *MatchesHandler) Unconfirm(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	txnID := chi.URLParam(r, "txnID")

	err := h.runs.with(r.Context(), key, func(run *reconcile.Run) error {
		return h.svc.Unconfirm(r.Context(), run, txnID)
	})
	if err != nil {
		h.writeMatchError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeMatchError maps confirm/unconfirm failures onto HTTP status codes.
func (h *MatchesHandler) writeMatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reconcile.ErrUnknownBankTxn):
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("bank transaction"))
	case errors.Is(err, reconcile.ErrUnknownLedgerEntry):
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
	default:
		h.writeRunError(w, err)
	}
}
