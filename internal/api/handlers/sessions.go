package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/uGE89/gestion-compras-app-sub000/internal/api/dto"
	"github.com/uGE89/gestion-compras-app-sub000/internal/application/reconcile"
	"github.com/uGE89/gestion-compras-app-sub000/internal/domain/normalizer"
	"github.com/uGE89/gestion-compras-app-sub000/internal/infrastructure/storage"
)

// SessionsHandler handles session-related HTTP requests.
type SessionsHandler struct {
	*Base
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(svc *reconcile.Service, runs *RunCache) *SessionsHandler {
	return &SessionsHandler{
		Base: NewBase(svc, runs),
	}
}

// Load handles POST /api/sessions/load - normalizes both exports and loads
// or creates the session for the derived period.
func (h *SessionsHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req dto.LoadSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}
	if msg := req.Validate(); msg != "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(msg))
		return
	}

	rate := req.ExchangeRate
	if rate == 0 {
		rate = 1
	}

	run, err := h.svc.LoadPeriod(r.Context(), req.AccountID, req.LedgerRows, req.BankRows, rate)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}
	h.runs.put(run)

	response := dto.LoadSessionResponse{
		Key:           run.Session.Key,
		AccountID:     run.Session.AccountID,
		PeriodStart:   run.Session.PeriodStart,
		PeriodEnd:     run.Session.PeriodEnd,
		BankCount:     len(run.Bank),
		LedgerCount:   len(run.Ledger),
		BankDropped:   run.BankDrops.Total(),
		LedgerDropped: run.LedgerDrops.Total(),
		Pending:       toBankTxnResponses(run.Pending()),
	}
	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/sessions/{key} - returns the session with its
// confirmed matches and the bank transactions still pending.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var response dto.SessionResponse
	err := h.runs.with(r.Context(), key, func(run *reconcile.Run) error {
		response = toSessionResponse(run)
		return nil
	})
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Preferences handles PUT /api/sessions/{key}/preferences.
func (h *SessionsHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req dto.PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}

	err := h.runs.with(r.Context(), key, func(run *reconcile.Run) error {
		return h.svc.SetOnlyPendingFilter(r.Context(), run, req.OnlyPending)
	})
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]bool{"only_pending": req.OnlyPending})
}

// Summary handles GET /api/sessions/{key}/summary.
func (h *SessionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var summary reconcile.Summary
	err := h.runs.with(r.Context(), key, func(run *reconcile.Run) error {
		summary = h.svc.Summary(run)
		return nil
	})
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.SummaryResponse{
		SessionKey:     summary.SessionKey,
		AccountID:      summary.AccountID,
		PeriodStart:    summary.PeriodStart,
		PeriodEnd:      summary.PeriodEnd,
		BankCount:      summary.BankCount,
		LedgerCount:    summary.LedgerCount,
		ConfirmedCount: summary.ConfirmedCount,
		PendingCount:   summary.PendingCount,
		LedgerDropped:  summary.LedgerDropped,
		BankDropped:    summary.BankDropped,
		BankTotal:      summary.BankTotal,
		ConfirmedTotal: summary.ConfirmedTotal,
		GeneratedAt:    summary.GeneratedAt.Format("2006-01-02T15:04:05Z"),
	})
}

// writeRunError maps run-loading failures onto HTTP status codes.
func (h *Base) writeRunError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrSessionNotFound) {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("session"))
		return
	}
	h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
}

// toSessionResponse converts a run to an API session response.
func toSessionResponse(run *reconcile.Run) dto.SessionResponse {
	matches := make([]dto.MatchResponse, 0, len(run.Session.Matches))
	for _, match := range run.Session.Matches {
		matches = append(matches, toMatchResponse(match))
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].BankTxnID < matches[j].BankTxnID
	})

	return dto.SessionResponse{
		Key:               run.Session.Key,
		AccountID:         run.Session.AccountID,
		PeriodStart:       run.Session.PeriodStart,
		PeriodEnd:         run.Session.PeriodEnd,
		Matches:           matches,
		OnlyPendingFilter: run.Session.OnlyPendingFilter,
		Bank:              toBankTxnResponses(run.Bank),
		Pending:           toBankTxnResponses(run.Pending()),
	}
}

// toMatchResponse converts a confirmed match to an API response.
func toMatchResponse(match storage.ConfirmedMatch) dto.MatchResponse {
	return dto.MatchResponse{
		BankTxnID:   match.BankTxnID,
		LedgerIDs:   match.LedgerIDs,
		Tier:        match.Tier,
		Sum:         match.Sum,
		Error:       match.Error,
		ConfirmedAt: match.ConfirmedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// toBankTxnResponses converts bank transactions to API responses.
func toBankTxnResponses(txns []normalizer.BankTxn) []dto.BankTxnResponse {
	out := make([]dto.BankTxnResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, dto.BankTxnResponse{
			ID:                 txn.ID,
			Date:               txn.Date.Format("2006-01-02"),
			ConfirmationNumber: txn.ConfirmationNumber,
			Description:        txn.Description,
			AmountHome:         txn.AmountHome,
			Sign:               string(txn.Sign),
		})
	}
	return out
}
