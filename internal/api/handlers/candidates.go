package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uGE89/gestion-compras-app-sub000/internal/api/dto"
	"github.com/uGE89/gestion-compras-app-sub000/internal/application/reconcile"
)

// CandidatesHandler serves ranked candidate groups for bank transactions.
type CandidatesHandler struct {
	*Base
}

// NewCandidatesHandler creates a new candidates handler.
func NewCandidatesHandler(svc *reconcile.Service, runs *RunCache) *CandidatesHandler {
	return &CandidatesHandler{
		Base: NewBase(svc, runs),
	}
}

// List handles GET /api/sessions/{key}/bank/{txnID}/candidates.
// An unknown transaction id yields an empty list rather than an error; the
// client cannot distinguish it from a transaction with no counterpart.
func (h *CandidatesHandler) List(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	txnID := chi.URLParam(r, "txnID")
	limit := ParseIntParam(r, "limit", 10)

	response := dto.CandidateListResponse{BankTxnID: txnID}
	err := h.runs.with(r.Context(), key, func(run *reconcile.Run) error {
		candidates := run.Candidates(txnID)
		if limit > 0 && len(candidates) > limit {
			candidates = candidates[:limit]
		}

		response.Candidates = make([]dto.CandidateResponse, 0, len(candidates))
		for i := range candidates {
			candidate := &candidates[i]

			tiers := make([]string, 0, len(candidate.Tiers))
			for _, tier := range candidate.Tiers {
				tiers = append(tiers, string(tier))
			}

			ids := candidate.LedgerIDs()
			entries := make([]dto.LedgerEntryResponse, 0, len(ids))
			for _, id := range ids {
				if entry, ok := run.LedgerEntry(id); ok {
					entries = append(entries, dto.LedgerEntryResponse{
						ID:         entry.ID,
						Date:       entry.Date.Format("2006-01-02"),
						ExactKey:   entry.ExactKey,
						FuzzyText:  entry.FuzzyText,
						AmountHome: entry.AmountHome,
						Sign:       string(entry.Sign),
					})
				}
			}

			response.Candidates = append(response.Candidates, dto.CandidateResponse{
				LedgerIDs:       ids,
				Entries:         entries,
				Tier:            string(candidate.Tier()),
				Tiers:           tiers,
				Sum:             candidate.Sum,
				Error:           candidate.Error,
				WithinTolerance: candidate.WithinTolerance,
				MaxLagDays:      candidate.MaxLagDays,
				Score:           candidate.Score,
			})
		}
		return nil
	})
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, response)
}
