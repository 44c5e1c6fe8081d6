package dto

import "github.com/uGE89/gestion-compras-app-sub000/internal/domain/normalizer"

// LoadSessionRequest is the body of POST /api/sessions/load. The row slices
// carry the raw export rows exactly as parsed from the source files; header
// resolution happens server-side.
type LoadSessionRequest struct {
	AccountID    int                 `json:"account_id"`
	ExchangeRate float64             `json:"exchange_rate"`
	LedgerRows   []normalizer.RawRow `json:"ledger_rows"`
	BankRows     []normalizer.RawRow `json:"bank_rows"`
}

// Validate checks the request for obvious problems before normalization.
func (r *LoadSessionRequest) Validate() string {
	if r.AccountID <= 0 {
		return "account_id must be positive"
	}
	if len(r.BankRows) == 0 {
		return "bank_rows must not be empty"
	}
	if r.ExchangeRate < 0 {
		return "exchange_rate must not be negative"
	}
	return ""
}

// ConfirmMatchRequest is the body of PUT .../bank/{txnID}/match.
type ConfirmMatchRequest struct {
	LedgerIDs []string `json:"ledger_ids"`
}

// PreferencesRequest is the body of PUT /api/sessions/{key}/preferences.
type PreferencesRequest struct {
	OnlyPending bool `json:"only_pending"`
}
