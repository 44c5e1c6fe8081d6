package dto

import "time"

// HealthResponse is returned by the liveness endpoint. Service names the
// process so probes against a shared host can tell the APIs apart.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a healthy response with the current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Service:   "reconcile-api",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// BankTxnResponse represents a bank transaction in API responses.
type BankTxnResponse struct {
	ID                 string  `json:"id"`
	Date               string  `json:"date"`
	ConfirmationNumber string  `json:"confirmation_number,omitempty"`
	Description        string  `json:"description"`
	AmountHome         float64 `json:"amount_home"`
	Sign               string  `json:"sign"`
}

// LedgerEntryResponse represents a ledger entry in API responses.
type LedgerEntryResponse struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"`
	ExactKey   string  `json:"exact_key,omitempty"`
	FuzzyText  string  `json:"fuzzy_text,omitempty"`
	AmountHome float64 `json:"amount_home"`
	Sign       string  `json:"sign"`
}

// CandidateResponse represents one ranked candidate group.
type CandidateResponse struct {
	LedgerIDs       []string              `json:"ledger_ids"`
	Entries         []LedgerEntryResponse `json:"entries"`
	Tier            string                `json:"tier"`
	Tiers           []string              `json:"tiers"`
	Sum             float64               `json:"sum"`
	Error           float64               `json:"error"`
	WithinTolerance bool                  `json:"within_tolerance"`
	MaxLagDays      int                   `json:"max_lag_days"`
	Score           float64               `json:"score"`
}

// CandidateListResponse is returned by the candidates endpoint.
type CandidateListResponse struct {
	BankTxnID  string              `json:"bank_txn_id"`
	Candidates []CandidateResponse `json:"candidates"`
}

// MatchResponse represents a confirmed match.
type MatchResponse struct {
	BankTxnID   string   `json:"bank_txn_id"`
	LedgerIDs   []string `json:"ledger_ids"`
	Tier        string   `json:"tier"`
	Sum         float64  `json:"sum"`
	Error       float64  `json:"error"`
	ConfirmedAt string   `json:"confirmed_at"`
}

// SessionResponse represents a reconciliation session.
type SessionResponse struct {
	Key               string            `json:"key"`
	AccountID         int               `json:"account_id"`
	PeriodStart       string            `json:"period_start"`
	PeriodEnd         string            `json:"period_end"`
	Matches           []MatchResponse   `json:"matches"`
	OnlyPendingFilter bool              `json:"only_pending_filter"`
	Bank              []BankTxnResponse `json:"bank,omitempty"`
	Pending           []BankTxnResponse `json:"pending,omitempty"`
}

// LoadSessionResponse is returned after loading a period.
type LoadSessionResponse struct {
	Key           string            `json:"key"`
	AccountID     int               `json:"account_id"`
	PeriodStart   string            `json:"period_start"`
	PeriodEnd     string            `json:"period_end"`
	BankCount     int               `json:"bank_count"`
	LedgerCount   int               `json:"ledger_count"`
	BankDropped   int               `json:"bank_dropped"`
	LedgerDropped int               `json:"ledger_dropped"`
	Pending       []BankTxnResponse `json:"pending"`
}

// SummaryResponse is returned by the summary endpoint.
type SummaryResponse struct {
	SessionKey     string  `json:"session_key"`
	AccountID      int     `json:"account_id"`
	PeriodStart    string  `json:"period_start"`
	PeriodEnd      string  `json:"period_end"`
	BankCount      int     `json:"bank_count"`
	LedgerCount    int     `json:"ledger_count"`
	ConfirmedCount int     `json:"confirmed_count"`
	PendingCount   int     `json:"pending_count"`
	LedgerDropped  int     `json:"ledger_dropped"`
	BankDropped    int     `json:"bank_dropped"`
	BankTotal      float64 `json:"bank_total"`
	ConfirmedTotal float64 `json:"confirmed_total"`
	GeneratedAt    string  `json:"generated_at"`
}
