package storage

import (
	"fmt"
	"time"

	"github.com/uGE89/gestion-compras-app-sub000/internal/domain/normalizer"
)

// ConfirmedMatch is the operator's confirmed choice for one bank
// transaction: the ledger entries it reconciles against and the figures
// at confirmation time.
type ConfirmedMatch struct {
	BankTxnID   string    `json:"bank_txn_id"`
	LedgerIDs   []string  `json:"ledger_ids"`
	Tier        string    `json:"tier"`
	Sum         float64   `json:"sum"`
	Error       float64   `json:"error"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// Session is the per-(account, period) record of confirmed matches plus
// persisted UI preferences. Created empty on first load of a period,
// updated on every confirmation, never auto-expired.
type Session struct {
	Key               string                    `json:"key"`
	AccountID         int                       `json:"account_id"`
	PeriodStart       string                    `json:"period_start"`
	PeriodEnd         string                    `json:"period_end"`
	Matches           map[string]ConfirmedMatch `json:"matches"`
	OnlyPendingFilter bool                      `json:"only_pending_filter"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// SessionKey derives the persistence key for an (account, period) pair.
// Periods are calendar dates in ISO form. The colon separator keeps keys
// safe to embed in URL paths.
func SessionKey(accountID int, periodStart, periodEnd string) string {
	return fmt.Sprintf("%d:%s:%s", accountID, periodStart, periodEnd)
}

// NewSession creates an empty session for the given account and period.
func NewSession(accountID int, periodStart, periodEnd string) *Session {
	return &Session{
		Key:         SessionKey(accountID, periodStart, periodEnd),
		AccountID:   accountID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Matches:     make(map[string]ConfirmedMatch),
	}
}

// CachedRows holds the normalized row sets of one period so revisiting it
// does not require re-parsing the source exports. Purely an optimization:
// correctness never depends on the cache being present.
type CachedRows struct {
	Ledger   []normalizer.LedgerEntry `json:"ledger"`
	Bank     []normalizer.BankTxn     `json:"bank"`
	CachedAt time.Time                `json:"cached_at"`
}
