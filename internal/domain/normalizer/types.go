package normalizer

import "time"

// Sign classifies the direction of money movement for a row.
type Sign string

const (
	SignIn      Sign = "in"
	SignOut     Sign = "out"
	SignUnknown Sign = "unknown"
)

// RawRow is a single row as produced by the import layer: loosely typed
// values under human-authored column headers. Header casing and accents
// vary between exports, which is why resolution goes through the alias
// tables instead of direct key lookups.
type RawRow = map[string]any

// LedgerEntry is a normalized accounting-system transaction eligible for
// reconciliation.
type LedgerEntry struct {
	ID         string    `json:"id"`
	AccountID  int       `json:"account_id"`
	Date       time.Time `json:"date"`
	ExactKey   string    `json:"exact_key"`
	FuzzyText  string    `json:"fuzzy_text"`
	AmountHome float64   `json:"amount_home"`
	Sign       Sign      `json:"sign"`
}

// BankTxn is a normalized row from a bank statement export. Amounts are
// already converted to home currency: positive for credits, negative for
// debits.
type BankTxn struct {
	ID                 string    `json:"id"`
	AccountID          int       `json:"account_id"`
	Date               time.Time `json:"date"`
	ConfirmationNumber string    `json:"confirmation_number"`
	Description        string    `json:"description"`
	AmountHome         float64   `json:"amount_home"`
	Sign               Sign      `json:"sign"`
}

// Period is the implicit date range of one reconciliation run, derived
// from the min and max dates seen on the bank side.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LedgerDrops counts ledger rows excluded during normalization.
// Dropped rows are not errors: exports routinely contain entries for
// accounts outside the reconciliation run.
type LedgerDrops struct {
	UnknownAccount  int `json:"unknown_account"`
	NonReconcilable int `json:"non_reconcilable"`
	BadDate         int `json:"bad_date"`
	BadAmount       int `json:"bad_amount"`
}

// Total returns the total number of dropped ledger rows.
func (d LedgerDrops) Total() int {
	return d.UnknownAccount + d.NonReconcilable + d.BadDate + d.BadAmount
}

// BankDrops counts bank rows excluded during normalization.
type BankDrops struct {
	NoAmount    int `json:"no_amount"`
	BothColumns int `json:"both_columns"`
	BadDate     int `json:"bad_date"`
}

// Total returns the total number of dropped bank rows.
func (d BankDrops) Total() int {
	return d.NoAmount + d.BothColumns + d.BadDate
}
