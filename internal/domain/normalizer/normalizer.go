// Package normalizer converts raw, loosely typed rows from the two source
// exports into the canonical LedgerEntry and BankTxn shapes used by the
// matching engine.
//
// Both exports are human-authored spreadsheets: column headers vary in
// casing, accents and wording, amounts may be strings with separators, and
// rows for accounts outside the reconciliation run are expected. Rows that
// cannot be normalized are dropped and counted, never surfaced as errors.
package normalizer

import (
	"regexp"

	"github.com/google/uuid"
)

// signInPattern and signOutPattern classify the free-text transaction-type
// field of ledger rows. First match wins; in is tested before out.
var (
	signInPattern  = regexp.MustCompile(`(?i)\b(ingreso|entrada|in)\b`)
	signOutPattern = regexp.MustCompile(`(?i)\b(egreso|salida|out)\b`)
)

// inferLedgerSign derives a Sign from the transaction-type text of a
// ledger row.
func inferLedgerSign(txnType string) Sign {
	switch {
	case signInPattern.MatchString(txnType):
		return SignIn
	case signOutPattern.MatchString(txnType):
		return SignOut
	default:
		return SignUnknown
	}
}

// NormalizeLedger converts raw ledger rows into LedgerEntry records.
//
// Rows are dropped when the account name does not resolve in the catalog,
// the resolved account is not reconcilable, the date is missing or
// malformed, or the amount cannot be parsed. A row with an unknown sign is
// kept; sign-scoped index tiers exclude it later.
func NormalizeLedger(rows []RawRow, catalog *Catalog) ([]LedgerEntry, LedgerDrops) {
	var drops LedgerDrops
	if len(rows) == 0 {
		return nil, drops
	}

	hm := resolveHeaders(rows[0], ledgerAliases)
	entries := make([]LedgerEntry, 0, len(rows))

	for _, row := range rows {
		account, ok := catalog.Resolve(cellString(row, hm, fieldAccount))
		if !ok {
			drops.UnknownAccount++
			continue
		}
		if !account.Reconcilable {
			drops.NonReconcilable++
			continue
		}

		date, ok := cellDate(row, hm, fieldDate)
		if !ok {
			drops.BadDate++
			continue
		}

		amount, ok := cellFloat(row, hm, fieldAmount)
		if !ok {
			drops.BadAmount++
			continue
		}

		id := cellString(row, hm, fieldID)
		if id == "" {
			id = uuid.NewString()
		}

		entries = append(entries, LedgerEntry{
			ID:         id,
			AccountID:  account.ID,
			Date:       date,
			ExactKey:   cellString(row, hm, fieldExactKey),
			FuzzyText:  cellString(row, hm, fieldFuzzyText),
			AmountHome: amount,
			Sign:       inferLedgerSign(cellString(row, hm, fieldType)),
		})
	}

	return entries, drops
}

// NormalizeBank converts raw bank-statement rows into BankTxn records for
// the account being reconciled and derives the statement period from the
// min and max dates seen.
//
// Exactly one of the debit/credit columns must carry a nonzero value: rows
// with neither are dropped, and rows with both are dropped as invalid
// rather than silently preferring one column. Amounts are converted to
// home currency with the caller-supplied exchange rate. Statement exports
// carry no stable natural key, so every transaction gets a generated id.
func NormalizeBank(rows []RawRow, accountID int, rate float64) ([]BankTxn, Period, BankDrops) {
	var drops BankDrops
	var period Period
	if len(rows) == 0 {
		return nil, period, drops
	}
	if rate == 0 {
		rate = 1
	}

	hm := resolveHeaders(rows[0], bankAliases)
	txns := make([]BankTxn, 0, len(rows))

	for _, row := range rows {
		debit, _ := cellFloat(row, hm, fieldDebit)
		credit, _ := cellFloat(row, hm, fieldCredit)
		switch {
		case debit == 0 && credit == 0:
			drops.NoAmount++
			continue
		case debit != 0 && credit != 0:
			drops.BothColumns++
			continue
		}

		date, ok := cellDate(row, hm, fieldDate)
		if !ok {
			drops.BadDate++
			continue
		}

		txn := BankTxn{
			ID:                 uuid.NewString(),
			AccountID:          accountID,
			Date:               date,
			ConfirmationNumber: cellString(row, hm, fieldConfirmation),
			Description:        cellString(row, hm, fieldDescription),
		}
		if credit != 0 {
			txn.AmountHome = credit * rate
			txn.Sign = SignIn
		} else {
			txn.AmountHome = -debit * rate
			txn.Sign = SignOut
		}

		if period.Start.IsZero() || date.Before(period.Start) {
			period.Start = date
		}
		if period.End.IsZero() || date.After(period.End) {
			period.End = date
		}

		txns = append(txns, txn)
	}

	return txns, period, drops
}
