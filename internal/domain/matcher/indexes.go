package matcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/uGE89/gestion-compras-app-sub000/internal/domain/normalizer"
)

// Indexes holds the three lookup structures built over one ledger-entry
// snapshot. Built once per (account, period) load, immutable afterwards;
// re-running BuildIndexes fully replaces the previous indexes.
type Indexes struct {
	byExactKey  map[string][]normalizer.LedgerEntry
	byToken     map[string][]normalizer.LedgerEntry
	byDayBucket map[string][]normalizer.LedgerEntry
}

// dayBucketKey keys the day-bucket index by account, sign and calendar day.
func dayBucketKey(accountID int, sign normalizer.Sign, date time.Time) string {
	return fmt.Sprintf("%d|%s|%s", accountID, sign, date.Format("2006-01-02"))
}

// BuildIndexes builds the exact-key, numeric-token and day-bucket indexes
// over the given ledger entries. A single pass over entries and their
// tokens; entries with an unknown sign are excluded from the sign-scoped
// day-bucket index but still appear in the other two.
func BuildIndexes(entries []normalizer.LedgerEntry) *Indexes {
	idx := &Indexes{
		byExactKey:  make(map[string][]normalizer.LedgerEntry),
		byToken:     make(map[string][]normalizer.LedgerEntry),
		byDayBucket: make(map[string][]normalizer.LedgerEntry),
	}

	for _, e := range entries {
		if key := strings.TrimSpace(e.ExactKey); key != "" {
			idx.byExactKey[key] = append(idx.byExactKey[key], e)
		}

		for _, tok := range normalizer.ExtractTokens(e.FuzzyText) {
			idx.byToken[tok] = append(idx.byToken[tok], e)
		}

		if e.Sign != normalizer.SignUnknown {
			bucket := dayBucketKey(e.AccountID, e.Sign, e.Date)
			idx.byDayBucket[bucket] = append(idx.byDayBucket[bucket], e)
		}
	}

	return idx
}
