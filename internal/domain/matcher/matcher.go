// Package matcher proposes ledger-entry candidates for bank transactions.
//
// For each bank transaction the matcher queries three indexes in priority
// tiers: exact reference lookup, numeric-token overlap, and a date-windowed
// amount-tolerant search that includes a greedy multi-entry grouping. All
// tiers always run; their results are merged by group signature, scored and
// ranked. An empty candidate list is a valid outcome meaning "no automatic
// suggestion".
//
// Example usage:
//
//	idx := matcher.BuildIndexes(entries)
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	candidates := m.CandidatesForBankTxn(txn, idx)
package matcher

import (
	"math"
	"sort"

	"github.com/uGE89/gestion-compras-app-sub000/internal/domain/normalizer"
)

// Matcher proposes candidates for bank transactions.
type Matcher struct {
	config Config
}

// NewMatcher creates a matcher with the given config.
func NewMatcher(config Config) *Matcher {
	return &Matcher{config: config}
}

// Config returns the matcher's policy.
func (m *Matcher) Config() Config {
	return m.config
}

// lagDays is the signed day offset from the bank transaction's date to the
// ledger entry's date. Positive means the entry is dated after the bank
// transaction. Both dates are midnight UTC, so the division is exact.
func lagDays(entry normalizer.LedgerEntry, txn normalizer.BankTxn) int {
	return int(entry.Date.Sub(txn.Date).Hours() / 24)
}

// withinWindow reports whether the given day offset falls inside the
// configured date window.
func (m *Matcher) withinWindow(lag int) bool {
	return lag >= m.config.MinLagDays && lag <= m.config.MaxLagDays
}

// filterForTxn keeps entries on the same account with the same sign whose
// date falls inside the window around the bank transaction.
func (m *Matcher) filterForTxn(entries []normalizer.LedgerEntry, txn normalizer.BankTxn) []normalizer.LedgerEntry {
	var kept []normalizer.LedgerEntry
	for _, e := range entries {
		if e.AccountID != txn.AccountID || e.Sign != txn.Sign {
			continue
		}
		if !m.withinWindow(lagDays(e, txn)) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// newCandidate builds a candidate for the given group, computing its sum,
// error, tolerance check and maximum date lag against the bank transaction.
func (m *Matcher) newCandidate(group []normalizer.LedgerEntry, tier Tier, txn normalizer.BankTxn) Candidate {
	var sum float64
	maxLag := 0
	for _, e := range group {
		sum += e.AmountHome
		if lag := int(math.Abs(float64(lagDays(e, txn)))); lag > maxLag {
			maxLag = lag
		}
	}

	err := sum - txn.AmountHome
	return Candidate{
		Group:           group,
		Tiers:           []Tier{tier},
		Sum:             sum,
		Error:           err,
		WithinTolerance: math.Abs(err) <= m.config.Tolerance(txn.AmountHome),
		MaxLagDays:      maxLag,
	}
}

// CandidatesForBankTxn returns the merged, ranked candidate list for one
// bank transaction. It never fails for well-formed input; an empty result
// means the operator has to search manually.
func (m *Matcher) CandidatesForBankTxn(txn normalizer.BankTxn, idx *Indexes) []Candidate {
	var found []Candidate

	// Tier 1: exact reference lookup on the bank confirmation number.
	if txn.ConfirmationNumber != "" {
		if hits := m.filterForTxn(idx.byExactKey[txn.ConfirmationNumber], txn); len(hits) > 0 {
			found = append(found, m.newCandidate(hits, TierExactGroup, txn))
			for _, e := range hits {
				found = append(found, m.newCandidate([]normalizer.LedgerEntry{e}, TierExactSingle, txn))
			}
		}
	}

	// Tier 2: numeric-token overlap between the bank description and
	// ledger observation text.
	if pool := m.tokenPool(txn, idx); len(pool) > 0 {
		found = append(found, m.newCandidate(pool, TierTokenGroup, txn))
		for _, e := range pool {
			found = append(found, m.newCandidate([]normalizer.LedgerEntry{e}, TierTokenSingle, txn))
		}
	}

	// Tier 3: date-windowed pool on (account, sign), amount-tolerant.
	pool := m.dayPool(txn, idx)
	for _, e := range pool {
		found = append(found, m.newCandidate([]normalizer.LedgerEntry{e}, TierDaySingle, txn))
	}
	if group := m.greedyGroup(pool, txn); len(group) > 0 {
		found = append(found, m.newCandidate(group, TierDayGroupGreedy, txn))
	}

	return m.mergeAndRank(found)
}

// tokenPool unions all ledger entries indexed under any numeric token of
// the bank description, deduplicated by id, filtered like tier 1.
func (m *Matcher) tokenPool(txn normalizer.BankTxn, idx *Indexes) []normalizer.LedgerEntry {
	tokens := normalizer.ExtractTokens(txn.Description)
	if len(tokens) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var union []normalizer.LedgerEntry
	for _, tok := range tokens {
		for _, e := range idx.byToken[tok] {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			union = append(union, e)
		}
	}
	return m.filterForTxn(union, txn)
}

// dayPool collects every entry bucketed under (account, sign, date+d) for
// each offset d in the date window. An entry lives in exactly one bucket,
// so the pool needs no deduplication.
func (m *Matcher) dayPool(txn normalizer.BankTxn, idx *Indexes) []normalizer.LedgerEntry {
	var pool []normalizer.LedgerEntry
	for d := m.config.MinLagDays; d <= m.config.MaxLagDays; d++ {
		bucket := dayBucketKey(txn.AccountID, txn.Sign, txn.Date.AddDate(0, 0, d))
		pool = append(pool, idx.byDayBucket[bucket]...)
	}
	return pool
}

// greedyGroup runs the greedy subset-sum over the day pool: sort by
// closeness of each entry's amount to the bank amount, cap the pool, then
// accumulate prefix sums until one lands within tolerance. Returns nil if
// no prefix does.
func (m *Matcher) greedyGroup(pool []normalizer.LedgerEntry, txn normalizer.BankTxn) []normalizer.LedgerEntry {
	if len(pool) == 0 {
		return nil
	}

	sorted := make([]normalizer.LedgerEntry, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		di := math.Abs(sorted[i].AmountHome - txn.AmountHome)
		dj := math.Abs(sorted[j].AmountHome - txn.AmountHome)
		return di < dj
	})

	if len(sorted) > m.config.GreedyPoolSize {
		sorted = sorted[:m.config.GreedyPoolSize]
	}

	tol := m.config.Tolerance(txn.AmountHome)
	var sum float64
	for i, e := range sorted {
		sum += e.AmountHome
		if math.Abs(sum-txn.AmountHome) <= tol {
			group := make([]normalizer.LedgerEntry, i+1)
			copy(group, sorted[:i+1])
			return group
		}
	}
	return nil
}

// mergeAndRank deduplicates candidates that propose the same ledger-entry
// group, accumulating every discovery tier, then scores and sorts the
// result. The group signature doubles as a stable secondary sort key so
// equal scores rank deterministically.
func (m *Matcher) mergeAndRank(found []Candidate) []Candidate {
	merged := make(map[string]*Candidate)
	order := make([]string, 0, len(found))

	for i := range found {
		c := found[i]
		sig := c.Signature()
		existing, ok := merged[sig]
		if !ok {
			merged[sig] = &c
			order = append(order, sig)
			continue
		}
		existing.Tiers = append(existing.Tiers, c.Tiers...)
	}

	result := make([]Candidate, 0, len(order))
	for _, sig := range order {
		c := merged[sig]
		sort.Slice(c.Tiers, func(i, j int) bool { return c.Tiers[i].Weight() < c.Tiers[j].Weight() })
		c.Score = float64(c.Tier().Weight())*1_000_000 +
			math.Abs(c.Error)*1_000 +
			float64(c.MaxLagDays)*10 +
			float64(len(c.Group))
		result = append(result, *c)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score < result[j].Score
		}
		return result[i].Signature() < result[j].Signature()
	})
	return result
}
