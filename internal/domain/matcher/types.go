package matcher

import (
	"math"
	"sort"
	"strings"

	"github.com/uGE89/gestion-compras-app-sub000/internal/domain/normalizer"
)

// Tier identifies the strategy that discovered a candidate, ordered by
// confidence: exact reference beats fuzzy token overlap beats pure
// date/amount coincidence.
type Tier string

const (
	TierExactSingle    Tier = "exact-single"
	TierExactGroup     Tier = "exact-group"
	TierTokenSingle    Tier = "token-single"
	TierTokenGroup     Tier = "token-group"
	TierDaySingle      Tier = "day-single"
	TierDayGroupGreedy Tier = "day-group-greedy"
)

// tierWeights order tiers on an ordinal scale; lower ranks first.
var tierWeights = map[Tier]int{
	TierExactSingle:    0,
	TierExactGroup:     1,
	TierTokenSingle:    2,
	TierTokenGroup:     3,
	TierDaySingle:      4,
	TierDayGroupGreedy: 5,
}

// Weight returns the ordinal rank of the tier.
func (t Tier) Weight() int {
	return tierWeights[t]
}

// Config holds matching policy.
type Config struct {
	// MinLagDays and MaxLagDays bound the allowed day offset between a
	// ledger entry's date and the bank transaction's date. Negative means
	// the ledger entry precedes the bank transaction.
	MinLagDays int
	MaxLagDays int

	// ToleranceFloor and ToleranceRate define the amount tolerance:
	// max(ToleranceFloor, ToleranceRate*|amount|), evaluated against the
	// bank transaction's amount, not the candidate sum.
	ToleranceFloor float64
	ToleranceRate  float64

	// GreedyPoolSize caps how many pool entries the greedy subset-sum
	// step considers.
	GreedyPoolSize int
}

// DefaultConfig returns the standard matching policy.
func DefaultConfig() Config {
	return Config{
		MinLagDays:     -3,
		MaxLagDays:     15,
		ToleranceFloor: 5.0,
		ToleranceRate:  0.01,
		GreedyPoolSize: 20,
	}
}

// Tolerance returns the maximum acceptable absolute difference between a
// candidate group's sum and the given amount. Symmetric in the sign of
// amount and never below the floor.
func (c Config) Tolerance(amount float64) float64 {
	return math.Max(c.ToleranceFloor, c.ToleranceRate*math.Abs(amount))
}

// Candidate is a proposed match between one bank transaction and a group
// of one or more ledger entries.
type Candidate struct {
	// Group holds the proposed ledger entries.
	Group []normalizer.LedgerEntry `json:"group"`
	// Tiers lists every strategy that discovered this group, best first.
	Tiers []Tier `json:"tiers"`
	// Sum is the total home-currency amount of the group.
	Sum float64 `json:"sum"`
	// Error is Sum minus the bank transaction's amount (signed).
	Error float64 `json:"error"`
	// WithinTolerance reports whether |Error| is inside the tolerance of
	// the bank transaction's amount.
	WithinTolerance bool `json:"within_tolerance"`
	// MaxLagDays is the largest absolute day difference between any group
	// member's date and the bank transaction's date.
	MaxLagDays int `json:"max_lag_days"`
	// Score is the computed rank; lower sorts first.
	Score float64 `json:"score"`

	signature string
}

// Tier returns the best (lowest-weight) discovery tier of the candidate.
func (c *Candidate) Tier() Tier {
	return c.Tiers[0]
}

// Signature returns the group's identity: sorted member ids joined by "+".
// Two candidates with the same signature propose the same ledger entries.
func (c *Candidate) Signature() string {
	if c.signature == "" {
		ids := c.LedgerIDs()
		sort.Strings(ids)
		c.signature = strings.Join(ids, "+")
	}
	return c.signature
}

// LedgerIDs returns the ids of the group members in group order.
func (c *Candidate) LedgerIDs() []string {
	ids := make([]string, len(c.Group))
	for i, e := range c.Group {
		ids[i] = e.ID
	}
	return ids
}
