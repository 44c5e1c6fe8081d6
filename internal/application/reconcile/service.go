// Package reconcile orchestrates a reconciliation run: normalizing the two
// source exports, building the ledger indexes, generating candidates, and
// recording the operator's confirmed matches in the session store.
//
// Example usage:
//
//	svc := reconcile.NewService(store, catalog, matcher.NewMatcher(cfg), logger)
//	run, err := svc.LoadPeriod(ctx, 2, ledgerRows, bankRows, 1.0)
//	if err != nil { ... }
//	for _, txn := range run.Pending() {
//		candidates := run.Candidates(txn.ID)
//		...
//	}
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/uGE89/gestion-compras-app-sub000/internal/domain/matcher"
	"github.com/uGE89/gestion-compras-app-sub000/internal/domain/normalizer"
	"github.com/uGE89/gestion-compras-app-sub000/internal/infrastructure/storage"
)

// TierManual marks a confirmed match whose ledger group was assembled by
// the operator rather than discovered by a candidate tier.
const TierManual = "manual"

// Sentinel errors for invalid Confirm/Unconfirm arguments.
var (
	ErrUnknownBankTxn     = errors.New("unknown bank transaction")
	ErrUnknownLedgerEntry = errors.New("unknown ledger entry")
)

// dateLayout is the ISO form used for period boundaries in session keys.
const dateLayout = "2006-01-02"

// Service coordinates normalization, matching and session persistence.
type Service struct {
	repo    storage.Repository
	catalog *normalizer.Catalog
	matcher *matcher.Matcher
	logger  *slog.Logger
}

// NewService creates a reconciliation service.
func NewService(repo storage.Repository, catalog *normalizer.Catalog, m *matcher.Matcher, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		matcher: m,
		logger:  logger,
	}
}

// Run is an in-memory snapshot of one loaded period: the normalized rows,
// the prebuilt indexes, and the session holding confirmed matches. A Run is
// not safe for concurrent mutation; the API layer serializes access per key.
type Run struct {
	Session     *storage.Session
	Period      normalizer.Period
	Ledger      []normalizer.LedgerEntry
	Bank        []normalizer.BankTxn
	LedgerDrops normalizer.LedgerDrops
	BankDrops   normalizer.BankDrops

	matcher    *matcher.Matcher
	indexes    *matcher.Indexes
	byBankID   map[string]normalizer.BankTxn
	byLedgerID map[string]normalizer.LedgerEntry
}

// Summary reports the aggregate state of a run.
type Summary struct {
	SessionKey     string    `json:"session_key"`
	AccountID      int       `json:"account_id"`
	PeriodStart    string    `json:"period_start"`
	PeriodEnd      string    `json:"period_end"`
	BankCount      int       `json:"bank_count"`
	LedgerCount    int       `json:"ledger_count"`
	ConfirmedCount int       `json:"confirmed_count"`
	PendingCount   int       `json:"pending_count"`
	LedgerDropped  int       `json:"ledger_dropped"`
	BankDropped    int       `json:"bank_dropped"`
	BankTotal      float64   `json:"bank_total"`
	ConfirmedTotal float64   `json:"confirmed_total"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// LoadPeriod normalizes both exports, derives the statement period from the
// bank side, and loads or creates the session for (account, period).
//
// The normalized rows are written to the row cache as a best-effort
// optimization; a cache write failure is logged and otherwise ignored.
func (s *Service) LoadPeriod(_ context.Context, accountID int, ledgerRows, bankRows []normalizer.RawRow, rate float64) (*Run, error) {
	bank, period, bankDrops := normalizer.NormalizeBank(bankRows, accountID, rate)
	if len(bank) == 0 {
		return nil, fmt.Errorf("no usable bank rows for account %d", accountID)
	}

	ledger, ledgerDrops := normalizer.NormalizeLedger(ledgerRows, s.catalog)

	s.logger.Info("period normalized",
		"account_id", accountID,
		"bank_rows", len(bank),
		"bank_dropped", bankDrops.Total(),
		"ledger_rows", len(ledger),
		"ledger_dropped", ledgerDrops.Total(),
	)

	key := storage.SessionKey(accountID, period.Start.Format(dateLayout), period.End.Format(dateLayout))

	if err := s.repo.PutCachedRows(key, &storage.CachedRows{Ledger: ledger, Bank: bank}); err != nil {
		s.logger.Warn("row cache write failed", "key", key, "error", err)
	}

	session, err := s.loadOrCreateSession(key, accountID, period)
	if err != nil {
		return nil, err
	}

	return s.buildRun(session, period, ledger, bank, ledgerDrops, bankDrops), nil
}

// LoadCachedPeriod rebuilds a Run for an existing session from the row
// cache, without re-parsing the source exports. Returns an error when
// either the session or its cached rows are gone.
func (s *Service) LoadCachedPeriod(_ context.Context, key string) (*Run, error) {
	session, err := s.repo.GetSession(key)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", key, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrSessionNotFound, key)
	}

	cached, err := s.repo.GetCachedRows(key)
	if err != nil {
		return nil, fmt.Errorf("failed to load row cache for %s: %w", key, err)
	}
	if cached == nil {
		return nil, fmt.Errorf("no cached rows for session %s", key)
	}

	period, err := sessionPeriod(session)
	if err != nil {
		return nil, err
	}

	return s.buildRun(session, period, cached.Ledger, cached.Bank, normalizer.LedgerDrops{}, normalizer.BankDrops{}), nil
}

func (s *Service) loadOrCreateSession(key string, accountID int, period normalizer.Period) (*storage.Session, error) {
	session, err := s.repo.GetSession(key)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", key, err)
	}
	if session != nil {
		return session, nil
	}

	session = storage.NewSession(accountID, period.Start.Format(dateLayout), period.End.Format(dateLayout))
	if err := s.repo.SaveSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session %s: %w", key, err)
	}
	s.logger.Info("session created", "key", key)
	return session, nil
}

func (s *Service) buildRun(session *storage.Session, period normalizer.Period, ledger []normalizer.LedgerEntry, bank []normalizer.BankTxn, ledgerDrops normalizer.LedgerDrops, bankDrops normalizer.BankDrops) *Run {
	byBankID := make(map[string]normalizer.BankTxn, len(bank))
	for _, txn := range bank {
		byBankID[txn.ID] = txn
	}
	byLedgerID := make(map[string]normalizer.LedgerEntry, len(ledger))
	for _, entry := range ledger {
		byLedgerID[entry.ID] = entry
	}

	return &Run{
		Session:     session,
		Period:      period,
		Ledger:      ledger,
		Bank:        bank,
		LedgerDrops: ledgerDrops,
		BankDrops:   bankDrops,
		matcher:     s.matcher,
		indexes:     matcher.BuildIndexes(ledger),
		byBankID:    byBankID,
		byLedgerID:  byLedgerID,
	}
}

func sessionPeriod(session *storage.Session) (normalizer.Period, error) {
	start, err := time.Parse(dateLayout, session.PeriodStart)
	if err != nil {
		return normalizer.Period{}, fmt.Errorf("corrupt period start on session %s: %w", session.Key, err)
	}
	end, err := time.Parse(dateLayout, session.PeriodEnd)
	if err != nil {
		return normalizer.Period{}, fmt.Errorf("corrupt period end on session %s: %w", session.Key, err)
	}
	return normalizer.Period{Start: start, End: end}, nil
}

// BankTxn returns the bank transaction with the given id.
func (r *Run) BankTxn(id string) (normalizer.BankTxn, bool) {
	txn, ok := r.byBankID[id]
	return txn, ok
}

// LedgerEntry returns the ledger entry with the given id.
func (r *Run) LedgerEntry(id string) (normalizer.LedgerEntry, bool) {
	entry, ok := r.byLedgerID[id]
	return entry, ok
}

// Candidates returns the ranked candidate groups for one bank transaction.
// An unknown id yields an empty list, same as a transaction with no
// plausible ledger counterpart.
func (r *Run) Candidates(bankTxnID string) []matcher.Candidate {
	txn, ok := r.byBankID[bankTxnID]
	if !ok {
		return nil
	}
	return r.matcher.CandidatesForBankTxn(txn, r.indexes)
}

// Pending returns the bank transactions without a confirmed match, in
// statement order.
func (r *Run) Pending() []normalizer.BankTxn {
	pending := make([]normalizer.BankTxn, 0, len(r.Bank))
	for _, txn := range r.Bank {
		if _, confirmed := r.Session.Matches[txn.ID]; !confirmed {
			pending = append(pending, txn)
		}
	}
	return pending
}

// Confirm records the operator's chosen ledger group for a bank
// transaction. Re-confirming replaces the previous match. The sum, error
// and tier are recomputed from the chosen group rather than trusted from
// the client; a group no candidate tier discovered is recorded as manual.
//
// The in-memory session is updated before persistence, so a storage write
// failure leaves the run usable and is returned to the caller.
func (s *Service) Confirm(_ context.Context, run *Run, bankTxnID string, ledgerIDs []string) (storage.ConfirmedMatch, error) {
	txn, ok := run.byBankID[bankTxnID]
	if !ok {
		return storage.ConfirmedMatch{}, fmt.Errorf("%w: %s", ErrUnknownBankTxn, bankTxnID)
	}
	if len(ledgerIDs) == 0 {
		return storage.ConfirmedMatch{}, fmt.Errorf("empty ledger group for bank transaction %s", bankTxnID)
	}

	var sum float64
	for _, id := range ledgerIDs {
		entry, ok := run.byLedgerID[id]
		if !ok {
			return storage.ConfirmedMatch{}, fmt.Errorf("%w: %s", ErrUnknownLedgerEntry, id)
		}
		sum += entry.AmountHome
	}

	match := storage.ConfirmedMatch{
		BankTxnID:   bankTxnID,
		LedgerIDs:   append([]string(nil), ledgerIDs...),
		Tier:        s.tierForGroup(run, txn, ledgerIDs),
		Sum:         sum,
		Error:       sum - txn.AmountHome,
		ConfirmedAt: time.Now().UTC(),
	}

	run.Session.Matches[bankTxnID] = match

	if err := s.repo.SaveMatch(run.Session.Key, match); err != nil {
		return match, fmt.Errorf("failed to persist match for %s: %w", bankTxnID, err)
	}

	s.logger.Info("match confirmed",
		"key", run.Session.Key,
		"bank_txn", bankTxnID,
		"ledger_ids", strings.Join(ledgerIDs, "+"),
		"tier", match.Tier,
	)
	return match, nil
}

// tierForGroup finds the discovery tier of a confirmed group by signature.
func (s *Service) tierForGroup(run *Run, txn normalizer.BankTxn, ledgerIDs []string) string {
	signature := groupSignature(ledgerIDs)
	for _, candidate := range s.matcher.CandidatesForBankTxn(txn, run.indexes) {
		if candidate.Signature() == signature {
			return string(candidate.Tier())
		}
	}
	return TierManual
}

// Unconfirm removes the confirmed match for a bank transaction. Removing
// an absent match is a no-op.
func (s *Service) Unconfirm(_ context.Context, run *Run, bankTxnID string) error {
	if _, ok := run.byBankID[bankTxnID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBankTxn, bankTxnID)
	}

	delete(run.Session.Matches, bankTxnID)

	if err := s.repo.DeleteMatch(run.Session.Key, bankTxnID); err != nil {
		return fmt.Errorf("failed to remove match for %s: %w", bankTxnID, err)
	}
	return nil
}

// SetOnlyPendingFilter persists the operator's pending-only view toggle.
func (s *Service) SetOnlyPendingFilter(_ context.Context, run *Run, value bool) error {
	run.Session.OnlyPendingFilter = value
	if err := s.repo.SetOnlyPendingFilter(run.Session.Key, value); err != nil {
		return fmt.Errorf("failed to persist filter for %s: %w", run.Session.Key, err)
	}
	return nil
}

// Summary reports the aggregate state of the run.
func (s *Service) Summary(run *Run) Summary {
	var bankTotal, confirmedTotal float64
	var confirmed int
	for _, txn := range run.Bank {
		bankTotal += txn.AmountHome
		if match, ok := run.Session.Matches[txn.ID]; ok {
			confirmed++
			confirmedTotal += match.Sum
		}
	}
	return Summary{
		SessionKey:     run.Session.Key,
		AccountID:      run.Session.AccountID,
		PeriodStart:    run.Session.PeriodStart,
		PeriodEnd:      run.Session.PeriodEnd,
		BankCount:      len(run.Bank),
		LedgerCount:    len(run.Ledger),
		ConfirmedCount: confirmed,
		PendingCount:   len(run.Bank) - confirmed,
		LedgerDropped:  run.LedgerDrops.Total(),
		BankDropped:    run.BankDrops.Total(),
		BankTotal:      bankTotal,
		ConfirmedTotal: confirmedTotal,
		GeneratedAt:    time.Now().UTC(),
	}
}

// groupSignature mirrors the candidate identity rule: ledger ids sorted
// and joined with "+".
func groupSignature(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return strings.Join(sorted, "+")
}
