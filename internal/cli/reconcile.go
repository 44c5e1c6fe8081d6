package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/uGE89/gestion-compras-app-sub000/internal/application/reconcile"
	"github.com/uGE89/gestion-compras-app-sub000/internal/domain/matcher"
	"github.com/uGE89/gestion-compras-app-sub000/internal/domain/normalizer"
	"github.com/uGE89/gestion-compras-app-sub000/internal/infrastructure/config"
	"github.com/uGE89/gestion-compras-app-sub000/internal/infrastructure/logging"
	"github.com/uGE89/gestion-compras-app-sub000/internal/infrastructure/storage"
)

// RunReconcile runs the whole engine against two JSON row files and prints
// the top candidates per bank transaction.
func RunReconcile(cfg *config.Config, flags *ReconcileFlags) error {
	if flags.LedgerPath == "" || flags.BankPath == "" {
		return fmt.Errorf("both -ledger and -bank are required")
	}
	if flags.AccountID <= 0 {
		return fmt.Errorf("-account must be a positive account id")
	}

	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "reconcile")

	ledgerRows, err := readRows(flags.LedgerPath)
	if err != nil {
		return fmt.Errorf("failed to read ledger rows: %w", err)
	}
	bankRows, err := readRows(flags.BankPath)
	if err != nil {
		return fmt.Errorf("failed to read bank rows: %w", err)
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	service := reconcile.NewService(
		store,
		BuildCatalog(cfg.Reconcile),
		matcher.NewMatcher(BuildMatcherConfig(cfg.Reconcile)),
		logger,
	)

	run, err := service.LoadPeriod(context.Background(), flags.AccountID, ledgerRows, bankRows, flags.Rate)
	if err != nil {
		return err
	}

	PrintRunHeader(run)
	for _, txn := range run.Pending() {
		PrintCandidates(run, txn, flags.Top)
	}
	PrintSummary(service.Summary(run))

	return nil
}

// readRows decodes a JSON array of raw rows from a file.
func readRows(path string) ([]normalizer.RawRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []normalizer.RawRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// PrintRunHeader prints the loaded period and row counts.
func PrintRunHeader(run *reconcile.Run) {
	fmt.Printf("Session: %s\n", run.Session.Key)
	fmt.Printf("Bank: %d rows (%d dropped) | Ledger: %d rows (%d dropped)\n",
		len(run.Bank), run.BankDrops.Total(),
		len(run.Ledger), run.LedgerDrops.Total())
	fmt.Println(strings.Repeat("-", 60))
}

// PrintCandidates prints the top candidates for one bank transaction.
func PrintCandidates(run *reconcile.Run, txn normalizer.BankTxn, top int) {
	fmt.Printf("\n%s  %10.2f  %s\n", txn.Date.Format("2006-01-02"), txn.AmountHome, txn.Description)

	candidates := run.Candidates(txn.ID)
	if len(candidates) == 0 {
		fmt.Println("  (no candidates)")
		return
	}
	if top > 0 && len(candidates) > top {
		candidates = candidates[:top]
	}

	for i := range candidates {
		c := &candidates[i]
		marker := " "
		if c.WithinTolerance {
			marker = "*"
		}
		fmt.Printf("  %s [%s] sum=%.2f err=%.2f lag=%dd %s\n",
			marker, c.Tier(), c.Sum, c.Error, c.MaxLagDays,
			strings.Join(c.LedgerIDs(), "+"))
	}
}

// PrintSummary prints the run summary.
func PrintSummary(summary reconcile.Summary) {
	fmt.Println("\n" + strings.Repeat("-", 60))
	fmt.Printf("Summary: Bank=%d Ledger=%d Confirmed=%d Pending=%d\n",
		summary.BankCount, summary.LedgerCount,
		summary.ConfirmedCount, summary.PendingCount)
	fmt.Printf("Bank total=%.2f Confirmed total=%.2f\n",
		summary.BankTotal, summary.ConfirmedTotal)
}
