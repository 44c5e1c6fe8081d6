package reconcile

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uGE89/gestion-compras-app-sub000/internal/domain/matcher"
	"github.com/uGE89/gestion-compras-app-sub000/internal/domain/normalizer"
	"github.com/uGE89/gestion-compras-app-sub000/internal/infrastructure/storage"
)

// Helper to create a test logger
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testCatalog() *normalizer.Catalog {
	return normalizer.NewCatalog([]normalizer.Account{
		{ID: 2, Name: "Banco Central", Reconcilable: true},
		{ID: 3, Name: "Caja Chica", Reconcilable: false},
	})
}

func testService(repo storage.Repository) *Service {
	return NewService(repo, testCatalog(), matcher.NewMatcher(matcher.DefaultConfig()), testLogger())
}

// ledgerRow builds a raw ledger export row in the shape the importer sees.
func ledgerRow(id, date, account, exactKey, fuzzy string, amount float64, txnType string) normalizer.RawRow {
	return normalizer.RawRow{
		"ID":            id,
		"Fecha":         date,
		"Cuenta":        account,
		"No. Documento": exactKey,
		"Observaciones": fuzzy,
		"Importe":       amount,
		"Tipo":          txnType,
	}
}

// bankRow builds a raw bank statement row.
func bankRow(date, confirmation, description string, debit, credit float64) normalizer.RawRow {
	return normalizer.RawRow{
		"Fecha":        date,
		"Confirmacion": confirmation,
		"Descripcion":  description,
		"Debito":       debit,
		"Credito":      credit,
	}
}

func TestService_LoadPeriod_CreatesSession(t *testing.T) {
	// Arrange
	repo := storage.NewMockRepository()
	svc := testService(repo)

	ledgerRows := []normalizer.RawRow{
		ledgerRow("L1", "2024-03-01", "Banco Central", "123", "pago proveedor", -5360, "egreso"),
		ledgerRow("L2", "2024-03-02", "Caja Chica", "", "gasto menor", -50, "egreso"),
	}
	bankRows := []normalizer.RawRow{
		bankRow("2024-03-03", "123", "CHEQUE 123", 5360, 0),
		bankRow("2024-03-10", "", "DEPOSITO", 0, 900),
	}

	// Act
	run, err := svc.LoadPeriod(context.Background(), 2, ledgerRows, bankRows, 1.0)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, "2:2024-03-03:2024-03-10", run.Session.Key)
	assert.Len(t, run.Bank, 2)
	assert.Len(t, run.Ledger, 1, "non-reconcilable account row should be dropped")
	assert.Equal(t, 1, run.LedgerDrops.NonReconcilable)

	// Session persisted
	saved, err := repo.GetSession(run.Session.Key)
	require.NoError(t, err)
	require.NotNil(t, saved)

	// Rows cached
	cached, err := repo.GetCachedRows(run.Session.Key)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Len(t, cached.Bank, 2)
}

func TestService_LoadPeriod_ReusesExistingSession(t *testing.T) {
	// Arrange: a session with one confirmed match already exists
	repo := storage.NewMockRepository()
	svc := testService(repo)

	existing := storage.NewSession(2, "2024-03-03", "2024-03-03")
	existing.Matches["B-old"] = storage.ConfirmedMatch{BankTxnID: "B-old", Tier: TierManual}
	require.NoError(t, repo.SaveSession(existing))

	// Act
	run, err := svc.LoadPeriod(context.Background(), 2, nil, []normalizer.RawRow{
		bankRow("2024-03-03", "", "RETIRO", 100, 0),
	}, 1.0)

	// Assert: confirmed matches survive a reload
	require.NoError(t, err)
	assert.Equal(t, existing.Key, run.Session.Key)
	assert.Contains(t, run.Session.Matches, "B-old")
}

func TestService_LoadPeriod_NoBankRows(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := testService(repo)

	run, err := svc.LoadPeriod(context.Background(), 2, nil, nil, 1.0)

	require.Error(t, err)
	assert.Nil(t, run)
}

func TestService_LoadPeriod_CacheWriteFailureIsNotFatal(t *testing.T) {
	// Arrange: the row cache rejects writes
	repo := storage.NewMockRepository()
	repo.PutCacheErr = assert.AnError
	svc := testService(repo)

	// Act
	run, err := svc.LoadPeriod(context.Background(), 2, nil, []normalizer.RawRow{
		bankRow("2024-03-03", "", "RETIRO", 100, 0),
	}, 1.0)

	// Assert: the run still loads
	require.NoError(t, err)
	require.NotNil(t, run)
}

func TestService_LoadCachedPeriod(t *testing.T) {
	// Arrange: load once to populate session and cache
	repo := storage.NewMockRepository()
	svc := testService(repo)

	first, err := svc.LoadPeriod(context.Background(), 2, []normalizer.RawRow{
		ledgerRow("L1", "2024-03-01", "Banco Central", "123", "pago", -5360, "egreso"),
	}, []normalizer.RawRow{
		bankRow("2024-03-03", "123", "CHEQUE 123", 5360, 0),
	}, 1.0)
	require.NoError(t, err)

	// Act: rebuild from cache alone
	second, err := svc.LoadCachedPeriod(context.Background(), first.Session.Key)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.Session.Key, second.Session.Key)
	require.Len(t, second.Bank, 1)

	// The rebuilt run produces the same candidates
	candidates := second.Candidates(second.Bank[0].ID)
	require.NotEmpty(t, candidates)
	assert.Equal(t, matcher.TierExactSingle, candidates[0].Tier())
}

func TestService_LoadCachedPeriod_SessionGone(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := testService(repo)

	run, err := svc.LoadCachedPeriod(context.Background(), "2:2099-01-01:2099-01-31")

	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	assert.Nil(t, run)
}

func TestService_ConfirmAndPending(t *testing.T) {
	// Arrange
	repo := storage.NewMockRepository()
	svc := testService(repo)

	run, err := svc.LoadPeriod(context.Background(), 2, []normalizer.RawRow{
		ledgerRow("L1", "2024-03-01", "Banco Central", "123", "pago", -5360, "egreso"),
	}, []normalizer.RawRow{
		bankRow("2024-03-03", "123", "CHEQUE 123", 5360, 0),
		bankRow("2024-03-10", "", "DEPOSITO", 0, 900),
	}, 1.0)
	require.NoError(t, err)
	require.Len(t, run.Pending(), 2)

	cheque := run.Bank[0]

	// Act: confirm the exact match for the cheque
	match, err := svc.Confirm(context.Background(), run, cheque.ID, []string{"L1"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, string(matcher.TierExactSingle), match.Tier)
	assert.Equal(t, -5360.0, match.Sum)
	assert.Equal(t, 0.0, match.Error)

	pending := run.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "DEPOSITO", pending[0].Description)

	// Persisted on the session
	saved, err := repo.GetSession(run.Session.Key)
	require.NoError(t, err)
	assert.Contains(t, saved.Matches, cheque.ID)
}

func TestService_Confirm_ManualGroup(t *testing.T) {
	// Arrange: two entries far from the bank amount, no tier will propose them
	repo := storage.NewMockRepository()
	svc := testService(repo)

	run, err := svc.LoadPeriod(context.Background(), 2, []normalizer.RawRow{
		ledgerRow("L1", "2024-03-01", "Banco Central", "", "traspaso uno", -900, "egreso"),
		ledgerRow("L2", "2024-03-02", "Banco Central", "", "traspaso dos", -2000, "egreso"),
	}, []normalizer.RawRow{
		bankRow("2024-03-03", "", "RETIRO", 5360, 0),
	}, 1.0)
	require.NoError(t, err)

	// Act
	match, err := svc.Confirm(context.Background(), run, run.Bank[0].ID, []string{"L2", "L1"})

	// Assert: recorded as manual with recomputed sum and error
	require.NoError(t, err)
	assert.Equal(t, TierManual, match.Tier)
	assert.Equal(t, -2900.0, match.Sum)
	assert.InDelta(t, 2460.0, match.Error, 0.001)
}

func TestService_Confirm_UnknownIDs(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := testService(repo)

	run, err := svc.LoadPeriod(context.Background(), 2, nil, []normalizer.RawRow{
		bankRow("2024-03-03", "", "RETIRO", 100, 0),
	}, 1.0)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), run, "nope", []string{"L1"})
	assert.Error(t, err)

	_, err = svc.Confirm(context.Background(), run, run.Bank[0].ID, []string{"nope"})
	assert.Error(t, err)

	_, err = svc.Confirm(context.Background(), run, run.Bank[0].ID, nil)
	assert.Error(t, err)
}

func TestService_Confirm_StorageFailureKeepsRunState(t *testing.T) {
	// Arrange
	repo := storage.NewMockRepository()
	svc := testService(repo)

	run, err := svc.LoadPeriod(context.Background(), 2, []normalizer.RawRow{
		ledgerRow("L1", "2024-03-01", "Banco Central", "", "pago", -100, "egreso"),
	}, []normalizer.RawRow{
		bankRow("2024-03-03", "", "RETIRO", 100, 0),
	}, 1.0)
	require.NoError(t, err)

	repo.SaveMatchErr = assert.AnError

	// Act
	_, err = svc.Confirm(context.Background(), run, run.Bank[0].ID, []string{"L1"})

	// Assert: error surfaced, in-memory state updated anyway
	require.Error(t, err)
	assert.Contains(t, run.Session.Matches, run.Bank[0].ID)
	assert.Empty(t, run.Pending())
}

func TestService_Unconfirm(t *testing.T) {
	// Arrange
	repo := storage.NewMockRepository()
	svc := testService(repo)

	run, err := svc.LoadPeriod(context.Background(), 2, []normalizer.RawRow{
		ledgerRow("L1", "2024-03-01", "Banco Central", "", "pago", -100, "egreso"),
	}, []normalizer.RawRow{
		bankRow("2024-03-03", "", "RETIRO", 100, 0),
	}, 1.0)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), run, run.Bank[0].ID, []string{"L1"})
	require.NoError(t, err)
	require.Empty(t, run.Pending())

	// Act
	err = svc.Unconfirm(context.Background(), run, run.Bank[0].ID)

	// Assert
	require.NoError(t, err)
	assert.Len(t, run.Pending(), 1)

	saved, err := repo.GetSession(run.Session.Key)
	require.NoError(t, err)
	assert.Empty(t, saved.Matches)
}

func TestService_Summary(t *testing.T) {
	// Arrange
	repo := storage.NewMockRepository()
	svc := testService(repo)

	run, err := svc.LoadPeriod(context.Background(), 2, []normalizer.RawRow{
		ledgerRow("L1", "2024-03-01", "Banco Central", "", "pago", -100, "egreso"),
		ledgerRow("L2", "2024-03-02", "Caja Chica", "", "gasto", -50, "egreso"),
	}, []normalizer.RawRow{
		bankRow("2024-03-03", "", "RETIRO", 100, 0),
		bankRow("2024-03-05", "", "DEPOSITO", 0, 900),
	}, 1.0)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), run, run.Bank[0].ID, []string{"L1"})
	require.NoError(t, err)

	// Act
	summary := svc.Summary(run)

	// Assert
	assert.Equal(t, run.Session.Key, summary.SessionKey)
	assert.Equal(t, 2, summary.BankCount)
	assert.Equal(t, 1, summary.LedgerCount)
	assert.Equal(t, 1, summary.ConfirmedCount)
	assert.Equal(t, 1, summary.PendingCount)
	assert.Equal(t, 1, summary.LedgerDropped)
	assert.InDelta(t, 800.0, summary.BankTotal, 0.001)
	assert.InDelta(t, -100.0, summary.ConfirmedTotal, 0.001)
}

func TestRun_Candidates_UnknownTxn(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := testService(repo)

	run, err := svc.LoadPeriod(context.Background(), 2, nil, []normalizer.RawRow{
		bankRow("2024-03-03", "", "RETIRO", 100, 0),
	}, 1.0)
	require.NoError(t, err)

	assert.Empty(t, run.Candidates("nope"))
}
