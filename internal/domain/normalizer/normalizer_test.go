package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return NewCatalog([]Account{
		{ID: 2, Name: "Banco Central", Reconcilable: true},
		{ID: 3, Name: "Caja Chica", Reconcilable: false},
		{ID: 7, Name: "Banco Céntrico", Reconcilable: true},
	})
}

func TestCatalog_Resolve_CaseInsensitive(t *testing.T) {
	catalog := testCatalog()

	for _, name := range []string{"Banco Central", "banco central", "BANCO CENTRAL", "  Banco   Central "} {
		account, ok := catalog.Resolve(name)
		require.True(t, ok, "expected %q to resolve", name)
		assert.Equal(t, 2, account.ID)
	}
}

func TestCatalog_Resolve_AccentInsensitive(t *testing.T) {
	catalog := testCatalog()

	account, ok := catalog.Resolve("banco centrico")
	require.True(t, ok)
	assert.Equal(t, 7, account.ID)
}

func TestCatalog_Resolve_Unknown(t *testing.T) {
	catalog := testCatalog()

	_, ok := catalog.Resolve("Cuenta Inexistente")
	assert.False(t, ok)
}

func TestExtractTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "duplicate hyphenated tokens collapse, not merge",
			text: "Ref 123456-123456 y 99",
			want: []string{"123456"},
		},
		{
			name: "pieces joined only when no whole run exists",
			text: "dep 12-34 56",
			want: []string{"123456"},
		},
		{
			name: "whole run suppresses joining of short pieces",
			text: "op 987654 saldo 12-34",
			want: []string{"987654"},
		},
		{
			name: "multiple distinct tokens",
			text: "transf 1000234 / 7654321",
			want: []string{"1000234", "7654321"},
		},
		{
			name: "short runs ignored",
			text: "cheque 12345",
			want: nil,
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTokens(tt.text))
		})
	}
}

func TestInferLedgerSign(t *testing.T) {
	tests := []struct {
		txnType string
		want    Sign
	}{
		{"Ingreso por transferencia", SignIn},
		{"ENTRADA", SignIn},
		{"Egreso cheque", SignOut},
		{"salida de caja", SignOut},
		{"Ajuste", SignUnknown},
		{"", SignUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, inferLedgerSign(tt.txnType), "type %q", tt.txnType)
	}
}

func ledgerRow(account, date, ref, obs, tipo string, amount any) RawRow {
	return RawRow{
		"Cuenta":        account,
		"Fecha":         date,
		"Referencia":    ref,
		"Observaciones": obs,
		"Tipo":          tipo,
		"Monto":         amount,
	}
}

func TestNormalizeLedger(t *testing.T) {
	// Arrange
	catalog := testCatalog()
	rows := []RawRow{
		ledgerRow("Banco Central", "2024-01-05", "123", "dep 445566x", "Ingreso", 5360.0),
		ledgerRow("banco central", "05/01/2024", "", "pago 998877-11", "Egreso", "1,200.50"),
		ledgerRow("Cuenta Fantasma", "2024-01-06", "x", "", "Ingreso", 10.0),
		ledgerRow("Caja Chica", "2024-01-06", "x", "", "Ingreso", 10.0),
		ledgerRow("Banco Central", "no-es-fecha", "x", "", "Ingreso", 10.0),
		ledgerRow("Banco Central", "2024-01-07", "x", "", "Ingreso", "no-numerico"),
	}

	// Act
	entries, drops := NormalizeLedger(rows, catalog)

	// Assert
	require.Len(t, entries, 2)
	assert.Equal(t, 1, drops.UnknownAccount)
	assert.Equal(t, 1, drops.NonReconcilable)
	assert.Equal(t, 1, drops.BadDate)
	assert.Equal(t, 1, drops.BadAmount)

	first := entries[0]
	assert.Equal(t, 2, first.AccountID)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "123", first.ExactKey)
	assert.Equal(t, SignIn, first.Sign)
	assert.Equal(t, 5360.0, first.AmountHome)

	second := entries[1]
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), second.Date, "day-first date accepted")
	assert.Equal(t, 1200.50, second.AmountHome, "thousands separator stripped")
	assert.Equal(t, SignOut, second.Sign)
	assert.NotEmpty(t, second.ID, "missing id gets a generated one")
}

func TestNormalizeLedger_HeaderAliasing(t *testing.T) {
	// Same data under differently worded, accented headers.
	catalog := testCatalog()
	rows := []RawRow{
		{
			"NOMBRE CUENTA":       "Banco Central",
			"Fecha de Operación":  "2024-02-01",
			"No. Documento":       "555",
			"Detalle":             "abono 123456",
			"Tipo de Transacción": "Entrada",
			"Importe":             99.0,
		},
	}

	entries, drops := NormalizeLedger(rows, catalog)

	require.Len(t, entries, 1)
	assert.Zero(t, drops.Total())
	assert.Equal(t, "555", entries[0].ExactKey)
	assert.Equal(t, "abono 123456", entries[0].FuzzyText)
	assert.Equal(t, SignIn, entries[0].Sign)
}

func bankRow(date, conf, desc string, debit, credit any) RawRow {
	return RawRow{
		"Fecha":        date,
		"Confirmación": conf,
		"Descripción":  desc,
		"Débito":       debit,
		"Crédito":      credit,
	}
}

func TestNormalizeBank(t *testing.T) {
	// Arrange
	rows := []RawRow{
		bankRow("2024-01-03", "123", "deposito 445566", 0.0, 5360.0),
		bankRow("2024-01-10", "", "cheque 778899", 1200.0, 0.0),
		bankRow("2024-01-08", "", "sin monto", 0.0, 0.0),
		bankRow("2024-01-08", "", "ambiguo", 10.0, 10.0),
		bankRow("fecha-mala", "", "x", 5.0, 0.0),
	}

	// Act
	txns, period, drops := NormalizeBank(rows, 2, 1.0)

	// Assert
	require.Len(t, txns, 2)
	assert.Equal(t, 1, drops.NoAmount)
	assert.Equal(t, 1, drops.BothColumns, "rows with both columns set are invalid, not credit-preferred")
	assert.Equal(t, 1, drops.BadDate)

	credit := txns[0]
	assert.Equal(t, SignIn, credit.Sign)
	assert.Equal(t, 5360.0, credit.AmountHome)
	assert.Equal(t, "123", credit.ConfirmationNumber)
	assert.Equal(t, 2, credit.AccountID)
	assert.NotEmpty(t, credit.ID)

	debit := txns[1]
	assert.Equal(t, SignOut, debit.Sign)
	assert.Equal(t, -1200.0, debit.AmountHome)

	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), period.Start)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), period.End)
}

func TestNormalizeBank_ExchangeRate(t *testing.T) {
	rows := []RawRow{
		bankRow("2024-01-03", "", "retiro usd", 100.0, 0.0),
	}

	txns, _, _ := NormalizeBank(rows, 2, 36.5)

	require.Len(t, txns, 1)
	assert.InDelta(t, -3650.0, txns[0].AmountHome, 0.0001)
}

func TestNormalizeBank_GeneratedIDsAreUnique(t *testing.T) {
	rows := []RawRow{
		bankRow("2024-01-03", "", "a", 0.0, 10.0),
		bankRow("2024-01-03", "", "b", 0.0, 10.0),
	}

	txns, _, _ := NormalizeBank(rows, 2, 1.0)

	require.Len(t, txns, 2)
	assert.NotEqual(t, txns[0].ID, txns[1].ID)
}
