package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canonical field names for the two row shapes. The alias tables below map
// each canonical field to the header variants seen in real exports; all
// variants are written in folded form (lowercase, no accents).
const (
	fieldID           = "id"
	fieldDate         = "date"
	fieldAccount      = "account"
	fieldExactKey     = "exact_key"
	fieldFuzzyText    = "fuzzy_text"
	fieldAmount       = "amount"
	fieldType         = "type"
	fieldConfirmation = "confirmation"
	fieldDescription  = "description"
	fieldDebit        = "debit"
	fieldCredit       = "credit"
)

// ledgerAliases maps canonical ledger fields to accepted header variants.
var ledgerAliases = map[string][]string{
	fieldID:        {"id", "codigo", "no.", "nro", "numero"},
	fieldDate:      {"fecha", "date", "fecha operacion", "fecha de operacion", "f. operacion"},
	fieldAccount:   {"cuenta", "account", "nombre cuenta", "cuenta contable", "nombre de cuenta"},
	fieldExactKey:  {"referencia", "reference", "ref", "documento", "no. documento", "comprobante"},
	fieldFuzzyText: {"observaciones", "observacion", "notas", "notes", "detalle", "glosa"},
	fieldAmount:    {"monto", "amount", "importe", "valor"},
	fieldType:      {"tipo", "type", "tipo transaccion", "tipo de transaccion", "movimiento"},
}

// bankAliases maps canonical bank-statement fields to accepted header variants.
var bankAliases = map[string][]string{
	fieldDate:         {"fecha", "date", "fecha operacion", "fecha de operacion", "f. operacion"},
	fieldConfirmation: {"confirmacion", "no. confirmacion", "confirmation", "referencia", "nro. operacion", "no. operacion"},
	fieldDescription:  {"descripcion", "description", "concepto", "detalle", "glosa"},
	fieldDebit:        {"debito", "debit", "cargo", "retiro", "salida"},
	fieldCredit:       {"credito", "credit", "abono", "deposito", "entrada"},
}

// headerMap maps a canonical field to the actual header key present in a
// given import. Resolved once per import, not per row.
type headerMap map[string]string

// resolveHeaders inspects the headers of a sample row and binds each
// canonical field to the first header whose folded form matches one of
// the field's alias variants. Fields with no matching header are simply
// absent from the result.
func resolveHeaders(sample RawRow, aliases map[string][]string) headerMap {
	folded := make(map[string]string, len(sample))
	for header := range sample {
		folded[fold(header)] = header
	}

	hm := make(headerMap, len(aliases))
	for field, variants := range aliases {
		for _, variant := range variants {
			if header, ok := folded[variant]; ok {
				hm[field] = header
				break
			}
		}
	}
	return hm
}

// cellString extracts a field from a row as a trimmed string.
func cellString(row RawRow, hm headerMap, field string) string {
	header, ok := hm[field]
	if !ok {
		return ""
	}
	switch v := row[header].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// cellFloat extracts a field from a row as a float64. String cells may
// carry thousands separators ("1,234.56").
func cellFloat(row RawRow, hm headerMap, field string) (float64, bool) {
	header, ok := hm[field]
	if !ok {
		return 0, false
	}
	switch v := row[header].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// dateLayouts are tried in order when parsing date cells. Exports mix ISO
// dates with day-first regional formats.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	time.RFC3339,
}

// cellDate extracts a field from a row as a calendar date (midnight UTC).
// Returns false when the cell is missing or unparseable.
func cellDate(row RawRow, hm headerMap, field string) (time.Time, bool) {
	raw := cellString(row, hm, field)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
