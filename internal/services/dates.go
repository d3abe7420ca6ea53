package services

import (
	"fmt"
	"time"

	"github.com/custodia/backend/internal/models"
)

// ledgerDateLayout is the storage format for every date cell.
const ledgerDateLayout = "02/01/2006"

// Accepted submission formats: the HTML date input wire format plus already
// formatted day-first values, zero-padded or not.
var inputDateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006"}

// normalizeDate converts a submitted date into the dd/MM/yyyy storage format.
func normalizeDate(raw string) (string, error) {
	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(ledgerDateLayout), nil
		}
	}
	return "", fmt.Errorf("fecha inválida: %q", raw)
}

// parseLedgerDate reads a stored date cell. Sentinel and empty cells report
// ok=false and sort before any real date.
func parseLedgerDate(s string) (time.Time, bool) {
	if s == "" || s == models.Sentinel {
		return time.Time{}, false
	}
	for _, layout := range []string{"02/01/2006", "2/1/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// sameLedgerDate compares two stored date cells by calendar day, tolerating
// unpadded historical values.
func sameLedgerDate(a, b string) bool {
	ta, okA := parseLedgerDate(a)
	tb, okB := parseLedgerDate(b)
	if !okA || !okB {
		return a == b
	}
	return ta.Equal(tb)
}
