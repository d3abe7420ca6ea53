package store

import (
	"context"
	"errors"
)

// Ledger geometry. Rows 1-3 are headers; data begins at StartRow. Columns are
// fixed-position semantic fields, numbered as in the original sheet (B..G).
const (
	StartRow = 4

	ColExitDate  = 2
	ColBadgeID   = 3
	ColExitCred  = 4
	ColDivision  = 5
	ColEntryCred = 6
	ColEntryDate = 7

	FirstCol = ColExitDate
	LastCol  = ColEntryDate
	NumCols  = LastCol - FirstCol + 1
)

// NextFreeRowKey names the counter holding the next insertion row hint.
const NextFreeRowKey = "next_free_row"

// ErrPropertyNotFound is returned by PropertyStore.GetProperty for absent keys.
var ErrPropertyNotFound = errors.New("property not found")

// LedgerStore is the key-addressed cell store backing the custody ledger.
// Rows and columns are 1-indexed. ReadRange returns a rowCount x colCount
// grid; cells never written come back as empty strings.
type LedgerStore interface {
	ReadRange(ctx context.Context, startRow, startCol, rowCount, colCount int) ([][]string, error)
	WriteCell(ctx context.Context, row, col int, value string) error
	// LastRow returns the highest row holding any value, 0 when empty.
	LastRow(ctx context.Context) (int, error)
	// NextFreeRowHint returns the maintained insertion-row counter, 0 when it
	// was never set. Callers must verify the hinted row before using it.
	NextFreeRowHint(ctx context.Context) (int, error)
	SetNextFreeRowHint(ctx context.Context, row int) error
}

// PropertyStore is the shared key-value channel used for cross-process
// coordination. It offers plain get/set/delete only; no compare-and-swap.
type PropertyStore interface {
	GetProperty(ctx context.Context, key string) (string, error)
	SetProperty(ctx context.Context, key, value string) error
	DeleteProperty(ctx context.Context, key string) error
}
