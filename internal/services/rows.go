package services

import (
	"context"
	"fmt"

	"github.com/custodia/backend/internal/models"
	"github.com/custodia/backend/internal/store"
)

// loadLedgerRows reads the whole data region in one range read and maps it to
// rows in physical order. A single bulk read keeps each operation at one store
// round trip instead of one per cell.
func loadLedgerRows(ctx context.Context, ls store.LedgerStore) ([]models.LedgerRow, error) {
	last, err := ls.LastRow(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading ledger extent: %w", err)
	}
	if last < store.StartRow {
		return nil, nil
	}

	grid, err := ls.ReadRange(ctx, store.StartRow, store.FirstCol, last-store.StartRow+1, store.NumCols)
	if err != nil {
		return nil, fmt.Errorf("reading ledger rows: %w", err)
	}

	rows := make([]models.LedgerRow, 0, len(grid))
	for i, cells := range grid {
		rows = append(rows, models.LedgerRow{
			Row:             store.StartRow + i,
			ExitDate:        cells[store.ColExitDate-store.FirstCol],
			BadgeID:         cells[store.ColBadgeID-store.FirstCol],
			ExitCredential:  cells[store.ColExitCred-store.FirstCol],
			Division:        cells[store.ColDivision-store.FirstCol],
			EntryCredential: cells[store.ColEntryCred-store.FirstCol],
			EntryDate:       cells[store.ColEntryDate-store.FirstCol],
		})
	}
	return rows, nil
}

// rowsForBadge filters a snapshot down to one badge's history, in row order.
func rowsForBadge(rows []models.LedgerRow, badgeID string) []models.LedgerRow {
	var matched []models.LedgerRow
	for _, r := range rows {
		if r.BadgeID == badgeID {
			matched = append(matched, r)
		}
	}
	return matched
}
