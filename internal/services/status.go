package services

import (
	"context"
	"fmt"

	"github.com/custodia/backend/internal/models"
	"github.com/custodia/backend/internal/store"
)

// StatusResolver derives a badge's current custody state from its row history.
// Resolve is a pure read and takes no lock: a pending row observed mid-write
// is a legitimate state, not corruption.
type StatusResolver struct {
	store store.LedgerStore
}

func NewStatusResolver(ls store.LedgerStore) *StatusResolver {
	return &StatusResolver{store: ls}
}

// Resolve returns the badge's state, its most recent record and the full
// history. The most recent record is the row with the latest exit date, ties
// broken by physical row order (later row wins).
func (r *StatusResolver) Resolve(ctx context.Context, badgeID string) (*models.StatusResult, error) {
	rows, err := loadLedgerRows(ctx, r.store)
	if err != nil {
		return nil, err
	}

	history := rowsForBadge(rows, badgeID)
	if len(history) == 0 {
		return &models.StatusResult{
			Success: true,
			BadgeID: badgeID,
			State:   models.StateNotRegistered,
			Message: fmt.Sprintf("No se encontró ningún registro para el legajo %s", badgeID),
		}, nil
	}

	latest := history[0]
	for _, row := range history[1:] {
		if !exitedBefore(row, latest) {
			latest = row
		}
	}

	result := &models.StatusResult{
		Success:     true,
		BadgeID:     badgeID,
		MostRecent:  &latest,
		History:     history,
		State:       models.StateArchived,
		ActualState: models.UsageReturned,
	}
	if latest.Pending() {
		result.State = models.StateOut
		result.ActualState = models.UsageInUse
	}
	return result, nil
}

// exitedBefore orders rows by exit date; rows with no parseable exit date
// (sentinel return-only records) sort first.
func exitedBefore(a, b models.LedgerRow) bool {
	ta, okA := parseLedgerDate(a.ExitDate)
	tb, okB := parseLedgerDate(b.ExitDate)
	switch {
	case okA && okB:
		return ta.Before(tb)
	case okA:
		return false
	case okB:
		return true
	default:
		return a.Row < b.Row
	}
}
