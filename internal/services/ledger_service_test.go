package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia/backend/internal/lock"
	"github.com/custodia/backend/internal/models"
	"github.com/custodia/backend/internal/store"
)

func newTestLedgerService(ms *store.MemoryStore) *LedgerService {
	lc := lock.NewCoordinator(ms, lock.Config{
		Key:            "ledger:write_lock",
		StaleThreshold: 20 * time.Second,
		MaxWait:        500 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
	})
	return NewLedgerService(ms, lc)
}

// ledgerRow reads one row back from the store for assertions.
func ledgerRow(t *testing.T, ms *store.MemoryStore, row int) models.LedgerRow {
	t.Helper()
	rows, err := loadLedgerRows(context.Background(), ms)
	require.NoError(t, err)
	for _, r := range rows {
		if r.Row == row {
			return r
		}
	}
	t.Fatalf("row %d not found", row)
	return models.LedgerRow{}
}

func TestLedgerService_RecordExit(t *testing.T) {
	ctx := context.Background()

	t.Run("first exit lands on the first data row", func(t *testing.T) {
		ms := store.NewMemoryStore()
		svc := newTestLedgerService(ms)

		res, err := svc.RecordExit(ctx, models.ExitRequest{
			ExitDate:       "2026-03-15",
			BadgeID:        "12345",
			ExitCredential: "54321",
			Division:       "Judicial",
		})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, store.StartRow, res.Row)
		assert.NotEmpty(t, res.OperationID)

		r := ledgerRow(t, ms, store.StartRow)
		assert.Equal(t, "15/03/2026", r.ExitDate)
		assert.Equal(t, "12345", r.BadgeID)
		assert.Equal(t, "54321", r.ExitCredential)
		assert.Equal(t, "Judicial", r.Division)
		assert.True(t, r.Pending())

		hint, err := ms.NextFreeRowHint(ctx)
		require.NoError(t, err)
		assert.Equal(t, store.StartRow+1, hint)

		status, err := svc.QueryStatus(ctx, "12345")
		require.NoError(t, err)
		assert.Equal(t, models.StateOut, status.State)
	})

	t.Run("resubmitting the same exit changes nothing", func(t *testing.T) {
		ms := store.NewMemoryStore()
		svc := newTestLedgerService(ms)

		req := models.ExitRequest{
			ExitDate:       "15/03/2026",
			BadgeID:        "12345",
			ExitCredential: "54321",
			Division:       "Judicial",
		}
		first, err := svc.RecordExit(ctx, req)
		require.NoError(t, err)
		require.True(t, first.Success)

		second, err := svc.RecordExit(ctx, req)
		require.NoError(t, err)
		assert.False(t, second.Success)
		assert.Equal(t, "info", second.Notification)
		assert.Contains(t, second.Message, "Ya existe una salida")
		require.NotNil(t, second.Existing)
		assert.Equal(t, "15/03/2026", second.Existing.ExitDate)

		last, err := ms.LastRow(ctx)
		require.NoError(t, err)
		assert.Equal(t, store.StartRow, last)
	})

	t.Run("open checkout blocks a new exit", func(t *testing.T) {
		ms := store.NewMemoryStore()
		svc := newTestLedgerService(ms)

		first, err := svc.RecordExit(ctx, models.ExitRequest{
			ExitDate:       "10/03/2026",
			BadgeID:        "12345",
			ExitCredential: "54321",
			Division:       "Judicial",
		})
		require.NoError(t, err)
		require.True(t, first.Success)

		second, err := svc.RecordExit(ctx, models.ExitRequest{
			ExitDate:       "15/03/2026",
			BadgeID:        "12345",
			ExitCredential: "99999",
			Division:       "Penal",
		})
		require.NoError(t, err)
		assert.False(t, second.Success)
		assert.Contains(t, second.Message, "pendiente de entrada")
		assert.Contains(t, second.Message, "10/03/2026")
	})

	t.Run("half-closed rows are finished off with sentinels", func(t *testing.T) {
		ms := store.NewMemoryStore()
		// Entry credential set but date missing: a row a partial write left
		// behind. It does not count as pending, so the new exit proceeds and
		// tidies it up.
		seedRow(t, ms, 4, "10/03/2026", "12345", "54321", "Judicial", models.Sentinel, "")
		svc := newTestLedgerService(ms)

		res, err := svc.RecordExit(ctx, models.ExitRequest{
			ExitDate:       "15/03/2026",
			BadgeID:        "12345",
			ExitCredential: "54321",
			Division:       "Judicial",
		})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, 5, res.Row)

		old := ledgerRow(t, ms, 4)
		assert.Equal(t, models.Sentinel, old.EntryDate)
	})

	t.Run("reuses an interior empty row before appending", func(t *testing.T) {
		ms := store.NewMemoryStore()
		seedRow(t, ms, 4, "10/03/2026", "11111", "54321", "Judicial", "54321", "11/03/2026")
		seedRow(t, ms, 6, "12/03/2026", "22222", "54321", "Penal", "54321", "13/03/2026")
		svc := newTestLedgerService(ms)

		res, err := svc.RecordExit(ctx, models.ExitRequest{
			ExitDate:       "15/03/2026",
			BadgeID:        "12345",
			ExitCredential: "54321",
			Division:       "Judicial",
		})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, 5, res.Row)
	})

	t.Run("rejects malformed fields before touching the ledger", func(t *testing.T) {
		ms := store.NewMemoryStore()
		svc := newTestLedgerService(ms)

		_, err := svc.RecordExit(ctx, models.ExitRequest{
			ExitDate:       "15/03/2026",
			BadgeID:        "12",
			ExitCredential: "54321",
			Division:       "Judicial",
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Fields, "BadgeID")

		last, err := ms.LastRow(ctx)
		require.NoError(t, err)
		assert.Zero(t, last)
	})

	t.Run("rejects an unparseable date", func(t *testing.T) {
		ms := store.NewMemoryStore()
		svc := newTestLedgerService(ms)

		_, err := svc.RecordExit(ctx, models.ExitRequest{
			ExitDate:       "ayer",
			BadgeID:        "12345",
			ExitCredential: "54321",
			Division:       "Judicial",
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("reports busy while another writer holds the lock", func(t *testing.T) {
		ms := store.NewMemoryStore()
		lc := lock.NewCoordinator(ms, lock.Config{
			Key:            "ledger:write_lock",
			StaleThreshold: 20 * time.Second,
			MaxWait:        30 * time.Millisecond,
			PollInterval:   5 * time.Millisecond,
		})
		svc := NewLedgerService(ms, lc)

		holder := lock.NewCoordinator(ms, lock.DefaultConfig())
		ok, err := holder.TryAcquire(ctx)
		require.NoError(t, err)
		require.True(t, ok)

		_, err = svc.RecordExit(ctx, models.ExitRequest{
			ExitDate:       "15/03/2026",
			BadgeID:        "12345",
			ExitCredential: "54321",
			Division:       "Judicial",
		})
		assert.ErrorIs(t, err, lock.ErrBusy)
	})

	t.Run("concurrent exits get distinct rows", func(t *testing.T) {
		ms := store.NewMemoryStore()
		svc := newTestLedgerService(ms)

		badges := []string{"11111", "22222", "33333"}
		rows := make([]int, len(badges))
		var wg sync.WaitGroup
		for i, badge := range badges {
			wg.Add(1)
			go func(i int, badge string) {
				defer wg.Done()
				time.Sleep(time.Duration(i) * 15 * time.Millisecond)
				res, err := svc.RecordExit(context.Background(), models.ExitRequest{
					ExitDate:       "15/03/2026",
					BadgeID:        badge,
					ExitCredential: "54321",
					Division:       "Judicial",
				})
				assert.NoError(t, err)
				if res != nil {
					rows[i] = res.Row
				}
			}(i, badge)
		}
		wg.Wait()

		seen := make(map[int]bool)
		for _, row := range rows {
			assert.GreaterOrEqual(t, row, store.StartRow)
			assert.False(t, seen[row], "row %d assigned twice", row)
			seen[row] = true
		}
	})
}

func TestLedgerService_RecordEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("closes the pending checkout", func(t *testing.T) {
		ms := store.NewMemoryStore()
		svc := newTestLedgerService(ms)

		exit, err := svc.RecordExit(ctx, models.ExitRequest{
			ExitDate:       "10/03/2026",
			BadgeID:        "12345",
			ExitCredential: "54321",
			Division:       "Judicial",
		})
		require.NoError(t, err)
		require.True(t, exit.Success)

		entry, err := svc.RecordEntry(ctx, models.EntryRequest{
			EntryDate:       "15/03/2026",
			BadgeID:         "12345",
			EntryCredential: "54321",
		})
		require.NoError(t, err)
		assert.True(t, entry.Success)
		assert.Equal(t, 1, entry.RowsUpdated)
		assert.Equal(t, []int{exit.Row}, entry.Rows)

		r := ledgerRow(t, ms, exit.Row)
		assert.Equal(t, "15/03/2026", r.EntryDate)
		assert.Equal(t, "54321", r.EntryCredential)
		assert.True(t, r.Returned())

		status, err := svc.QueryStatus(ctx, "12345")
		require.NoError(t, err)
		assert.Equal(t, models.StateArchived, status.State)
		assert.Equal(t, models.UsageReturned, status.ActualState)
	})

	t.Run("closes every pending row for the badge", func(t *testing.T) {
		ms := store.NewMemoryStore()
		seedRow(t, ms, 4, "10/03/2026", "12345", "54321", "Judicial", "", "")
		seedRow(t, ms, 5, "12/03/2026", "12345", "99999", "Penal", "", "")
		svc := newTestLedgerService(ms)

		entry, err := svc.RecordEntry(ctx, models.EntryRequest{
			EntryDate:       "15/03/2026",
			BadgeID:         "12345",
			EntryCredential: "54321",
		})
		require.NoError(t, err)
		assert.True(t, entry.Success)
		assert.Equal(t, 2, entry.RowsUpdated)
		assert.ElementsMatch(t, []int{4, 5}, entry.Rows)

		for _, row := range []int{4, 5} {
			assert.True(t, ledgerRow(t, ms, row).Returned())
		}
	})

	t.Run("entry with no prior exit creates a return-only row", func(t *testing.T) {
		ms := store.NewMemoryStore()
		svc := newTestLedgerService(ms)

		entry, err := svc.RecordEntry(ctx, models.EntryRequest{
			EntryDate:       "15/03/2026",
			BadgeID:         "12345",
			EntryCredential: "54321",
		})
		require.NoError(t, err)
		assert.True(t, entry.Success)
		assert.Contains(t, entry.Message, "sin salida previa")

		r := ledgerRow(t, ms, store.StartRow)
		assert.Equal(t, models.Sentinel, r.ExitDate)
		assert.Equal(t, models.Sentinel, r.ExitCredential)
		assert.Equal(t, models.Sentinel, r.Division)
		assert.Equal(t, "12345", r.BadgeID)
		assert.Equal(t, "15/03/2026", r.EntryDate)

		status, err := svc.QueryStatus(ctx, "12345")
		require.NoError(t, err)
		assert.Equal(t, models.StateArchived, status.State)
	})

	t.Run("identical entry resubmission is rejected as duplicate", func(t *testing.T) {
		ms := store.NewMemoryStore()
		seedRow(t, ms, 4, "10/03/2026", "12345", "54321", "Judicial", "54321", "15/03/2026")
		svc := newTestLedgerService(ms)

		entry, err := svc.RecordEntry(ctx, models.EntryRequest{
			EntryDate:       "15/03/2026",
			BadgeID:         "12345",
			EntryCredential: "54321",
		})
		require.NoError(t, err)
		assert.False(t, entry.Success)
		assert.Equal(t, "info", entry.Notification)
		assert.Contains(t, entry.Message, "Ya existe una entrada")
	})

	t.Run("conflicting entry asks for confirmation and writes nothing", func(t *testing.T) {
		ms := store.NewMemoryStore()
		seedRow(t, ms, 4, "10/03/2026", "12345", "54321", "Judicial", "11111", "15/03/2026")
		svc := newTestLedgerService(ms)

		entry, err := svc.RecordEntry(ctx, models.EntryRequest{
			EntryDate:       "15/03/2026",
			BadgeID:         "12345",
			EntryCredential: "54321",
		})
		require.NoError(t, err)
		assert.False(t, entry.Success)
		assert.True(t, entry.Confirm)
		assert.Equal(t, 4, entry.ConflictRow)
		require.NotNil(t, entry.Existing)
		assert.Equal(t, "11111", entry.Existing.EntryCredential)
		require.NotNil(t, entry.Proposed)
		assert.Equal(t, "54321", entry.Proposed.EntryCredential)

		// Existing data untouched until the operator reconciles.
		r := ledgerRow(t, ms, 4)
		assert.Equal(t, "11111", r.EntryCredential)
	})

	t.Run("normalizes ISO dates before matching", func(t *testing.T) {
		ms := store.NewMemoryStore()
		seedRow(t, ms, 4, "10/03/2026", "12345", "54321", "Judicial", "54321", "15/03/2026")
		svc := newTestLedgerService(ms)

		entry, err := svc.RecordEntry(ctx, models.EntryRequest{
			EntryDate:       "2026-03-15",
			BadgeID:         "12345",
			EntryCredential: "54321",
		})
		require.NoError(t, err)
		assert.False(t, entry.Success)
		assert.Contains(t, entry.Message, "15/03/2026")
	})
}

func TestLedgerService_ReconcileEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites the conflicting row", func(t *testing.T) {
		ms := store.NewMemoryStore()
		seedRow(t, ms, 4, "10/03/2026", "12345", "54321", "Judicial", "11111", "15/03/2026")
		svc := newTestLedgerService(ms)

		res, err := svc.ReconcileEntry(ctx, models.ReconcileEntryRequest{
			Row:             4,
			BadgeID:         "12345",
			EntryDate:       "15/03/2026",
			EntryCredential: "54321",
		})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, []int{4}, res.Rows)

		r := ledgerRow(t, ms, 4)
		assert.Equal(t, "54321", r.EntryCredential)
		assert.Equal(t, "15/03/2026", r.EntryDate)
		// Exit side of the row is preserved.
		assert.Equal(t, "10/03/2026", r.ExitDate)
		assert.Equal(t, "Judicial", r.Division)
	})

	t.Run("rejects rows above the data region", func(t *testing.T) {
		ms := store.NewMemoryStore()
		svc := newTestLedgerService(ms)

		_, err := svc.ReconcileEntry(ctx, models.ReconcileEntryRequest{
			Row:             2,
			BadgeID:         "12345",
			EntryDate:       "15/03/2026",
			EntryCredential: "54321",
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func TestLedgerService_QueryStatus(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	svc := newTestLedgerService(ms)

	t.Run("rejects malformed badge numbers", func(t *testing.T) {
		for _, bad := range []string{"", "12", "1234567", "12a45"} {
			_, err := svc.QueryStatus(ctx, bad)
			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr, "badge %q", bad)
		}
	})

	t.Run("unknown badge is not registered", func(t *testing.T) {
		res, err := svc.QueryStatus(ctx, "12345")
		require.NoError(t, err)
		assert.Equal(t, models.StateNotRegistered, res.State)
	})
}
