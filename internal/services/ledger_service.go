package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/custodia/backend/internal/audit"
	"github.com/custodia/backend/internal/lock"
	"github.com/custodia/backend/internal/models"
	"github.com/custodia/backend/internal/store"
)

// LedgerService orchestrates validation, conflict detection, lock acquisition
// and the actual mutation for check-outs and check-ins. All writes to the
// shared ledger go through here, under the coordinator's lock; status queries
// bypass it entirely.
type LedgerService struct {
	store     store.LedgerStore
	lock      *lock.Coordinator
	detector  *ConflictDetector
	resolver  *StatusResolver
	audit     *audit.Logger
	validator *ValidationHelper
}

func NewLedgerService(ls store.LedgerStore, lc *lock.Coordinator) *LedgerService {
	return &LedgerService{
		store:     ls,
		lock:      lc,
		detector:  NewConflictDetector(ls),
		resolver:  NewStatusResolver(ls),
		audit:     audit.NewLogger(),
		validator: NewValidationHelper(),
	}
}

// RecordExit registers a check-out: validates, classifies against existing
// rows, then under the lock closes any stale pending rows for the badge and
// appends the new pending row.
func (s *LedgerService) RecordExit(ctx context.Context, req models.ExitRequest) (*models.ExitResult, error) {
	opID := uuid.New().String()

	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	exitDate, err := normalizeDate(req.ExitDate)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"fechaSalida": "Fecha de salida inválida"}}
	}

	conflict, err := s.detector.DetectExitConflict(ctx, req.BadgeID, exitDate, req.ExitCredential, req.Division)
	if err != nil {
		s.audit.LogError(opID, req.BadgeID, err)
		return nil, err
	}

	switch conflict.Classification {
	case ExitDuplicate:
		s.audit.LogRejection(opID, req.BadgeID, string(ExitDuplicate))
		return &models.ExitResult{
			OperationID:  opID,
			Message:      fmt.Sprintf("Ya existe una salida registrada para el legajo %s con estos mismos datos en la fecha %s.", req.BadgeID, exitDate),
			Notification: "info",
			Row:          conflict.Row,
			Existing:     conflict.Existing,
		}, nil
	case ExitPendingBlocks:
		s.audit.LogRejection(opID, req.BadgeID, string(ExitPendingBlocks))
		return &models.ExitResult{
			OperationID: opID,
			Message: fmt.Sprintf("El legajo %s ya tiene una salida pendiente de entrada (fecha %s). Registre la entrada antes de una nueva salida.",
				req.BadgeID, conflict.Existing.ExitDate),
			Row:      conflict.Row,
			Existing: conflict.Existing,
		}, nil
	}

	var row int
	err = s.lock.WithLock(ctx, func(ctx context.Context) error {
		if err := s.closePendingEntries(ctx, req.BadgeID); err != nil {
			return err
		}
		row, err = s.allocateRow(ctx)
		if err != nil {
			return err
		}
		writes := map[int]string{
			store.ColExitDate: exitDate,
			store.ColBadgeID:  req.BadgeID,
			store.ColExitCred: req.ExitCredential,
			store.ColDivision: req.Division,
		}
		for col, value := range writes {
			if err := s.store.WriteCell(ctx, row, col, value); err != nil {
				return err
			}
		}
		if err := s.store.SetNextFreeRowHint(ctx, row+1); err != nil {
			log.Printf("[LEDGER] could not bump row hint: %v", err)
		}
		return nil
	})
	if err != nil {
		s.audit.LogError(opID, req.BadgeID, err)
		return nil, err
	}

	s.audit.LogExit(opID, req.BadgeID, req.ExitCredential, req.Division, row)
	return &models.ExitResult{
		Success:     true,
		OperationID: opID,
		Row:         row,
		Message:     fmt.Sprintf("Salida registrada correctamente para el legajo %s en la fila %d", req.BadgeID, row),
	}, nil
}

// RecordEntry registers a check-in. It closes every currently-open exit for
// the badge; when none exists it writes a self-contained return-only row with
// sentinel exit fields.
func (s *LedgerService) RecordEntry(ctx context.Context, req models.EntryRequest) (*models.EntryResult, error) {
	opID := uuid.New().String()

	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	entryDate, err := normalizeDate(req.EntryDate)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"fechaEntrada": "Fecha de entrada inválida"}}
	}

	conflict, err := s.detector.DetectEntryConflict(ctx, req.BadgeID, entryDate, req.EntryCredential)
	if err != nil {
		s.audit.LogError(opID, req.BadgeID, err)
		return nil, err
	}

	switch conflict.Classification {
	case EntryEqual:
		s.audit.LogRejection(opID, req.BadgeID, string(EntryEqual))
		return &models.EntryResult{
			OperationID:  opID,
			Message:      fmt.Sprintf("Ya existe una entrada registrada para el legajo %s con estos mismos datos en la fecha %s.", req.BadgeID, entryDate),
			Notification: "info",
		}, nil
	case EntryDifferent:
		s.audit.LogRejection(opID, req.BadgeID, string(EntryDifferent))
		return &models.EntryResult{
			OperationID: opID,
			Message:     "Ya existe una entrada para este legajo en la fecha seleccionada.",
			Confirm:     true,
			Existing:    conflict.Existing,
			Proposed: &models.EntryData{
				EntryDate:       entryDate,
				BadgeID:         req.BadgeID,
				EntryCredential: req.EntryCredential,
			},
			ConflictRow: conflict.Row,
		}, nil
	}

	var updated []int
	var withoutExit bool
	err = s.lock.WithLock(ctx, func(ctx context.Context) error {
		rows, err := loadLedgerRows(ctx, s.store)
		if err != nil {
			return err
		}
		var pending []models.LedgerRow
		for _, r := range rowsForBadge(rows, req.BadgeID) {
			if r.Pending() {
				pending = append(pending, r)
			}
		}

		if len(pending) == 0 {
			// Return with no matching exit on record: history gains a
			// self-contained return-only row.
			withoutExit = true
			row, err := s.allocateRow(ctx)
			if err != nil {
				return err
			}
			writes := map[int]string{
				store.ColExitDate:  models.Sentinel,
				store.ColBadgeID:   req.BadgeID,
				store.ColExitCred:  models.Sentinel,
				store.ColDivision:  models.Sentinel,
				store.ColEntryCred: req.EntryCredential,
				store.ColEntryDate: entryDate,
			}
			for col, value := range writes {
				if err := s.store.WriteCell(ctx, row, col, value); err != nil {
					return err
				}
			}
			if err := s.store.SetNextFreeRowHint(ctx, row+1); err != nil {
				log.Printf("[LEDGER] could not bump row hint: %v", err)
			}
			updated = []int{row}
			return nil
		}

		for _, r := range pending {
			if err := s.store.WriteCell(ctx, r.Row, store.ColEntryCred, req.EntryCredential); err != nil {
				return err
			}
			if err := s.store.WriteCell(ctx, r.Row, store.ColEntryDate, entryDate); err != nil {
				return err
			}
			updated = append(updated, r.Row)
		}
		return nil
	})
	if err != nil {
		s.audit.LogError(opID, req.BadgeID, err)
		return nil, err
	}

	s.audit.LogEntry(opID, req.BadgeID, req.EntryCredential, updated)
	msg := fmt.Sprintf("Entrada registrada para %d salida(s) del legajo %s", len(updated), req.BadgeID)
	if withoutExit {
		msg = fmt.Sprintf("No había salidas pendientes. Se registró la entrada como nueva fila (sin salida previa) para el legajo %s.", req.BadgeID)
	}
	return &models.EntryResult{
		Success:     true,
		OperationID: opID,
		Message:     msg,
		RowsUpdated: len(updated),
		Rows:        updated,
	}, nil
}

// ReconcileEntry overwrites a conflicting entry row after explicit operator
// confirmation. It is the only sanctioned way to replace recorded entry data.
func (s *LedgerService) ReconcileEntry(ctx context.Context, req models.ReconcileEntryRequest) (*models.EntryResult, error) {
	opID := uuid.New().String()

	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	entryDate, err := normalizeDate(req.EntryDate)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"fechaEntrada": "Fecha de entrada inválida"}}
	}

	err = s.lock.WithLock(ctx, func(ctx context.Context) error {
		writes := map[int]string{
			store.ColBadgeID:   req.BadgeID,
			store.ColEntryCred: req.EntryCredential,
			store.ColEntryDate: entryDate,
		}
		for col, value := range writes {
			if err := s.store.WriteCell(ctx, req.Row, col, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.audit.LogError(opID, req.BadgeID, err)
		return nil, err
	}

	s.audit.LogReconciliation(opID, req.BadgeID, req.EntryCredential, req.Row)
	return &models.EntryResult{
		Success:     true,
		OperationID: opID,
		Message:     fmt.Sprintf("Datos de entrada reemplazados correctamente en la fila %d", req.Row),
		RowsUpdated: 1,
		Rows:        []int{req.Row},
	}, nil
}

// QueryStatus resolves a badge's custody state. Read-only, no lock.
func (s *LedgerService) QueryStatus(ctx context.Context, badgeID string) (*models.StatusResult, error) {
	if !badgeIDPattern.MatchString(badgeID) {
		return nil, &ValidationError{Fields: map[string]string{"numeroLegajo": "El número de legajo debe tener entre 5 y 6 dígitos"}}
	}
	return s.resolver.Resolve(ctx, badgeID)
}

// closePendingEntries writes the closed sentinel into the entry cells of every
// pending row for the badge, so stale opens are not mistaken for current ones
// on future scans.
func (s *LedgerService) closePendingEntries(ctx context.Context, badgeID string) error {
	rows, err := loadLedgerRows(ctx, s.store)
	if err != nil {
		return err
	}
	for _, r := range rowsForBadge(rows, badgeID) {
		if r.EntryCredential == "" {
			if err := s.store.WriteCell(ctx, r.Row, store.ColEntryCred, models.Sentinel); err != nil {
				return err
			}
		}
		if r.EntryDate == "" {
			if err := s.store.WriteCell(ctx, r.Row, store.ColEntryDate, models.Sentinel); err != nil {
				return err
			}
		}
	}
	return nil
}

// allocateRow picks the insertion row: the maintained hint when it points at a
// verified-empty row past the data region, otherwise the first empty row found
// scanning from the top, otherwise one past the last occupied row.
func (s *LedgerService) allocateRow(ctx context.Context) (int, error) {
	last, err := s.store.LastRow(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading ledger extent: %w", err)
	}

	if hint, err := s.store.NextFreeRowHint(ctx); err == nil && hint >= store.StartRow && hint > last {
		return hint, nil
	}

	rows, err := loadLedgerRows(ctx, s.store)
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		if r.Empty() {
			return r.Row, nil
		}
	}
	if last < store.StartRow {
		return store.StartRow, nil
	}
	return last + 1, nil
}
