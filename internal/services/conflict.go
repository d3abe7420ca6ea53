package services

import (
	"context"

	"github.com/custodia/backend/internal/models"
	"github.com/custodia/backend/internal/store"
)

// ExitClassification is the verdict on a proposed check-out.
type ExitClassification string

const (
	// ExitNovel: no obstacle, proceed to write.
	ExitNovel ExitClassification = "novel"
	// ExitDuplicate: an identical exit is already on record; resubmission is a
	// no-op rejection.
	ExitDuplicate ExitClassification = "duplicate"
	// ExitPendingBlocks: the badge already has an open checkout awaiting its
	// entry. One open exit per badge at a time, regardless of date.
	ExitPendingBlocks ExitClassification = "pending_blocks"
)

// EntryClassification is the verdict on a proposed check-in.
type EntryClassification string

const (
	EntryNone EntryClassification = "none"
	// EntryEqual: the same entry is already recorded (true duplicate).
	EntryEqual EntryClassification = "equal"
	// EntryDifferent: an entry exists for this badge and date but with
	// different data; surfaced for operator reconciliation.
	EntryDifferent EntryClassification = "different"
)

// ExitConflict describes how a proposed exit relates to the existing rows.
type ExitConflict struct {
	Classification ExitClassification
	Row            int
	Existing       *models.ExitData
}

// EntryConflict describes how a proposed entry relates to the existing rows.
type EntryConflict struct {
	Classification EntryClassification
	Row            int
	Existing       *models.EntryData
}

// ConflictDetector classifies submissions against the ledger before any write.
// An exit creates a new open obligation and must never silently duplicate one;
// an entry closes an obligation, so what matters is whether the closing data
// matches what is already recorded.
type ConflictDetector struct {
	store store.LedgerStore
}

func NewConflictDetector(ls store.LedgerStore) *ConflictDetector {
	return &ConflictDetector{store: ls}
}

// DetectExitConflict scans the badge's rows. An exact match on date,
// credential and division classifies as duplicate; otherwise any pending row
// blocks the new checkout.
func (d *ConflictDetector) DetectExitConflict(ctx context.Context, badgeID, exitDate, credential, division string) (ExitConflict, error) {
	rows, err := loadLedgerRows(ctx, d.store)
	if err != nil {
		return ExitConflict{}, err
	}

	var pending *models.LedgerRow
	for _, r := range rowsForBadge(rows, badgeID) {
		if sameLedgerDate(r.ExitDate, exitDate) && r.ExitCredential == credential && r.Division == division {
			return ExitConflict{
				Classification: ExitDuplicate,
				Row:            r.Row,
				Existing:       exitData(r),
			}, nil
		}
		if r.Pending() && pending == nil {
			row := r
			pending = &row
		}
	}

	if pending != nil {
		return ExitConflict{
			Classification: ExitPendingBlocks,
			Row:            pending.Row,
			Existing:       exitData(*pending),
		}, nil
	}
	return ExitConflict{Classification: ExitNovel}, nil
}

// DetectEntryConflict looks for an already-recorded entry on the same date for
// the badge. The first matching row decides the classification.
func (d *ConflictDetector) DetectEntryConflict(ctx context.Context, badgeID, entryDate, credential string) (EntryConflict, error) {
	rows, err := loadLedgerRows(ctx, d.store)
	if err != nil {
		return EntryConflict{}, err
	}

	for _, r := range rowsForBadge(rows, badgeID) {
		if !r.Returned() || !sameLedgerDate(r.EntryDate, entryDate) {
			continue
		}
		cls := EntryDifferent
		if r.EntryCredential == credential {
			cls = EntryEqual
		}
		return EntryConflict{
			Classification: cls,
			Row:            r.Row,
			Existing: &models.EntryData{
				EntryDate:       r.EntryDate,
				BadgeID:         r.BadgeID,
				EntryCredential: r.EntryCredential,
			},
		}, nil
	}
	return EntryConflict{Classification: EntryNone}, nil
}

func exitData(r models.LedgerRow) *models.ExitData {
	return &models.ExitData{
		ExitDate:       r.ExitDate,
		BadgeID:        r.BadgeID,
		ExitCredential: r.ExitCredential,
		Division:       r.Division,
	}
}
