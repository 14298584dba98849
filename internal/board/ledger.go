package board

import (
	"context"
	"fmt"

	"kanban/internal/models"
)

// Ledger is the read surface of the movement ledger. Writes happen only
// inside the Tasks transactions; no update or delete path exists anywhere.
type Ledger struct {
	store Store
}

// NewLedger constructs the ledger reader.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// History returns a task's movement chain in timestamp order, starting with
// the creation record (nil previous column). Deactivated tasks keep their
// history; only a task that never existed is NotFound.
func (l *Ledger) History(ctx context.Context, taskID int64) ([]models.MovementRecord, error) {
	var out []models.MovementRecord
	err := l.store.View(ctx, func(tx Tx) error {
		if _, err := tx.TaskByID(taskID); err != nil {
			return err
		}
		var err error
		out, err = tx.MovementsByTask(taskID)
		return err
	})
	return out, err
}

// VerifyChain checks the causal-consistency invariant for one task: each
// record's destination column equals the next record's previous column and
// timestamps never decrease. Useful for diagnostics and tests.
func VerifyChain(records []models.MovementRecord) error {
	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1], records[i]
		if cur.FromColumn == nil || *cur.FromColumn != prev.ToColumn {
			return fmt.Errorf("record %d breaks the column chain", cur.ID)
		}
		if cur.MovedAt.Before(prev.MovedAt) {
			return fmt.Errorf("record %d moves backwards in time", cur.ID)
		}
	}
	return nil
}
