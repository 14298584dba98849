package board

import (
	"fmt"

	"kanban/internal/models"
)

// CanMove decides whether a task may move from one column to another, based
// only on each column's type and fixed status. It knows nothing about
// positions or counts. The predicate is applied to the (source, destination)
// pair even when both are the same column, so tasks inside the done column
// are fully frozen and reordering inside the in-progress column goes through
// bulk reorder instead.
//
// Rules:
//   - the done column is terminal: no outgoing move is legal
//   - a normal column may move anywhere except directly into done
//   - the in-progress column may move only into done
func CanMove(from, to models.Column) error {
	switch from.FixedStatus {
	case models.FixedDone:
		return fmt.Errorf("tasks cannot leave the done column: %w", ErrIllegalTransition)
	case models.FixedInProgress:
		if to.FixedStatus != models.FixedDone {
			return fmt.Errorf("tasks in progress may only move to the done column: %w", ErrIllegalTransition)
		}
		return nil
	case models.FixedNone:
		if to.FixedStatus == models.FixedDone {
			return fmt.Errorf("tasks must pass through in progress before done: %w", ErrIllegalTransition)
		}
		return nil
	default:
		return fmt.Errorf("unknown fixed status %q: %w", from.FixedStatus, ErrIllegalTransition)
	}
}
