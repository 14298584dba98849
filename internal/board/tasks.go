package board

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"kanban/internal/models"
)

// Tasks is the position manager: it owns the contiguous 0..N-1 ordering of
// active tasks inside columns and is the only write path into the movement
// ledger. Every positional mutation runs inside a single store transaction
// together with its ledger append, so either both apply or neither does.
type Tasks struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
	loc      *time.Location

	Now func() time.Time
}

// NewTasks constructs the task service. loc is the calendar used by the
// next-day due reminder rule; nil means UTC.
func NewTasks(store Store, notifier Notifier, logger *slog.Logger, loc *time.Location) *Tasks {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Tasks{store: store, notifier: notifier, logger: logger, loc: loc, Now: time.Now}
}

// TaskInput carries the fields accepted when creating a task.
type TaskInput struct {
	ProjectID   int64
	ColumnID    int64
	Title       string
	Description string
	Priority    models.Priority
	CreatedBy   int64
	Assignee    *int64
	DueAt       *time.Time
}

// TaskUpdate carries optional field changes. The *Set flags distinguish
// "leave untouched" from "clear".
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *models.Priority
	Assignee    *int64
	AssigneeSet bool
	DueAt       *time.Time
	DueAtSet    bool
}

// ReorderItem pairs a task with its requested position for BulkReorder.
type ReorderItem struct {
	TaskID   int64 `json:"id"`
	Position int   `json:"position"`
}

// Get returns an active task by id.
func (s *Tasks) Get(ctx context.Context, id int64) (models.Task, error) {
	var out models.Task
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		out, err = activeTask(tx, id)
		return err
	})
	return out, err
}

// ListByColumn returns the active tasks of a column in position order.
func (s *Tasks) ListByColumn(ctx context.Context, columnID int64) ([]models.Task, error) {
	var out []models.Task
	err := s.store.View(ctx, func(tx Tx) error {
		if _, err := activeColumn(tx, columnID); err != nil {
			return err
		}
		var err error
		out, err = tx.TasksByColumn(columnID)
		return err
	})
	return out, err
}

// Create appends a task at the tail of its column and writes the creation
// ledger record in the same transaction.
func (s *Tasks) Create(ctx context.Context, in TaskInput) (models.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || utf8.RuneCountInString(in.Title) > models.MaxTaskTitleLen {
		return models.Task{}, fmt.Errorf("task title must be 1-%d characters: %w", models.MaxTaskTitleLen, ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Description) > models.MaxDescriptionLen {
		return models.Task{}, fmt.Errorf("task description exceeds %d characters: %w", models.MaxDescriptionLen, ErrInvalidInput)
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if _, ok := models.ValidPriorities[in.Priority]; !ok {
		return models.Task{}, fmt.Errorf("unknown priority %q: %w", in.Priority, ErrInvalidInput)
	}

	var out models.Task
	err := s.store.Update(ctx, func(tx Tx) error {
		if err := requireActiveProject(tx, in.ProjectID); err != nil {
			return err
		}
		col, err := activeColumn(tx, in.ColumnID)
		if err != nil {
			return err
		}
		if col.ProjectID != in.ProjectID {
			return fmt.Errorf("column %d is not part of project %d: %w", in.ColumnID, in.ProjectID, ErrInvalidInput)
		}
		if dup, err := tx.TaskTitleExists(in.ProjectID, in.Title, 0); err != nil {
			return err
		} else if dup {
			return fmt.Errorf("task %q already exists in project: %w", in.Title, ErrDuplicateName)
		}
		colCount, err := tx.CountTasksInColumn(col.ID)
		if err != nil {
			return err
		}
		if colCount >= col.Capacity() {
			return fmt.Errorf("column %q is at its capacity of %d tasks: %w", col.Name, col.Capacity(), ErrLimitExceeded)
		}
		projCount, err := tx.CountTasksInProject(in.ProjectID)
		if err != nil {
			return err
		}
		if projCount >= models.MaxTasksPerProject {
			return fmt.Errorf("project is at its capacity of %d tasks: %w", models.MaxTasksPerProject, ErrLimitExceeded)
		}

		// Tail append: no resequencing needed.
		position := 0
		if max, ok, err := tx.MaxTaskPosition(col.ID); err != nil {
			return err
		} else if ok {
			position = max + 1
		}

		now := s.Now().UTC()
		id, err := tx.InsertTask(models.Task{
			ProjectID:   in.ProjectID,
			ColumnID:    col.ID,
			Title:       in.Title,
			Description: in.Description,
			Priority:    in.Priority,
			CreatedBy:   in.CreatedBy,
			Assignee:    in.Assignee,
			DueAt:       in.DueAt,
			Position:    position,
			State:       models.StateActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		actor := in.CreatedBy
		if _, err := tx.AppendMovement(models.MovementRecord{
			TaskID:   id,
			ToColumn: col.ID,
			Actor:    &actor,
			MovedAt:  now,
		}); err != nil {
			return fmt.Errorf("record creation: %w", err)
		}
		out, err = tx.TaskByID(id)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	s.logger.Info("task created", slog.Int64("task", out.ID), slog.Int64("column", out.ColumnID))
	s.emitEvents(ctx, out, out.Assignee != nil, true)
	return out, nil
}

// Update applies field changes to a task. Column and position never change
// here; that is Move's job.
func (s *Tasks) Update(ctx context.Context, id int64, upd TaskUpdate) (models.Task, error) {
	if upd.Title != nil {
		*upd.Title = strings.TrimSpace(*upd.Title)
		if *upd.Title == "" || utf8.RuneCountInString(*upd.Title) > models.MaxTaskTitleLen {
			return models.Task{}, fmt.Errorf("task title must be 1-%d characters: %w", models.MaxTaskTitleLen, ErrInvalidInput)
		}
	}
	if upd.Description != nil && utf8.RuneCountInString(*upd.Description) > models.MaxDescriptionLen {
		return models.Task{}, fmt.Errorf("task description exceeds %d characters: %w", models.MaxDescriptionLen, ErrInvalidInput)
	}
	if upd.Priority != nil {
		if _, ok := models.ValidPriorities[*upd.Priority]; !ok {
			return models.Task{}, fmt.Errorf("unknown priority %q: %w", *upd.Priority, ErrInvalidInput)
		}
	}

	var out models.Task
	var assigneeChanged, dueChanged bool
	err := s.store.Update(ctx, func(tx Tx) error {
		t, err := activeTask(tx, id)
		if err != nil {
			return err
		}
		if upd.Title != nil && *upd.Title != t.Title {
			if dup, err := tx.TaskTitleExists(t.ProjectID, *upd.Title, t.ID); err != nil {
				return err
			} else if dup {
				return fmt.Errorf("task %q already exists in project: %w", *upd.Title, ErrDuplicateName)
			}
			t.Title = *upd.Title
		}
		if upd.Description != nil {
			t.Description = strings.TrimSpace(*upd.Description)
		}
		if upd.Priority != nil {
			t.Priority = *upd.Priority
		}
		if upd.AssigneeSet {
			assigneeChanged = !int64PtrEq(t.Assignee, upd.Assignee) && upd.Assignee != nil
			t.Assignee = upd.Assignee
		}
		if upd.DueAtSet {
			dueChanged = !timePtrEq(t.DueAt, upd.DueAt)
			t.DueAt = upd.DueAt
		}
		t.UpdatedAt = s.Now().UTC()
		if err := tx.UpdateTask(t); err != nil {
			return err
		}
		out, err = tx.TaskByID(t.ID)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	s.emitEvents(ctx, out, assigneeChanged, dueChanged)
	return out, nil
}

// Assign sets or clears the task's assignee.
func (s *Tasks) Assign(ctx context.Context, id int64, assignee *int64) (models.Task, error) {
	return s.Update(ctx, id, TaskUpdate{Assignee: assignee, AssigneeSet: true})
}

// Delete soft-deactivates a task and closes the positional gap it leaves
// behind. Deactivation is permanent: the task never again participates in
// ordering or CFD counts.
func (s *Tasks) Delete(ctx context.Context, id int64) error {
	return s.store.Update(ctx, func(tx Tx) error {
		t, err := activeTask(tx, id)
		if err != nil {
			return err
		}
		if err := tx.CloseTaskGap(t.ColumnID, t.Position); err != nil {
			return fmt.Errorf("close gap: %w", err)
		}
		return tx.DeactivateTask(t.ID)
	})
}

// Move relocates a task to a destination column and position. The transition
// guard runs first; then, in one transaction, the source gap closes, a
// destination slot opens, the task is placed, workflow timestamps adjust and
// the movement is appended to the ledger.
func (s *Tasks) Move(ctx context.Context, taskID, destColumnID int64, position int, actor *int64) (models.Task, error) {
	var out models.Task
	err := s.store.Update(ctx, func(tx Tx) error {
		t, err := activeTask(tx, taskID)
		if err != nil {
			return err
		}
		src, err := tx.ColumnByID(t.ColumnID)
		if err != nil {
			return err
		}
		dst, err := activeColumn(tx, destColumnID)
		if err != nil {
			return err
		}
		if dst.ProjectID != t.ProjectID {
			return fmt.Errorf("column %d is not part of project %d: %w", destColumnID, t.ProjectID, ErrInvalidInput)
		}
		if err := CanMove(src, dst); err != nil {
			return err
		}

		destCount, err := tx.CountTasksInColumn(dst.ID)
		if err != nil {
			return err
		}
		occupied := destCount
		if dst.ID == src.ID {
			occupied-- // the moved task does not count against its own column
		}
		if occupied >= dst.Capacity() {
			return fmt.Errorf("column %q is at its capacity of %d tasks: %w", dst.Name, dst.Capacity(), ErrLimitExceeded)
		}
		if position < 0 || position > occupied {
			return fmt.Errorf("position %d not in [0, %d]: %w", position, occupied, ErrPositionOutOfRange)
		}

		if err := tx.CloseTaskGap(src.ID, t.Position); err != nil {
			return fmt.Errorf("close source gap: %w", err)
		}
		if err := tx.OpenTaskSlot(dst.ID, position, 1); err != nil {
			return fmt.Errorf("open destination slot: %w", err)
		}
		if err := tx.PlaceTask(t.ID, dst.ID, position); err != nil {
			return fmt.Errorf("place task: %w", err)
		}

		now := s.Now().UTC()
		moved, err := tx.TaskByID(t.ID)
		if err != nil {
			return err
		}
		switch {
		case dst.IsInProgress():
			if moved.StartedAt == nil {
				moved.StartedAt = &now
			}
			moved.CompletedAt = nil
		case dst.IsDone():
			moved.CompletedAt = &now
		}
		moved.UpdatedAt = now
		if err := tx.UpdateTask(moved); err != nil {
			return err
		}

		from := src.ID
		if _, err := tx.AppendMovement(models.MovementRecord{
			TaskID:     t.ID,
			FromColumn: &from,
			ToColumn:   dst.ID,
			Actor:      actor,
			MovedAt:    now,
		}); err != nil {
			return fmt.Errorf("record move: %w", err)
		}
		out, err = tx.TaskByID(t.ID)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	s.logger.Info("task moved",
		slog.Int64("task", taskID), slog.Int64("to", destColumnID), slog.Int("position", position))
	return out, nil
}

// BulkReorder reassigns positions inside a single column. The items must
// cover exactly the column's active tasks and the requested positions must
// form 0..M-1, so the contiguity invariant survives by construction.
func (s *Tasks) BulkReorder(ctx context.Context, columnID int64, items []ReorderItem) ([]models.Task, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("empty reorder batch: %w", ErrInvalidInput)
	}
	var out []models.Task
	err := s.store.Update(ctx, func(tx Tx) error {
		col, err := activeColumn(tx, columnID)
		if err != nil {
			return err
		}
		tasks, err := tx.TasksByColumn(col.ID)
		if err != nil {
			return err
		}
		inColumn := make(map[int64]bool, len(tasks))
		for _, t := range tasks {
			inColumn[t.ID] = true
		}
		if len(items) != len(tasks) {
			return fmt.Errorf("batch covers %d of %d active tasks in column: %w", len(items), len(tasks), ErrInvalidInput)
		}
		seenTask := make(map[int64]bool, len(items))
		seenPos := make(map[int]bool, len(items))
		for _, it := range items {
			if !inColumn[it.TaskID] {
				return fmt.Errorf("task %d is not an active task of column %d: %w", it.TaskID, col.ID, ErrNotFound)
			}
			if seenTask[it.TaskID] {
				return fmt.Errorf("task %d listed twice: %w", it.TaskID, ErrInvalidInput)
			}
			if it.Position < 0 || it.Position >= len(tasks) {
				return fmt.Errorf("position %d not in [0, %d): %w", it.Position, len(tasks), ErrPositionOutOfRange)
			}
			if seenPos[it.Position] {
				return fmt.Errorf("position %d assigned twice: %w", it.Position, ErrDuplicatePosition)
			}
			seenTask[it.TaskID] = true
			seenPos[it.Position] = true
		}
		for _, it := range items {
			if err := tx.SetTaskPosition(it.TaskID, it.Position); err != nil {
				return err
			}
		}
		out, err = tx.TasksByColumn(col.ID)
		return err
	})
	return out, err
}

// BulkMove relocates a batch of tasks into one destination column. The guard
// is applied to every task's own source column before anything mutates; one
// violation rejects the whole batch. A contiguous block of positions is
// reserved at the start position (default: tail) and tasks land there in
// input order, each gaining its own ledger record in the same transaction.
// Batch members already living in the destination are reordered into the
// block like any other member.
func (s *Tasks) BulkMove(ctx context.Context, destColumnID int64, taskIDs []int64, startPosition *int, actor *int64) ([]models.Task, error) {
	if len(taskIDs) == 0 {
		return nil, fmt.Errorf("empty move batch: %w", ErrInvalidInput)
	}
	seen := make(map[int64]bool, len(taskIDs))
	for _, id := range taskIDs {
		if seen[id] {
			return nil, fmt.Errorf("task %d listed twice: %w", id, ErrInvalidInput)
		}
		seen[id] = true
	}

	var out []models.Task
	err := s.store.Update(ctx, func(tx Tx) error {
		dst, err := activeColumn(tx, destColumnID)
		if err != nil {
			return err
		}

		// Validate the whole batch before any mutation.
		residents := 0
		for _, id := range taskIDs {
			t, err := activeTask(tx, id)
			if err != nil {
				return err
			}
			if t.ProjectID != dst.ProjectID {
				return fmt.Errorf("task %d is not part of project %d: %w", id, dst.ProjectID, ErrInvalidInput)
			}
			if t.ColumnID == dst.ID {
				residents++
			}
			src, err := tx.ColumnByID(t.ColumnID)
			if err != nil {
				return err
			}
			if err := CanMove(src, dst); err != nil {
				return fmt.Errorf("task %d: %w", id, err)
			}
		}

		destCount, err := tx.CountTasksInColumn(dst.ID)
		if err != nil {
			return err
		}
		// Batch members already in the destination do not count against it.
		occupied := destCount - residents
		if occupied+len(taskIDs) > dst.Capacity() {
			return fmt.Errorf("moving %d tasks would exceed column capacity of %d: %w", len(taskIDs), dst.Capacity(), ErrLimitExceeded)
		}

		start := occupied // tail by contiguity
		if startPosition != nil {
			start = *startPosition
		}
		if start < 0 || start > occupied {
			return fmt.Errorf("start position %d not in [0, %d]: %w", start, occupied, ErrPositionOutOfRange)
		}

		// Detach every batch task first: close its source gap and park it in
		// the destination past any live slot, so the remaining tasks of every
		// touched column (the destination included) are contiguous before the
		// block opens.
		origins := make([]int64, len(taskIDs))
		parking := dst.Capacity() + 1
		for k, id := range taskIDs {
			// Re-read inside the loop: earlier iterations may have shifted
			// this task's position in a shared source column.
			t, err := tx.TaskByID(id)
			if err != nil {
				return err
			}
			origins[k] = t.ColumnID
			if err := tx.CloseTaskGap(t.ColumnID, t.Position); err != nil {
				return fmt.Errorf("close gap for task %d: %w", id, err)
			}
			if err := tx.PlaceTask(t.ID, dst.ID, parking+k); err != nil {
				return fmt.Errorf("park task %d: %w", id, err)
			}
		}

		if err := tx.OpenTaskSlot(dst.ID, start, len(taskIDs)); err != nil {
			return fmt.Errorf("reserve block: %w", err)
		}
		now := s.Now().UTC()
		for k, id := range taskIDs {
			if err := tx.PlaceTask(id, dst.ID, start+k); err != nil {
				return fmt.Errorf("place task %d: %w", id, err)
			}
			from := origins[k]
			if _, err := tx.AppendMovement(models.MovementRecord{
				TaskID:     id,
				FromColumn: &from,
				ToColumn:   dst.ID,
				Actor:      actor,
				MovedAt:    now,
			}); err != nil {
				return fmt.Errorf("record move for task %d: %w", id, err)
			}
		}
		out, err = tx.TasksByColumn(dst.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("tasks bulk-moved", slog.Int("count", len(taskIDs)), slog.Int64("to", destColumnID))
	return out, nil
}

// emitEvents raises the notification-collaborator events for an operation
// that finished successfully. assigned fires only when an assignee was newly
// set; dueEligible gates the next-day reminder to operations that touched
// the due date (or created the task).
func (s *Tasks) emitEvents(ctx context.Context, t models.Task, assigned, dueEligible bool) {
	if t.Assignee == nil {
		return
	}
	if assigned {
		s.notifier.TaskAssigned(ctx, t)
	}
	if dueEligible && DueSoon(t, s.Now(), s.loc) {
		s.notifier.TaskDueSoon(ctx, t)
	}
}

func activeTask(tx Tx, id int64) (models.Task, error) {
	t, err := tx.TaskByID(id)
	if err != nil {
		return models.Task{}, err
	}
	if t.State != models.StateActive {
		return models.Task{}, fmt.Errorf("task %d is deactivated: %w", id, ErrNotFound)
	}
	return t, nil
}

func int64PtrEq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrEq(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
