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

// Registry owns column identity, ordering and the fixed-column state machine.
// Active column positions within a project stay a contiguous 1..N sequence
// under every operation except Delete, which deliberately leaves the gap for
// the caller to compact with ChangePosition.
type Registry struct {
	store  Store
	logger *slog.Logger

	Now func() time.Time
}

// NewRegistry constructs the column registry.
func NewRegistry(store Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, logger: logger, Now: time.Now}
}

// List returns the active columns of a project in position order.
func (r *Registry) List(ctx context.Context, projectID int64) ([]models.Column, error) {
	var out []models.Column
	err := r.store.View(ctx, func(tx Tx) error {
		if err := requireActiveProject(tx, projectID); err != nil {
			return err
		}
		var err error
		out, err = tx.ColumnsByProject(projectID)
		return err
	})
	return out, err
}

// Get returns an active column by id.
func (r *Registry) Get(ctx context.Context, id int64) (models.Column, error) {
	var out models.Column
	err := r.store.View(ctx, func(tx Tx) error {
		var err error
		out, err = activeColumn(tx, id)
		return err
	})
	return out, err
}

// Create adds a column at the requested position. The position must be the
// tail slot (activeCount+1); any lower slot is already occupied because
// active positions are contiguous, and creation never shifts other columns.
func (r *Registry) Create(ctx context.Context, projectID int64, name string, position int, typ models.ColumnType, status models.FixedStatus) (models.Column, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > models.MaxColumnNameLen {
		return models.Column{}, fmt.Errorf("column name must be 1-%d characters: %w", models.MaxColumnNameLen, ErrInvalidInput)
	}
	if typ == "" {
		typ = models.ColumnNormal
	}
	if typ != models.ColumnNormal && typ != models.ColumnFixed {
		return models.Column{}, fmt.Errorf("unknown column type %q: %w", typ, ErrInvalidInput)
	}
	if status != models.FixedNone && status != models.FixedInProgress && status != models.FixedDone {
		return models.Column{}, fmt.Errorf("unknown fixed status %q: %w", status, ErrInvalidInput)
	}
	if status != models.FixedNone && typ != models.ColumnFixed {
		return models.Column{}, fmt.Errorf("fixed status requires a fixed column: %w", ErrInvalidInput)
	}

	var out models.Column
	err := r.store.Update(ctx, func(tx Tx) error {
		if err := requireActiveProject(tx, projectID); err != nil {
			return err
		}
		cols, err := tx.ColumnsByProject(projectID)
		if err != nil {
			return err
		}
		if len(cols) >= models.MaxColumnsPerProject {
			return fmt.Errorf("project already has %d active columns: %w", models.MaxColumnsPerProject, ErrLimitExceeded)
		}
		if position < 1 || position > len(cols)+1 {
			return fmt.Errorf("position %d not in [1, %d]: %w", position, len(cols)+1, ErrPositionOutOfRange)
		}
		if dup, err := tx.ColumnNameExists(projectID, name, 0); err != nil {
			return err
		} else if dup {
			return fmt.Errorf("column %q already exists in project: %w", name, ErrDuplicateName)
		}
		if taken, err := tx.ColumnPositionExists(projectID, position); err != nil {
			return err
		} else if taken {
			return fmt.Errorf("position %d already occupied: %w", position, ErrDuplicatePosition)
		}
		if typ == models.ColumnFixed {
			if err := checkFixedHeadroom(tx, projectID, cols); err != nil {
				return err
			}
			if status != models.FixedNone {
				if err := checkStatusFree(cols, status, 0); err != nil {
					return err
				}
			}
		}

		now := r.Now().UTC()
		id, err := tx.InsertColumn(models.Column{
			ProjectID:   projectID,
			Name:        name,
			Position:    position,
			Type:        typ,
			FixedStatus: status,
			State:       models.StateActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("insert column: %w", err)
		}
		out, err = tx.ColumnByID(id)
		return err
	})
	if err != nil {
		return models.Column{}, err
	}
	r.logger.Info("column created",
		slog.Int64("project", projectID), slog.Int64("column", out.ID),
		slog.String("name", out.Name), slog.Int("position", out.Position))
	return out, nil
}

// Rename changes a column's display name, keeping names unique among the
// project's active columns.
func (r *Registry) Rename(ctx context.Context, columnID int64, name string) (models.Column, error) {
	return r.Update(ctx, columnID, &name, nil)
}

// ChangePosition moves a column to a new slot, shifting every active column
// in the affected range by one to keep the sequence contiguous.
func (r *Registry) ChangePosition(ctx context.Context, columnID int64, newPosition int) (models.Column, error) {
	return r.Update(ctx, columnID, nil, &newPosition)
}

// Update applies a rename and/or a reposition in one transaction. Nil means
// leave the field alone. Running both under one transaction keeps a combined
// request all-or-nothing: a rejected position cannot leave a rename behind.
func (r *Registry) Update(ctx context.Context, columnID int64, name *string, newPosition *int) (models.Column, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" || utf8.RuneCountInString(trimmed) > models.MaxColumnNameLen {
			return models.Column{}, fmt.Errorf("column name must be 1-%d characters: %w", models.MaxColumnNameLen, ErrInvalidInput)
		}
		name = &trimmed
	}
	var out models.Column
	err := r.store.Update(ctx, func(tx Tx) error {
		col, err := activeColumn(tx, columnID)
		if err != nil {
			return err
		}
		if name != nil {
			if err := renameColumn(tx, col, *name); err != nil {
				return err
			}
		}
		if newPosition != nil {
			if err := repositionColumn(tx, col, *newPosition); err != nil {
				return err
			}
		}
		out, err = tx.ColumnByID(col.ID)
		return err
	})
	return out, err
}

func renameColumn(tx Tx, col models.Column, name string) error {
	if dup, err := tx.ColumnNameExists(col.ProjectID, name, col.ID); err != nil {
		return err
	} else if dup {
		return fmt.Errorf("column %q already exists in project: %w", name, ErrDuplicateName)
	}
	return tx.SetColumnName(col.ID, name)
}

func repositionColumn(tx Tx, col models.Column, newPosition int) error {
	cols, err := tx.ColumnsByProject(col.ProjectID)
	if err != nil {
		return err
	}
	if newPosition < 1 || newPosition > len(cols) {
		return fmt.Errorf("position %d not in [1, %d]: %w", newPosition, len(cols), ErrPositionOutOfRange)
	}
	if newPosition == col.Position {
		return nil
	}
	if newPosition < col.Position {
		err = tx.ShiftColumnPositions(col.ProjectID, newPosition, col.Position-1, +1)
	} else {
		err = tx.ShiftColumnPositions(col.ProjectID, col.Position+1, newPosition, -1)
	}
	if err != nil {
		return fmt.Errorf("shift columns: %w", err)
	}
	return tx.SetColumnPosition(col.ID, newPosition)
}

// SetFixedStatus drives the column-type state machine. Assigning a status to
// a column that never had one is allowed even while it holds tasks; changing
// an already-assigned status, or reverting to normal, requires the column to
// be empty first. Passing FixedNone reverts the column to normal.
func (r *Registry) SetFixedStatus(ctx context.Context, columnID int64, status models.FixedStatus) (models.Column, error) {
	if status != models.FixedNone && status != models.FixedInProgress && status != models.FixedDone {
		return models.Column{}, fmt.Errorf("unknown fixed status %q: %w", status, ErrInvalidInput)
	}
	var out models.Column
	err := r.store.Update(ctx, func(tx Tx) error {
		col, err := activeColumn(tx, columnID)
		if err != nil {
			return err
		}
		if col.FixedStatus == status {
			out = col
			return nil
		}
		taskCount, err := tx.CountTasksInColumn(col.ID)
		if err != nil {
			return err
		}

		if status == models.FixedNone {
			// Revert to normal.
			if col.Type == models.ColumnFixed && taskCount > 0 {
				return fmt.Errorf("column %q holds %d tasks, empty it before reverting to normal: %w", col.Name, taskCount, ErrNonEmptyColumn)
			}
			if err := tx.SetColumnType(col.ID, models.ColumnNormal, models.FixedNone); err != nil {
				return err
			}
			out, err = tx.ColumnByID(col.ID)
			return err
		}

		cols, err := tx.ColumnsByProject(col.ProjectID)
		if err != nil {
			return err
		}
		if err := checkStatusFree(cols, status, col.ID); err != nil {
			return err
		}
		if col.Type != models.ColumnFixed {
			if err := checkFixedHeadroom(tx, col.ProjectID, cols); err != nil {
				return err
			}
		}
		// First-time assignment is exempt from the empty-column rule.
		if col.FixedStatus != models.FixedNone && taskCount > 0 {
			return fmt.Errorf("column %q holds %d tasks, empty it before changing its fixed status: %w", col.Name, taskCount, ErrNonEmptyColumn)
		}
		if err := tx.SetColumnType(col.ID, models.ColumnFixed, status); err != nil {
			return err
		}
		out, err = tx.ColumnByID(col.ID)
		return err
	})
	if err != nil {
		return models.Column{}, err
	}
	r.logger.Info("column fixed status set",
		slog.Int64("column", columnID), slog.String("status", string(status)))
	return out, nil
}

// Delete soft-deactivates a column. Fixed columns are protected and a column
// holding active tasks cannot go. Positions of later columns are not
// compacted here; compaction is a caller-level ChangePosition.
func (r *Registry) Delete(ctx context.Context, columnID int64) error {
	return r.store.Update(ctx, func(tx Tx) error {
		col, err := activeColumn(tx, columnID)
		if err != nil {
			return err
		}
		if col.Type == models.ColumnFixed {
			return fmt.Errorf("fixed column %q cannot be deleted: %w", col.Name, ErrProtected)
		}
		taskCount, err := tx.CountTasksInColumn(col.ID)
		if err != nil {
			return err
		}
		if taskCount > 0 {
			return fmt.Errorf("column %q holds %d active tasks: %w", col.Name, taskCount, ErrNonEmptyColumn)
		}
		return tx.DeactivateColumn(col.ID)
	})
}

func requireActiveProject(tx Tx, projectID int64) error {
	p, err := tx.ProjectByID(projectID)
	if err != nil {
		return err
	}
	if p.State != models.StateActive {
		return fmt.Errorf("project %d is deactivated: %w", projectID, ErrNotFound)
	}
	return nil
}

func activeColumn(tx Tx, id int64) (models.Column, error) {
	col, err := tx.ColumnByID(id)
	if err != nil {
		return models.Column{}, err
	}
	if col.State != models.StateActive {
		return models.Column{}, fmt.Errorf("column %d is deactivated: %w", id, ErrNotFound)
	}
	return col, nil
}

func checkFixedHeadroom(tx Tx, projectID int64, cols []models.Column) error {
	fixed := 0
	for _, c := range cols {
		if c.Type == models.ColumnFixed {
			fixed++
		}
	}
	if fixed >= models.MaxFixedColumns {
		return fmt.Errorf("project already has %d fixed columns: %w", models.MaxFixedColumns, ErrLimitExceeded)
	}
	return nil
}

func checkStatusFree(cols []models.Column, status models.FixedStatus, excludeID int64) error {
	for _, c := range cols {
		if c.ID != excludeID && c.FixedStatus == status {
			return fmt.Errorf("column %q already holds status %q: %w", c.Name, status, ErrStatusConflict)
		}
	}
	return nil
}
