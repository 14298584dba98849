package board

import (
	"context"
	"time"

	"kanban/internal/models"
)

// Store is the persistence boundary of the board engine. Implementations
// provide transactional access with write serialization: Update must run fn
// under an exclusive write transaction so that position shifts computed from
// reads inside fn cannot go stale, and must surface ErrConflict once bounded
// lock retries are exhausted. View runs fn with plain read consistency.
//
// All reads return only active entities unless the method name says
// otherwise; soft-delete filtering lives here, not in callers.
type Store interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
}

// Tx exposes the per-entity repository operations available inside a
// transaction. Values returned are immutable snapshots; all mutation goes
// through explicit methods.
type Tx interface {
	// Projects.
	InsertProject(p models.Project) (int64, error)
	ProjectByID(id int64) (models.Project, error)
	Projects() ([]models.Project, error)
	DeactivateProject(id int64) error
	DeactivateProjectColumns(projectID int64) error
	DeactivateProjectTasks(projectID int64) error

	// Columns. ColumnByID returns the row regardless of state so callers can
	// distinguish missing from deactivated; every other read is active-only.
	InsertColumn(c models.Column) (int64, error)
	ColumnByID(id int64) (models.Column, error)
	ColumnsByProject(projectID int64) ([]models.Column, error)
	ColumnNameExists(projectID int64, name string, excludeID int64) (bool, error)
	ColumnPositionExists(projectID int64, position int) (bool, error)
	ShiftColumnPositions(projectID int64, lo, hi, delta int) error
	SetColumnPosition(id int64, position int) error
	SetColumnName(id int64, name string) error
	SetColumnType(id int64, typ models.ColumnType, status models.FixedStatus) error
	DeactivateColumn(id int64) error

	// Tasks. TaskByID returns the row regardless of state.
	InsertTask(t models.Task) (int64, error)
	TaskByID(id int64) (models.Task, error)
	TasksByColumn(columnID int64) ([]models.Task, error)
	TasksCreatedThrough(projectID int64, cutoff time.Time) ([]models.Task, error)
	TasksDueBetween(from, to time.Time) ([]models.Task, error)
	CountTasksInColumn(columnID int64) (int, error)
	CountTasksInProject(projectID int64) (int, error)
	TaskTitleExists(projectID int64, title string, excludeID int64) (bool, error)
	UpdateTask(t models.Task) error
	PlaceTask(id, columnID int64, position int) error
	SetTaskPosition(id int64, position int) error
	CloseTaskGap(columnID int64, abovePosition int) error
	OpenTaskSlot(columnID int64, fromPosition, width int) error
	MaxTaskPosition(columnID int64) (int, bool, error)
	DeactivateTask(id int64) error

	// Movement ledger: append-only, no update or delete exists.
	AppendMovement(m models.MovementRecord) (int64, error)
	MovementsByTask(taskID int64) ([]models.MovementRecord, error)
	LatestMovementThrough(taskID int64, cutoff time.Time) (*models.MovementRecord, error)

	// CFD snapshots, keyed by (project, day).
	UpsertCfdSnapshot(projectID int64, day string, counts map[string]int) error
	CfdSnapshotByDay(projectID int64, day string) (models.CfdSnapshot, error)
	CfdSnapshots(projectID int64, fromDay, toDay string) ([]models.CfdSnapshot, error)
}

// Notifier receives the events the board raises for the notification
// collaborator. Formatting and delivery are out of scope; implementations
// must not block board operations.
type Notifier interface {
	TaskAssigned(ctx context.Context, task models.Task)
	TaskDueSoon(ctx context.Context, task models.Task)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) TaskAssigned(context.Context, models.Task) {}
func (NopNotifier) TaskDueSoon(context.Context, models.Task)  {}

// DueSoon reports whether the task falls under the next-day reminder rule:
// it has a due date on tomorrow's calendar day in the given location.
func DueSoon(t models.Task, now time.Time, loc *time.Location) bool {
	if t.DueAt == nil {
		return false
	}
	tomorrow := now.In(loc).AddDate(0, 0, 1)
	due := t.DueAt.In(loc)
	return due.Year() == tomorrow.Year() && due.YearDay() == tomorrow.YearDay()
}
