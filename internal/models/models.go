package models

import "time"

// State marks whether an entity participates in the live board. Entities are
// never hard-deleted; deactivation is permanent for tasks.
type State string

const (
	StateActive      State = "active"
	StateDeactivated State = "deactivated"
)

// ColumnType distinguishes user-manageable columns from the two structural
// workflow anchors a project may have.
type ColumnType string

const (
	ColumnNormal ColumnType = "normal"
	ColumnFixed  ColumnType = "fixed"
)

// FixedStatus sub-classifies a fixed column. FixedNone is the only valid
// value for normal columns.
type FixedStatus string

const (
	FixedNone       FixedStatus = ""
	FixedInProgress FixedStatus = "in_progress"
	FixedDone       FixedStatus = "done"
)

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriorities enumerates the priorities a task may carry.
var ValidPriorities = map[Priority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
}

// Board limits. Column positions are 1-based and contiguous per project;
// task positions are 0-based and contiguous per column.
const (
	MaxColumnsPerProject = 10
	MaxFixedColumns      = 2
	MaxTasksNormalColumn = 20
	MaxTasksFixedColumn  = 200
	MaxTasksPerProject   = 200
	MaxColumnNameLen     = 25
	MaxTaskTitleLen      = 30
	MaxDescriptionLen    = 1000
)

// Project groups columns and tasks. Identity only; deactivating a project
// cascades to its columns and tasks.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"created_by"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Column is an ordered container of tasks within a project.
type Column struct {
	ID          int64       `json:"id"`
	ProjectID   int64       `json:"project_id"`
	Name        string      `json:"name"`
	Position    int         `json:"position"`
	Type        ColumnType  `json:"type"`
	FixedStatus FixedStatus `json:"fixed_status,omitempty"`
	State       State       `json:"state"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IsInProgress reports whether the column is the project's designated
// in-progress stage.
func (c Column) IsInProgress() bool {
	return c.Type == ColumnFixed && c.FixedStatus == FixedInProgress
}

// IsDone reports whether the column is the project's designated done stage.
func (c Column) IsDone() bool {
	return c.Type == ColumnFixed && c.FixedStatus == FixedDone
}

// Capacity returns the active-task cap for the column's type.
func (c Column) Capacity() int {
	if c.Type == ColumnFixed {
		return MaxTasksFixedColumn
	}
	return MaxTasksNormalColumn
}

// Task is a single card on the board.
type Task struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	ColumnID    int64      `json:"column_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	CreatedBy   int64      `json:"created_by"`
	Assignee    *int64     `json:"assignee,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Position    int        `json:"position"`
	State       State      `json:"state"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MovementRecord is one immutable entry of the append-only movement ledger.
// FromColumn is nil for the record written when the task is created.
type MovementRecord struct {
	ID         int64     `json:"id"`
	TaskID     int64     `json:"task_id"`
	FromColumn *int64    `json:"from_column,omitempty"`
	ToColumn   int64     `json:"to_column"`
	Actor      *int64    `json:"actor,omitempty"`
	MovedAt    time.Time `json:"moved_at"`
}

// CfdSnapshot holds the per-column task tally for one project and one
// calendar day, keyed uniquely by (ProjectID, Day). Day is "YYYY-MM-DD".
type CfdSnapshot struct {
	ID        int64          `json:"id"`
	ProjectID int64          `json:"project_id"`
	Day       string         `json:"day"`
	Counts    map[string]int `json:"counts"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DefaultColumnNames seeds every new project, in position order.
var DefaultColumnNames = []string{"Backlog", "To Do", "In Progress", "Done"}
