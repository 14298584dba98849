package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"kanban/internal/board"
	"kanban/internal/models"
)

// writeRetries bounds the local retry budget for contended write
// transactions before surfacing board.ErrConflict.
const writeRetries = 3

// Store wraps access to the SQLite database and implements board.Store.
// Write transactions start with an immediate lock (_txlock=immediate) so a
// transaction that reads positions and then shifts them holds the write lock
// for its whole lifetime; combined with the busy timeout this gives the
// select-for-update semantics the board engine requires.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open initializes the SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON&_txlock=immediate&_loc=UTC", dbPath)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS projects (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            created_by INTEGER NOT NULL DEFAULT 0,
            state TEXT NOT NULL DEFAULT 'active',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS columns (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            project_id INTEGER NOT NULL,
            name TEXT NOT NULL,
            position INTEGER NOT NULL,
            col_type TEXT NOT NULL DEFAULT 'normal',
            fixed_status TEXT,
            state TEXT NOT NULL DEFAULT 'active',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            FOREIGN KEY(project_id) REFERENCES projects(id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_columns_project ON columns(project_id, state, position);`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            project_id INTEGER NOT NULL,
            column_id INTEGER NOT NULL,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            priority TEXT NOT NULL DEFAULT 'medium',
            created_by INTEGER NOT NULL DEFAULT 0,
            assignee INTEGER,
            due_at DATETIME,
            started_at DATETIME,
            completed_at DATETIME,
            position INTEGER NOT NULL DEFAULT 0,
            state TEXT NOT NULL DEFAULT 'active',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            FOREIGN KEY(project_id) REFERENCES projects(id),
            FOREIGN KEY(column_id) REFERENCES columns(id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_column ON tasks(column_id, state, position);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id, state);`,
		`CREATE TABLE IF NOT EXISTS movements (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_id INTEGER NOT NULL,
            from_column INTEGER,
            to_column INTEGER NOT NULL,
            actor INTEGER,
            moved_at DATETIME NOT NULL,
            FOREIGN KEY(task_id) REFERENCES tasks(id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_movements_task ON movements(task_id, moved_at);`,
		`CREATE TABLE IF NOT EXISTS cfd_snapshots (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            project_id INTEGER NOT NULL,
            day TEXT NOT NULL,
            counts TEXT NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE(project_id, day),
            FOREIGN KEY(project_id) REFERENCES projects(id)
        );`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// View runs fn inside a read transaction.
func (s *Store) View(ctx context.Context, fn func(board.Tx) error) error {
	return s.runTx(ctx, fn)
}

// Update runs fn inside a write transaction, retrying a bounded number of
// times when the database is locked by a concurrent writer. Deterministic
// errors from fn are returned as-is on the first attempt.
func (s *Store) Update(ctx context.Context, fn func(board.Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= writeRetries; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil || !isLockContention(err) {
			return err
		}
		lastErr = err
		s.logger.Warn("write transaction contended",
			slog.Int("attempt", attempt), slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
		}
	}
	return fmt.Errorf("write transaction still contended after %d attempts (%v): %w", writeRetries, lastErr, board.ErrConflict)
}

func (s *Store) runTx(ctx context.Context, fn func(board.Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&tx{t: dbTx}); err != nil {
		_ = dbTx.Rollback()
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func isLockContention(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// tx implements board.Tx over a single *sql.Tx.
type tx struct {
	t *sql.Tx
}

/********************
 * Projects
 ********************/

func (x *tx) InsertProject(p models.Project) (int64, error) {
	res, err := x.t.Exec(
		`INSERT INTO projects(name, created_by, state, created_at, updated_at) VALUES(?, ?, ?, ?, ?)`,
		p.Name, p.CreatedBy, p.State, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}
	return res.LastInsertId()
}

func (x *tx) ProjectByID(id int64) (models.Project, error) {
	var p models.Project
	err := x.t.QueryRow(
		`SELECT id, name, created_by, state, created_at, updated_at FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.CreatedBy, &p.State, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, fmt.Errorf("project %d: %w", id, board.ErrNotFound)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (x *tx) Projects() ([]models.Project, error) {
	rows, err := x.t.Query(
		`SELECT id, name, created_by, state, created_at, updated_at
         FROM projects WHERE state = 'active' ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedBy, &p.State, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (x *tx) DeactivateProject(id int64) error {
	_, err := x.t.Exec(
		`UPDATE projects SET state = 'deactivated', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

func (x *tx) DeactivateProjectColumns(projectID int64) error {
	_, err := x.t.Exec(
		`UPDATE columns SET state = 'deactivated', updated_at = CURRENT_TIMESTAMP
         WHERE project_id = ? AND state = 'active'`, projectID)
	return err
}

func (x *tx) DeactivateProjectTasks(projectID int64) error {
	_, err := x.t.Exec(
		`UPDATE tasks SET state = 'deactivated', updated_at = CURRENT_TIMESTAMP
         WHERE project_id = ? AND state = 'active'`, projectID)
	return err
}

/********************
 * Columns
 ********************/

const columnCols = `id, project_id, name, position, col_type, fixed_status, state, created_at, updated_at`

func scanColumn(row interface{ Scan(...any) error }) (models.Column, error) {
	var c models.Column
	var status sql.NullString
	err := row.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Position, &c.Type, &status, &c.State, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Column{}, err
	}
	if status.Valid {
		c.FixedStatus = models.FixedStatus(status.String)
	}
	return c, nil
}

func nullStatus(s models.FixedStatus) any {
	if s == models.FixedNone {
		return nil
	}
	return string(s)
}

func (x *tx) InsertColumn(c models.Column) (int64, error) {
	res, err := x.t.Exec(
		`INSERT INTO columns(project_id, name, position, col_type, fixed_status, state, created_at, updated_at)
         VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ProjectID, c.Name, c.Position, c.Type, nullStatus(c.FixedStatus), c.State, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert column: %w", err)
	}
	return res.LastInsertId()
}

func (x *tx) ColumnByID(id int64) (models.Column, error) {
	c, err := scanColumn(x.t.QueryRow(`SELECT `+columnCols+` FROM columns WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Column{}, fmt.Errorf("column %d: %w", id, board.ErrNotFound)
	}
	if err != nil {
		return models.Column{}, fmt.Errorf("get column: %w", err)
	}
	return c, nil
}

func (x *tx) ColumnsByProject(projectID int64) ([]models.Column, error) {
	rows, err := x.t.Query(
		`SELECT `+columnCols+` FROM columns
         WHERE project_id = ? AND state = 'active' ORDER BY position ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	var out []models.Column
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (x *tx) ColumnNameExists(projectID int64, name string, excludeID int64) (bool, error) {
	var n int
	err := x.t.QueryRow(
		`SELECT COUNT(*) FROM columns
         WHERE project_id = ? AND name = ? AND state = 'active' AND id != ?`,
		projectID, name, excludeID).Scan(&n)
	return n > 0, err
}

func (x *tx) ColumnPositionExists(projectID int64, position int) (bool, error) {
	var n int
	err := x.t.QueryRow(
		`SELECT COUNT(*) FROM columns
         WHERE project_id = ? AND position = ? AND state = 'active'`,
		projectID, position).Scan(&n)
	return n > 0, err
}

func (x *tx) ShiftColumnPositions(projectID int64, lo, hi, delta int) error {
	_, err := x.t.Exec(
		`UPDATE columns SET position = position + ?, updated_at = CURRENT_TIMESTAMP
         WHERE project_id = ? AND state = 'active' AND position >= ? AND position <= ?`,
		delta, projectID, lo, hi)
	return err
}

func (x *tx) SetColumnPosition(id int64, position int) error {
	_, err := x.t.Exec(
		`UPDATE columns SET position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, position, id)
	return err
}

func (x *tx) SetColumnName(id int64, name string) error {
	_, err := x.t.Exec(
		`UPDATE columns SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	return err
}

func (x *tx) SetColumnType(id int64, typ models.ColumnType, status models.FixedStatus) error {
	_, err := x.t.Exec(
		`UPDATE columns SET col_type = ?, fixed_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		typ, nullStatus(status), id)
	return err
}

func (x *tx) DeactivateColumn(id int64) error {
	_, err := x.t.Exec(
		`UPDATE columns SET state = 'deactivated', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

/********************
 * Tasks
 ********************/

const taskCols = `id, project_id, column_id, title, description, priority, created_by,
        assignee, due_at, started_at, completed_at, position, state, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var t models.Task
	var assignee sql.NullInt64
	var due, started, completed sql.NullTime
	err := row.Scan(&t.ID, &t.ProjectID, &t.ColumnID, &t.Title, &t.Description, &t.Priority, &t.CreatedBy,
		&assignee, &due, &started, &completed, &t.Position, &t.State, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Task{}, err
	}
	if assignee.Valid {
		t.Assignee = &assignee.Int64
	}
	if due.Valid {
		t.DueAt = &due.Time
	}
	if started.Valid {
		t.StartedAt = &started.Time
	}
	if completed.Valid {
		t.CompletedAt = &completed.Time
	}
	return t, nil
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC()
}

func (x *tx) InsertTask(t models.Task) (int64, error) {
	res, err := x.t.Exec(
		`INSERT INTO tasks(project_id, column_id, title, description, priority, created_by,
             assignee, due_at, started_at, completed_at, position, state, created_at, updated_at)
         VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ProjectID, t.ColumnID, t.Title, t.Description, t.Priority, t.CreatedBy,
		nullInt64(t.Assignee), nullTime(t.DueAt), nullTime(t.StartedAt), nullTime(t.CompletedAt),
		t.Position, t.State, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	return res.LastInsertId()
}

func (x *tx) TaskByID(id int64) (models.Task, error) {
	t, err := scanTask(x.t.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %d: %w", id, board.ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (x *tx) queryTasks(query string, args ...any) ([]models.Task, error) {
	rows, err := x.t.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (x *tx) TasksByColumn(columnID int64) ([]models.Task, error) {
	return x.queryTasks(
		`SELECT `+taskCols+` FROM tasks
         WHERE column_id = ? AND state = 'active' ORDER BY position ASC, id ASC`, columnID)
}

func (x *tx) TasksCreatedThrough(projectID int64, cutoff time.Time) ([]models.Task, error) {
	return x.queryTasks(
		`SELECT `+taskCols+` FROM tasks
         WHERE project_id = ? AND state = 'active' AND created_at <= ? ORDER BY id ASC`,
		projectID, cutoff.UTC())
}

func (x *tx) TasksDueBetween(from, to time.Time) ([]models.Task, error) {
	return x.queryTasks(
		`SELECT `+taskCols+` FROM tasks
         WHERE state = 'active' AND due_at IS NOT NULL AND due_at >= ? AND due_at <= ?
         ORDER BY due_at ASC, id ASC`,
		from.UTC(), to.UTC())
}

func (x *tx) CountTasksInColumn(columnID int64) (int, error) {
	var n int
	err := x.t.QueryRow(
		`SELECT COUNT(*) FROM tasks WHERE column_id = ? AND state = 'active'`, columnID).Scan(&n)
	return n, err
}

func (x *tx) CountTasksInProject(projectID int64) (int, error) {
	var n int
	err := x.t.QueryRow(
		`SELECT COUNT(*) FROM tasks WHERE project_id = ? AND state = 'active'`, projectID).Scan(&n)
	return n, err
}

func (x *tx) TaskTitleExists(projectID int64, title string, excludeID int64) (bool, error) {
	var n int
	err := x.t.QueryRow(
		`SELECT COUNT(*) FROM tasks
         WHERE project_id = ? AND title = ? AND state = 'active' AND id != ?`,
		projectID, title, excludeID).Scan(&n)
	return n > 0, err
}

func (x *tx) UpdateTask(t models.Task) error {
	_, err := x.t.Exec(
		`UPDATE tasks SET title = ?, description = ?, priority = ?, assignee = ?,
             due_at = ?, started_at = ?, completed_at = ?, updated_at = ?
         WHERE id = ?`,
		t.Title, t.Description, t.Priority, nullInt64(t.Assignee),
		nullTime(t.DueAt), nullTime(t.StartedAt), nullTime(t.CompletedAt), t.UpdatedAt.UTC(), t.ID)
	return err
}

func (x *tx) PlaceTask(id, columnID int64, position int) error {
	_, err := x.t.Exec(
		`UPDATE tasks SET column_id = ?, position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		columnID, position, id)
	return err
}

func (x *tx) SetTaskPosition(id int64, position int) error {
	_, err := x.t.Exec(
		`UPDATE tasks SET position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, position, id)
	return err
}

func (x *tx) CloseTaskGap(columnID int64, abovePosition int) error {
	_, err := x.t.Exec(
		`UPDATE tasks SET position = position - 1, updated_at = CURRENT_TIMESTAMP
         WHERE column_id = ? AND state = 'active' AND position > ?`,
		columnID, abovePosition)
	return err
}

func (x *tx) OpenTaskSlot(columnID int64, fromPosition, width int) error {
	_, err := x.t.Exec(
		`UPDATE tasks SET position = position + ?, updated_at = CURRENT_TIMESTAMP
         WHERE column_id = ? AND state = 'active' AND position >= ?`,
		width, columnID, fromPosition)
	return err
}

func (x *tx) MaxTaskPosition(columnID int64) (int, bool, error) {
	var max sql.NullInt64
	err := x.t.QueryRow(
		`SELECT MAX(position) FROM tasks WHERE column_id = ? AND state = 'active'`, columnID).Scan(&max)
	if err != nil {
		return 0, false, fmt.Errorf("max position: %w", err)
	}
	return int(max.Int64), max.Valid, nil
}

func (x *tx) DeactivateTask(id int64) error {
	_, err := x.t.Exec(
		`UPDATE tasks SET state = 'deactivated', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

/********************
 * Movement ledger
 ********************/

func (x *tx) AppendMovement(m models.MovementRecord) (int64, error) {
	res, err := x.t.Exec(
		`INSERT INTO movements(task_id, from_column, to_column, actor, moved_at) VALUES(?, ?, ?, ?, ?)`,
		m.TaskID, nullInt64(m.FromColumn), m.ToColumn, nullInt64(m.Actor), m.MovedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("append movement: %w", err)
	}
	return res.LastInsertId()
}

func scanMovement(row interface{ Scan(...any) error }) (models.MovementRecord, error) {
	var m models.MovementRecord
	var from, actor sql.NullInt64
	err := row.Scan(&m.ID, &m.TaskID, &from, &m.ToColumn, &actor, &m.MovedAt)
	if err != nil {
		return models.MovementRecord{}, err
	}
	if from.Valid {
		m.FromColumn = &from.Int64
	}
	if actor.Valid {
		m.Actor = &actor.Int64
	}
	return m, nil
}

func (x *tx) MovementsByTask(taskID int64) ([]models.MovementRecord, error) {
	rows, err := x.t.Query(
		`SELECT id, task_id, from_column, to_column, actor, moved_at
         FROM movements WHERE task_id = ? ORDER BY moved_at ASC, id ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var out []models.MovementRecord
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (x *tx) LatestMovementThrough(taskID int64, cutoff time.Time) (*models.MovementRecord, error) {
	m, err := scanMovement(x.t.QueryRow(
		`SELECT id, task_id, from_column, to_column, actor, moved_at
         FROM movements WHERE task_id = ? AND moved_at <= ?
         ORDER BY moved_at DESC, id DESC LIMIT 1`,
		taskID, cutoff.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest movement: %w", err)
	}
	return &m, nil
}

/********************
 * CFD snapshots
 ********************/

func (x *tx) UpsertCfdSnapshot(projectID int64, day string, counts map[string]int) error {
	payload, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}
	_, err = x.t.Exec(
		`INSERT INTO cfd_snapshots(project_id, day, counts) VALUES(?, ?, ?)
         ON CONFLICT(project_id, day)
         DO UPDATE SET counts = excluded.counts, updated_at = CURRENT_TIMESTAMP`,
		projectID, day, string(payload))
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func scanSnapshot(row interface{ Scan(...any) error }) (models.CfdSnapshot, error) {
	var s models.CfdSnapshot
	var counts string
	if err := row.Scan(&s.ID, &s.ProjectID, &s.Day, &counts, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return models.CfdSnapshot{}, err
	}
	if err := json.Unmarshal([]byte(counts), &s.Counts); err != nil {
		return models.CfdSnapshot{}, fmt.Errorf("decode counts: %w", err)
	}
	return s, nil
}

func (x *tx) CfdSnapshotByDay(projectID int64, day string) (models.CfdSnapshot, error) {
	s, err := scanSnapshot(x.t.QueryRow(
		`SELECT id, project_id, day, counts, created_at, updated_at
         FROM cfd_snapshots WHERE project_id = ? AND day = ?`, projectID, day))
	if errors.Is(err, sql.ErrNoRows) {
		return models.CfdSnapshot{}, fmt.Errorf("snapshot %d/%s: %w", projectID, day, board.ErrNotFound)
	}
	if err != nil {
		return models.CfdSnapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	return s, nil
}

func (x *tx) CfdSnapshots(projectID int64, fromDay, toDay string) ([]models.CfdSnapshot, error) {
	rows, err := x.t.Query(
		`SELECT id, project_id, day, counts, created_at, updated_at
         FROM cfd_snapshots WHERE project_id = ? AND day >= ? AND day <= ? ORDER BY day ASC`,
		projectID, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.CfdSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
