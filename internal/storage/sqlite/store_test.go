package sqlite_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kanban/internal/board"
	"kanban/internal/models"
	"kanban/internal/storage/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "board.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// seed inserts one project with one column and returns their ids.
func seed(t *testing.T, store *sqlite.Store) (projectID, columnID int64) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, store.Update(context.Background(), func(tx board.Tx) error {
		var err error
		projectID, err = tx.InsertProject(models.Project{
			Name: "Seeded", State: models.StateActive, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		columnID, err = tx.InsertColumn(models.Column{
			ProjectID: projectID, Name: "Backlog", Position: 1,
			Type: models.ColumnNormal, State: models.StateActive,
			CreatedAt: now, UpdatedAt: now,
		})
		return err
	}))
	return projectID, columnID
}

func seedTask(t *testing.T, store *sqlite.Store, projectID, columnID int64, title string, position int) int64 {
	t.Helper()
	now := time.Now().UTC()
	var id int64
	require.NoError(t, store.Update(context.Background(), func(tx board.Tx) error {
		var err error
		id, err = tx.InsertTask(models.Task{
			ProjectID: projectID, ColumnID: columnID, Title: title,
			Priority: models.PriorityMedium, Position: position,
			State: models.StateActive, CreatedAt: now, UpdatedAt: now,
		})
		return err
	}))
	return id
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := sqlite.Open("", testLogger())
	require.Error(t, err)
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "board.db")
	store, err := sqlite.Open(path, testLogger())
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestProjectNotFound(t *testing.T) {
	store := newStore(t)
	err := store.View(context.Background(), func(tx board.Tx) error {
		_, err := tx.ProjectByID(42)
		return err
	})
	require.ErrorIs(t, err, board.ErrNotFound)
}

func TestMaxTaskPositionOnEmptyColumn(t *testing.T) {
	store := newStore(t)
	_, columnID := seed(t, store)

	require.NoError(t, store.View(context.Background(), func(tx board.Tx) error {
		_, ok, err := tx.MaxTaskPosition(columnID)
		require.NoError(t, err)
		require.False(t, ok)
		return nil
	}))
}

func TestOpenSlotAndCloseGap(t *testing.T) {
	store := newStore(t)
	projectID, columnID := seed(t, store)
	seedTask(t, store, projectID, columnID, "a", 0)
	b := seedTask(t, store, projectID, columnID, "b", 1)
	seedTask(t, store, projectID, columnID, "c", 2)

	ctx := context.Background()
	require.NoError(t, store.Update(ctx, func(tx board.Tx) error {
		// Open a two-wide slot at position 1: a stays, b and c shift to 3 and 4.
		if err := tx.OpenTaskSlot(columnID, 1, 2); err != nil {
			return err
		}
		tasks, err := tx.TasksByColumn(columnID)
		require.NoError(t, err)
		require.Equal(t, []int{0, 3, 4}, taskPositions(tasks))

		// Closing the gap above b's old slot pulls them back by one.
		if err := tx.CloseTaskGap(columnID, 1); err != nil {
			return err
		}
		tasks, err = tx.TasksByColumn(columnID)
		require.NoError(t, err)
		require.Equal(t, []int{0, 2, 3}, taskPositions(tasks))

		max, ok, err := tx.MaxTaskPosition(columnID)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 3, max)
		return nil
	}))

	// Deactivated tasks stop participating in shifts.
	require.NoError(t, store.Update(ctx, func(tx board.Tx) error {
		if err := tx.DeactivateTask(b); err != nil {
			return err
		}
		tasks, err := tx.TasksByColumn(columnID)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		return nil
	}))
}

func TestShiftColumnPositions(t *testing.T) {
	store := newStore(t)
	projectID, _ := seed(t, store)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Update(ctx, func(tx board.Tx) error {
		for i, name := range []string{"Two", "Three"} {
			_, err := tx.InsertColumn(models.Column{
				ProjectID: projectID, Name: name, Position: i + 2,
				Type: models.ColumnNormal, State: models.StateActive,
				CreatedAt: now, UpdatedAt: now,
			})
			if err != nil {
				return err
			}
		}
		if err := tx.ShiftColumnPositions(projectID, 2, 3, +1); err != nil {
			return err
		}
		cols, err := tx.ColumnsByProject(projectID)
		require.NoError(t, err)
		positions := make([]int, len(cols))
		for i, c := range cols {
			positions[i] = c.Position
		}
		require.Equal(t, []int{1, 3, 4}, positions)
		return nil
	}))
}

func TestLatestMovementTieBreaksOnID(t *testing.T) {
	store := newStore(t)
	projectID, columnID := seed(t, store)
	taskID := seedTask(t, store, projectID, columnID, "a", 0)

	at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	require.NoError(t, store.Update(ctx, func(tx board.Tx) error {
		from := columnID
		if _, err := tx.AppendMovement(models.MovementRecord{TaskID: taskID, ToColumn: columnID, MovedAt: at}); err != nil {
			return err
		}
		// Same timestamp: the higher id wins.
		if _, err := tx.AppendMovement(models.MovementRecord{TaskID: taskID, FromColumn: &from, ToColumn: 77, MovedAt: at}); err != nil {
			return err
		}
		mov, err := tx.LatestMovementThrough(taskID, at)
		require.NoError(t, err)
		require.NotNil(t, mov)
		require.Equal(t, int64(77), mov.ToColumn)

		// A cutoff before the records yields no movement, not an error.
		mov, err = tx.LatestMovementThrough(taskID, at.Add(-time.Hour))
		require.NoError(t, err)
		require.Nil(t, mov)
		return nil
	}))
}

func TestSnapshotUpsertKeepsOneRowPerDay(t *testing.T) {
	store := newStore(t)
	projectID, _ := seed(t, store)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(tx board.Tx) error {
		if err := tx.UpsertCfdSnapshot(projectID, "2026-03-02", map[string]int{"Backlog": 1}); err != nil {
			return err
		}
		return tx.UpsertCfdSnapshot(projectID, "2026-03-02", map[string]int{"Backlog": 2})
	}))

	require.NoError(t, store.View(ctx, func(tx board.Tx) error {
		snap, err := tx.CfdSnapshotByDay(projectID, "2026-03-02")
		require.NoError(t, err)
		require.Equal(t, map[string]int{"Backlog": 2}, snap.Counts)

		all, err := tx.CfdSnapshots(projectID, "2026-03-01", "2026-03-03")
		require.NoError(t, err)
		require.Len(t, all, 1)
		return nil
	}))
}

func TestTasksDueBetweenBounds(t *testing.T) {
	store := newStore(t)
	projectID, columnID := seed(t, store)
	ctx := context.Background()
	now := time.Now().UTC()

	day := func(s string) time.Time {
		d, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return d
	}
	insert := func(title string, due time.Time) {
		require.NoError(t, store.Update(ctx, func(tx board.Tx) error {
			_, err := tx.InsertTask(models.Task{
				ProjectID: projectID, ColumnID: columnID, Title: title,
				Priority: models.PriorityMedium, DueAt: &due,
				State: models.StateActive, CreatedAt: now, UpdatedAt: now,
			})
			return err
		}))
	}
	insert("inside", day("2026-03-03T12:00:00Z"))
	insert("before", day("2026-03-02T23:00:00Z"))
	insert("after", day("2026-03-04T01:00:00Z"))

	require.NoError(t, store.View(ctx, func(tx board.Tx) error {
		due, err := tx.TasksDueBetween(day("2026-03-03T00:00:00Z"), day("2026-03-03T23:59:59Z"))
		require.NoError(t, err)
		require.Len(t, due, 1)
		require.Equal(t, "inside", due[0].Title)
		return nil
	}))
}

func taskPositions(tasks []models.Task) []int {
	out := make([]int, len(tasks))
	for i, task := range tasks {
		out[i] = task.Position
	}
	return out
}
