package board_test

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

// fixture wires every service against one fresh database and seeds a project
// whose "In Progress" and "Done" columns carry their fixed statuses.
type fixture struct {
	store    *sqlite.Store
	projects *board.Projects
	registry *board.Registry
	tasks    *board.Tasks
	ledger   *board.Ledger
	cfd      *board.Reconstructor

	project models.Project
	cols    map[string]models.Column
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newStore(t)
	logger := testLogger()
	f := &fixture{
		store:    store,
		projects: board.NewProjects(store, logger),
		registry: board.NewRegistry(store, logger),
		tasks:    board.NewTasks(store, board.NopNotifier{}, logger, time.UTC),
		ledger:   board.NewLedger(store),
		cfd:      board.NewReconstructor(store, logger, time.UTC),
	}

	ctx := context.Background()
	var err error
	f.project, err = f.projects.Create(ctx, "Release Board", 1)
	require.NoError(t, err)

	f.reloadColumns(t)
	_, err = f.registry.SetFixedStatus(ctx, f.cols["In Progress"].ID, models.FixedInProgress)
	require.NoError(t, err)
	_, err = f.registry.SetFixedStatus(ctx, f.cols["Done"].ID, models.FixedDone)
	require.NoError(t, err)
	f.reloadColumns(t)
	return f
}

func (f *fixture) reloadColumns(t *testing.T) {
	t.Helper()
	cols, err := f.registry.List(context.Background(), f.project.ID)
	require.NoError(t, err)
	f.cols = make(map[string]models.Column, len(cols))
	for _, c := range cols {
		f.cols[c.Name] = c
	}
}

func (f *fixture) addTask(t *testing.T, column string, title string) models.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), board.TaskInput{
		ProjectID: f.project.ID,
		ColumnID:  f.cols[column].ID,
		Title:     title,
		CreatedBy: 1,
	})
	require.NoError(t, err)
	return task
}

func (f *fixture) columnTasks(t *testing.T, column string) []models.Task {
	t.Helper()
	tasks, err := f.tasks.ListByColumn(context.Background(), f.cols[column].ID)
	require.NoError(t, err)
	return tasks
}

func positionsOf(tasks []models.Task) []int {
	out := make([]int, len(tasks))
	for i, task := range tasks {
		out[i] = task.Position
	}
	return out
}

func titlesOf(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Title
	}
	return out
}
