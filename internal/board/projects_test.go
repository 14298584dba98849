package board_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"kanban/internal/board"
)

func TestCreateProjectValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.projects.Create(context.Background(), "   ", 1)
	require.ErrorIs(t, err, board.ErrInvalidInput)
}

func TestListProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second, err := f.projects.Create(ctx, "Second Board", 2)
	require.NoError(t, err)

	all, err := f.projects.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, f.projects.Deactivate(ctx, second.ID))
	all, err = f.projects.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, f.project.ID, all[0].ID)
}

func TestDeactivateProjectCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := f.addTask(t, "Backlog", "write parser")
	require.NoError(t, f.projects.Deactivate(ctx, f.project.ID))

	_, err := f.projects.Get(ctx, f.project.ID)
	require.ErrorIs(t, err, board.ErrNotFound)
	_, err = f.registry.Get(ctx, f.cols["Backlog"].ID)
	require.ErrorIs(t, err, board.ErrNotFound)
	_, err = f.tasks.Get(ctx, task.ID)
	require.ErrorIs(t, err, board.ErrNotFound)

	// Deactivation is permanent and not repeatable.
	require.ErrorIs(t, f.projects.Deactivate(ctx, f.project.ID), board.ErrNotFound)

	// The movement ledger keeps its records.
	recs, err := f.ledger.History(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}
