package board_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kanban/internal/board"
	"kanban/internal/models"
)

func TestHistoryStartsWithCreationRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addTask(t, "Backlog", "write parser")
	recs, err := f.ledger.History(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Nil(t, recs[0].FromColumn)
	require.Equal(t, f.cols["Backlog"].ID, recs[0].ToColumn)
	require.NotNil(t, recs[0].Actor)
	require.Equal(t, int64(1), *recs[0].Actor)
}

func TestHistoryChainsAcrossMoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addTask(t, "Backlog", "write parser")
	actor := int64(7)
	_, err := f.tasks.Move(ctx, a.ID, f.cols["To Do"].ID, 0, &actor)
	require.NoError(t, err)
	_, err = f.tasks.Move(ctx, a.ID, f.cols["In Progress"].ID, 0, &actor)
	require.NoError(t, err)
	_, err = f.tasks.Move(ctx, a.ID, f.cols["Done"].ID, 0, &actor)
	require.NoError(t, err)

	recs, err := f.ledger.History(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, recs, 4)
	require.NoError(t, board.VerifyChain(recs))
	require.Equal(t, f.cols["Done"].ID, recs[3].ToColumn)
	require.Equal(t, int64(7), *recs[3].Actor)
}

func TestHistorySurvivesTaskDeactivation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addTask(t, "Backlog", "write parser")
	_, err := f.tasks.Move(ctx, a.ID, f.cols["To Do"].ID, 0, nil)
	require.NoError(t, err)
	require.NoError(t, f.tasks.Delete(ctx, a.ID))

	recs, err := f.ledger.History(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	_, err = f.ledger.History(ctx, 9999)
	require.ErrorIs(t, err, board.ErrNotFound)
}

func TestVerifyChain(t *testing.T) {
	from := int64(1)
	base := time.Now()
	good := []models.MovementRecord{
		{ID: 1, ToColumn: 1, MovedAt: base},
		{ID: 2, FromColumn: &from, ToColumn: 2, MovedAt: base.Add(time.Minute)},
	}
	require.NoError(t, board.VerifyChain(good))

	wrongFrom := int64(3)
	broken := []models.MovementRecord{
		{ID: 1, ToColumn: 1, MovedAt: base},
		{ID: 2, FromColumn: &wrongFrom, ToColumn: 2, MovedAt: base.Add(time.Minute)},
	}
	require.Error(t, board.VerifyChain(broken))

	backwards := []models.MovementRecord{
		{ID: 1, ToColumn: 1, MovedAt: base},
		{ID: 2, FromColumn: &from, ToColumn: 2, MovedAt: base.Add(-time.Minute)},
	}
	require.Error(t, board.VerifyChain(backwards))
}
