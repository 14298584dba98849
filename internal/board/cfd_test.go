package board_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kanban/internal/board"
)

func TestClampDays(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		fallback int
		want     int
	}{
		{"zero means fallback", 0, board.DefaultCfdDays, board.DefaultCfdDays},
		{"negative means fallback", -5, board.DefaultCfdDays, board.DefaultCfdDays},
		{"below floor", 3, board.DefaultCfdDays, board.MinCfdDays},
		{"above ceiling", 1000, board.DefaultCfdDays, board.MaxCfdDays},
		{"in range", 14, board.DefaultCfdDays, 14},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, board.ClampDays(tc.days, tc.fallback))
		})
	}
}

func TestReconstructCountsByColumn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addTask(t, "Backlog", "one")
	f.addTask(t, "Backlog", "two")
	a := f.addTask(t, "To Do", "three")
	_, err := f.tasks.Move(ctx, a.ID, f.cols["In Progress"].ID, 0, nil)
	require.NoError(t, err)

	snap, err := f.cfd.Reconstruct(ctx, f.project.ID, time.Now())
	require.NoError(t, err)
	require.Equal(t, map[string]int{
		"Backlog": 2, "To Do": 0, "In Progress": 1, "Done": 0,
	}, snap.Counts)

	total := 0
	for _, n := range snap.Counts {
		total += n
	}
	require.Equal(t, 3, total)
}

func TestReconstructReplaysLedgerAtCutoff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	day1 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	f.tasks.Now = func() time.Time { return day1 }
	a := f.addTask(t, "Backlog", "write parser")

	f.tasks.Now = func() time.Time { return day2 }
	_, err := f.tasks.Move(ctx, a.ID, f.cols["To Do"].ID, 0, nil)
	require.NoError(t, err)

	// At the end of day1 the task had not moved yet.
	snap1, err := f.cfd.Reconstruct(ctx, f.project.ID, day1)
	require.NoError(t, err)
	require.Equal(t, 1, snap1.Counts["Backlog"])
	require.Equal(t, 0, snap1.Counts["To Do"])
	require.Equal(t, "2026-03-02", snap1.Day)

	snap2, err := f.cfd.Reconstruct(ctx, f.project.ID, day2)
	require.NoError(t, err)
	require.Equal(t, 0, snap2.Counts["Backlog"])
	require.Equal(t, 1, snap2.Counts["To Do"])
}

func TestReconstructIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addTask(t, "Backlog", "one")
	day := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	first, err := f.cfd.Reconstruct(ctx, f.project.ID, day)
	require.NoError(t, err)
	second, err := f.cfd.Reconstruct(ctx, f.project.ID, day)
	require.NoError(t, err)

	// The upsert keeps one row per (project, day) and identical counts.
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.Day, second.Day)
	require.Equal(t, first.Counts, second.Counts)
}

func TestReconstructRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	day1 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	f.tasks.Now = func() time.Time { return day1 }
	f.addTask(t, "Backlog", "one")

	snaps, err := f.cfd.ReconstructRange(ctx, f.project.ID, day1, day1.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	require.Equal(t, "2026-03-02", snaps[0].Day)
	require.Equal(t, "2026-03-04", snaps[2].Day)
	for _, s := range snaps {
		require.Equal(t, 1, s.Counts["Backlog"])
	}

	_, err = f.cfd.ReconstructRange(ctx, f.project.ID, day1, day1.AddDate(0, 0, -1))
	require.ErrorIs(t, err, board.ErrInvalidInput)
}

func TestOutOfOrderRegenerationTouchesOnlyTargetDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	day1 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	f.tasks.Now = func() time.Time { return day1 }
	a := f.addTask(t, "Backlog", "one")
	f.tasks.Now = func() time.Time { return day2 }
	_, err := f.tasks.Move(ctx, a.ID, f.cols["To Do"].ID, 0, nil)
	require.NoError(t, err)

	snap2, err := f.cfd.Reconstruct(ctx, f.project.ID, day2)
	require.NoError(t, err)

	// Rebuilding the earlier day afterwards leaves day2 untouched.
	_, err = f.cfd.Reconstruct(ctx, f.project.ID, day1)
	require.NoError(t, err)
	again, err := f.cfd.Reconstruct(ctx, f.project.ID, day2)
	require.NoError(t, err)
	require.Equal(t, snap2.Counts, again.Counts)
	require.Equal(t, snap2.ID, again.ID)
}

func TestTrailingClampsWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.cfd.Now = func() time.Time {
		return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	}
	snaps, err := f.cfd.Trailing(ctx, f.project.ID, 3, board.DefaultCfdDays)
	require.NoError(t, err)
	require.Len(t, snaps, board.MinCfdDays)
	require.Equal(t, "2026-03-04", snaps[0].Day)
	require.Equal(t, "2026-03-10", snaps[len(snaps)-1].Day)
}

func TestReconstructRequiresColumns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cfd.Reconstruct(ctx, 9999, time.Now())
	require.ErrorIs(t, err, board.ErrNotFound)
}

func TestReconstructIgnoresDeactivatedTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addTask(t, "Backlog", "keep")
	gone := f.addTask(t, "Backlog", "drop")
	require.NoError(t, f.tasks.Delete(ctx, gone.ID))

	snap, err := f.cfd.Reconstruct(ctx, f.project.ID, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, snap.Counts["Backlog"])
}
