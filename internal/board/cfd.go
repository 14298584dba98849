package board

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kanban/internal/models"
)

// Day-range bounds for Cumulative Flow Diagram reconstruction.
const (
	MinCfdDays            = 7
	MaxCfdDays            = 365
	DefaultCfdDays        = 30
	DefaultRegenerateDays = 90
)

// ClampDays normalizes a requested day count: zero or negative means the
// default, anything else is bounded to [MinCfdDays, MaxCfdDays].
func ClampDays(days, fallback int) int {
	if days <= 0 {
		days = fallback
	}
	if days < MinCfdDays {
		return MinCfdDays
	}
	if days > MaxCfdDays {
		return MaxCfdDays
	}
	return days
}

// Reconstructor derives historical per-column task counts by replaying the
// movement ledger, and persists each day as an idempotent CfdSnapshot. It is
// read-only against the board tables; its only write is the snapshot upsert.
type Reconstructor struct {
	store  Store
	logger *slog.Logger
	loc    *time.Location

	Now func() time.Time
}

// NewReconstructor constructs the CFD reconstructor. loc defines calendar-day
// boundaries; nil means UTC.
func NewReconstructor(store Store, logger *slog.Logger, loc *time.Location) *Reconstructor {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Reconstructor{store: store, logger: logger, loc: loc, Now: time.Now}
}

// Reconstruct computes the snapshot for one calendar day and upserts it under
// the (project, day) key. Recomputing with an unchanged ledger yields
// identical counts. Each active task created on or before end-of-day counts
// in the destination column of its latest movement at that cutoff; a task
// with no such record counts in its current column, the best proxy available
// when the ledger does not reach that far back.
func (r *Reconstructor) Reconstruct(ctx context.Context, projectID int64, day time.Time) (models.CfdSnapshot, error) {
	var snap models.CfdSnapshot
	err := r.store.Update(ctx, func(tx Tx) error {
		if err := requireActiveProject(tx, projectID); err != nil {
			return err
		}
		cols, err := tx.ColumnsByProject(projectID)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			return fmt.Errorf("project %d has no active columns: %w", projectID, ErrInvalidInput)
		}
		names := make(map[int64]string, len(cols))
		counts := make(map[string]int, len(cols))
		for _, c := range cols {
			names[c.ID] = c.Name
			counts[c.Name] = 0
		}

		cutoff := endOfDay(day, r.loc)
		tasks, err := tx.TasksCreatedThrough(projectID, cutoff)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			columnID := t.ColumnID
			mov, err := tx.LatestMovementThrough(t.ID, cutoff)
			if err != nil {
				return err
			}
			if mov != nil {
				columnID = mov.ToColumn
			}
			if name, ok := names[columnID]; ok {
				counts[name]++
			}
		}

		dayKey := day.In(r.loc).Format("2006-01-02")
		if err := tx.UpsertCfdSnapshot(projectID, dayKey, counts); err != nil {
			return fmt.Errorf("upsert snapshot: %w", err)
		}
		snap, err = tx.CfdSnapshotByDay(projectID, dayKey)
		return err
	})
	return snap, err
}

// ReconstructRange rebuilds snapshots for every day from start through end,
// inclusive. This is the batch entry point for both live CFD display and
// historical regeneration.
func (r *Reconstructor) ReconstructRange(ctx context.Context, projectID int64, start, end time.Time) ([]models.CfdSnapshot, error) {
	startDay := startOfDay(start, r.loc)
	endDay := startOfDay(end, r.loc)
	if endDay.Before(startDay) {
		return nil, fmt.Errorf("range end precedes start: %w", ErrInvalidInput)
	}
	var out []models.CfdSnapshot
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		snap, err := r.Reconstruct(ctx, projectID, day)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	r.logger.Info("cfd range reconstructed",
		slog.Int64("project", projectID), slog.Int("days", len(out)))
	return out, nil
}

// Trailing rebuilds and returns the snapshots for the trailing N days ending
// today. days is clamped to the supported bounds.
func (r *Reconstructor) Trailing(ctx context.Context, projectID int64, days, fallback int) ([]models.CfdSnapshot, error) {
	days = ClampDays(days, fallback)
	end := r.Now()
	start := end.AddDate(0, 0, -(days - 1))
	return r.ReconstructRange(ctx, projectID, start, end)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	return startOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
