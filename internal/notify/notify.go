// Package notify implements the notification collaborator boundary: the
// board raises "task assigned" and "task due soon" events and this package
// decides what to do with them. Formatting and delivery belong to an
// external system; the default implementation just logs.
package notify

import (
	"context"
	"log/slog"
	"time"

	"kanban/internal/board"
	"kanban/internal/models"
)

// LogNotifier records every event through slog. It satisfies board.Notifier.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a notifier writing to the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) TaskAssigned(_ context.Context, t models.Task) {
	n.logger.Info("event: task assigned",
		slog.Int64("task", t.ID),
		slog.Int64("assignee", *t.Assignee),
		slog.String("title", t.Title))
}

func (n *LogNotifier) TaskDueSoon(_ context.Context, t models.Task) {
	n.logger.Info("event: task due soon",
		slog.Int64("task", t.ID),
		slog.String("title", t.Title),
		slog.Time("due_at", *t.DueAt))
}

// Scanner periodically raises TaskDueSoon for every active, assigned task
// whose due date falls on tomorrow's calendar day. It is the resident form
// of the nightly reminder job.
type Scanner struct {
	store    board.Store
	notifier board.Notifier
	logger   *slog.Logger
	loc      *time.Location

	Now func() time.Time
}

// NewScanner constructs a due-soon scanner. loc defines the calendar used
// for "tomorrow"; nil means UTC.
func NewScanner(store board.Store, notifier board.Notifier, logger *slog.Logger, loc *time.Location) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scanner{store: store, notifier: notifier, logger: logger, loc: loc, Now: time.Now}
}

// Run scans once immediately and then on every tick until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) {
	if err := s.Scan(ctx); err != nil {
		s.logger.Error("due-soon scan failed", slog.String("error", err.Error()))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Scan(ctx); err != nil {
				s.logger.Error("due-soon scan failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Scan raises TaskDueSoon for each assigned task due tomorrow.
func (s *Scanner) Scan(ctx context.Context) error {
	now := s.Now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)

	var due []models.Task
	err := s.store.View(ctx, func(tx board.Tx) error {
		var err error
		due, err = tx.TasksDueBetween(start, end)
		return err
	})
	if err != nil {
		return err
	}
	raised := 0
	for _, t := range due {
		if t.Assignee == nil {
			continue
		}
		s.notifier.TaskDueSoon(ctx, t)
		raised++
	}
	if raised > 0 {
		s.logger.Info("due-soon reminders raised", slog.Int("count", raised))
	}
	return nil
}
