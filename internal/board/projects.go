package board

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kanban/internal/models"
)

// Projects manages project lifecycle. A new project is seeded with the
// default columns; deactivation cascades to the project's columns and tasks
// and is never undone.
type Projects struct {
	store  Store
	logger *slog.Logger

	// Now is the clock used for timestamps; tests may replace it.
	Now func() time.Time
}

// NewProjects constructs the project service.
func NewProjects(store Store, logger *slog.Logger) *Projects {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projects{store: store, logger: logger, Now: time.Now}
}

// Create persists a new active project with the default column layout.
func (s *Projects) Create(ctx context.Context, name string, createdBy int64) (models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Project{}, fmt.Errorf("project name must not be empty: %w", ErrInvalidInput)
	}

	var out models.Project
	err := s.store.Update(ctx, func(tx Tx) error {
		now := s.Now().UTC()
		id, err := tx.InsertProject(models.Project{
			Name:      name,
			CreatedBy: createdBy,
			State:     models.StateActive,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		for i, colName := range models.DefaultColumnNames {
			_, err := tx.InsertColumn(models.Column{
				ProjectID: id,
				Name:      colName,
				Position:  i + 1,
				Type:      models.ColumnNormal,
				State:     models.StateActive,
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("seed column %q: %w", colName, err)
			}
		}
		out, err = tx.ProjectByID(id)
		return err
	})
	if err != nil {
		return models.Project{}, err
	}
	s.logger.Info("project created", slog.Int64("project", out.ID), slog.String("name", out.Name))
	return out, nil
}

// Get returns an active project by id.
func (s *Projects) Get(ctx context.Context, id int64) (models.Project, error) {
	var out models.Project
	err := s.store.View(ctx, func(tx Tx) error {
		p, err := tx.ProjectByID(id)
		if err != nil {
			return err
		}
		if p.State != models.StateActive {
			return fmt.Errorf("project %d is deactivated: %w", id, ErrNotFound)
		}
		out = p
		return nil
	})
	return out, err
}

// List returns all active projects.
func (s *Projects) List(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.Projects()
		return err
	})
	return out, err
}

// Deactivate soft-deletes the project and cascades to its columns and tasks.
func (s *Projects) Deactivate(ctx context.Context, id int64) error {
	err := s.store.Update(ctx, func(tx Tx) error {
		p, err := tx.ProjectByID(id)
		if err != nil {
			return err
		}
		if p.State != models.StateActive {
			return fmt.Errorf("project %d already deactivated: %w", id, ErrNotFound)
		}
		if err := tx.DeactivateProjectTasks(id); err != nil {
			return fmt.Errorf("deactivate tasks: %w", err)
		}
		if err := tx.DeactivateProjectColumns(id); err != nil {
			return fmt.Errorf("deactivate columns: %w", err)
		}
		return tx.DeactivateProject(id)
	})
	if err == nil {
		s.logger.Info("project deactivated", slog.Int64("project", id))
	}
	return err
}
