package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kanban/internal/models"
)

type projectRequest struct {
	Name string `json:"name"`
}

// boardColumn is one column of the board summary, tasks in position order.
type boardColumn struct {
	Column models.Column `json:"column"`
	Tasks  []models.Task `json:"tasks"`
}

// handleListProjects returns all active projects.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.projects.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": projects})
}

// handleCreateProject creates a project seeded with the default columns.
func (s *Server) handleCreateProject(c *gin.Context) {
	actor, ok := s.requireActor(c)
	if !ok {
		return
	}
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	project, err := s.projects.Create(c.Request.Context(), req.Name, actor.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"project": project})
}

// handleGetProject returns one active project.
func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	project, err := s.projects.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleDeleteProject deactivates a project, cascading to columns and tasks.
func (s *Server) handleDeleteProject(c *gin.Context) {
	if _, ok := s.requireLeader(c); !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.projects.Deactivate(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deactivated"})
}

// handleBoard returns the project's active columns with their tasks, both in
// position order.
func (s *Server) handleBoard(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cols, err := s.registry.List(ctx, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]boardColumn, 0, len(cols))
	for _, col := range cols {
		tasks, err := s.tasks.ListByColumn(ctx, col.ID)
		if err != nil {
			s.respondError(c, err)
			return
		}
		if tasks == nil {
			tasks = []models.Task{}
		}
		out = append(out, boardColumn{Column: col, Tasks: tasks})
	}
	respondSuccess(c, http.StatusOK, gin.H{"board": out})
}
