package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kanban/internal/models"
)

type columnCreateRequest struct {
	Name        string `json:"name"`
	Position    int    `json:"position"`
	Type        string `json:"type"`
	FixedStatus string `json:"fixed_status"`
}

type columnUpdateRequest struct {
	Name     *string `json:"name"`
	Position *int    `json:"position"`
}

type fixedStatusRequest struct {
	Status *string `json:"status"`
}

// handleListColumns returns a project's active columns in position order.
func (s *Server) handleListColumns(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	cols, err := s.registry.List(c.Request.Context(), projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"columns": cols, "count": len(cols)})
}

// handleGetColumn returns one active column.
func (s *Server) handleGetColumn(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	col, err := s.registry.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"column": col})
}

// handleCreateColumn adds a column to a project (leader only).
func (s *Server) handleCreateColumn(c *gin.Context) {
	if _, ok := s.requireLeader(c); !ok {
		return
	}
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req columnCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	col, err := s.registry.Create(c.Request.Context(), projectID, req.Name, req.Position,
		models.ColumnType(req.Type), models.FixedStatus(req.FixedStatus))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"column": col})
}

// handleUpdateColumn renames and/or repositions a column in one transaction
// (leader only).
func (s *Server) handleUpdateColumn(c *gin.Context) {
	if _, ok := s.requireLeader(c); !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req columnUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	col, err := s.registry.Update(c.Request.Context(), id, req.Name, req.Position)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"column": col})
}

// handleSetFixedStatus drives the fixed-column state machine (leader only).
// A null status reverts the column to normal.
func (s *Server) handleSetFixedStatus(c *gin.Context) {
	if _, ok := s.requireLeader(c); !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req fixedStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := models.FixedNone
	if req.Status != nil {
		status = models.FixedStatus(*req.Status)
	}
	col, err := s.registry.SetFixedStatus(c.Request.Context(), id, status)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"column": col})
}

// handleDeleteColumn deactivates an empty normal column (leader only).
func (s *Server) handleDeleteColumn(c *gin.Context) {
	if _, ok := s.requireLeader(c); !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.registry.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deactivated"})
}

// handleListColumnTasks returns a column's active tasks in position order.
func (s *Server) handleListColumnTasks(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	tasks, err := s.tasks.ListByColumn(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}
