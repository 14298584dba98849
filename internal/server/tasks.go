package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kanban/internal/board"
	"kanban/internal/models"
)

type taskCreateRequest struct {
	ColumnID    int64      `json:"column_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Assignee    *int64     `json:"assignee"`
	DueAt       *time.Time `json:"due_at"`
}

// taskUpdateRequest uses RawMessage for the nullable fields so a client
// can distinguish omitting a field from clearing it with null.
type taskUpdateRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Priority    *string         `json:"priority"`
	Assignee    json.RawMessage `json:"assignee"`
	DueAt       json.RawMessage `json:"due_at"`
}

type taskMoveRequest struct {
	ColumnID int64 `json:"column_id"`
	Position int   `json:"position"`
}

type bulkReorderRequest struct {
	ColumnID int64               `json:"column_id"`
	Items    []board.ReorderItem `json:"items"`
}

type bulkMoveRequest struct {
	ColumnID      int64   `json:"column_id"`
	TaskIDs       []int64 `json:"ids"`
	StartPosition *int    `json:"start_position"`
}

// handleCreateTask appends a task to the tail of a column.
func (s *Server) handleCreateTask(c *gin.Context) {
	actor, ok := s.requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req taskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := s.tasks.Create(c.Request.Context(), board.TaskInput{
		ProjectID:   projectID,
		ColumnID:    req.ColumnID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.Priority(req.Priority),
		CreatedBy:   actor.ID,
		Assignee:    req.Assignee,
		DueAt:       req.DueAt,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleGetTask returns one active task.
func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.tasks.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleUpdateTask applies a partial update to a task's fields.
func (s *Server) handleUpdateTask(c *gin.Context) {
	if _, ok := s.requireActor(c); !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req taskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	upd := board.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Priority != nil {
		p := models.Priority(*req.Priority)
		upd.Priority = &p
	}
	if len(req.Assignee) > 0 {
		upd.AssigneeSet = true
		if string(req.Assignee) != "null" {
			var v int64
			if err := json.Unmarshal(req.Assignee, &v); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignee"})
				return
			}
			upd.Assignee = &v
		}
	}
	if len(req.DueAt) > 0 {
		upd.DueAtSet = true
		if string(req.DueAt) != "null" {
			var v time.Time
			if err := json.Unmarshal(req.DueAt, &v); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_at"})
				return
			}
			upd.DueAt = &v
		}
	}
	task, err := s.tasks.Update(c.Request.Context(), id, upd)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask deactivates a task and closes its position gap.
func (s *Server) handleDeleteTask(c *gin.Context) {
	if _, ok := s.requireActor(c); !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.tasks.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deactivated"})
}

// handleMoveTask relocates a task to a column and position.
func (s *Server) handleMoveTask(c *gin.Context) {
	actor, ok := s.requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req taskMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := s.tasks.Move(c.Request.Context(), id, req.ColumnID, req.Position, &actor.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleTaskHistory returns the movement trail of a task, oldest first.
func (s *Server) handleTaskHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	records, err := s.ledger.History(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"movements": records, "count": len(records)})
}

// handleBulkReorder rewrites the ordering of one column.
func (s *Server) handleBulkReorder(c *gin.Context) {
	if _, ok := s.requireActor(c); !ok {
		return
	}
	var req bulkReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tasks, err := s.tasks.BulkReorder(c.Request.Context(), req.ColumnID, req.Items)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// handleBulkMove relocates a batch of tasks into one destination column.
func (s *Server) handleBulkMove(c *gin.Context) {
	actor, ok := s.requireActor(c)
	if !ok {
		return
	}
	var req bulkMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tasks, err := s.tasks.BulkMove(c.Request.Context(), req.ColumnID, req.TaskIDs, req.StartPosition, &actor.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}
