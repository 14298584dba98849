package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kanban/internal/board"
)

// handleGetCfd returns the trailing window of daily flow snapshots.
// The days query parameter is clamped to the supported range.
func (s *Server) handleGetCfd(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	days := board.DefaultCfdDays
	if raw := c.Query("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days parameter"})
			return
		}
		days = v
	}
	snapshots, err := s.cfd.Trailing(c.Request.Context(), projectID, days, board.DefaultCfdDays)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"snapshots": snapshots,
		"days":      board.ClampDays(days, board.DefaultCfdDays),
	})
}

// handleRegenerateCfd rebuilds the recent snapshot history from the
// movement ledger (leader only).
func (s *Server) handleRegenerateCfd(c *gin.Context) {
	if _, ok := s.requireLeader(c); !ok {
		return
	}
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	days := board.DefaultRegenerateDays
	if raw := c.Query("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days parameter"})
			return
		}
		days = v
	}
	snapshots, err := s.cfd.Trailing(c.Request.Context(), projectID, days, board.DefaultRegenerateDays)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}
