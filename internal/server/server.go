package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kanban/internal/board"
)

// Roles the authorization collaborator resolves for an acting user. The
// server only consumes them as preconditions; role derivation happens
// upstream.
const (
	RoleLeader = "leader"
	RoleMember = "member"
)

// Actor identifies the resolved acting user attached to a request.
type Actor struct {
	ID   int64
	Role string
}

// Server provides the HTTP surface over the board engine.
type Server struct {
	engine    *gin.Engine
	projects  *board.Projects
	registry  *board.Registry
	tasks     *board.Tasks
	ledger    *board.Ledger
	cfd       *board.Reconstructor
	logger    *slog.Logger
	staticDir string
}

// Config carries the services the server exposes.
type Config struct {
	Projects  *board.Projects
	Registry  *board.Registry
	Tasks     *board.Tasks
	Ledger    *board.Ledger
	CFD       *board.Reconstructor
	Logger    *slog.Logger
	StaticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	srv := &Server{
		engine:    router,
		projects:  cfg.Projects,
		registry:  cfg.Registry,
		tasks:     cfg.Tasks,
		ledger:    cfg.Ledger,
		cfd:       cfg.CFD,
		logger:    cfg.Logger,
		staticDir: cfg.StaticDir,
	}

	router.Use(srv.requestLog())
	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// requestLog tags every request with an id and logs its outcome.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header("X-Request-Id", requestID)
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			slog.String("id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)))
	}
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		projects := api.Group("/projects")
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.GET(":id", s.handleGetProject)
			projects.DELETE(":id", s.handleDeleteProject)
			projects.GET(":id/board", s.handleBoard)
			projects.GET(":id/columns", s.handleListColumns)
			projects.POST(":id/columns", s.handleCreateColumn)
			projects.POST(":id/tasks", s.handleCreateTask)
			projects.GET(":id/cfd", s.handleGetCfd)
			projects.POST(":id/cfd/regenerate", s.handleRegenerateCfd)
		}

		columns := api.Group("/columns")
		{
			columns.GET(":id", s.handleGetColumn)
			columns.PUT(":id", s.handleUpdateColumn)
			columns.PUT(":id/fixed-status", s.handleSetFixedStatus)
			columns.DELETE(":id", s.handleDeleteColumn)
			columns.GET(":id/tasks", s.handleListColumnTasks)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET(":id", s.handleGetTask)
			tasks.PUT(":id", s.handleUpdateTask)
			tasks.DELETE(":id", s.handleDeleteTask)
			tasks.PATCH(":id/move", s.handleMoveTask)
			tasks.GET(":id/history", s.handleTaskHistory)
			tasks.POST("bulk/reorder", s.handleBulkReorder)
			tasks.POST("bulk/move", s.handleBulkMove)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// requireActor reads the resolved acting-user headers the authorization
// collaborator injects upstream. Mutating handlers refuse requests without
// one.
func (s *Server) requireActor(c *gin.Context) (Actor, bool) {
	id, err := strconv.ParseInt(c.GetHeader("X-Actor-Id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid acting user"})
		return Actor{}, false
	}
	role := c.GetHeader("X-Actor-Role")
	if role == "" {
		role = RoleMember
	}
	if role != RoleLeader && role != RoleMember {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown actor role"})
		return Actor{}, false
	}
	return Actor{ID: id, Role: role}, true
}

// requireLeader additionally demands the leader role.
func (s *Server) requireLeader(c *gin.Context) (Actor, bool) {
	actor, ok := s.requireActor(c)
	if !ok {
		return Actor{}, false
	}
	if actor.Role != RoleLeader {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the project leader may do this"})
		return Actor{}, false
	}
	return actor, true
}

// respondError logs the error and returns a JSON payload with a status
// derived from the board error kind.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, board.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, board.ErrInvalidInput),
		errors.Is(err, board.ErrPositionOutOfRange),
		errors.Is(err, board.ErrDuplicateName),
		errors.Is(err, board.ErrDuplicatePosition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, board.ErrLimitExceeded),
		errors.Is(err, board.ErrIllegalTransition),
		errors.Is(err, board.ErrStatusConflict),
		errors.Is(err, board.ErrNonEmptyColumn),
		errors.Is(err, board.ErrProtected):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
