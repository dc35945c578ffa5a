package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"pmtrack/internal/dto"
	"pmtrack/internal/reports"
	"pmtrack/internal/storage/sqlite"
	"pmtrack/internal/ui"
)

// Options tunes the HTTP server.
type Options struct {
	// StaticDir holds the built frontend; empty runs the API only.
	StaticDir string
	// Tokens are served with project cards; zero value means the defaults.
	Tokens ui.TokenSet
	// MaxWindowDays bounds report windows.
	MaxWindowDays int
	// Now stamps "as of" for delay computation; defaults to time.Now.
	Now func() time.Time
}

// Server provides HTTP handlers for the project tracker backend.
type Server struct {
	engine        *gin.Engine
	store         *sqlite.Store
	logger        *slog.Logger
	staticDir     string
	tokens        ui.TokenSet
	maxWindowDays int
	now           func() time.Time
}

var configureBinding sync.Once

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqlite.Store, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Tokens.TaskStatus == nil {
		opts.Tokens = ui.DefaultTokens()
	}
	if opts.MaxWindowDays <= 0 {
		opts.MaxWindowDays = reports.DefaultMaxWindowDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	configureBinding.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			if err := dto.Configure(v); err != nil {
				logger.Error("configure request validation", slog.String("error", err.Error()))
			}
		}
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(logger, "/api/healthz"))

	srv := &Server{
		engine:        router,
		store:         store,
		logger:        logger,
		staticDir:     opts.StaticDir,
		tokens:        opts.Tokens,
		maxWindowDays: opts.MaxWindowDays,
		now:           opts.Now,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.GET("/migrations", s.handleMigrations)

		projects := api.Group("/projects")
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.GET("cards", s.handleProjectCards)
			projects.GET(":id", s.handleGetProject)
			projects.PUT(":id", s.handleUpdateProject)
			projects.DELETE(":id", s.handleDeleteProject)
			projects.GET(":id/statuses", s.handleListStatuses)
			projects.POST(":id/statuses", s.handleCreateStatus)
			projects.PUT(":id/statuses/order", s.handleReorderStatuses)
			projects.GET(":id/tasks", s.handleListTasks)
			projects.POST(":id/tasks", s.handleCreateTask)
			projects.GET(":id/sprints", s.handleListSprints)
			projects.POST(":id/sprints", s.handleCreateSprint)
		}

		tasks := api.Group("/tasks")
		{
			tasks.DELETE("", s.handleDeleteTasks)
			tasks.GET(":id", s.handleGetTask)
			tasks.PUT(":id", s.handleUpdateTask)
			tasks.DELETE(":id", s.handleDeleteTask)
			tasks.GET(":id/hours", s.handleListHours)
			tasks.POST(":id/hours", s.handleLogHours)
			tasks.GET(":id/comments", s.handleListComments)
			tasks.POST(":id/comments", s.handleAddComment)
			tasks.GET(":id/attachments", s.handleListAttachments)
			tasks.POST(":id/attachments", s.handleAddAttachment)
		}

		api.GET("/teams", s.handleListTeams)
		api.POST("/teams", s.handleCreateTeam)
		api.GET("/users", s.handleListUsers)
		api.POST("/users", s.handleCreateUser)
		api.GET("/users/:id", s.handleGetUser)

		api.GET("/reports/overview", s.handleOverviewReport)
		api.GET("/reports/daily-hours", s.handleDailyHoursReport)
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleMigrations lists every known migration and whether it ran.
func (s *Server) handleMigrations(c *gin.Context) {
	states, err := s.store.Migrations().Status()
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"migrations": states})
}

// parseID converts a path parameter to a positive int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// bindJSON decodes and validates the body, answering 400 on failure.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.respondError(c, dto.Describe(err))
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var ve *dto.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, sqlite.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sqlite.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, sqlite.ErrInvalid), errors.Is(err, reports.ErrInvalidWindow):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	attrs := []any{
		slog.String("path", c.FullPath()),
		slog.Int("status", status),
		slog.String("request_id", c.GetString(requestIDKey)),
		slog.String("error", err.Error()),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Warn("request rejected", attrs...)
	}

	var ve *dto.ValidationError
	if errors.As(err, &ve) {
		c.JSON(status, gin.H{"error": ve.Error(), "fields": ve.Fields})
		return
	}
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
