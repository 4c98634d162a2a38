package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"a3bowler/internal/storage/postgres"
)

// Server provides HTTP handlers for the A3 Bowler dashboard backend.
type Server struct {
	engine    *gin.Engine
	store     *postgres.Store
	logger    *slog.Logger
	staticDir string

	// Grid defaults applied when a timeline request omits them.
	cellWidth  float64
	windowDays int
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *postgres.Store, logger *slog.Logger, staticDir string, cellWidth float64, windowDays int) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	// Grid settings come from flags/env as well as query parameters, so
	// they get the same normalization here.
	if cellWidth <= 0 {
		cellWidth = 24
	}
	if windowDays < 1 {
		windowDays = 42
	}

	srv := &Server{
		engine:     router,
		store:      store,
		logger:     logger,
		staticDir:  staticDir,
		cellWidth:  cellWidth,
		windowDays: windowDays,
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

		tasks := api.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.POST("", s.handleCreateTask)
			tasks.PUT(":id", s.handleUpdateTask)
			tasks.PATCH(":id/dates", s.handleUpdateTaskDates)
			tasks.DELETE(":id", s.handleDeleteTask)
		}

		timeline := api.Group("/timeline")
		{
			timeline.GET("", s.handleTimeline)
			timeline.POST("/tasks", s.handleCreateTaskAt)
		}

		schedules := api.Group("/schedules")
		{
			schedules.GET("", s.handleListSchedules)
			schedules.POST("", s.handleCreateSchedule)
			schedules.POST("/preview", s.handlePreviewSchedule)
			schedules.PUT(":id", s.handleUpdateSchedule)
			schedules.DELETE(":id", s.handleDeleteSchedule)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// pathID extracts a non-empty identifier path parameter.
func pathID(c *gin.Context, name string) (string, bool) {
	id := strings.TrimSpace(c.Param(name))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return "", false
	}
	return id, true
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	msg := "request failed"
	if err != nil {
		msg = err.Error()
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", msg))
	}
	c.JSON(status, gin.H{"error": msg})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
