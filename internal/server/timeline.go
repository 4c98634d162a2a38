package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"a3bowler/internal/dateutil"
	"a3bowler/internal/models"
	"a3bowler/internal/timeline"
)

// gridFromQuery builds the grid window for a request. The window defaults
// to the first day of the current month with the configured cell width and
// day count; all three are overridable per request.
func (s *Server) gridFromQuery(c *gin.Context) (timeline.Grid, error) {
	now := time.Now().UTC()
	grid := timeline.Grid{
		Start:     dateutil.New(now.Year(), now.Month(), 1),
		Days:      s.windowDays,
		CellWidth: s.cellWidth,
	}

	if v := c.Query("start"); v != "" {
		d, err := dateutil.Parse(v)
		if err != nil {
			return timeline.Grid{}, err
		}
		grid.Start = d
	}
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return timeline.Grid{}, fmt.Errorf("invalid days %q", v)
		}
		grid.Days = n
	}
	if v := c.Query("cell"); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil || w <= 0 {
			return timeline.Grid{}, fmt.Errorf("invalid cell width %q", v)
		}
		grid.CellWidth = w
	}
	return grid, nil
}

// handleTimeline returns the bar geometry for every task visible in the
// requested grid window.
func (s *Server) handleTimeline(c *gin.Context) {
	grid, err := s.gridFromQuery(c)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	tasks, err := s.store.ListTasks(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"start":      grid.Start,
		"days":       grid.Days,
		"cell_width": grid.CellWidth,
		"bars":       grid.Bars(tasks),
	})
}

type createAtRequest struct {
	X     float64 `json:"x"`
	Name  string  `json:"name"`
	Owner string  `json:"owner"`
	Group string  `json:"group"`
}

// handleCreateTaskAt serves the "click empty row space to add" action: the
// pixel X is hit-tested to a day on the grid and a task with the default
// 7-day span is created there.
func (s *Server) handleCreateTaskAt(c *gin.Context) {
	grid, err := s.gridFromQuery(c)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	var req createAtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		req.Name = "New task"
	}

	start := grid.DateAt(req.X)
	task, err := s.store.CreateTask(c.Request.Context(), models.Task{
		Name:      req.Name,
		Owner:     req.Owner,
		Group:     req.Group,
		StartDate: start,
		EndDate:   start.AddDays(models.DefaultTaskSpanDays - 1),
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}
