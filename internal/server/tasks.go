package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"a3bowler/internal/dateutil"
	"a3bowler/internal/models"
)

type taskRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Owner       *string        `json:"owner"`
	Group       *string        `json:"group"`
	Status      *string        `json:"status"`
	Progress    *int           `json:"progress"`
	StartDate   *dateutil.Date `json:"start_date"`
	EndDate     *dateutil.Date `json:"end_date"`
}

// handleListTasks returns every task on the action plan.
func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.store.ListTasks(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

// handleCreateTask inserts a new task. A missing start date defaults to
// today; a missing end date completes the default 7-day span.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Name == nil || *req.Name == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	}

	start := dateutil.FromTime(time.Now().UTC())
	if req.StartDate != nil {
		start = *req.StartDate
	}
	end := start.AddDays(models.DefaultTaskSpanDays - 1)
	if req.EndDate != nil {
		end = *req.EndDate
	}

	task, err := s.store.CreateTask(c.Request.Context(), models.Task{
		Name:        *req.Name,
		Description: getString(req.Description),
		Owner:       getString(req.Owner),
		Group:       getString(req.Group),
		Status:      getString(req.Status),
		Progress:    getInt(req.Progress),
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleUpdateTask applies edit-form changes to a task.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	updates := map[string]any{}
	if req.Name != nil && *req.Name != "" {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Owner != nil {
		updates["owner"] = *req.Owner
	}
	if req.Group != nil {
		updates["group"] = *req.Group
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Progress != nil {
		updates["progress"] = *req.Progress
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}

	task, err := s.store.UpdateTask(c.Request.Context(), id, updates)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

type taskDatesRequest struct {
	StartDate dateutil.Date `json:"start_date"`
	EndDate   dateutil.Date `json:"end_date"`
}

// handleUpdateTaskDates commits a drag mutation. Drags write on every
// snapped pointer move, so this path writes the two dates directly instead
// of going through the edit form's read-modify-write.
func (s *Server) handleUpdateTaskDates(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req taskDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("start_date and end_date are required"))
		return
	}
	if req.EndDate.Before(req.StartDate) {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("end_date precedes start_date"))
		return
	}

	if err := s.store.UpdateTaskDates(c.Request.Context(), id, req.StartDate, req.EndDate); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "updated"})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), id); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func getInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
