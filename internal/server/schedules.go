package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"a3bowler/internal/dateutil"
	"a3bowler/internal/models"
	"a3bowler/internal/recurrence"
)

type scheduleRequest struct {
	Recipients            []string       `json:"recipients"`
	Subject               string         `json:"subject"`
	Frequency             string         `json:"frequency"`
	DayOfWeek             int            `json:"day_of_week"`
	DayOfMonth            int            `json:"day_of_month"`
	TimeOfDay             string         `json:"time_of_day"`
	StopDate              *dateutil.Date `json:"stop_date"`
	TimezoneOffsetMinutes int            `json:"timezone_offset_minutes"`
}

func (r scheduleRequest) schedule() models.Schedule {
	return models.Schedule{
		Recipients:            r.Recipients,
		Subject:               r.Subject,
		Frequency:             r.Frequency,
		DayOfWeek:             r.DayOfWeek,
		DayOfMonth:            r.DayOfMonth,
		TimeOfDay:             r.TimeOfDay,
		StopDate:              r.StopDate,
		TimezoneOffsetMinutes: r.TimezoneOffsetMinutes,
	}
}

// handleListSchedules returns all recurring summary-email schedules along
// with their next computed occurrence.
func (s *Server) handleListSchedules(c *gin.Context) {
	schedules, err := s.store.ListSchedules(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	now := time.Now()
	out := make([]gin.H, 0, len(schedules))
	for _, sc := range schedules {
		entry := gin.H{"schedule": sc, "next_send_at": nil}
		if rule, err := sc.Rule(); err == nil {
			if next, ok := recurrence.NextOccurrence(rule, now); ok {
				entry["next_send_at"] = next.Format(time.RFC3339)
			}
		}
		out = append(out, entry)
	}
	respondSuccess(c, http.StatusOK, gin.H{"schedules": out})
}

// handleCreateSchedule stores a new schedule from the settings form.
func (s *Server) handleCreateSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	schedule, err := s.store.CreateSchedule(c.Request.Context(), req.schedule())
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"schedule": schedule})
}

// handleUpdateSchedule replaces an existing schedule's settings.
func (s *Server) handleUpdateSchedule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	schedule, err := s.store.UpdateSchedule(c.Request.Context(), id, req.schedule())
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"schedule": schedule})
}

// handleDeleteSchedule removes a schedule.
func (s *Server) handleDeleteSchedule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteSchedule(c.Request.Context(), id); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

type previewRequest struct {
	scheduleRequest
	Now string `json:"now"` // optional RFC3339 instant to evaluate against
}

// handlePreviewSchedule evaluates a rule without storing it, so the
// settings form can show the next send time as the user edits. The same
// calculator the scheduler uses answers here; there is no separate
// preview-side variant of the math.
func (s *Server) handlePreviewSchedule(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	rule, err := req.schedule().Rule()
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	now := time.Now()
	if req.Now != "" {
		parsed, err := time.Parse(time.RFC3339, req.Now)
		if err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}
		now = parsed
	}

	next, found := recurrence.NextOccurrence(rule, now)
	if !found {
		respondSuccess(c, http.StatusOK, gin.H{"next_send_at": nil})
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"next_send_at": next.Format(time.RFC3339)})
}
