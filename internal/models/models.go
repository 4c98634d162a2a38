package models

import (
	"fmt"
	"time"

	"a3bowler/internal/dateutil"
	"a3bowler/internal/recurrence"
)

// Task represents a single bar on the action plan timeline. StartDate and
// EndDate are day-resolution calendar dates; the span is inclusive of both
// endpoints and StartDate never exceeds EndDate.
type Task struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Owner       string        `json:"owner"`
	Group       string        `json:"group"`
	StartDate   dateutil.Date `json:"start_date"`
	EndDate     dateutil.Date `json:"end_date"`
	Status      string        `json:"status"`
	Progress    int           `json:"progress"` // 0-100
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Schedule is a stored recurring summary-email job. The recurrence fields
// are kept flat here for persistence; internal/recurrence owns the union
// form used for computation.
type Schedule struct {
	ID                    string         `json:"id"`
	Recipients            []string       `json:"recipients"`
	Subject               string         `json:"subject"`
	Frequency             string         `json:"frequency"`
	DayOfWeek             int            `json:"day_of_week,omitempty"`
	DayOfMonth            int            `json:"day_of_month,omitempty"`
	TimeOfDay             string         `json:"time_of_day"`
	StopDate              *dateutil.Date `json:"stop_date,omitempty"`
	TimezoneOffsetMinutes int            `json:"timezone_offset_minutes"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// Rule assembles the recurrence union from the flat persisted fields.
func (s Schedule) Rule() (recurrence.Rule, error) {
	rule := recurrence.Rule{
		TimeOfDay:             s.TimeOfDay,
		StopDate:              s.StopDate,
		TimezoneOffsetMinutes: s.TimezoneOffsetMinutes,
	}
	switch recurrence.Frequency(s.Frequency) {
	case recurrence.FrequencyWeekly:
		rule.Pattern = recurrence.Weekly{DayOfWeek: s.DayOfWeek}
	case recurrence.FrequencyMonthly:
		rule.Pattern = recurrence.Monthly{DayOfMonth: s.DayOfMonth}
	default:
		return recurrence.Rule{}, fmt.Errorf("unknown frequency %q", s.Frequency)
	}
	if err := rule.Validate(); err != nil {
		return recurrence.Rule{}, err
	}
	return rule, nil
}

// ValidTaskStatuses enumerates the statuses a timeline task can carry.
var ValidTaskStatuses = map[string]struct{}{
	"not_started": {},
	"in_progress": {},
	"completed":   {},
}

// DefaultTaskSpanDays is the span given to tasks created from an
// empty-space click on the timeline, endpoints inclusive.
const DefaultTaskSpanDays = 7

// ClampProgress normalizes a progress percentage into 0-100.
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
