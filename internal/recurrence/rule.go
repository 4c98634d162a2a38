package recurrence

import (
	"encoding/json"
	"fmt"

	"a3bowler/internal/dateutil"
)

// Frequency tags the two supported recurrence kinds.
type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Pattern is the frequency-specific half of a rule. Exactly one of the
// two concrete types applies to any rule, so the calculator's branch over
// patterns is exhaustive and a missing day field cannot be silently absent.
type Pattern interface {
	Frequency() Frequency
}

// Weekly fires on a fixed day of the week. DayOfWeek uses ISO numbering:
// 1 = Monday .. 7 = Sunday.
type Weekly struct {
	DayOfWeek int
}

// Frequency implements Pattern.
func (Weekly) Frequency() Frequency { return FrequencyWeekly }

// Monthly fires on a fixed day of the month, 1-31. Days past the end of a
// short month clamp to that month's last day.
type Monthly struct {
	DayOfMonth int
}

// Frequency implements Pattern.
func (Monthly) Frequency() Frequency { return FrequencyMonthly }

// Rule describes a recurring schedule. The timezone offset is captured
// when the rule is created, so occurrences keep the creator's wall-clock
// time even when the rule is evaluated from a different offset later.
type Rule struct {
	Pattern               Pattern
	TimeOfDay             string // "HH:MM", 24-hour
	StopDate              *dateutil.Date
	TimezoneOffsetMinutes int
}

// Validate checks the pattern's day field is in range.
func (r Rule) Validate() error {
	switch p := r.Pattern.(type) {
	case Weekly:
		if p.DayOfWeek < 1 || p.DayOfWeek > 7 {
			return fmt.Errorf("day_of_week must be 1-7, got %d", p.DayOfWeek)
		}
	case Monthly:
		if p.DayOfMonth < 1 || p.DayOfMonth > 31 {
			return fmt.Errorf("day_of_month must be 1-31, got %d", p.DayOfMonth)
		}
	default:
		return fmt.Errorf("rule has no pattern")
	}
	return nil
}

// ruleJSON is the flat wire form; frequency selects which day field applies.
type ruleJSON struct {
	Frequency             Frequency      `json:"frequency"`
	DayOfWeek             int            `json:"day_of_week,omitempty"`
	DayOfMonth            int            `json:"day_of_month,omitempty"`
	TimeOfDay             string         `json:"time_of_day"`
	StopDate              *dateutil.Date `json:"stop_date,omitempty"`
	TimezoneOffsetMinutes int            `json:"timezone_offset_minutes"`
}

// MarshalJSON flattens the pattern union into a tagged object.
func (r Rule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{
		TimeOfDay:             r.TimeOfDay,
		StopDate:              r.StopDate,
		TimezoneOffsetMinutes: r.TimezoneOffsetMinutes,
	}
	switch p := r.Pattern.(type) {
	case Weekly:
		out.Frequency = FrequencyWeekly
		out.DayOfWeek = p.DayOfWeek
	case Monthly:
		out.Frequency = FrequencyMonthly
		out.DayOfMonth = p.DayOfMonth
	default:
		return nil, fmt.Errorf("rule has no pattern")
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the pattern union from the frequency tag.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Frequency {
	case FrequencyWeekly:
		r.Pattern = Weekly{DayOfWeek: in.DayOfWeek}
	case FrequencyMonthly:
		r.Pattern = Monthly{DayOfMonth: in.DayOfMonth}
	default:
		return fmt.Errorf("unknown frequency %q", in.Frequency)
	}
	r.TimeOfDay = in.TimeOfDay
	r.StopDate = in.StopDate
	r.TimezoneOffsetMinutes = in.TimezoneOffsetMinutes
	return nil
}
