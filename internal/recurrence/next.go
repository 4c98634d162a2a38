package recurrence

import (
	"strconv"
	"strings"
	"time"

	"a3bowler/internal/dateutil"
)

// defaultHour is the lenient fallback when a rule's time-of-day is
// malformed; schedules still fire rather than erroring out.
const defaultHour = 8

// NextOccurrence computes the next time the rule fires strictly after now.
// It reports false when the rule's stop date has already passed, meaning no
// further occurrences exist. The function is pure: it reads the rule and
// now, touches nothing else, and is safe to call concurrently.
func NextOccurrence(rule Rule, now time.Time) (time.Time, bool) {
	loc := time.FixedZone("rule", rule.TimezoneOffsetMinutes*60)
	today := dateutil.FromTime(now.In(loc))
	hour, minute := parseTimeOfDay(rule.TimeOfDay)

	var next time.Time
	switch p := rule.Pattern.(type) {
	case Weekly:
		// ISO 7 (Sunday) maps to Go's 0; Monday-Saturday line up already.
		target := p.DayOfWeek % 7
		delta := target - int(today.Weekday())
		if delta < 0 || (delta == 0 && !today.At(hour, minute, loc).After(now)) {
			delta += 7
		}
		next = today.AddDays(delta).At(hour, minute, loc)
	case Monthly:
		next = monthlyCandidate(today.Year, today.Month, p.DayOfMonth, hour, minute, loc)
		if !next.After(now) {
			next = monthlyCandidate(today.Year, today.Month+1, p.DayOfMonth, hour, minute, loc)
		}
	default:
		return time.Time{}, false
	}

	if rule.StopDate != nil && dateutil.FromTime(next.In(loc)).After(*rule.StopDate) {
		return time.Time{}, false
	}
	return next, true
}

// monthlyCandidate clamps the requested day against the target month's own
// length. The clamp is recomputed for every month, so a day-31 rule lands
// on the 30th in April and back on the 31st in May.
func monthlyCandidate(year int, month time.Month, dayOfMonth, hour, minute int, loc *time.Location) time.Time {
	// Normalize a month overflow (December + 1) before measuring length.
	first := dateutil.New(year, month, 1)
	day := min(dayOfMonth, dateutil.DaysInMonth(first.Year, first.Month))
	return dateutil.New(first.Year, first.Month, day).At(hour, minute, loc)
}

// parseTimeOfDay reads "HH:MM"; anything malformed or out of range falls
// back to 08:00 instead of failing.
func parseTimeOfDay(s string) (hour, minute int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return defaultHour, 0
	}
	h, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	m, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return defaultHour, 0
	}
	return h, m
}
