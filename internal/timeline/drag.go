package timeline

import (
	"math"

	"a3bowler/internal/dateutil"
	"a3bowler/internal/models"
)

// Mode is the kind of drag gesture in progress.
type Mode string

const (
	Move        Mode = "move"
	ResizeLeft  Mode = "resize-left"
	ResizeRight Mode = "resize-right"
)

// Collection is the task storage the engine reads at drag start and
// mutates while the pointer moves. The engine never owns task data.
type Collection interface {
	Get(id string) (models.Task, bool)
	UpdateDates(id string, start, end dateutil.Date)
}

// Session is the ephemeral state of one drag. Deltas are always computed
// against the dates snapshotted at pointer-down, never against the live
// task, so repeated rounding cannot drift the bar.
type Session struct {
	TaskID    string
	Mode      Mode
	OriginX   float64
	StartDate dateutil.Date
	EndDate   dateutil.Date

	lastDelta int
}

// Engine turns pointer gestures into day-snapped date mutations. It holds
// at most one Session, so concurrent drags are impossible by construction.
// Not safe for use from multiple goroutines; it lives on the UI thread.
type Engine struct {
	grid    Grid
	tasks   Collection
	session *Session
}

// NewEngine builds an engine over a grid and its caller-owned tasks.
func NewEngine(grid Grid, tasks Collection) *Engine {
	return &Engine{grid: grid, tasks: tasks}
}

// Grid returns the engine's current grid.
func (e *Engine) Grid() Grid { return e.grid }

// SetGrid swaps the visible window, e.g. when the viewed month changes.
// Ignored mid-drag; the session's deltas are tied to the old cell width.
func (e *Engine) SetGrid(g Grid) {
	if e.session != nil {
		return
	}
	e.grid = g
}

// Dragging reports whether a drag session is active.
func (e *Engine) Dragging() bool { return e.session != nil }

// Session returns a copy of the active session.
func (e *Engine) Session() (Session, bool) {
	if e.session == nil {
		return Session{}, false
	}
	return *e.session, true
}

// PointerDown starts a drag over the given task. A pointer-down while a
// session is already active is ignored, as is one for an unknown task.
func (e *Engine) PointerDown(taskID string, mode Mode, x float64) bool {
	if e.session != nil {
		return false
	}
	t, ok := e.tasks.Get(taskID)
	if !ok {
		return false
	}
	e.session = &Session{
		TaskID:    taskID,
		Mode:      mode,
		OriginX:   x,
		StartDate: t.StartDate,
		EndDate:   t.EndDate,
	}
	return true
}

// PointerMove commits the mutation for the pointer's current X. It reports
// whether the collection was written: a zero-day delta, or one equal to the
// last applied delta, writes nothing.
func (e *Engine) PointerMove(x float64) bool {
	s := e.session
	if s == nil {
		return false
	}
	delta := int(math.Round((x - s.OriginX) / e.grid.CellWidth))
	if delta == 0 || delta == s.lastDelta {
		return false
	}
	s.lastDelta = delta

	start, end := s.StartDate, s.EndDate
	switch s.Mode {
	case Move:
		start = start.AddDays(delta)
		end = end.AddDays(delta)
	case ResizeLeft:
		start = start.AddDays(delta)
		if start.After(end) {
			start = end
		}
	case ResizeRight:
		end = end.AddDays(delta)
		if end.Before(start) {
			end = start
		}
	}
	e.tasks.UpdateDates(s.TaskID, start, end)
	return true
}

// PointerUp ends the session. The last committed mutation stands; there is
// no rollback step. Safe to call with no session active.
func (e *Engine) PointerUp() {
	e.session = nil
}
