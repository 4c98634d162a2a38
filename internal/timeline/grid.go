package timeline

import (
	"math"

	"a3bowler/internal/dateutil"
	"a3bowler/internal/models"
)

// Grid maps calendar dates to horizontal pixel positions. The window shows
// Days consecutive days starting at Start, each CellWidth pixels wide. The
// grid scrolls horizontally, so only the left edge culls bars.
type Grid struct {
	Start     dateutil.Date
	Days      int
	CellWidth float64
}

// Bar is the computed geometry for one task on the grid.
type Bar struct {
	TaskID string  `json:"task_id"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
}

// LeftOf returns the pixel offset of a date from the grid's left edge.
// Dates before Start yield negative offsets.
func (g Grid) LeftOf(d dateutil.Date) float64 {
	return float64(dateutil.DiffDays(d, g.Start)) * g.CellWidth
}

// BarFor computes a task's bar geometry. The span is endpoint inclusive,
// so a single-day task is exactly one cell wide.
func (g Grid) BarFor(t models.Task) Bar {
	return Bar{
		TaskID: t.ID,
		Left:   g.LeftOf(t.StartDate),
		Width:  float64(dateutil.DiffDays(t.EndDate, t.StartDate)+1) * g.CellWidth,
	}
}

// Bars computes geometry for all tasks, dropping bars that end left of the
// window. There is no right-side cull; the grid scrolls that way.
func (g Grid) Bars(tasks []models.Task) []Bar {
	bars := make([]Bar, 0, len(tasks))
	for _, t := range tasks {
		bar := g.BarFor(t)
		if bar.Left+bar.Width < 0 {
			continue
		}
		bars = append(bars, bar)
	}
	return bars
}

// DateAt resolves a pixel X within a task row to the day under it, clamped
// to the visible window. Used when a click on empty row space creates a
// task at that day.
func (g Grid) DateAt(x float64) dateutil.Date {
	idx := int(math.Floor(x / g.CellWidth))
	if idx < 0 {
		idx = 0
	}
	if idx >= g.Days {
		idx = g.Days - 1
	}
	return g.Start.AddDays(idx)
}
