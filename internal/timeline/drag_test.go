package timeline

import (
	"testing"

	"pgregory.net/rapid"

	"a3bowler/internal/dateutil"
	"a3bowler/internal/models"
)

// fakeCollection is an in-memory Collection recording every write.
type fakeCollection struct {
	tasks   map[string]models.Task
	updates int
}

func newFakeCollection(tasks ...models.Task) *fakeCollection {
	c := &fakeCollection{tasks: map[string]models.Task{}}
	for _, t := range tasks {
		c.tasks[t.ID] = t
	}
	return c
}

func (c *fakeCollection) Get(id string) (models.Task, bool) {
	t, ok := c.tasks[id]
	return t, ok
}

func (c *fakeCollection) UpdateDates(id string, start, end dateutil.Date) {
	t := c.tasks[id]
	t.StartDate = start
	t.EndDate = end
	c.tasks[id] = t
	c.updates++
}

func fiveDayTask(t *testing.T) models.Task {
	return models.Task{
		ID:        "t1",
		Name:      "containment action",
		StartDate: date(t, "2026-08-10"),
		EndDate:   date(t, "2026-08-14"),
	}
}

func TestMoveShiftsBothDates(t *testing.T) {
	tasks := newFakeCollection(fiveDayTask(t))
	e := NewEngine(testGrid(t), tasks)

	if !e.PointerDown("t1", Move, 100) {
		t.Fatal("PointerDown failed")
	}
	// Three cells right.
	if !e.PointerMove(100 + 3*24) {
		t.Fatal("PointerMove applied nothing")
	}
	e.PointerUp()

	got, _ := tasks.Get("t1")
	if got.StartDate.String() != "2026-08-13" || got.EndDate.String() != "2026-08-17" {
		t.Errorf("moved to %s..%s, want 2026-08-13..2026-08-17", got.StartDate, got.EndDate)
	}
	if e.Dragging() {
		t.Error("session should be gone after pointer up")
	}
}

func TestZeroDeltaNeverWrites(t *testing.T) {
	tasks := newFakeCollection(fiveDayTask(t))
	e := NewEngine(testGrid(t), tasks)

	e.PointerDown("t1", Move, 100)
	// Jitter below half a cell rounds to zero days.
	for _, x := range []float64{100, 101, 95, 111.9, 88.1} {
		if e.PointerMove(x) {
			t.Errorf("PointerMove(%v) wrote despite zero-day delta", x)
		}
	}
	e.PointerUp()

	if tasks.updates != 0 {
		t.Errorf("collection written %d times, want 0", tasks.updates)
	}
}

func TestRepeatedDeltaWritesOnce(t *testing.T) {
	tasks := newFakeCollection(fiveDayTask(t))
	e := NewEngine(testGrid(t), tasks)

	e.PointerDown("t1", Move, 100)
	e.PointerMove(100 + 2*24)
	e.PointerMove(100 + 2*24 + 3) // still rounds to 2 days
	e.PointerMove(100 + 2*24 - 5)
	e.PointerUp()

	if tasks.updates != 1 {
		t.Errorf("collection written %d times, want 1", tasks.updates)
	}
}

func TestDeltasAreSnapshotRelative(t *testing.T) {
	tasks := newFakeCollection(fiveDayTask(t))
	e := NewEngine(testGrid(t), tasks)

	e.PointerDown("t1", Move, 0)
	e.PointerMove(5 * 24)
	e.PointerMove(2 * 24) // back toward origin: net +2 from snapshot, not +7
	e.PointerUp()

	got, _ := tasks.Get("t1")
	if got.StartDate.String() != "2026-08-12" {
		t.Errorf("start = %s, want 2026-08-12", got.StartDate)
	}
}

func TestResizeLeftClampsAtEnd(t *testing.T) {
	tasks := newFakeCollection(fiveDayTask(t))
	e := NewEngine(testGrid(t), tasks)

	e.PointerDown("t1", ResizeLeft, 0)
	// Drag the left handle 20 cells right, far past the end date.
	e.PointerMove(20 * 24)
	e.PointerUp()

	got, _ := tasks.Get("t1")
	if got.StartDate != got.EndDate {
		t.Errorf("start %s != end %s, want zero-duration collapse", got.StartDate, got.EndDate)
	}
	if got.EndDate.String() != "2026-08-14" {
		t.Errorf("end moved during left resize: %s", got.EndDate)
	}
}

func TestResizeRightClampsAtStart(t *testing.T) {
	tasks := newFakeCollection(fiveDayTask(t))
	e := NewEngine(testGrid(t), tasks)

	e.PointerDown("t1", ResizeRight, 0)
	e.PointerMove(-20 * 24)
	e.PointerUp()

	got, _ := tasks.Get("t1")
	if got.StartDate != got.EndDate {
		t.Errorf("start %s != end %s, want zero-duration collapse", got.StartDate, got.EndDate)
	}
	if got.StartDate.String() != "2026-08-10" {
		t.Errorf("start moved during right resize: %s", got.StartDate)
	}
}

func TestResizeLeftGrowsSpan(t *testing.T) {
	tasks := newFakeCollection(fiveDayTask(t))
	e := NewEngine(testGrid(t), tasks)

	e.PointerDown("t1", ResizeLeft, 0)
	e.PointerMove(-3 * 24)
	e.PointerUp()

	got, _ := tasks.Get("t1")
	if got.StartDate.String() != "2026-08-07" || got.EndDate.String() != "2026-08-14" {
		t.Errorf("span = %s..%s, want 2026-08-07..2026-08-14", got.StartDate, got.EndDate)
	}
}

func TestSecondPointerDownIgnoredMidDrag(t *testing.T) {
	tasks := newFakeCollection(fiveDayTask(t), models.Task{
		ID:        "t2",
		StartDate: date(t, "2026-08-20"),
		EndDate:   date(t, "2026-08-22"),
	})
	e := NewEngine(testGrid(t), tasks)

	e.PointerDown("t1", Move, 0)
	if e.PointerDown("t2", Move, 0) {
		t.Error("second pointer-down started a concurrent session")
	}
	s, ok := e.Session()
	if !ok || s.TaskID != "t1" {
		t.Errorf("active session = %+v, want t1", s)
	}
}

func TestPointerDownUnknownTask(t *testing.T) {
	e := NewEngine(testGrid(t), newFakeCollection())
	if e.PointerDown("nope", Move, 0) {
		t.Error("drag started for a task the collection does not have")
	}
	if e.PointerMove(100) {
		t.Error("PointerMove wrote with no session")
	}
	e.PointerUp() // must not panic
}

func TestGridSwapIgnoredMidDrag(t *testing.T) {
	tasks := newFakeCollection(fiveDayTask(t))
	e := NewEngine(testGrid(t), tasks)

	e.PointerDown("t1", Move, 0)
	e.SetGrid(Grid{Start: date(t, "2026-09-01"), Days: 30, CellWidth: 48})
	if e.Grid().CellWidth != 24 {
		t.Error("grid swapped during an active drag")
	}
	e.PointerUp()
	e.SetGrid(Grid{Start: date(t, "2026-09-01"), Days: 30, CellWidth: 48})
	if e.Grid().CellWidth != 48 {
		t.Error("grid swap rejected while idle")
	}
}

// After any sequence of drags the start date never passes the end date.
func TestStartNeverExceedsEndProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tasks := newFakeCollection(models.Task{
			ID:        "t1",
			StartDate: dateutil.New(2026, 8, 10),
			EndDate:   dateutil.New(2026, 8, 10).AddDays(rapid.IntRange(0, 14).Draw(rt, "span")),
		})
		e := NewEngine(Grid{Start: dateutil.New(2026, 8, 1), Days: 42, CellWidth: 24}, tasks)

		gestures := rapid.IntRange(1, 8).Draw(rt, "gestures")
		for i := 0; i < gestures; i++ {
			mode := rapid.SampledFrom([]Mode{Move, ResizeLeft, ResizeRight}).Draw(rt, "mode")
			origin := rapid.Float64Range(0, 1000).Draw(rt, "origin")
			e.PointerDown("t1", mode, origin)
			moves := rapid.IntRange(1, 5).Draw(rt, "moves")
			for j := 0; j < moves; j++ {
				e.PointerMove(rapid.Float64Range(-2000, 2000).Draw(rt, "x"))
				got, _ := tasks.Get("t1")
				if got.StartDate.After(got.EndDate) {
					rt.Fatalf("invariant broken: %s > %s", got.StartDate, got.EndDate)
				}
			}
			e.PointerUp()
		}
	})
}
