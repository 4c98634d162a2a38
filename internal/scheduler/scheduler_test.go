package scheduler

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"a3bowler/internal/dateutil"
	"a3bowler/internal/models"
)

type fakeSource struct {
	schedules []models.Schedule
}

func (f *fakeSource) ListSchedules(context.Context) ([]models.Schedule, error) {
	return f.schedules, nil
}

type captureSink struct {
	jobs []Job
}

func (c *captureSink) Enqueue(_ context.Context, job Job) error {
	c.jobs = append(c.jobs, job)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func weeklyMonday(id string) models.Schedule {
	return models.Schedule{
		ID:         id,
		Recipients: []string{"team@example.com"},
		Subject:    "Weekly A3 summary",
		Frequency:  "weekly",
		DayOfWeek:  1,
		TimeOfDay:  "08:00",
	}
}

func TestEvaluateEnqueuesNextOccurrence(t *testing.T) {
	source := &fakeSource{schedules: []models.Schedule{weeklyMonday("s1")}}
	sink := &captureSink{}
	s := New(source, sink, testLogger(), time.Minute)
	// Wednesday 09:00; the next Monday is the 31st.
	s.now = func() time.Time { return time.Date(2026, time.August, 26, 9, 0, 0, 0, time.UTC) }

	s.evaluate(context.Background())

	if len(sink.jobs) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(sink.jobs))
	}
	job := sink.jobs[0]
	want := time.Date(2026, time.August, 31, 8, 0, 0, 0, time.UTC)
	if !job.SendAt.Equal(want) {
		t.Errorf("send_at = %v, want %v", job.SendAt, want)
	}
	if !job.Recurring {
		t.Error("job should be marked recurring")
	}
}

func TestEvaluateDeduplicatesOccurrence(t *testing.T) {
	source := &fakeSource{schedules: []models.Schedule{weeklyMonday("s1")}}
	sink := &captureSink{}
	s := New(source, sink, testLogger(), time.Minute)
	s.now = func() time.Time { return time.Date(2026, time.August, 26, 9, 0, 0, 0, time.UTC) }

	s.evaluate(context.Background())
	s.evaluate(context.Background())
	s.evaluate(context.Background())

	if len(sink.jobs) != 1 {
		t.Fatalf("enqueued %d jobs for one occurrence, want 1", len(sink.jobs))
	}

	// Once the occurrence passes, the following Monday is a new job.
	s.now = func() time.Time { return time.Date(2026, time.August, 31, 8, 30, 0, 0, time.UTC) }
	s.evaluate(context.Background())

	if len(sink.jobs) != 2 {
		t.Fatalf("enqueued %d jobs after rollover, want 2", len(sink.jobs))
	}
	want := time.Date(2026, time.September, 7, 8, 0, 0, 0, time.UTC)
	if !sink.jobs[1].SendAt.Equal(want) {
		t.Errorf("second send_at = %v, want %v", sink.jobs[1].SendAt, want)
	}
}

func TestEvaluateSkipsStoppedSchedules(t *testing.T) {
	stop, _ := dateutil.Parse("2026-08-29")
	sc := weeklyMonday("s1")
	sc.StopDate = &stop

	source := &fakeSource{schedules: []models.Schedule{sc}}
	sink := &captureSink{}
	s := New(source, sink, testLogger(), time.Minute)
	s.now = func() time.Time { return time.Date(2026, time.August, 26, 9, 0, 0, 0, time.UTC) }

	s.evaluate(context.Background())

	if len(sink.jobs) != 0 {
		t.Errorf("enqueued %d jobs past stop date, want 0", len(sink.jobs))
	}
}

func TestEvaluateSkipsMalformedSchedule(t *testing.T) {
	bad := weeklyMonday("bad")
	bad.Frequency = "fortnightly"
	source := &fakeSource{schedules: []models.Schedule{bad, weeklyMonday("good")}}
	sink := &captureSink{}
	s := New(source, sink, testLogger(), time.Minute)
	s.now = func() time.Time { return time.Date(2026, time.August, 26, 9, 0, 0, 0, time.UTC) }

	s.evaluate(context.Background())

	if len(sink.jobs) != 1 || sink.jobs[0].ScheduleID != "good" {
		t.Errorf("jobs = %+v, want only the valid schedule", sink.jobs)
	}
}

func TestEvaluatePrunesDeletedSchedules(t *testing.T) {
	source := &fakeSource{schedules: []models.Schedule{weeklyMonday("s1")}}
	sink := &captureSink{}
	s := New(source, sink, testLogger(), time.Minute)
	s.now = func() time.Time { return time.Date(2026, time.August, 26, 9, 0, 0, 0, time.UTC) }

	s.evaluate(context.Background())
	if _, tracked := s.enqueued["s1"]; !tracked {
		t.Fatal("expected s1 in the dedupe map after its first evaluation")
	}

	// Schedule deleted; its dedupe entry must go with it.
	source.schedules = nil
	s.evaluate(context.Background())
	if _, tracked := s.enqueued["s1"]; tracked {
		t.Error("dedupe entry survived schedule deletion")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	source := &fakeSource{}
	s := New(source, &captureSink{}, testLogger(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
