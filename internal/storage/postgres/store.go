package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"a3bowler/internal/dateutil"
	"a3bowler/internal/models"
)

// Store wraps the Postgres pool and exposes high level helpers for tasks
// and summary-email schedules.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to the database and runs the required migrations.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty database url")
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{pool: pool, logger: logger}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
            id          TEXT PRIMARY KEY,
            name        TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            owner       TEXT NOT NULL DEFAULT '',
            grp         TEXT NOT NULL DEFAULT '',
            start_date  DATE NOT NULL,
            end_date    DATE NOT NULL,
            status      TEXT NOT NULL DEFAULT 'not_started',
            progress    INTEGER NOT NULL DEFAULT 0,
            created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_dates ON tasks(start_date, end_date);`,
		`CREATE TABLE IF NOT EXISTS schedules (
            id                      TEXT PRIMARY KEY,
            recipients              TEXT[] NOT NULL DEFAULT '{}',
            subject                 TEXT NOT NULL DEFAULT '',
            frequency               TEXT NOT NULL,
            day_of_week             INTEGER NOT NULL DEFAULT 0,
            day_of_month            INTEGER NOT NULL DEFAULT 0,
            time_of_day             TEXT NOT NULL DEFAULT '08:00',
            stop_date               DATE,
            timezone_offset_minutes INTEGER NOT NULL DEFAULT 0,
            created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

const taskColumns = `id, name, description, owner, grp, start_date, end_date, status, progress, created_at, updated_at`

func scanTask(row pgx.Row) (models.Task, error) {
	var t models.Task
	var start, end time.Time
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Owner, &t.Group,
		&start, &end, &t.Status, &t.Progress, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Task{}, err
	}
	t.StartDate = dateutil.FromTime(start)
	t.EndDate = dateutil.FromTime(end)
	return t, nil
}

// ListTasks retrieves all tasks ordered by start date.
func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY start_date, name, id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask persists a new task. Status and progress are normalized; the
// date span must not be inverted.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Name) == "" {
		return models.Task{}, fmt.Errorf("task name must not be empty")
	}
	if t.EndDate.Before(t.StartDate) {
		return models.Task{}, fmt.Errorf("end_date precedes start_date")
	}
	if _, ok := models.ValidTaskStatuses[t.Status]; !ok {
		t.Status = "not_started"
	}
	t.Progress = models.ClampProgress(t.Progress)
	t.ID = uuid.Must(uuid.NewV7()).String()

	_, err := s.pool.Exec(ctx, `INSERT INTO tasks(id, name, description, owner, grp, start_date, end_date, status, progress)
        VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, strings.TrimSpace(t.Name), t.Description, t.Owner, t.Group,
		t.StartDate.String(), t.EndDate.String(), t.Status, t.Progress)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, t.ID)
}

// GetTask fetches a single task by id.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task not found")
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask applies the edit-form fields that were supplied and returns
// the updated row.
func (s *Store) UpdateTask(ctx context.Context, id string, changes map[string]any) (models.Task, error) {
	current, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	if v, ok := changes["name"].(string); ok && strings.TrimSpace(v) != "" {
		current.Name = strings.TrimSpace(v)
	}
	if v, ok := changes["description"].(string); ok {
		current.Description = v
	}
	if v, ok := changes["owner"].(string); ok {
		current.Owner = v
	}
	if v, ok := changes["group"].(string); ok {
		current.Group = v
	}
	if v, ok := changes["status"].(string); ok {
		if _, valid := models.ValidTaskStatuses[v]; valid {
			current.Status = v
		}
	}
	if v, ok := changes["progress"].(int); ok {
		current.Progress = models.ClampProgress(v)
	}
	if v, ok := changes["start_date"].(dateutil.Date); ok {
		current.StartDate = v
	}
	if v, ok := changes["end_date"].(dateutil.Date); ok {
		current.EndDate = v
	}
	if current.EndDate.Before(current.StartDate) {
		return models.Task{}, fmt.Errorf("end_date precedes start_date")
	}

	_, err = s.pool.Exec(ctx, `UPDATE tasks SET name = $1, description = $2, owner = $3, grp = $4,
        start_date = $5, end_date = $6, status = $7, progress = $8, updated_at = NOW() WHERE id = $9`,
		current.Name, current.Description, current.Owner, current.Group,
		current.StartDate.String(), current.EndDate.String(), current.Status, current.Progress, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return s.GetTask(ctx, id)
}

// UpdateTaskDates writes only the date span; drag commits land here on
// every snapped pointer move, so the statement stays minimal.
func (s *Store) UpdateTaskDates(ctx context.Context, id string, start, end dateutil.Date) error {
	tag, err := s.pool.Exec(ctx, `UPDATE tasks SET start_date = $1, end_date = $2, updated_at = NOW() WHERE id = $3`,
		start.String(), end.String(), id)
	if err != nil {
		return fmt.Errorf("update task dates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task not found")
	}
	return nil
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task not found")
	}
	return nil
}

const scheduleColumns = `id, recipients, subject, frequency, day_of_week, day_of_month, time_of_day, stop_date, timezone_offset_minutes, created_at, updated_at`

func scanSchedule(row pgx.Row) (models.Schedule, error) {
	var sc models.Schedule
	var stop *time.Time
	err := row.Scan(&sc.ID, &sc.Recipients, &sc.Subject, &sc.Frequency, &sc.DayOfWeek, &sc.DayOfMonth,
		&sc.TimeOfDay, &stop, &sc.TimezoneOffsetMinutes, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return models.Schedule{}, err
	}
	if stop != nil {
		d := dateutil.FromTime(*stop)
		sc.StopDate = &d
	}
	return sc, nil
}

// ListSchedules returns every stored summary-email schedule.
func (s *Store) ListSchedules(ctx context.Context) ([]models.Schedule, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+scheduleColumns+` FROM schedules ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []models.Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, sc)
	}
	return schedules, rows.Err()
}

// CreateSchedule persists a new schedule. The recurrence fields must form
// a valid rule.
func (s *Store) CreateSchedule(ctx context.Context, sc models.Schedule) (models.Schedule, error) {
	if _, err := sc.Rule(); err != nil {
		return models.Schedule{}, err
	}
	if sc.Recipients == nil {
		sc.Recipients = []string{}
	}
	sc.ID = uuid.Must(uuid.NewV7()).String()

	var stop *string
	if sc.StopDate != nil {
		v := sc.StopDate.String()
		stop = &v
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO schedules(id, recipients, subject, frequency, day_of_week, day_of_month, time_of_day, stop_date, timezone_offset_minutes)
        VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sc.ID, sc.Recipients, sc.Subject, sc.Frequency, sc.DayOfWeek, sc.DayOfMonth, sc.TimeOfDay, stop, sc.TimezoneOffsetMinutes)
	if err != nil {
		return models.Schedule{}, fmt.Errorf("insert schedule: %w", err)
	}
	return s.GetSchedule(ctx, sc.ID)
}

// GetSchedule fetches a schedule by id.
func (s *Store) GetSchedule(ctx context.Context, id string) (models.Schedule, error) {
	sc, err := scanSchedule(s.pool.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Schedule{}, fmt.Errorf("schedule not found")
	}
	if err != nil {
		return models.Schedule{}, fmt.Errorf("get schedule: %w", err)
	}
	return sc, nil
}

// UpdateSchedule replaces a schedule's settings wholesale; the settings
// form always submits the complete rule.
func (s *Store) UpdateSchedule(ctx context.Context, id string, sc models.Schedule) (models.Schedule, error) {
	sc.ID = id
	if _, err := sc.Rule(); err != nil {
		return models.Schedule{}, err
	}
	if sc.Recipients == nil {
		sc.Recipients = []string{}
	}

	var stop *string
	if sc.StopDate != nil {
		v := sc.StopDate.String()
		stop = &v
	}
	tag, err := s.pool.Exec(ctx, `UPDATE schedules SET recipients = $1, subject = $2, frequency = $3, day_of_week = $4,
        day_of_month = $5, time_of_day = $6, stop_date = $7, timezone_offset_minutes = $8, updated_at = NOW() WHERE id = $9`,
		sc.Recipients, sc.Subject, sc.Frequency, sc.DayOfWeek, sc.DayOfMonth, sc.TimeOfDay, stop, sc.TimezoneOffsetMinutes, id)
	if err != nil {
		return models.Schedule{}, fmt.Errorf("update schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Schedule{}, fmt.Errorf("schedule not found")
	}
	return s.GetSchedule(ctx, id)
}

// DeleteSchedule removes a schedule by id.
func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("schedule not found")
	}
	return nil
}
