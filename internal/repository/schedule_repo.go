package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"petfeeder/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned by mutations that matched no row.
var ErrNotFound = errors.New("not found")

type ScheduleSQLite struct {
	db *sql.DB
}

func NewScheduleSQLite(db *sql.DB) *ScheduleSQLite {
	return &ScheduleSQLite{db: db}
}

var _ ScheduleRepo = (*ScheduleSQLite)(nil)

const (
	scheduleColumns = `id, user_id, feeding_time, portion_size, is_active, repeat_daily, last_triggered, created_at, updated_at`

	insertScheduleSQL = `
		INSERT INTO feeding_schedules (` + scheduleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectActiveSchedulesSQL = `
		SELECT ` + scheduleColumns + `
		FROM feeding_schedules
		WHERE is_active = 1 AND feeding_time = ?
		ORDER BY created_at ASC
	`

	selectScheduleByIDSQL = `SELECT ` + scheduleColumns + ` FROM feeding_schedules WHERE id = ?`

	selectSchedulesByUserSQL = `
		SELECT ` + scheduleColumns + `
		FROM feeding_schedules
		WHERE user_id = ?
		ORDER BY feeding_time ASC
	`

	updateScheduleSQL = `
		UPDATE feeding_schedules
		SET feeding_time = ?, portion_size = ?, is_active = ?, repeat_daily = ?, updated_at = ?
		WHERE id = ?
	`

	markTriggeredSQL = `UPDATE feeding_schedules SET last_triggered = ?, updated_at = ? WHERE id = ?`

	deleteScheduleSQL = `DELETE FROM feeding_schedules WHERE id = ?`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (models.Schedule, error) {
	var (
		s             models.Schedule
		lastTriggered sql.NullTime
	)
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.FeedingTime,
		&s.PortionSize,
		&s.IsActive,
		&s.RepeatDaily,
		&lastTriggered,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return models.Schedule{}, err
	}
	if lastTriggered.Valid {
		t := lastTriggered.Time.UTC()
		s.LastTriggered = &t
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

func (r *ScheduleSQLite) querySchedules(ctx context.Context, q string, args ...any) ([]models.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Schedule, 0, 8)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActive returns active schedules whose feeding time equals at ("HH:MM").
func (r *ScheduleSQLite) ListActive(ctx context.Context, at string) ([]models.Schedule, error) {
	out, err := r.querySchedules(ctx, selectActiveSchedulesSQL, at)
	if err != nil {
		return nil, fmt.Errorf("list active schedules at %s: %w", at, err)
	}
	return out, nil
}

// MarkTriggered records when a schedule last fired.
func (r *ScheduleSQLite) MarkTriggered(ctx context.Context, id string, when time.Time) error {
	res, err := r.db.ExecContext(ctx, markTriggeredSQL, when.UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark schedule %s triggered: %w", id, err)
	}
	return expectOneRow(res, "schedule", id)
}

// Create inserts s, assigning an id and timestamps when missing.
func (r *ScheduleSQLite) Create(ctx context.Context, s models.Schedule) (models.Schedule, error) {
	now := time.Now().UTC()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	var lastTriggered any
	if s.LastTriggered != nil {
		lastTriggered = s.LastTriggered.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertScheduleSQL,
		s.ID,
		s.UserID,
		s.FeedingTime,
		s.PortionSize,
		s.IsActive,
		s.RepeatDaily,
		lastTriggered,
		s.CreatedAt.UTC(),
		s.UpdatedAt,
	)
	if err != nil {
		return models.Schedule{}, fmt.Errorf("insert schedule: %w", err)
	}
	return s, nil
}

// Get fetches a schedule by id. Returns (nil, nil) if not found.
func (r *ScheduleSQLite) Get(ctx context.Context, id string) (*models.Schedule, error) {
	s, err := scanSchedule(r.db.QueryRowContext(ctx, selectScheduleByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select schedule %s: %w", id, err)
	}
	return &s, nil
}

// ListByUser returns the user's schedules ordered by feeding time.
func (r *ScheduleSQLite) ListByUser(ctx context.Context, userID int) ([]models.Schedule, error) {
	out, err := r.querySchedules(ctx, selectSchedulesByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list schedules for user %d: %w", userID, err)
	}
	return out, nil
}

// Update writes the mutable fields of s.
func (r *ScheduleSQLite) Update(ctx context.Context, s models.Schedule) error {
	res, err := r.db.ExecContext(ctx, updateScheduleSQL,
		s.FeedingTime,
		s.PortionSize,
		s.IsActive,
		s.RepeatDaily,
		time.Now().UTC(),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("update schedule %s: %w", s.ID, err)
	}
	return expectOneRow(res, "schedule", s.ID)
}

func (r *ScheduleSQLite) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteScheduleSQL, id)
	if err != nil {
		return fmt.Errorf("delete schedule %s: %w", id, err)
	}
	return expectOneRow(res, "schedule", id)
}

func expectOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
