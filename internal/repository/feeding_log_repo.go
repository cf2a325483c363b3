package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"petfeeder/internal/models"

	"github.com/google/uuid"
)

type FeedingLogSQLite struct {
	db *sql.DB
}

func NewFeedingLogSQLite(db *sql.DB) *FeedingLogSQLite { return &FeedingLogSQLite{db: db} }

var _ FeedingLogRepo = (*FeedingLogSQLite)(nil)

const (
	insertFeedingLogSQL = `
		INSERT INTO feeding_logs (id, user_id, schedule_id, action, status, portion_size, servo_angle, trigger_type, error_message, occurred_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	markLogFailedSQL = `
		UPDATE feeding_logs SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`

	selectLogsByUserSQL = `
		SELECT id, user_id, schedule_id, action, status, portion_size, servo_angle, trigger_type, error_message, occurred_at, created_at, updated_at
		FROM feeding_logs
		WHERE user_id = ?
		ORDER BY occurred_at DESC
		LIMIT ?
	`
)

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

// Append inserts l and returns its id. Missing id and timestamps are filled in.
func (r *FeedingLogSQLite) Append(ctx context.Context, l models.FeedingLog) (string, error) {
	now := time.Now().UTC()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.OccurredAt.IsZero() {
		l.OccurredAt = now
	}

	_, err := r.db.ExecContext(ctx, insertFeedingLogSQL,
		l.ID,
		l.UserID,
		nullIfEmpty(l.ScheduleID),
		l.Action,
		l.Status,
		nullIfEmpty(l.PortionSize),
		nullIfZero(l.ServoAngle),
		l.TriggerType,
		nullIfEmpty(l.ErrorMessage),
		l.OccurredAt.UTC(),
		now,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("insert feeding log: %w", err)
	}
	return l.ID, nil
}

// MarkFailed flips a log to failed and stores the reason.
func (r *FeedingLogSQLite) MarkFailed(ctx context.Context, id, errMsg string) error {
	res, err := r.db.ExecContext(ctx, markLogFailedSQL, models.StatusFailed, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark feeding log %s failed: %w", id, err)
	}
	return expectOneRow(res, "feeding log", id)
}

// ListByUser returns up to limit logs for the user, newest first.
func (r *FeedingLogSQLite) ListByUser(ctx context.Context, userID, limit int) ([]models.FeedingLog, error) {
	rows, err := r.db.QueryContext(ctx, selectLogsByUserSQL, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list feeding logs for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]models.FeedingLog, 0, limit)
	for rows.Next() {
		var (
			l                        models.FeedingLog
			scheduleID, portion, msg sql.NullString
			angle                    sql.NullInt64
		)
		if err := rows.Scan(
			&l.ID,
			&l.UserID,
			&scheduleID,
			&l.Action,
			&l.Status,
			&portion,
			&angle,
			&l.TriggerType,
			&msg,
			&l.OccurredAt,
			&l.CreatedAt,
			&l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan feeding log: %w", err)
		}
		l.ScheduleID = scheduleID.String
		l.PortionSize = portion.String
		l.ServoAngle = int(angle.Int64)
		l.ErrorMessage = msg.String
		l.OccurredAt = l.OccurredAt.UTC()
		l.CreatedAt = l.CreatedAt.UTC()
		l.UpdatedAt = l.UpdatedAt.UTC()
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
