package repository

import (
	"context"
	"database/sql"
	"time"

	"petfeeder/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// ScheduleRepo stores feeding schedules.
type ScheduleRepo interface {
	ListActive(ctx context.Context, at string) ([]models.Schedule, error)
	MarkTriggered(ctx context.Context, id string, when time.Time) error

	Create(ctx context.Context, s models.Schedule) (models.Schedule, error)
	Get(ctx context.Context, id string) (*models.Schedule, error)
	ListByUser(ctx context.Context, userID int) ([]models.Schedule, error)
	Update(ctx context.Context, s models.Schedule) error
	Delete(ctx context.Context, id string) error
}

// FeedingLogRepo is the append-mostly outcome history.
type FeedingLogRepo interface {
	Append(ctx context.Context, l models.FeedingLog) (string, error)
	MarkFailed(ctx context.Context, id, errMsg string) error
	ListByUser(ctx context.Context, userID, limit int) ([]models.FeedingLog, error)
}

type Repository struct {
	Schedules   ScheduleRepo
	FeedingLogs FeedingLogRepo
	Auth        Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Schedules:   NewScheduleSQLite(db),
		FeedingLogs: NewFeedingLogSQLite(db),
		Auth:        NewUserRepository(db),
	}
}
