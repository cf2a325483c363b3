package service

import (
	"context"
	"time"

	"petfeeder/internal/device"
	"petfeeder/internal/logger"
	"petfeeder/internal/models"
	"petfeeder/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Schedules manages a user's feeding schedules.
type Schedules interface {
	Create(ctx context.Context, userID int, in ScheduleInput) (models.Schedule, error)
	List(ctx context.Context, userID int) ([]models.Schedule, error)
	Update(ctx context.Context, userID int, id string, in ScheduleUpdate) (models.Schedule, error)
	Delete(ctx context.Context, userID int, id string) error
}

// Feeding exposes manual commands, history and feeder status.
type Feeding interface {
	Activate(ctx context.Context, userID int, portion, scheduleID string) (FeedResult, error)
	Stop(ctx context.Context, userID int) (FeedResult, error)
	Logs(ctx context.Context, userID, limit int) ([]models.FeedingLog, error)
	Status(ctx context.Context, userID int) (FeederStatus, error)
}

// DeviceChannel is what request handlers need from the MQTT channel.
type DeviceChannel interface {
	Publish(ctx context.Context, cmd models.Command) bool
	Status() device.Snapshot
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Authorization
	Schedules
	Feeding

	// Device is the live channel, read by the status stream.
	Device DeviceChannel
}

type Deps struct {
	Repos    *repository.Repository
	Logs     repository.FeedingLogRepo // defaults to Repos.FeedingLogs
	Device   DeviceChannel
	Auth     AuthConfig
	Location *time.Location
	Logger   *logger.Logger
}

func NewService(d Deps) *Service {
	logs := d.Logs
	if logs == nil {
		logs = d.Repos.FeedingLogs
	}
	return &Service{
		Authorization: NewAuthService(d.Repos.Auth, d.Auth),
		Schedules:     NewScheduleService(d.Repos.Schedules),
		Feeding:       NewFeedingService(d.Repos.Schedules, logs, d.Device, d.Location, d.Logger),
		Device:        d.Device,
	}
}
