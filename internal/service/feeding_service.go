package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"petfeeder/internal/command"
	"petfeeder/internal/device"
	"petfeeder/internal/logger"
	"petfeeder/internal/models"
	"petfeeder/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultLogLimit = 50
	MaxLogLimit     = 500

	manualFeedAction = "Food Dispensed"
	manualStopAction = "Feed Stopped"

	sendFailedMessage = "failed to send command to device"
)

var ErrInvalidPortion = errors.New("portion size must be small, medium or large")

// FeedResult is the outcome of a manual command. Delivered means the broker
// acknowledged it; DeviceOffline means the channel was not connected.
type FeedResult struct {
	Log           models.FeedingLog `json:"log"`
	Delivered     bool              `json:"delivered"`
	DeviceOffline bool              `json:"device_offline"`
}

// FeederStatus is the dashboard summary for one user.
type FeederStatus struct {
	DeviceConnected   bool            `json:"device_connected"`
	Device            device.Snapshot `json:"device"`
	LastActivity      *time.Time      `json:"last_activity,omitempty"`
	NextScheduledFeed *time.Time      `json:"next_scheduled_feed,omitempty"`
}

type FeedingService struct {
	schedules repository.ScheduleRepo
	logs      repository.FeedingLogRepo
	device    DeviceChannel
	loc       *time.Location
	now       func() time.Time
	log       *logger.Logger
}

func NewFeedingService(schedules repository.ScheduleRepo, logs repository.FeedingLogRepo, dev DeviceChannel, loc *time.Location, log *logger.Logger) *FeedingService {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FeedingService{
		schedules: schedules,
		logs:      logs,
		device:    dev,
		loc:       loc,
		now:       time.Now,
		log:       log,
	}
}

// Activate dispenses food now. With a scheduleID the command is attributed
// to that schedule and an empty portion takes the schedule's size.
func (s *FeedingService) Activate(ctx context.Context, userID int, portion, scheduleID string) (FeedResult, error) {
	triggerType := models.TriggerManual
	if scheduleID != "" {
		sched, err := s.schedules.Get(ctx, scheduleID)
		if err != nil {
			return FeedResult{}, err
		}
		if sched == nil {
			return FeedResult{}, ErrScheduleNotFound
		}
		if sched.UserID != userID {
			return FeedResult{}, ErrForbidden
		}
		if strings.TrimSpace(portion) == "" {
			portion = sched.PortionSize
		}
		triggerType = models.TriggerScheduled
	}
	if strings.TrimSpace(portion) != "" && !command.IsPortion(portion) {
		return FeedResult{}, ErrInvalidPortion
	}
	portion = command.NormalizePortion(portion)

	cmd, err := command.New(models.ActionFeed, portion, s.now())
	if err != nil {
		return FeedResult{}, err
	}
	cmd.ScheduleID = scheduleID

	return s.send(ctx, cmd, models.FeedingLog{
		UserID:      userID,
		ScheduleID:  scheduleID,
		Action:      manualFeedAction,
		PortionSize: portion,
		ServoAngle:  cmd.Angle,
		TriggerType: triggerType,
	})
}

// Stop halts the dispenser.
func (s *FeedingService) Stop(ctx context.Context, userID int) (FeedResult, error) {
	cmd, err := command.New(models.ActionStop, "", s.now())
	if err != nil {
		return FeedResult{}, err
	}
	return s.send(ctx, cmd, models.FeedingLog{
		UserID:      userID,
		Action:      manualStopAction,
		TriggerType: models.TriggerManual,
	})
}

// send publishes cmd and records the actual outcome.
func (s *FeedingService) send(ctx context.Context, cmd models.Command, entry models.FeedingLog) (FeedResult, error) {
	entry.ID = uuid.NewString()
	entry.OccurredAt = cmd.Timestamp
	cmd.LogID = entry.ID

	offline := !s.device.Status().Connected
	delivered := s.device.Publish(ctx, cmd)

	entry.Status = models.StatusSuccess
	if !delivered {
		entry.Status = models.StatusFailed
		entry.ErrorMessage = sendFailedMessage
	}

	// The command already went out; the log must be written even if the
	// request was cancelled meanwhile.
	id, err := s.logs.Append(context.WithoutCancel(ctx), entry)
	if err != nil {
		return FeedResult{}, fmt.Errorf("record %s command: %w", cmd.Action, err)
	}
	entry.ID = id

	s.log.Infow("manual_command",
		"action", cmd.Action,
		"user_id", entry.UserID,
		"log_id", id,
		"delivered", delivered,
		"device_offline", offline && !delivered,
	)
	return FeedResult{Log: entry, Delivered: delivered, DeviceOffline: offline && !delivered}, nil
}

// Logs returns the user's history, newest first. limit is clamped to
// [1, MaxLogLimit]; zero or negative selects DefaultLogLimit.
func (s *FeedingService) Logs(ctx context.Context, userID, limit int) ([]models.FeedingLog, error) {
	switch {
	case limit <= 0:
		limit = DefaultLogLimit
	case limit > MaxLogLimit:
		limit = MaxLogLimit
	}
	return s.logs.ListByUser(ctx, userID, limit)
}

func (s *FeedingService) Status(ctx context.Context, userID int) (FeederStatus, error) {
	snap := s.device.Status()
	st := FeederStatus{DeviceConnected: snap.Connected, Device: snap}

	latest, err := s.logs.ListByUser(ctx, userID, 1)
	if err != nil {
		return FeederStatus{}, err
	}
	if len(latest) > 0 {
		t := latest[0].OccurredAt
		st.LastActivity = &t
	}

	schedules, err := s.schedules.ListByUser(ctx, userID)
	if err != nil {
		return FeederStatus{}, err
	}
	st.NextScheduledFeed = nextFeed(schedules, s.now().In(s.loc))
	return st, nil
}

// nextFeed returns the earliest upcoming feeding time of the active
// schedules strictly after now, or nil when none are active.
func nextFeed(schedules []models.Schedule, now time.Time) *time.Time {
	var upcoming []time.Time
	for _, sc := range schedules {
		if !sc.IsActive {
			continue
		}
		hm, err := time.Parse(clockLayout, sc.FeedingTime)
		if err != nil {
			continue
		}
		next := time.Date(now.Year(), now.Month(), now.Day(), hm.Hour(), hm.Minute(), 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		upcoming = append(upcoming, next)
	}
	if len(upcoming) == 0 {
		return nil
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].Before(upcoming[j]) })
	return &upcoming[0]
}
