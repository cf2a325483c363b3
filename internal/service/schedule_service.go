package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"petfeeder/internal/command"
	"petfeeder/internal/models"
	"petfeeder/internal/repository"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrForbidden        = errors.New("schedule belongs to another user")
	ErrInvalidSchedule  = errors.New("invalid schedule")
)

// clockLayout is the wall-clock form schedules are stored in.
const clockLayout = "15:04"

// ScheduleInput is the payload for a new schedule.
type ScheduleInput struct {
	FeedingTime string
	PortionSize string
	RepeatDaily *bool // nil means true
}

// ScheduleUpdate changes only the non-nil fields.
type ScheduleUpdate struct {
	FeedingTime *string
	PortionSize *string
	IsActive    *bool
	RepeatDaily *bool
}

type ScheduleService struct {
	repo repository.ScheduleRepo
}

func NewScheduleService(repo repository.ScheduleRepo) *ScheduleService {
	return &ScheduleService{repo: repo}
}

// normalizeFeedingTime accepts H:MM or HH:MM and returns HH:MM.
func normalizeFeedingTime(s string) (string, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: feeding time %q must be HH:MM", ErrInvalidSchedule, s)
	}
	return t.Format(clockLayout), nil
}

// normalizeSchedulePortion defaults an empty portion to medium and rejects unknown sizes.
func normalizeSchedulePortion(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return models.PortionMedium, nil
	}
	if !command.IsPortion(s) {
		return "", fmt.Errorf("%w: portion size %q must be small, medium or large", ErrInvalidSchedule, s)
	}
	return command.NormalizePortion(s), nil
}

func (s *ScheduleService) Create(ctx context.Context, userID int, in ScheduleInput) (models.Schedule, error) {
	at, err := normalizeFeedingTime(in.FeedingTime)
	if err != nil {
		return models.Schedule{}, err
	}
	portion, err := normalizeSchedulePortion(in.PortionSize)
	if err != nil {
		return models.Schedule{}, err
	}
	repeat := true
	if in.RepeatDaily != nil {
		repeat = *in.RepeatDaily
	}

	return s.repo.Create(ctx, models.Schedule{
		UserID:      userID,
		FeedingTime: at,
		PortionSize: portion,
		IsActive:    true,
		RepeatDaily: repeat,
	})
}

func (s *ScheduleService) List(ctx context.Context, userID int) ([]models.Schedule, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update applies in to the caller's schedule. Moving the feeding time of a
// schedule that already fired today lets it fire again at the new time.
func (s *ScheduleService) Update(ctx context.Context, userID int, id string, in ScheduleUpdate) (models.Schedule, error) {
	sched, err := s.owned(ctx, userID, id)
	if err != nil {
		return models.Schedule{}, err
	}

	if in.FeedingTime != nil {
		at, err := normalizeFeedingTime(*in.FeedingTime)
		if err != nil {
			return models.Schedule{}, err
		}
		sched.FeedingTime = at
	}
	if in.PortionSize != nil {
		portion, err := normalizeSchedulePortion(*in.PortionSize)
		if err != nil {
			return models.Schedule{}, err
		}
		sched.PortionSize = portion
	}
	if in.IsActive != nil {
		sched.IsActive = *in.IsActive
	}
	if in.RepeatDaily != nil {
		sched.RepeatDaily = *in.RepeatDaily
	}

	if err := s.repo.Update(ctx, sched); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Schedule{}, ErrScheduleNotFound
		}
		return models.Schedule{}, err
	}
	return sched, nil
}

func (s *ScheduleService) Delete(ctx context.Context, userID int, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScheduleNotFound
		}
		return err
	}
	return nil
}

// owned loads id and checks that userID owns it.
func (s *ScheduleService) owned(ctx context.Context, userID int, id string) (models.Schedule, error) {
	sched, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Schedule{}, err
	}
	if sched == nil {
		return models.Schedule{}, ErrScheduleNotFound
	}
	if sched.UserID != userID {
		return models.Schedule{}, ErrForbidden
	}
	return *sched, nil
}
