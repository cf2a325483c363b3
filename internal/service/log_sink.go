package service

import (
	"context"
	"time"

	"petfeeder/internal/logger"
	"petfeeder/internal/models"
	"petfeeder/internal/outbox"
	"petfeeder/internal/repository"
)

const notifyTimeout = 5 * time.Second

// NotifyingLogSink writes feeding logs and emits an outbox event for every
// append and failure mark. Notification errors are logged and swallowed.
type NotifyingLogSink struct {
	repo     repository.FeedingLogRepo
	notifier outbox.Notifier
	log      *logger.Logger
}

var _ repository.FeedingLogRepo = (*NotifyingLogSink)(nil)

func NewNotifyingLogSink(repo repository.FeedingLogRepo, notifier outbox.Notifier, log *logger.Logger) *NotifyingLogSink {
	if notifier == nil {
		notifier = outbox.NoopNotifier{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &NotifyingLogSink{repo: repo, notifier: notifier, log: log}
}

func (s *NotifyingLogSink) Append(ctx context.Context, l models.FeedingLog) (string, error) {
	id, err := s.repo.Append(ctx, l)
	if err != nil {
		return "", err
	}
	s.notify(ctx, outbox.FeedingEvent{
		Type:         outbox.EventLogged,
		LogID:        id,
		UserID:       l.UserID,
		ScheduleID:   l.ScheduleID,
		Action:       l.Action,
		Status:       l.Status,
		TriggerType:  l.TriggerType,
		ErrorMessage: l.ErrorMessage,
		At:           l.OccurredAt,
	})
	return id, nil
}

func (s *NotifyingLogSink) MarkFailed(ctx context.Context, id, errMsg string) error {
	if err := s.repo.MarkFailed(ctx, id, errMsg); err != nil {
		return err
	}
	s.notify(ctx, outbox.FeedingEvent{
		Type:         outbox.EventFailed,
		LogID:        id,
		Status:       models.StatusFailed,
		ErrorMessage: errMsg,
		At:           time.Now().UTC(),
	})
	return nil
}

func (s *NotifyingLogSink) ListByUser(ctx context.Context, userID, limit int) ([]models.FeedingLog, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *NotifyingLogSink) notify(ctx context.Context, ev outbox.FeedingEvent) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(nctx, ev); err != nil {
		s.log.Warnw("feeding_event_dropped", "type", ev.Type, "log_id", ev.LogID, "error", err)
	}
}
