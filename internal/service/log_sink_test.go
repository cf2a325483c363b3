package service

import (
	"context"
	"errors"
	"testing"

	"petfeeder/internal/models"
	"petfeeder/internal/outbox"
)

type recordingNotifier struct {
	events []outbox.FeedingEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev outbox.FeedingEvent) error {
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) Close() error { return nil }

func TestNotifyingLogSink_EmitsEvents(t *testing.T) {
	repo := &memLogRepo{}
	n := &recordingNotifier{}
	sink := NewNotifyingLogSink(repo, n, nil)
	ctx := context.Background()

	id, err := sink.Append(ctx, models.FeedingLog{
		UserID:      4,
		ScheduleID:  "s1",
		Action:      "Scheduled Feed",
		Status:      models.StatusSuccess,
		TriggerType: models.TriggerScheduled,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := sink.MarkFailed(ctx, id, "failed to send command to device"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	if len(n.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(n.events))
	}
	if n.events[0].Type != outbox.EventLogged || n.events[0].LogID != id || n.events[0].UserID != 4 {
		t.Fatalf("unexpected logged event: %+v", n.events[0])
	}
	if n.events[1].Type != outbox.EventFailed || n.events[1].Status != models.StatusFailed {
		t.Fatalf("unexpected failed event: %+v", n.events[1])
	}

	logs, err := sink.ListByUser(ctx, 4, 10)
	if err != nil || len(logs) != 1 || logs[0].Status != models.StatusFailed {
		t.Fatalf("unexpected logs: %+v, %v", logs, err)
	}
}

func TestNotifyingLogSink_NotifierErrorIsSwallowed(t *testing.T) {
	repo := &memLogRepo{}
	sink := NewNotifyingLogSink(repo, &recordingNotifier{err: errors.New("kafka down")}, nil)

	if _, err := sink.Append(context.Background(), models.FeedingLog{UserID: 1}); err != nil {
		t.Fatalf("notification failure must not fail the append: %v", err)
	}
}

func TestNotifyingLogSink_RepoErrorSkipsEvent(t *testing.T) {
	repo := &memLogRepo{appendErr: errors.New("db down"), markErr: errors.New("db down")}
	n := &recordingNotifier{}
	sink := NewNotifyingLogSink(repo, n, nil)

	if _, err := sink.Append(context.Background(), models.FeedingLog{UserID: 1}); err == nil {
		t.Fatalf("expected append error")
	}
	if err := sink.MarkFailed(context.Background(), "x", "m"); err == nil {
		t.Fatalf("expected mark error")
	}
	if len(n.events) != 0 {
		t.Fatalf("no events expected on repository errors, got %d", len(n.events))
	}
}

func TestNewNotifyingLogSink_DefaultsToNoop(t *testing.T) {
	sink := NewNotifyingLogSink(&memLogRepo{}, nil, nil)
	if _, ok := sink.notifier.(outbox.NoopNotifier); !ok {
		t.Fatalf("expected NoopNotifier, got %T", sink.notifier)
	}
}
