// Package outbox publishes feeding outcomes to downstream consumers.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"petfeeder/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	EventLogged = "feeding.logged"
	EventFailed = "feeding.failed"
)

// FeedingEvent describes a change to one feeding log.
type FeedingEvent struct {
	Type         string    `json:"type"`
	LogID        string    `json:"logId"`
	UserID       int       `json:"userId"`
	ScheduleID   string    `json:"scheduleId,omitempty"`
	Action       string    `json:"action,omitempty"`
	Status       string    `json:"status"`
	TriggerType  string    `json:"triggerType,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	At           time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, ev FeedingEvent) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer the notifier needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

// NewKafkaWriter builds a synchronous writer. Messages are keyed by user id
// when known so that a user's events stay ordered within one partition.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
}

type KafkaNotifier struct {
	w   MessageWriter
	log *logger.Logger
}

func NewKafkaNotifier(w MessageWriter, log *logger.Logger) *KafkaNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &KafkaNotifier{w: w, log: log}
}

func (n *KafkaNotifier) Notify(ctx context.Context, ev FeedingEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal feeding event: %w", err)
	}

	key := ev.LogID
	if ev.UserID != 0 {
		key = strconv.Itoa(ev.UserID)
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := n.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write feeding event %s for log %s: %w", ev.Type, ev.LogID, err)
	}
	n.log.Debugw("feeding_event_published", "type", ev.Type, "log_id", ev.LogID)
	return nil
}

func (n *KafkaNotifier) Close() error { return n.w.Close() }

// NoopNotifier drops every event.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, FeedingEvent) error { return nil }
func (NoopNotifier) Close() error                                { return nil }
