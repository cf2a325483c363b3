// Package command builds feeder commands and converts them to and from the
// JSON payload published on the device command topic.
package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"petfeeder/internal/models"
)

// FeedAngle is the servo position used for every portion size.
const FeedAngle = 90

// timestampLayout matches an ISO-8601 UTC timestamp with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	ErrUnknownAction = errors.New("unknown command action")
	ErrEmptyPayload  = errors.New("empty command payload")
)

// Settings is the actuator configuration for one portion size.
type Settings struct {
	Angle    int // degrees
	Duration int // milliseconds
}

var portionTable = map[string]Settings{
	models.PortionSmall:  {Angle: FeedAngle, Duration: 2000},
	models.PortionMedium: {Angle: FeedAngle, Duration: 4000},
	models.PortionLarge:  {Angle: FeedAngle, Duration: 6000},
}

// ForPortion returns the settings for size. Unknown or empty sizes fall back
// to medium.
func ForPortion(size string) Settings {
	if s, ok := portionTable[NormalizePortion(size)]; ok {
		return s
	}
	return portionTable[models.PortionMedium]
}

// NormalizePortion trims and lowercases size, mapping unknown values to medium.
func NormalizePortion(size string) string {
	size = strings.ToLower(strings.TrimSpace(size))
	if _, ok := portionTable[size]; ok {
		return size
	}
	return models.PortionMedium
}

// IsPortion reports whether size names a known portion without falling back.
func IsPortion(size string) bool {
	_, ok := portionTable[strings.ToLower(strings.TrimSpace(size))]
	return ok
}

// New builds a command for action. portion is ignored for stop.
func New(action, portion string, at time.Time) (models.Command, error) {
	switch action {
	case models.ActionFeed:
		s := ForPortion(portion)
		return models.Command{
			Action:    models.ActionFeed,
			Angle:     s.Angle,
			Duration:  s.Duration,
			Timestamp: at.UTC(),
		}, nil
	case models.ActionStop:
		return models.Command{
			Action:    models.ActionStop,
			Timestamp: at.UTC(),
		}, nil
	default:
		return models.Command{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// wireCommand is the JSON layout published to the device.
type wireCommand struct {
	Action     string `json:"action"`
	Angle      int    `json:"angle"`
	Duration   int    `json:"duration,omitempty"`
	ScheduleID string `json:"scheduleId,omitempty"`
	LogID      string `json:"logId,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// Encode serializes cmd to the wire format.
func Encode(cmd models.Command) ([]byte, error) {
	w := wireCommand{
		Action:     cmd.Action,
		Angle:      cmd.Angle,
		ScheduleID: cmd.ScheduleID,
		LogID:      cmd.LogID,
		Timestamp:  cmd.Timestamp.UTC().Format(timestampLayout),
	}
	if cmd.Action != models.ActionStop {
		w.Duration = cmd.Duration
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}
	return b, nil
}

// Decode parses a wire payload back into a Command.
func Decode(payload []byte) (models.Command, error) {
	if len(payload) == 0 {
		return models.Command{}, ErrEmptyPayload
	}
	var w wireCommand
	if err := json.Unmarshal(payload, &w); err != nil {
		return models.Command{}, fmt.Errorf("unmarshal command: %w", err)
	}
	if w.Action != models.ActionFeed && w.Action != models.ActionStop {
		return models.Command{}, fmt.Errorf("%w: %q", ErrUnknownAction, w.Action)
	}
	cmd := models.Command{
		Action:     w.Action,
		Angle:      w.Angle,
		Duration:   w.Duration,
		ScheduleID: w.ScheduleID,
		LogID:      w.LogID,
	}
	if w.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, w.Timestamp)
		if err != nil {
			return models.Command{}, fmt.Errorf("parse timestamp %q: %w", w.Timestamp, err)
		}
		cmd.Timestamp = ts.UTC()
	}
	return cmd, nil
}
