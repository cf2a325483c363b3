package models

import "time"

const (
	ActionFeed = "feed"
	ActionStop = "stop"
)

// Command is a single instruction for the feeder actuator.
// One Command corresponds to exactly one publish attempt.
type Command struct {
	Action     string
	Angle      int // degrees
	Duration   int // milliseconds, zero for stop
	ScheduleID string
	LogID      string
	Timestamp  time.Time
}
