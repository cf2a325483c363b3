package models

import "time"

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// FeedingLog records the outcome of one feed or stop command.
type FeedingLog struct {
	ID           string    `json:"id"`
	UserID       int       `json:"user_id"`
	ScheduleID   string    `json:"schedule_id,omitempty"`
	Action       string    `json:"action"` // human-readable, e.g. "Scheduled Feed"
	Status       string    `json:"status"` // success | failed
	PortionSize  string    `json:"portion_size,omitempty"`
	ServoAngle   int       `json:"servo_angle,omitempty"`
	TriggerType  string    `json:"trigger_type"` // manual | scheduled
	ErrorMessage string    `json:"error_message,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
