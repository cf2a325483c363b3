package models

import "time"

// Portion sizes accepted for a schedule or a manual feed.
const (
	PortionSmall  = "small"
	PortionMedium = "medium"
	PortionLarge  = "large"
)

// Schedule is a daily feeding plan owned by a user.
type Schedule struct {
	ID            string     `json:"id"`
	UserID        int        `json:"user_id"`
	FeedingTime   string     `json:"feeding_time"` // local HH:MM, no zone stored
	PortionSize   string     `json:"portion_size"` // small | medium | large
	IsActive      bool       `json:"is_active"`
	RepeatDaily   bool       `json:"repeat_daily"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
