// Package dedup remembers which schedules already fired on a calendar day.
package dedup

import (
	"context"
	"time"
)

// DayLayout is the calendar-day key format.
const DayLayout = "2006-01-02"

// Store answers whether a (schedule, day) pair already fired.
// Entries are removed only by ResetAll.
type Store interface {
	HasFired(ctx context.Context, scheduleID, day string) (bool, error)
	MarkFired(ctx context.Context, scheduleID, day string) error
	ResetAll(ctx context.Context) error
}

// TriggerKey identifies one schedule on one local calendar day.
type TriggerKey struct {
	ScheduleID string
	Day        string
}

// DayKey returns the calendar day of t in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}
