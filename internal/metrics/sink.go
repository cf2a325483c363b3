package metrics

import "time"

// Outcome labels for ScheduleOutcome.
const (
	OutcomeFired       = "fired"
	OutcomeFailed      = "failed"
	OutcomeAlreadyDone = "already_fired"
	OutcomeError       = "error"
)

// Connection state labels for ConnectionStateChanged.
var ConnectionStates = []string{"disconnected", "connecting", "connected", "offline"}

// Sink receives operational measurements from the trigger engine and the
// device channel. Implementations must be safe for concurrent use and must
// never block.
type Sink interface {
	// Trigger engine
	TickStarted()
	TickCompleted(duration time.Duration, fired int, err error)
	TickSkipped()
	ScheduleOutcome(outcome string)
	DedupReset()

	// Device channel
	PublishCompleted(delivered bool, duration time.Duration)
	ConnectionStateChanged(state string)
	ResponseReceived()
}
