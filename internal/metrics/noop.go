package metrics

import "time"

// NoopSink is a no-op implementation of Sink.
// Used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) TickStarted()                                               {}
func (n *NoopSink) TickCompleted(duration time.Duration, fired int, err error) {}
func (n *NoopSink) TickSkipped()                                               {}
func (n *NoopSink) ScheduleOutcome(outcome string)                             {}
func (n *NoopSink) DedupReset()                                                {}
func (n *NoopSink) PublishCompleted(delivered bool, d time.Duration)           {}
func (n *NoopSink) ConnectionStateChanged(state string)                        {}
func (n *NoopSink) ResponseReceived()                                          {}

var _ Sink = (*NoopSink)(nil)
