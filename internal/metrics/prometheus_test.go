package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestSink(t *testing.T) (*PrometheusSink, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewPrometheusSink(reg, nil), reg
}

func TestPrometheusSink_TickMetrics(t *testing.T) {
	s, _ := newTestSink(t)

	s.TickStarted()
	s.TickStarted()
	s.TickCompleted(50*time.Millisecond, 2, nil)
	s.TickCompleted(10*time.Millisecond, 0, errors.New("db down"))
	s.TickSkipped()

	if got := testutil.ToFloat64(s.ticksTotal); got != 2 {
		t.Errorf("ticks_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(s.firedTotal); got != 2 {
		t.Errorf("schedules_fired_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(s.tickErrorsTotal); got != 1 {
		t.Errorf("tick_errors_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.tickSkippedTotal); got != 1 {
		t.Errorf("ticks_skipped_total = %v, want 1", got)
	}
}

func TestPrometheusSink_ScheduleOutcomes(t *testing.T) {
	s, _ := newTestSink(t)

	s.ScheduleOutcome(OutcomeFired)
	s.ScheduleOutcome(OutcomeFailed)
	s.ScheduleOutcome(OutcomeFailed)
	s.DedupReset()

	if got := testutil.ToFloat64(s.scheduleOutcomes.WithLabelValues(OutcomeFailed)); got != 2 {
		t.Errorf("failed outcomes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(s.scheduleOutcomes.WithLabelValues(OutcomeFired)); got != 1 {
		t.Errorf("fired outcomes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.dedupResetsTotal); got != 1 {
		t.Errorf("dedup resets = %v, want 1", got)
	}
}

func TestPrometheusSink_ConnectionStateIsExclusive(t *testing.T) {
	s, _ := newTestSink(t)

	s.ConnectionStateChanged("connecting")
	s.ConnectionStateChanged("connected")

	if got := testutil.ToFloat64(s.connectionState.WithLabelValues("connected")); got != 1 {
		t.Errorf("connected gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.connectionState.WithLabelValues("connecting")); got != 0 {
		t.Errorf("connecting gauge = %v, want 0", got)
	}
}

func TestPrometheusSink_Publish(t *testing.T) {
	s, _ := newTestSink(t)

	s.PublishCompleted(true, 20*time.Millisecond)
	s.PublishCompleted(false, 0)
	s.ResponseReceived()

	if got := testutil.ToFloat64(s.publishTotal.WithLabelValues("true")); got != 1 {
		t.Errorf("delivered = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.publishTotal.WithLabelValues("false")); got != 1 {
		t.Errorf("not delivered = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.responsesTotal); got != 1 {
		t.Errorf("responses = %v, want 1", got)
	}
}

func TestPrometheusSink_DuplicateRegistrationDoesNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewPrometheusSink(reg, nil)
	s := NewPrometheusSink(reg, nil)
	s.TickStarted()
}

func TestNoopSink_AllMethods(t *testing.T) {
	var s Sink = NewNoopSink()
	s.TickStarted()
	s.TickCompleted(time.Second, 1, nil)
	s.TickSkipped()
	s.ScheduleOutcome(OutcomeFired)
	s.DedupReset()
	s.PublishCompleted(true, time.Millisecond)
	s.ConnectionStateChanged("connected")
	s.ResponseReceived()
}
