package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"petfeeder/internal/logger"
)

// PrometheusSink implements Sink using the Prometheus client library.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	log *logger.Logger

	// Trigger engine
	ticksTotal       prometheus.Counter
	tickErrorsTotal  prometheus.Counter
	tickSkippedTotal prometheus.Counter
	firedTotal       prometheus.Counter
	tickDuration     prometheus.Histogram
	scheduleOutcomes *prometheus.CounterVec
	dedupResetsTotal prometheus.Counter

	// Device channel
	publishTotal    *prometheus.CounterVec
	publishDuration prometheus.Histogram
	connectionState *prometheus.GaugeVec
	responsesTotal  prometheus.Counter
}

// NewPrometheusSink creates a sink and registers its collectors on reg.
func NewPrometheusSink(reg prometheus.Registerer, log *logger.Logger) *PrometheusSink {
	if log == nil {
		log = logger.Nop()
	}
	s := &PrometheusSink{log: log}
	s.initTriggerMetrics(reg)
	s.initChannelMetrics(reg)
	return s
}

func (s *PrometheusSink) initTriggerMetrics(reg prometheus.Registerer) {
	s.ticksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "petfeeder_trigger_ticks_total",
		Help: "Total number of trigger engine ticks processed.",
	})
	s.tickErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "petfeeder_trigger_tick_errors_total",
		Help: "Total number of ticks that failed to list schedules.",
	})
	s.tickSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "petfeeder_trigger_ticks_skipped_total",
		Help: "Ticks skipped because the previous tick was still running.",
	})
	s.firedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "petfeeder_trigger_schedules_fired_total",
		Help: "Total number of schedules delivered to the device.",
	})
	s.tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "petfeeder_trigger_tick_duration_seconds",
		Help:    "Duration of each trigger engine tick in seconds.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	})
	s.scheduleOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "petfeeder_trigger_schedule_outcomes_total",
		Help: "Per-schedule outcomes of matching ticks.",
	}, []string{"outcome"})
	s.dedupResetsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "petfeeder_trigger_dedup_resets_total",
		Help: "Total number of daily dedup store resets.",
	})

	s.register(reg, s.ticksTotal, "petfeeder_trigger_ticks_total")
	s.register(reg, s.tickErrorsTotal, "petfeeder_trigger_tick_errors_total")
	s.register(reg, s.tickSkippedTotal, "petfeeder_trigger_ticks_skipped_total")
	s.register(reg, s.firedTotal, "petfeeder_trigger_schedules_fired_total")
	s.register(reg, s.tickDuration, "petfeeder_trigger_tick_duration_seconds")
	s.register(reg, s.scheduleOutcomes, "petfeeder_trigger_schedule_outcomes_total")
	s.register(reg, s.dedupResetsTotal, "petfeeder_trigger_dedup_resets_total")
}

func (s *PrometheusSink) initChannelMetrics(reg prometheus.Registerer) {
	s.publishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "petfeeder_device_publish_total",
		Help: "Command publish attempts by result.",
	}, []string{"delivered"})
	s.publishDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "petfeeder_device_publish_duration_seconds",
		Help:    "Time from publish to broker acknowledgement in seconds.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
	s.connectionState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "petfeeder_device_connection_state",
		Help: "1 for the current device channel connection state, 0 otherwise.",
	}, []string{"state"})
	s.responsesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "petfeeder_device_responses_total",
		Help: "Messages received on the device response topic.",
	})

	s.register(reg, s.publishTotal, "petfeeder_device_publish_total")
	s.register(reg, s.publishDuration, "petfeeder_device_publish_duration_seconds")
	s.register(reg, s.connectionState, "petfeeder_device_connection_state")
	s.register(reg, s.responsesTotal, "petfeeder_device_responses_total")
}

func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		s.log.Warnw("metrics_register_failed", "metric", name, "err", err)
	}
}

func (s *PrometheusSink) TickStarted() {
	s.ticksTotal.Inc()
}

func (s *PrometheusSink) TickCompleted(duration time.Duration, fired int, err error) {
	s.tickDuration.Observe(duration.Seconds())
	s.firedTotal.Add(float64(fired))
	if err != nil {
		s.tickErrorsTotal.Inc()
	}
}

func (s *PrometheusSink) TickSkipped() {
	s.tickSkippedTotal.Inc()
}

func (s *PrometheusSink) ScheduleOutcome(outcome string) {
	s.scheduleOutcomes.WithLabelValues(outcome).Inc()
}

func (s *PrometheusSink) DedupReset() {
	s.dedupResetsTotal.Inc()
}

func (s *PrometheusSink) PublishCompleted(delivered bool, duration time.Duration) {
	label := "false"
	if delivered {
		label = "true"
		s.publishDuration.Observe(duration.Seconds())
	}
	s.publishTotal.WithLabelValues(label).Inc()
}

// ConnectionStateChanged sets the gauge for state to 1 and every other known
// state to 0.
func (s *PrometheusSink) ConnectionStateChanged(state string) {
	for _, st := range ConnectionStates {
		v := 0.0
		if st == state {
			v = 1
		}
		s.connectionState.WithLabelValues(st).Set(v)
	}
}

func (s *PrometheusSink) ResponseReceived() {
	s.responsesTotal.Inc()
}

var _ Sink = (*PrometheusSink)(nil)
