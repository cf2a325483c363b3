// Package trigger turns wall-clock minutes into feed commands, at most once
// per active schedule per local calendar day.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"petfeeder/internal/command"
	"petfeeder/internal/dedup"
	"petfeeder/internal/logger"
	"petfeeder/internal/metrics"
	"petfeeder/internal/models"

	"github.com/robfig/cron/v3"
)

const (
	// ScheduledFeedAction is the log action recorded for scheduled firings.
	ScheduledFeedAction = "Scheduled Feed"

	// PublishFailedMessage is stored on a log whose command never reached the broker.
	PublishFailedMessage = "failed to send command to device"

	clockLayout = "15:04"
)

var (
	ErrAlreadyStarted = errors.New("trigger engine already started")
	ErrNotStarted     = errors.New("trigger engine not started")
)

// ScheduleRepository is the part of the schedule store the engine reads.
type ScheduleRepository interface {
	ListActive(ctx context.Context, at string) ([]models.Schedule, error)
	MarkTriggered(ctx context.Context, id string, when time.Time) error
}

// LogSink records feeding outcomes.
type LogSink interface {
	Append(ctx context.Context, l models.FeedingLog) (string, error)
	MarkFailed(ctx context.Context, id, errMsg string) error
}

// Publisher delivers a command to the feeder. It reports failure as false.
type Publisher interface {
	Publish(ctx context.Context, cmd models.Command) bool
}

// Config holds the engine cron specs and per-call timeouts.
type Config struct {
	// Location defines "local" for HH:MM matching and the day boundary.
	Location *time.Location
	// TickSpec and ResetSpec are standard five-field cron expressions.
	TickSpec  string
	ResetSpec string
	// QueryTimeout bounds each repository and dedup call.
	QueryTimeout time.Duration
	// PublishTimeout bounds each publish.
	PublishTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.TickSpec == "" {
		c.TickSpec = "* * * * *"
	}
	if c.ResetSpec == "" {
		c.ResetSpec = "0 0 * * *"
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 5 * time.Second
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 10 * time.Second
	}
	return c
}

// TickReport summarizes one evaluation.
type TickReport struct {
	At           string // HH:MM in the engine's location
	Day          string
	Busy         bool // another tick was still running; nothing was evaluated
	Matched      int
	Fired        int
	Failed       int
	AlreadyFired int
	Errors       int
	Err          error // repository query failure, if any
}

// Option customizes an Engine built by New.
type Option func(*Engine)

// WithClock overrides time.Now for the scheduled jobs.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(s metrics.Sink) Option {
	return func(e *Engine) { e.metrics = s }
}

// Engine fires due feeding schedules once per minute.
type Engine struct {
	cfg       Config
	schedules ScheduleRepository
	logs      LogSink
	publisher Publisher
	store     dedup.Store
	log       *logger.Logger
	metrics   metrics.Sink
	now       func() time.Time

	// ticking serializes Tick; a second caller gives up instead of waiting.
	ticking sync.Mutex

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// New builds an Engine; call Start to begin ticking.
func New(cfg Config, schedules ScheduleRepository, logs LogSink, publisher Publisher, store dedup.Store, log *logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{
		cfg:       cfg.withDefaults(),
		schedules: schedules,
		logs:      logs,
		publisher: publisher,
		store:     store,
		log:       log,
		metrics:   metrics.NewNoopSink(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Location is the zone used for matching and day keys.
func (e *Engine) Location() *time.Location { return e.cfg.Location }

// Start registers the minute tick and the midnight reset and begins
// scheduling. Jobs run with a context derived from ctx.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cron != nil {
		return ErrAlreadyStarted
	}

	cl := cronLogger{log: e.log}
	c := cron.New(
		cron.WithLocation(e.cfg.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	runCtx, cancel := context.WithCancel(ctx)
	if _, err := c.AddFunc(e.cfg.TickSpec, func() { e.Tick(runCtx, e.now()) }); err != nil {
		cancel()
		return fmt.Errorf("register tick %q: %w", e.cfg.TickSpec, err)
	}
	if _, err := c.AddFunc(e.cfg.ResetSpec, func() { _ = e.Reset(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("register reset %q: %w", e.cfg.ResetSpec, err)
	}

	e.cron = c
	e.cancel = cancel
	c.Start()
	e.log.Infow("trigger_engine_started",
		"location", e.cfg.Location.String(),
		"tick", e.cfg.TickSpec,
		"reset", e.cfg.ResetSpec,
	)
	return nil
}

// Stop prevents new ticks and waits for the running one until ctx is done,
// after which the running tick is cancelled.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	c, cancel := e.cron, e.cancel
	e.cron, e.cancel = nil, nil
	e.mu.Unlock()
	if c == nil {
		return ErrNotStarted
	}
	defer cancel()

	drained := c.Stop()
	select {
	case <-drained.Done():
		e.log.Infow("trigger_engine_stopped")
		return nil
	case <-ctx.Done():
		e.log.Warnw("trigger_engine_stop_timeout", "error", ctx.Err())
		return ctx.Err()
	}
}

// Reset clears the dedup store so every schedule is eligible again.
func (e *Engine) Reset(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout)
	defer cancel()
	if err := e.store.ResetAll(rctx); err != nil {
		e.log.Errorw("dedup_reset_failed", "error", err)
		return fmt.Errorf("reset dedup store: %w", err)
	}
	e.metrics.DedupReset()
	e.log.Infow("dedup_reset")
	return nil
}

// Tick evaluates the schedules due at now. Concurrent calls do not overlap:
// a call made while another is running returns a Busy report at once.
func (e *Engine) Tick(ctx context.Context, now time.Time) TickReport {
	if !e.ticking.TryLock() {
		e.metrics.TickSkipped()
		e.log.Warnw("tick_skipped", "reason", "previous tick still running")
		return TickReport{Busy: true}
	}
	defer e.ticking.Unlock()

	started := time.Now()
	e.metrics.TickStarted()

	local := now.In(e.cfg.Location)
	rep := TickReport{At: local.Format(clockLayout), Day: dedup.DayKey(local)}

	due, err := e.listActive(ctx, rep.At)
	if err != nil {
		rep.Err = err
		e.log.Errorw("tick_failed", "at", rep.At, "error", err)
		e.metrics.TickCompleted(time.Since(started), 0, err)
		return rep
	}
	rep.Matched = len(due)

	for _, s := range due {
		if ctx.Err() != nil {
			e.log.Warnw("tick_cancelled", "at", rep.At, "remaining", rep.Matched-rep.Fired-rep.Failed-rep.AlreadyFired-rep.Errors)
			break
		}
		outcome := e.fire(ctx, s, local, rep.Day)
		switch outcome {
		case metrics.OutcomeFired:
			rep.Fired++
		case metrics.OutcomeFailed:
			rep.Failed++
		case metrics.OutcomeAlreadyDone:
			rep.AlreadyFired++
		default:
			rep.Errors++
		}
		e.metrics.ScheduleOutcome(outcome)
	}

	e.metrics.TickCompleted(time.Since(started), rep.Fired, nil)
	if rep.Matched > 0 {
		e.log.Infow("tick_completed",
			"at", rep.At,
			"day", rep.Day,
			"matched", rep.Matched,
			"fired", rep.Fired,
			"failed", rep.Failed,
			"already_fired", rep.AlreadyFired,
			"errors", rep.Errors,
		)
	}
	return rep
}

func (e *Engine) listActive(ctx context.Context, at string) ([]models.Schedule, error) {
	qctx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout)
	defer cancel()
	return e.schedules.ListActive(qctx, at)
}

// fire processes one due schedule and returns its metrics outcome label.
func (e *Engine) fire(ctx context.Context, s models.Schedule, now time.Time, day string) string {
	log := e.log.With("schedule_id", s.ID, "user_id", s.UserID)

	done, err := e.hasFired(ctx, s.ID, day)
	if err != nil {
		// Unknown dedup state: skipping keeps the at-most-once guarantee.
		log.Errorw("dedup_check_failed", "day", day, "error", err)
		return metrics.OutcomeError
	}
	if done {
		return metrics.OutcomeAlreadyDone
	}

	settings := command.ForPortion(s.PortionSize)
	logID, err := e.appendLog(ctx, models.FeedingLog{
		UserID:      s.UserID,
		ScheduleID:  s.ID,
		Action:      ScheduledFeedAction,
		Status:      models.StatusSuccess,
		PortionSize: command.NormalizePortion(s.PortionSize),
		ServoAngle:  settings.Angle,
		TriggerType: models.TriggerScheduled,
		OccurredAt:  now,
	})
	if err != nil {
		log.Errorw("feeding_log_append_failed", "error", err)
		return metrics.OutcomeError
	}

	cmd, err := command.New(models.ActionFeed, s.PortionSize, now)
	if err != nil {
		log.Errorw("command_build_failed", "error", err)
		e.markFailed(ctx, logID, err.Error())
		return metrics.OutcomeError
	}
	cmd.ScheduleID = s.ID
	cmd.LogID = logID

	if !e.publish(ctx, cmd) {
		log.Warnw("scheduled_feed_failed", "log_id", logID, "portion", s.PortionSize)
		e.markFailed(ctx, logID, PublishFailedMessage)
		return metrics.OutcomeFailed
	}

	if err := e.markFired(ctx, s.ID, day); err != nil {
		log.Errorw("dedup_mark_failed", "day", day, "error", err)
	}
	if err := e.markTriggered(ctx, s.ID, now); err != nil {
		log.Errorw("mark_triggered_failed", "error", err)
	}
	log.Infow("scheduled_feed_sent", "log_id", logID, "portion", s.PortionSize, "duration_ms", cmd.Duration)
	return metrics.OutcomeFired
}

// publish turns a panicking publisher into a failed delivery.
func (e *Engine) publish(ctx context.Context, cmd models.Command) (ok bool) {
	pctx, cancel := context.WithTimeout(ctx, e.cfg.PublishTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorw("publish_panic", "schedule_id", cmd.ScheduleID, "panic", r)
			ok = false
		}
	}()
	return e.publisher.Publish(pctx, cmd)
}

func (e *Engine) hasFired(ctx context.Context, id, day string) (bool, error) {
	qctx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout)
	defer cancel()
	return e.store.HasFired(qctx, id, day)
}

func (e *Engine) markFired(ctx context.Context, id, day string) error {
	qctx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout)
	defer cancel()
	return e.store.MarkFired(qctx, id, day)
}

func (e *Engine) appendLog(ctx context.Context, l models.FeedingLog) (string, error) {
	qctx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout)
	defer cancel()
	return e.logs.Append(qctx, l)
}

func (e *Engine) markTriggered(ctx context.Context, id string, when time.Time) error {
	qctx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout)
	defer cancel()
	return e.schedules.MarkTriggered(qctx, id, when)
}

func (e *Engine) markFailed(ctx context.Context, logID, msg string) {
	// The outcome must be recorded even when the tick was cancelled mid-publish.
	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.QueryTimeout)
	defer cancel()
	if err := e.logs.MarkFailed(qctx, logID, msg); err != nil {
		e.log.Errorw("feeding_log_mark_failed_failed", "log_id", logID, "error", err)
	}
}
