// Package device owns the MQTT connection to the feeder's broker and
// delivers commands to the actuator on a best-effort basis.
package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"petfeeder/internal/command"
	"petfeeder/internal/logger"
	"petfeeder/internal/metrics"
	"petfeeder/internal/models"
)

// State is the channel's view of its broker connection.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	// StateOffline is a local label for a stopped channel. Observers treat it
	// exactly like StateDisconnected.
	StateOffline State = "offline"
)

const (
	qosAtLeastOnce = 1
	quiesceMillis  = 250
	pingTimeout    = 10 * time.Second
	subscribeWait  = 5 * time.Second
)

var (
	ErrInvalidBroker = errors.New("invalid broker url")
	errTokenTimeout  = errors.New("timed out waiting for broker")
)

// Config describes the broker connection and topics.
type Config struct {
	BrokerURL     string
	ClientID      string
	Username      string
	Password      string
	CommandTopic  string
	ResponseTopic string

	ConnectTimeout       time.Duration
	ReconnectInterval    time.Duration
	MaxReconnectInterval time.Duration
	PublishTimeout       time.Duration
	KeepAlive            time.Duration
}

func (c Config) withDefaults() Config {
	if c.ClientID == "" {
		c.ClientID = "petfeeder-backend"
	}
	if c.CommandTopic == "" {
		c.CommandTopic = "petfeeder/servo"
	}
	if c.ResponseTopic == "" {
		c.ResponseTopic = c.CommandTopic + "/response"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.ReconnectInterval <= 0 {
		c.ReconnectInterval = 5 * time.Second
	}
	if c.MaxReconnectInterval < c.ReconnectInterval {
		c.MaxReconnectInterval = c.ReconnectInterval
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 5 * time.Second
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = 30 * time.Second
	}
	return c
}

// Snapshot is a read-only view of the channel.
type Snapshot struct {
	Connected       bool       `json:"connected"`
	State           State      `json:"state"`
	BrokerAddress   string     `json:"broker_address"`
	CommandTopic    string     `json:"command_topic"`
	ResponseTopic   string     `json:"response_topic"`
	LastConnectedAt *time.Time `json:"last_connected_at,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
}

// ClientFactory builds the underlying MQTT client from prepared options.
type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

// Option customizes a Channel.
type Option func(*Channel)

// WithClientFactory replaces paho's mqtt.NewClient.
func WithClientFactory(f ClientFactory) Option {
	return func(c *Channel) { c.newClient = f }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(s metrics.Sink) Option {
	return func(c *Channel) { c.metrics = s }
}

// Channel is a long-lived publisher to the feeder. It reconnects on its own
// and never reports transport errors to callers.
type Channel struct {
	cfg       Config
	log       *logger.Logger
	metrics   metrics.Sink
	newClient ClientFactory

	mu              sync.RWMutex
	state           State
	lastError       string
	lastConnectedAt time.Time
	client          mqtt.Client
	// stopped makes late paho callbacks no-ops once Stop has run.
	stopped bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewChannel builds a disconnected channel. Call Start to connect.
func NewChannel(cfg Config, log *logger.Logger, opts ...Option) *Channel {
	if log == nil {
		log = logger.Nop()
	}
	c := &Channel{
		cfg:       cfg.withDefaults(),
		log:       log,
		metrics:   metrics.NewNoopSink(),
		newClient: mqtt.NewClient,
		state:     StateDisconnected,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start creates the MQTT client and connects in the background. It returns
// an error only when the transport cannot be initialised.
func (c *Channel) Start(ctx context.Context) error {
	if err := validateBrokerURL(c.cfg.BrokerURL); err != nil {
		return err
	}

	client := c.newClient(c.clientOptions())

	loopCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.client = client
	c.cancel = cancel
	c.done = make(chan struct{})
	c.stopped = false
	c.mu.Unlock()

	c.log.Infow("mqtt_starting", "broker", c.cfg.BrokerURL, "client_id", c.cfg.ClientID)
	go c.connectLoop(loopCtx, client)
	return nil
}

// Stop ends the connect loop and disconnects from the broker, aborting a
// connect that is still in flight. Calling it again is a no-op.
func (c *Channel) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	cancel, done, client := c.cancel, c.done, c.client
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if client != nil {
		client.Disconnect(quiesceMillis)
	}
	c.setState(StateOffline, nil)
	c.log.Infow("mqtt_stopped")
}

func (c *Channel) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID(c.cfg.ClientID).
		SetCleanSession(true).
		SetOrderMatters(false).
		SetKeepAlive(c.cfg.KeepAlive).
		SetPingTimeout(pingTimeout).
		SetConnectTimeout(c.cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(c.cfg.MaxReconnectInterval).
		SetConnectRetry(false)

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
	}
	if c.cfg.Password != "" {
		opts.SetPassword(c.cfg.Password)
	}

	opts.OnConnect = c.onConnect
	opts.OnConnectionLost = c.onConnectionLost
	opts.OnReconnecting = c.onReconnecting
	return opts
}

// connectLoop retries the initial connection until it succeeds or ctx ends.
// Once connected, paho's auto-reconnect takes over.
func (c *Channel) connectLoop(ctx context.Context, client mqtt.Client) {
	defer close(c.done)

	wait := c.cfg.ReconnectInterval
	for {
		c.setState(StateConnecting, nil)
		err := waitToken(ctx, client.Connect(), c.cfg.ConnectTimeout+time.Second)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		c.setState(StateDisconnected, err)
		c.log.Warnw("mqtt_connect_failed", "broker", c.cfg.BrokerURL, "err", err, "retry_in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if wait < c.cfg.MaxReconnectInterval {
			wait = min(wait*2, c.cfg.MaxReconnectInterval)
		}
	}
}

func (c *Channel) isStopped() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stopped
}

func (c *Channel) onConnect(client mqtt.Client) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		c.log.Infow("mqtt_connect_after_stop_ignored", "broker", c.cfg.BrokerURL)
		return
	}
	c.lastConnectedAt = time.Now().UTC()
	c.mu.Unlock()
	c.setState(StateConnected, nil)
	c.log.Infow("mqtt_connected", "broker", c.cfg.BrokerURL)

	token := client.Subscribe(c.cfg.ResponseTopic, qosAtLeastOnce, c.onMessage)
	if !token.WaitTimeout(subscribeWait) {
		c.log.Warnw("mqtt_subscribe_timeout", "topic", c.cfg.ResponseTopic)
		return
	}
	if err := token.Error(); err != nil {
		c.log.Errorw("mqtt_subscribe_failed", "topic", c.cfg.ResponseTopic, "err", err)
		return
	}
	c.log.Infow("mqtt_subscribed", "topic", c.cfg.ResponseTopic)
}

func (c *Channel) onConnectionLost(_ mqtt.Client, err error) {
	if c.isStopped() {
		return
	}
	c.setState(StateDisconnected, err)
	c.log.Warnw("mqtt_connection_lost", "err", err)
}

func (c *Channel) onReconnecting(_ mqtt.Client, _ *mqtt.ClientOptions) {
	if c.isStopped() {
		return
	}
	c.setState(StateConnecting, nil)
	c.log.Infow("mqtt_reconnecting", "broker", c.cfg.BrokerURL)
}

// onMessage logs device responses. Correlating them with sent commands is
// not implemented; the payload is only decoded and logged.
func (c *Channel) onMessage(_ mqtt.Client, msg mqtt.Message) {
	c.metrics.ResponseReceived()

	var payload any
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		c.log.Warnw("device_response_decode_failed", "topic", msg.Topic(), "err", err)
		return
	}
	c.log.Infow("device_response", "topic", msg.Topic(), "payload", payload)
}

// Publish sends cmd at QoS 1 and reports whether the broker acknowledged it.
// It returns false without trying when the channel is not connected.
func (c *Channel) Publish(ctx context.Context, cmd models.Command) bool {
	start := time.Now()
	ok := c.publish(ctx, cmd)
	c.metrics.PublishCompleted(ok, time.Since(start))
	return ok
}

func (c *Channel) publish(ctx context.Context, cmd models.Command) bool {
	c.mu.RLock()
	client, state := c.client, c.state
	c.mu.RUnlock()

	if state != StateConnected || client == nil {
		c.log.Warnw("mqtt_not_connected_command_dropped", "action", cmd.Action, "state", state)
		return false
	}

	payload, err := command.Encode(cmd)
	if err != nil {
		c.log.Errorw("mqtt_encode_failed", "action", cmd.Action, "err", err)
		return false
	}

	token := client.Publish(c.cfg.CommandTopic, qosAtLeastOnce, false, payload)
	if err := waitToken(ctx, token, c.cfg.PublishTimeout); err != nil {
		c.log.Errorw("mqtt_publish_failed", "topic", c.cfg.CommandTopic, "action", cmd.Action, "err", err)
		return false
	}

	c.log.Infow("mqtt_command_sent",
		"topic", c.cfg.CommandTopic,
		"action", cmd.Action,
		"duration_ms", cmd.Duration,
		"schedule_id", cmd.ScheduleID,
		"log_id", cmd.LogID,
	)
	return true
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Status returns a snapshot of the channel.
func (c *Channel) Status() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Connected:     c.state == StateConnected,
		State:         c.state,
		BrokerAddress: c.cfg.BrokerURL,
		CommandTopic:  c.cfg.CommandTopic,
		ResponseTopic: c.cfg.ResponseTopic,
		LastError:     c.lastError,
	}
	if !c.lastConnectedAt.IsZero() {
		t := c.lastConnectedAt
		s.LastConnectedAt = &t
	}
	return s
}

func (c *Channel) setState(s State, err error) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	if err != nil {
		c.lastError = err.Error()
	} else if s == StateConnected {
		c.lastError = ""
	}
	c.mu.Unlock()

	if changed {
		c.metrics.ConnectionStateChanged(string(s))
		c.log.Debugw("mqtt_state_changed", "state", s)
	}
}

// waitToken waits for token bounded by timeout and ctx.
func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return errTokenTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validateBrokerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidBroker, raw, err)
	}
	switch u.Scheme {
	case "tcp", "mqtt", "ssl", "tls", "mqtts", "ws", "wss":
	default:
		return fmt.Errorf("%w %q: unsupported scheme %q", ErrInvalidBroker, raw, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w %q: missing host", ErrInvalidBroker, raw)
	}
	return nil
}
