package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidationError is a single invalid key.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid key.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:", len(e))
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Validate returns nil or ValidationErrors.
func (c Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.DB.Path == "" {
		add("db.path", "required")
	}
	if c.Auth.SigningKey == "" {
		add("auth.signing_key", "required")
	}
	if c.Auth.TokenTTL <= 0 {
		add("auth.token_ttl", "must be positive")
	}

	if u, err := url.Parse(c.MQTT.Broker); err != nil || u.Scheme == "" || u.Host == "" {
		add("mqtt.broker", "must be a url like tcp://host:1883, got %q", c.MQTT.Broker)
	}
	if c.MQTT.CommandTopic == "" {
		add("mqtt.command_topic", "required")
	}
	if c.MQTT.CommandTopic != "" && c.MQTT.CommandTopic == c.MQTT.ResponseTopic {
		add("mqtt.response_topic", "must differ from command_topic")
	}

	if _, err := c.Location(); err != nil {
		add("engine.timezone", "unknown zone %q", c.Engine.Timezone)
	}
	if _, err := cron.ParseStandard(c.Engine.TickSpec); err != nil {
		add("engine.tick_spec", "invalid cron spec: %v", err)
	}
	if _, err := cron.ParseStandard(c.Engine.ResetSpec); err != nil {
		add("engine.reset_spec", "invalid cron spec: %v", err)
	}
	for _, d := range []struct {
		field string
		value time.Duration
	}{
		{"engine.query_timeout", c.Engine.QueryTimeout},
		{"engine.publish_timeout", c.Engine.PublishTimeout},
		{"engine.stop_timeout", c.Engine.StopTimeout},
		{"mqtt.connect_timeout", c.MQTT.ConnectTimeout},
		{"mqtt.publish_timeout", c.MQTT.PublishTimeout},
	} {
		if d.value <= 0 {
			add(d.field, "must be positive")
		}
	}

	switch c.Dedup.Backend {
	case DedupMemory:
	case DedupRedis:
		if c.Dedup.Redis.Addr == "" {
			add("dedup.redis.addr", "required when dedup.backend is redis")
		}
	default:
		add("dedup.backend", "must be %q or %q, got %q", DedupMemory, DedupRedis, c.Dedup.Backend)
	}

	if c.Outbox.Enabled {
		if len(c.Outbox.Brokers) == 0 {
			add("outbox.brokers", "required when outbox is enabled")
		}
		if c.Outbox.Topic == "" {
			add("outbox.topic", "required when outbox is enabled")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
