package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PETFEEDER_MQTT_BROKER.
const EnvPrefix = "PETFEEDER"

// Dedup backends.
const (
	DedupMemory = "memory"
	DedupRedis  = "redis"
)

// Config is the typed view of configs/config.yml plus environment and flag overrides.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Log     LogConfig     `mapstructure:"log"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Dedup   DedupConfig   `mapstructure:"dedup"`
	Outbox  OutboxConfig  `mapstructure:"outbox"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port              string        `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type MQTTConfig struct {
	Broker               string        `mapstructure:"broker"`
	ClientID             string        `mapstructure:"client_id"`
	Username             string        `mapstructure:"username"`
	Password             string        `mapstructure:"password"`
	CommandTopic         string        `mapstructure:"command_topic"`
	ResponseTopic        string        `mapstructure:"response_topic"`
	ConnectTimeout       time.Duration `mapstructure:"connect_timeout"`
	ReconnectInterval    time.Duration `mapstructure:"reconnect_interval"`
	MaxReconnectInterval time.Duration `mapstructure:"max_reconnect_interval"`
	PublishTimeout       time.Duration `mapstructure:"publish_timeout"`
	KeepAlive            time.Duration `mapstructure:"keep_alive"`
}

type EngineConfig struct {
	// IANA zone name or "Local"
	Timezone       string        `mapstructure:"timezone"`
	TickSpec       string        `mapstructure:"tick_spec"`
	ResetSpec      string        `mapstructure:"reset_spec"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
	StopTimeout    time.Duration `mapstructure:"stop_timeout"`
}

type DedupConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type OutboxConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("db.path", "petfeeder.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")

	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "petfeeder-backend")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.command_topic", "petfeeder/servo")
	v.SetDefault("mqtt.response_topic", "petfeeder/servo/response")
	v.SetDefault("mqtt.connect_timeout", 10*time.Second)
	v.SetDefault("mqtt.reconnect_interval", 5*time.Second)
	v.SetDefault("mqtt.max_reconnect_interval", time.Minute)
	v.SetDefault("mqtt.publish_timeout", 5*time.Second)
	v.SetDefault("mqtt.keep_alive", 30*time.Second)

	v.SetDefault("engine.timezone", "Local")
	v.SetDefault("engine.tick_spec", "* * * * *")
	v.SetDefault("engine.reset_spec", "0 0 * * *")
	v.SetDefault("engine.query_timeout", 5*time.Second)
	v.SetDefault("engine.publish_timeout", 10*time.Second)
	v.SetDefault("engine.stop_timeout", 15*time.Second)

	v.SetDefault("dedup.backend", DedupMemory)
	v.SetDefault("dedup.redis.addr", "localhost:6379")
	v.SetDefault("dedup.redis.password", "")
	v.SetDefault("dedup.redis.db", 0)
	v.SetDefault("dedup.redis.prefix", "petfeeder:fired")

	v.SetDefault("outbox.enabled", false)
	v.SetDefault("outbox.brokers", []string{"localhost:9092"})
	v.SetDefault("outbox.topic", "petfeeder.feeding-events")
	v.SetDefault("outbox.batch_timeout", 10*time.Millisecond)
	v.SetDefault("outbox.write_timeout", 5*time.Second)

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("metrics.enabled", true)
}

// Load parses flags from args, then reads the config file and environment.
// Precedence: flag > env > file > default. A missing file is not an error
// unless --config names it explicitly.
func Load(args []string) (Config, error) {
	fs := pflag.NewFlagSet("petfeeder", pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file (default configs/config.yml)")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlag("log.level", fs.Lookup("log-level")); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		v.SetConfigFile(*configPath)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if *configPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Location resolves Engine.Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Engine.Timezone == "" || strings.EqualFold(c.Engine.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Engine.Timezone)
}
