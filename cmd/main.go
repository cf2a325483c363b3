// @title        Pet Feeder API
// @version      1.0
// @description  Schedules, manual control and history for an MQTT-connected pet feeder.
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "petfeeder/docs"
	"petfeeder/internal/config"
	"petfeeder/internal/dedup"
	"petfeeder/internal/device"
	"petfeeder/internal/handlers"
	"petfeeder/internal/logger"
	"petfeeder/internal/metrics"
	"petfeeder/internal/outbox"
	"petfeeder/internal/repository"
	"petfeeder/internal/repository/db"
	"petfeeder/internal/server"
	"petfeeder/internal/service"
	"petfeeder/internal/trigger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Get(logger.Options{Level: logger.InfoLevel}).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(logger.Options{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid config", "err", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalw("invalid timezone", "err", err)
	}

	// open DB
	sqlDB, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg, sink := newMetrics(cfg, log)

	// device channel
	channel := device.NewChannel(deviceConfig(cfg), log.Named("mqtt"), device.WithMetrics(sink))
	if err := channel.Start(ctx); err != nil {
		log.Fatalw("failed to start device channel", "err", err)
	}

	store, closeStore := newDedupStore(ctx, cfg, log)
	notifier := newNotifier(cfg, log)

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	logs := service.NewNotifyingLogSink(repos.FeedingLogs, notifier, log.Named("outbox"))
	services := service.NewService(service.Deps{
		Repos:    repos,
		Logs:     logs,
		Device:   channel,
		Auth:     service.AuthConfig{SigningKey: cfg.Auth.SigningKey, TokenTTL: cfg.Auth.TokenTTL},
		Location: loc,
		Logger:   log.Named("feeding"),
	})

	engine := trigger.New(trigger.Config{
		Location:       loc,
		TickSpec:       cfg.Engine.TickSpec,
		ResetSpec:      cfg.Engine.ResetSpec,
		QueryTimeout:   cfg.Engine.QueryTimeout,
		PublishTimeout: cfg.Engine.PublishTimeout,
	}, repos.Schedules, logs, channel, store, log.Named("trigger"), trigger.WithMetrics(sink))
	if err := engine.Start(ctx); err != nil {
		log.Fatalw("failed to start trigger engine", "err", err)
	}

	var opts []handlers.Option
	if reg != nil {
		opts = append(opts, handlers.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	apiHandler := handlers.NewHandler(services, log.Named("http"), opts...)

	// start HTTP server
	srv := server.New(server.Config{
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	})
	runHTTPServer(srv, cfg.Server.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(log)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Engine.StopTimeout)
	defer stopCancel()
	if err := engine.Stop(stopCtx); err != nil {
		log.Errorw("trigger engine stop", "err", err)
	}

	channel.Stop()
	if err := notifier.Close(); err != nil {
		log.Errorw("failed to close outbox", "err", err)
	}
	closeStore()
	cancel()
	log.Infow("shutdown complete")
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg config.Config, log *logger.Logger) (*sql.DB, error) {
	log.Infow("opening database", "path", cfg.DB.Path)
	return db.InitDB(cfg.DB.Path)
}

func deviceConfig(cfg config.Config) device.Config {
	m := cfg.MQTT
	return device.Config{
		BrokerURL:            m.Broker,
		ClientID:             m.ClientID,
		Username:             m.Username,
		Password:             m.Password,
		CommandTopic:         m.CommandTopic,
		ResponseTopic:        m.ResponseTopic,
		ConnectTimeout:       m.ConnectTimeout,
		ReconnectInterval:    m.ReconnectInterval,
		MaxReconnectInterval: m.MaxReconnectInterval,
		PublishTimeout:       m.PublishTimeout,
		KeepAlive:            m.KeepAlive,
	}
}

// newMetrics returns a nil registry when metrics are disabled.
func newMetrics(cfg config.Config, log *logger.Logger) (*prometheus.Registry, metrics.Sink) {
	if !cfg.Metrics.Enabled {
		return nil, metrics.NewNoopSink()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewPrometheusSink(reg, log.Named("metrics"))
}

func newDedupStore(ctx context.Context, cfg config.Config, log *logger.Logger) (dedup.Store, func()) {
	if cfg.Dedup.Backend != config.DedupRedis {
		log.Infow("dedup store", "backend", config.DedupMemory)
		return dedup.NewMemoryStore(), func() {}
	}

	rc := cfg.Dedup.Redis
	client := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Fatalw("failed to reach redis", "addr", rc.Addr, "err", err)
	}
	log.Infow("dedup store", "backend", config.DedupRedis, "addr", rc.Addr, "prefix", rc.Prefix)
	return dedup.NewRedisStore(client, rc.Prefix), func() {
		if err := client.Close(); err != nil {
			log.Errorw("failed to close redis", "err", err)
		}
	}
}

func newNotifier(cfg config.Config, log *logger.Logger) outbox.Notifier {
	if !cfg.Outbox.Enabled {
		return outbox.NoopNotifier{}
	}
	w := outbox.NewKafkaWriter(outbox.KafkaConfig{
		Brokers:      cfg.Outbox.Brokers,
		Topic:        cfg.Outbox.Topic,
		BatchTimeout: cfg.Outbox.BatchTimeout,
		WriteTimeout: cfg.Outbox.WriteTimeout,
	})
	log.Infow("outbox enabled", "brokers", cfg.Outbox.Brokers, "topic", cfg.Outbox.Topic)
	return outbox.NewKafkaNotifier(w, log.Named("outbox"))
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks until SIGINT or SIGTERM.
func waitForShutdown(log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infow("shutting down", "signal", sig.String())
}
