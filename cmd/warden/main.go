package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/chatwarden/chatwarden/common/logging"
	natsclient "github.com/chatwarden/chatwarden/common/messaging/nats"
	"github.com/chatwarden/chatwarden/internal/alerts"
	"github.com/chatwarden/chatwarden/internal/config"
	"github.com/chatwarden/chatwarden/internal/engine"
	"github.com/chatwarden/chatwarden/internal/eventlog"
	"github.com/chatwarden/chatwarden/internal/gateway"
	"github.com/chatwarden/chatwarden/internal/ledger"
	"github.com/chatwarden/chatwarden/internal/ratewindow"
	"github.com/chatwarden/chatwarden/internal/repository"
	"github.com/chatwarden/chatwarden/internal/scanner"
	"github.com/chatwarden/chatwarden/internal/server"
	"github.com/chatwarden/chatwarden/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	store, err := config.NewStore(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := store.Current()

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)

	// Run database migrations
	connString := cfg.Database.Postgres.ConnString()
	logger.Info("running database migrations")
	m, err := migrate.New("file://migrations", connString)
	if err != nil {
		logger.Error("failed to initialize migrations", "err", err)
		os.Exit(1)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}

	// Durable sink
	sink, err := repository.NewPostgresSink(context.Background(), connString)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "err", err)
		os.Exit(1)
	}
	defer sink.Close()

	// Message bus
	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Name = cfg.NATS.Name
	bus, err := natsclient.NewClient(natsCfg)
	if err != nil {
		logger.Error("failed to connect to NATS", "err", err)
		os.Exit(1)
	}
	defer bus.Close()

	// Rate window backend
	var tracker ratewindow.Tracker
	if cfg.Redis.Enabled {
		tracker, err = ratewindow.NewRedisTracker(cfg.Redis.URL, cfg.Spam.Window, cfg.Spam.Burst)
		if err != nil {
			logger.Error("failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		logger.Info("using Redis rate windows", "url", cfg.Redis.URL)
	} else {
		tracker = ratewindow.NewMemoryTracker(cfg.Spam.Window, cfg.Spam.Burst)
	}
	defer tracker.Close()

	// Moderation core
	l := ledger.New()
	eventLog := eventlog.New(eventlog.DefaultCapacity, sink, logger)
	notifier := alerts.NewBusNotifier(bus, cfg.Alerts.WebhookURL, logger)
	actions := gateway.NewBusActions(bus)
	eng := engine.New(store, tracker, l, eventLog, actions, notifier, logger)

	// Gateway event consumer
	consumer := gateway.NewConsumer(bus, eng, logger)
	if err := consumer.Start(); err != nil {
		logger.Error("failed to subscribe to gateway events", "err", err)
		os.Exit(1)
	}
	defer consumer.Stop()

	// Periodic health scan
	directory := gateway.NewBusDirectory(bus, 0)
	scan := scanner.New(directory, eventLog, notifier, cfg.Scan.Interval, logger)
	scanCtx, scanCancel := context.WithCancel(context.Background())
	defer scanCancel()
	scan.Start(scanCtx)
	defer scan.Stop()

	// Operator API
	svc := service.New(store, l, eventLog, tracker, eng, logger)
	handler := server.NewHandler(svc, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("warden listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
	}
	logger.Info("server stopped")
}
