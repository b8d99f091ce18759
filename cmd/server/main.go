package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"lighthouse_audit_service/internal/api"
	"lighthouse_audit_service/internal/browser"
	"lighthouse_audit_service/internal/config"
	"lighthouse_audit_service/internal/lighthouse"
	"lighthouse_audit_service/internal/liveness"
	"lighthouse_audit_service/internal/metrics"
	"lighthouse_audit_service/internal/publisher"
	"lighthouse_audit_service/internal/service"
	"lighthouse_audit_service/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dsn := cfg.Database.DSN()

	db, err := postgres.Connect(ctx, dsn, cfg.Database.ConnectTimeout, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to database")

	if err := postgres.Migrate(dsn, logger); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Publisher stays a nil interface when notifications are disabled.
	var pub service.Publisher
	if cfg.RabbitMQ.Enabled() {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
		logger.Info("publishing audit events", "exchange", cfg.RabbitMQ.Exchange)
	}

	auditStore := postgres.NewAuditStore(db, logger)
	websiteStore := postgres.NewWebsiteStore(db)

	waiter := liveness.New(liveness.Config{
		InitialBackoff: cfg.Audit.PollInterval,
		MaxBackoff:     cfg.Audit.MaxPollInterval,
	}, logger)
	runner := lighthouse.New(lighthouse.Config{
		Path:    cfg.Audit.LighthousePath,
		Timeout: cfg.Audit.RunTimeout,
	}, logger)

	auditService := service.NewAuditService(
		auditStore,
		waiter,
		browser.NewLauncher(logger),
		runner,
		pub,
		m,
		logger,
		cfg.Audit,
	)
	websiteService := service.NewWebsiteService(websiteStore)

	router := api.NewRouter(auditService, websiteService, api.Options{
		UseCORS:  cfg.Server.UseCORS,
		LogLevel: parseLevel(cfg.LogLevel),
		Gatherer: reg,
	}, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting lighthouse audit service",
			"addr", srv.Addr,
			"cors", cfg.Server.UseCORS,
			"max_concurrent", cfg.Audit.MaxConcurrent,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", "error", err)
	}

	logger.Info("waiting for running audits")
	auditService.Wait()
	logger.Info("shutdown complete")

	return nil
}

func setupLogger(level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
