package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	domainprofiles "skillbridge/internal/domain/profiles"
	"skillbridge/internal/infra/broker/kafka"
	"skillbridge/internal/infra/cache"
	"skillbridge/internal/infra/config"
	ginserver "skillbridge/internal/infra/http/gin"
	"skillbridge/internal/infra/obs"
	"skillbridge/internal/infra/outbox"
	"skillbridge/internal/infra/schedule"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)
	metrics := obs.NewMetrics()

	st, err := openStores(cfg)
	if err != nil {
		logger.Error("storage unavailable", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Warn("storage close failed", "error", err)
		}
	}()

	var profiles domainprofiles.Repository = st.Profiles
	if cfg.RedisAddr != "" {
		client, err := cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("profile cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer client.Close()
			profiles = &cache.ProfileCache{Next: st.Profiles, Client: client, TTL: cfg.ProfileCacheTTL, Observer: metrics, Logger: logger}
			st.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}

	app := buildApplication(st, profiles, metrics, logger)

	fixturesPath := cfg.FixturesPath
	if fixturesPath == "" {
		fixturesPath = defaultFixturesPath()
	}
	if err := loadFixtures(ctx, st, fixturesPath, logger); err != nil {
		logger.Warn("fixtures load failed", "error", err, "path", fixturesPath)
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, "skillbridge")
		if err != nil {
			logger.Warn("kafka unavailable, outbox relay disabled", "error", err)
		} else {
			defer producer.Close()
			worker := &outbox.Worker{
				Store:       st.Outbox,
				Producer:    producer,
				Observer:    metrics,
				Logger:      logger,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
			go func() {
				if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("outbox worker stopped", "error", err)
				}
			}()
		}
	}

	sweep := schedule.NewCompletionScheduler(app.bookings, logger)
	if err := sweep.Start(ctx, cfg.CompletionSchedule); err != nil {
		logger.Error("completion sweep not scheduled", "schedule", cfg.CompletionSchedule, "error", err)
		os.Exit(1)
	}
	defer sweep.Stop()

	auth := ginserver.AuthMiddleware{Secret: []byte(cfg.JWTSecret), AllowHeader: cfg.IsDev(), Logger: logger}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Metrics: metrics}, obs.HealthHandlers{
		Checks:  st.Checks,
		Timeout: 2 * time.Second,
	}, app.handlers(auth.Handle, logger))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}
