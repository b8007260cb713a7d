package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tajirhub/tajir/internal/app"
	"github.com/tajirhub/tajir/internal/capital"
	jobmetrics "github.com/tajirhub/tajir/internal/jobs"
	"github.com/tajirhub/tajir/internal/observability"
	"github.com/tajirhub/tajir/internal/platform/cache"
	"github.com/tajirhub/tajir/internal/platform/db"
	"github.com/tajirhub/tajir/internal/reconcile"
	"github.com/tajirhub/tajir/internal/valuation"
	"github.com/tajirhub/tajir/internal/vendors"
	"github.com/tajirhub/tajir/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, reports will recompute", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	reportCache := reconcile.NewCache(redisClient, 10*time.Minute)
	capitalRepo := capital.NewRepository(pool)
	engine := capital.NewEngine(capitalRepo, nil, reportCache)

	valuationService := valuation.NewService(valuation.NewRepository(pool))
	reconcileEngine := reconcile.NewEngine(engine, valuationService, reconcile.NewRepository(pool))
	reconcileService := reconcile.NewService(reconcileEngine, reportCache)

	vendorRepo := vendors.NewRepository(pool)

	appMetrics := observability.NewMetrics()
	metrics := jobmetrics.NewMetrics(appMetrics.Registerer())
	sweep := jobs.NewReconcileSweep(logger, vendorRepo, reconcileService, metrics, appMetrics, cfg.ReconcileConcurrency)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReconcileSweep, Handler: sweep.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ReconcileCron, Task: jobs.NewReconcileSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
