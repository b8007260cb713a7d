package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tajirhub/tajir/internal/app"
	"github.com/tajirhub/tajir/internal/capital"
	"github.com/tajirhub/tajir/internal/observability"
	"github.com/tajirhub/tajir/internal/platform/cache"
	"github.com/tajirhub/tajir/internal/platform/db"
	"github.com/tajirhub/tajir/internal/products"
	"github.com/tajirhub/tajir/internal/reconcile"
	"github.com/tajirhub/tajir/internal/sales"
	"github.com/tajirhub/tajir/internal/shared"
	"github.com/tajirhub/tajir/internal/valuation"
	"github.com/tajirhub/tajir/internal/vendors"
	"github.com/tajirhub/tajir/internal/vouchers"
	"github.com/tajirhub/tajir/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
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

	auditLogger := shared.NewAuditLogger(pool)
	reportCache := reconcile.NewCache(redisClient, 10*time.Minute)

	capitalRepo := capital.NewRepository(pool)
	engine := capital.NewEngine(capitalRepo, auditLogger, reportCache)
	capitalHandler := capital.NewHandler(logger, engine)

	valuationService := valuation.NewService(valuation.NewRepository(pool))
	valuationHandler := valuation.NewHandler(logger, valuationService)

	reconcileEngine := reconcile.NewEngine(engine, valuationService, reconcile.NewRepository(pool))
	reconcileService := reconcile.NewService(reconcileEngine, reportCache)
	reconcileHandler := reconcile.NewHandler(logger, reconcileService)

	productRepo := products.NewRepository(pool)
	productService := products.NewService(productRepo, engine)
	productHandler := products.NewHandler(logger, productService)

	saleService := sales.NewService(sales.NewRepository(pool), productRepo, engine)
	saleHandler := sales.NewHandler(logger, saleService)

	voucherService := vouchers.NewService(vouchers.NewRepository(pool), engine)
	voucherHandler := vouchers.NewHandler(logger, voucherService)

	vendorService := vendors.NewService(vendors.NewRepository(pool), engine)
	vendorHandler := vendors.NewHandler(logger, vendorService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		VendorsHandler:   vendorHandler,
		CapitalHandler:   capitalHandler,
		ValuationHandler: valuationHandler,
		ReconcileHandler: reconcileHandler,
		ProductsHandler:  productHandler,
		SalesHandler:     saleHandler,
		VouchersHandler:  voucherHandler,
		JobHandler:       jobHandler,
		Pool:             pool,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
