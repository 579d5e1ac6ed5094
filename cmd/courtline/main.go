package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courtline/courtline/internal/app"
	"github.com/courtline/courtline/internal/platform/cache"
	"github.com/courtline/courtline/internal/platform/db"
	"github.com/courtline/courtline/internal/reporting"
	"github.com/courtline/courtline/internal/sepa"
	"github.com/courtline/courtline/internal/settlement"
	"github.com/courtline/courtline/internal/training"
	"github.com/courtline/courtline/internal/users"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, reports run uncached", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	userRepo := users.NewRepository(pool)

	trainingRepo := training.NewRepository(pool)
	trainingService := training.NewService(trainingRepo, logger)
	trainingHandler := training.NewHandler(logger, trainingService)

	reportCache := reporting.NewCache(redisClient, cfg.ReportCacheTTL)
	reportingRepo := reporting.NewRepository(pool)
	reportingService := reporting.NewService(reportingRepo, reportCache)
	reportingHandler := reporting.NewHandler(logger, reportingService)

	settlementRepo := settlement.NewRepository(pool)
	settlementService := settlement.NewService(settlementRepo, userRepo, reportCache, logger)
	settlementHandler := settlement.NewHandler(logger, settlementService)

	generator, err := sepa.NewGenerator(sepa.Config{
		DebtorName: cfg.SEPADebtorName,
		DebtorIBAN: cfg.SEPADebtorIBAN,
		DebtorBIC:  cfg.SEPADebtorBIC,
	})
	if err != nil {
		logger.Error("sepa debtor config", slog.Any("error", err))
		os.Exit(1)
	}
	sepaHandler := sepa.NewHandler(logger, generator)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		TrainingHandler:   trainingHandler,
		SettlementHandler: settlementHandler,
		ReportingHandler:  reportingHandler,
		SEPAHandler:       sepaHandler,
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
