package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"climbx.app/pipeline/common/id"
	"climbx.app/pipeline/common/logger"
	"climbx.app/pipeline/common/otel"
	"climbx.app/pipeline/core/config"
	"climbx.app/pipeline/core/db"
	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/service"
	"climbx.app/pipeline/internal/store"
	"climbx.app/pipeline/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "pipeline worker starting",
		"env", cfg.Env,
		"worker_id", cfg.Queue.WorkerID)

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up telemetry", "error", err)
		os.Exit(1)
	}

	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	stores := store.NewStores(database.Querier())
	txRunner := service.NewTxRunner(database)
	workQueue := service.NewWorkQueueService(stores.WorkItems(), slog.Default())

	w := worker.New(workQueue, txRunner, worker.Config{
		PollInterval: cfg.Queue.PollInterval,
		PickupBatch:  cfg.Queue.PickupBatch,
		RetryBackoff: cfg.Queue.RetryBackoff,
		MaxAttempts:  cfg.Queue.MaxAttempts,
		WorkerID:     cfg.Queue.WorkerID,
	}, slog.Default())

	w.Register(model.WorkItemTypeUpdateProblemTier, worker.UpdateProblemTierHandler)
	w.Register(model.WorkItemTypeRefreshUserRating, worker.RefreshUserRatingHandler)
	w.Register(model.WorkItemTypeRankingHistorySnapshot, worker.SnapshotMarkerHandler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.WarnContext(ctx, "telemetry shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}
