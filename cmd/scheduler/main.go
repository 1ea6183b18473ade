package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"climbx.app/pipeline/common/id"
	"climbx.app/pipeline/common/logger"
	"climbx.app/pipeline/common/otel"
	"climbx.app/pipeline/core/config"
	"climbx.app/pipeline/core/db"
	"climbx.app/pipeline/internal/http/handler"
	"climbx.app/pipeline/internal/http/router"
	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/outbox"
	"climbx.app/pipeline/internal/scheduler"
	"climbx.app/pipeline/internal/service"
	"climbx.app/pipeline/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeScheduler)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "pipeline scheduler starting", "env", cfg.Env)

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up telemetry", "error", err)
		os.Exit(1)
	}

	if err := id.Init(1); err != nil {
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

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected")

	stores := store.NewStores(database.Querier())
	txRunner := service.NewTxRunner(database)
	workQueue := service.NewWorkQueueService(stores.WorkItems(), slog.Default())

	processor := outbox.NewProcessor(txRunner, slog.Default())
	tierChange := outbox.NewTierChangeHandler(txRunner, cfg.Outbox.UserRatingBatchSize, slog.Default())
	userActivity := outbox.NewUserActivityHandler(workQueue)
	processor.Register(model.EventTypeProblemTierChanged, tierChange.Handle)
	processor.Register(model.EventTypeUserSolvedProblem, userActivity.Handle)
	processor.Register(model.EventTypeUserDifficultyContributed, userActivity.Handle)

	drainJob := scheduler.NewDrainJob(stores.Events(), processor, redisClient, scheduler.DrainConfig{
		Interval: cfg.Outbox.DrainInterval,
		PageSize: cfg.Outbox.DrainPageSize,
		LockTTL:  cfg.Outbox.DrainLockTTL,
	}, slog.Default())
	translateJob := scheduler.NewTranslateJob(stores.Events(), workQueue, cfg.Jobs.TranslateInterval, cfg.Jobs.TranslatePageSize, slog.Default())
	snapshotJob := scheduler.NewSnapshotJob(txRunner, workQueue, cfg.Jobs.SnapshotInterval, cfg.Jobs.SnapshotPageSize, slog.Default())

	sched := scheduler.New(slog.Default(), drainJob, translateJob, snapshotJob)

	go sched.Run(ctx)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	adminHandler := handler.NewAdminHandler(sched)
	router.SetupRoutes(engine, adminHandler, router.RouterConfig{
		AdminAPIKey: cfg.AdminAPIKey,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	go func() {
		slog.InfoContext(ctx, "admin server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "admin server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down scheduler...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.WarnContext(ctx, "admin server shutdown error", "error", err)
	}

	sched.Stop()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.WarnContext(ctx, "telemetry shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "scheduler shutdown complete")
}
