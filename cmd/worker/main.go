package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/invoicebox/internal/config"
	"github.com/MrJamesThe3rd/invoicebox/internal/database"
	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	invoiceStore "github.com/MrJamesThe3rd/invoicebox/internal/invoice/store"
	"github.com/MrJamesThe3rd/invoicebox/internal/jobs"
	"github.com/MrJamesThe3rd/invoicebox/internal/user"
	userStore "github.com/MrJamesThe3rd/invoicebox/internal/user/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	if cfg.Jobs.OverdueSweepCron == "" {
		slog.Info("OVERDUE_SWEEP_CRON is empty, overdue sweep disabled")
	}

	db, err := database.New(context.Background(), cfg.ConnectionString(), dbPool(cfg))
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisOpts, err := asynq.ParseRedisURI(cfg.Redis.URL)
	if err != nil {
		slog.Error("invalid redis url", "error", err)
		os.Exit(1)
	}

	invoiceService := invoice.NewService(invoiceStore.New(db), user.NewService(userStore.New(db)))
	sweep := jobs.NewOverdueSweepJob(invoiceService, logger)

	schedule, err := jobs.SweepSchedule(cfg.Jobs.OverdueSweepCron)
	if err != nil {
		slog.Error("failed to build schedule", "error", err)
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Concurrency: cfg.Jobs.Concurrency,
		Logger:      logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOverdueSweep, Handler: sweep.Handle},
		},
		Cron: schedule,
	})
	if err != nil {
		slog.Error("failed to create worker", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting worker", "overdue_sweep_cron", cfg.Jobs.OverdueSweepCron)

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func dbPool(cfg *config.Config) database.Pool {
	return database.Pool{
		MaxOpen:     cfg.DB.MaxOpenConns,
		MaxIdle:     cfg.DB.MaxIdleConns,
		MaxLifetime: cfg.DB.ConnMaxLifetime,
	}
}
