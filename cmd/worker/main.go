package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/rentora/rentora-admin/internal/app"
	"github.com/rentora/rentora-admin/internal/assignments"
	"github.com/rentora/rentora-admin/internal/audit"
	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/impersonation"
	"github.com/rentora/rentora-admin/internal/platform/db"
	"github.com/rentora/rentora-admin/internal/token"
	"github.com/rentora/rentora-admin/internal/users"
	"github.com/rentora/rentora-admin/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	tokenManager := token.NewManager(cfg.TokenSecret, cfg.AccessTokenTTL, cfg.ImpersonationTokenTTL)
	auditRecorder := audit.NewRecorder(dbpool, logger)

	assignmentRepo := assignments.NewRepository(dbpool)
	resolver := authz.NewResolver(assignmentRepo)

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(userRepo, resolver, auditRecorder)

	sessionRepo := impersonation.NewRepository(dbpool)
	sessionService := impersonation.NewService(sessionRepo, userService, tokenManager, auditRecorder, nil, logger)

	sweep := &jobs.SweepHandler{Service: sessionService, Logger: logger}
	alerts := &jobs.AlertHandler{Logger: logger}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskImpersonationSweep, Handler: sweep.Handle},
			{Type: jobs.TaskSecurityAlert, Handler: alerts.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/10 * * * *", Task: jobs.NewImpersonationSweepTask()},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting worker")
		return worker.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
