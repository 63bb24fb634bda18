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

	"github.com/rentora/rentora-admin/internal/accounts"
	"github.com/rentora/rentora-admin/internal/app"
	"github.com/rentora/rentora-admin/internal/assignments"
	"github.com/rentora/rentora-admin/internal/audit"
	"github.com/rentora/rentora-admin/internal/auth"
	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/impersonation"
	"github.com/rentora/rentora-admin/internal/observability"
	"github.com/rentora/rentora-admin/internal/payments"
	"github.com/rentora/rentora-admin/internal/platform/cache"
	"github.com/rentora/rentora-admin/internal/platform/db"
	"github.com/rentora/rentora-admin/internal/token"
	"github.com/rentora/rentora-admin/internal/users"
	"github.com/rentora/rentora-admin/internal/vehicles"
	"github.com/rentora/rentora-admin/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokenManager := token.NewManager(cfg.TokenSecret, cfg.AccessTokenTTL, cfg.ImpersonationTokenTTL)
	blacklist := token.NewBlacklist(redisClient)
	auditRecorder := audit.NewRecorder(dbpool, logger)

	assignmentRepo := assignments.NewRepository(dbpool)
	resolver := authz.NewResolver(assignmentRepo)
	guard := authz.Middleware{Logger: logger}

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	metrics := observability.NewMetrics()
	notifier := &jobs.Notifier{Client: jobsClient, Logger: logger, Metrics: metrics}

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(userRepo, resolver, auditRecorder)
	userHandler := users.NewHandler(logger, userService, guard)

	sessionRepo := impersonation.NewRepository(dbpool)
	sessionService := impersonation.NewService(sessionRepo, userService, tokenManager, auditRecorder, notifier, logger)
	sessionHandler := impersonation.NewHandler(logger, sessionService, guard)

	authService := auth.NewService(userRepo, tokenManager, blacklist, auditRecorder)
	authHandler := auth.NewHandler(logger, authService)

	accountRepo := accounts.NewRepository(dbpool)
	accountService := accounts.NewService(accountRepo, resolver, auditRecorder)
	accountHandler := accounts.NewHandler(logger, accountService, guard)

	vehicleRepo := vehicles.NewRepository(dbpool)
	vehicleService := vehicles.NewService(vehicleRepo, resolver, auditRecorder)
	vehicleHandler := vehicles.NewHandler(logger, vehicleService, guard)

	paymentRepo := payments.NewRepository(dbpool)
	paymentService := payments.NewService(paymentRepo, resolver)
	paymentHandler := payments.NewHandler(logger, paymentService)

	assignmentService := assignments.NewService(assignmentRepo, auditRecorder)
	assignmentHandler := assignments.NewHandler(logger, assignmentService, guard)

	auditService := audit.NewService(audit.NewRepository(dbpool))
	auditHandler := audit.NewHandler(logger, auditService, guard)

	authenticator := &app.Authenticator{
		Logger:    logger,
		Tokens:    tokenManager,
		Blacklist: blacklist,
		Sessions:  sessionService,
	}

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		Metrics:              metrics,
		Authenticator:        authenticator,
		AuthHandler:          authHandler,
		UsersHandler:         userHandler,
		AccountsHandler:      accountHandler,
		VehiclesHandler:      vehicleHandler,
		PaymentsHandler:      paymentHandler,
		AssignmentsHandler:   assignmentHandler,
		ImpersonationHandler: sessionHandler,
		AuditHandler:         auditHandler,
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
