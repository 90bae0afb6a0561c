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

	"github.com/devport-app/devport/internal/app"
	"github.com/devport-app/devport/internal/auth"
	"github.com/devport-app/devport/internal/observability"
	"github.com/devport-app/devport/internal/platform/cache"
	"github.com/devport-app/devport/internal/platform/db"
	"github.com/devport-app/devport/internal/projects"
	"github.com/devport-app/devport/internal/ratelimit"
	"github.com/devport-app/devport/internal/rbac"
	"github.com/devport-app/devport/internal/roles"
	"github.com/devport-app/devport/internal/users"
	"github.com/devport-app/devport/internal/verify"
	"github.com/devport-app/devport/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
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

	dispatcher := jobs.NewDispatcher(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := dispatcher.Close(); err != nil {
			logger.Warn("dispatcher close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authMiddleware := auth.Middleware{Service: authService, Logger: logger}

	signer := verify.NewSigner(cfg.VerifySecret)
	verifyService := verify.NewService(authRepo, signer, dispatcher, cfg.VerifyTTL, logger)
	verifyHandler := verify.NewHandler(logger, verifyService)

	authHandler := auth.NewHandler(logger, authService, verifyService)

	metrics := observability.NewMetrics()
	limiter := ratelimit.NewLimiter(redisClient)
	rateLimitMiddleware := ratelimit.Middleware{Limiter: limiter, Logger: logger, Metrics: metrics}
	rbacMiddleware := rbac.Middleware{Logger: logger}

	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(dbpool)))
	rolesHandler := roles.NewHandler(logger, roles.NewService(roles.NewRepository(dbpool)))
	projectsHandler := projects.NewHandler(logger, projects.NewService(projects.NewRepository(dbpool)))

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Policies:        app.PoliciesFromConfig(cfg),
		AuthHandler:     authHandler,
		VerifyHandler:   verifyHandler,
		UsersHandler:    usersHandler,
		RolesHandler:    rolesHandler,
		ProjectsHandler: projectsHandler,
		AuthMiddleware:  authMiddleware,
		RBACMiddleware:  rbacMiddleware,
		RateLimit:       rateLimitMiddleware,
		Gates:           rbac.DefaultGates(),
		Metrics:         metrics,
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
