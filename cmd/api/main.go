package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/lorrc/newsroom-notifications/internal/adapters/primary/http"
	mw "github.com/lorrc/newsroom-notifications/internal/adapters/primary/http/middleware"
	"github.com/lorrc/newsroom-notifications/internal/adapters/primary/websocket"
	"github.com/lorrc/newsroom-notifications/internal/adapters/secondary/postgres"
	"github.com/lorrc/newsroom-notifications/internal/auth"
	"github.com/lorrc/newsroom-notifications/internal/config"
	"github.com/lorrc/newsroom-notifications/internal/core/services"
	"github.com/lorrc/newsroom-notifications/internal/infrastructure/logging"
	"github.com/lorrc/newsroom-notifications/internal/infrastructure/metrics"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	// 3. Apply Migrations
	if cfg.Database.MigrationsPath != "" {
		if err := postgres.RunMigrations(cfg.Database.MigrationsPath, cfg.Database.URL); err != nil {
			logger.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("database migrations applied", "source", cfg.Database.MigrationsPath)
	}

	// 4. Initialize Database Pool
	ctx := context.Background()
	pool, err := newPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connection established")

	// 5. Core Components
	registry := services.NewSessionRegistry()
	dispatchMetrics := metrics.NewDispatch(registry)
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	hub := websocket.NewHub(registry, logger)

	// Repositories (Secondary Adapters)
	userRepo := postgres.NewUserRepository(pool)
	newsRepo := postgres.NewNewsRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	txManager := postgres.NewTransactionManager(pool)
	feed := postgres.NewNotificationFeed(pool, logger)

	// Services (Core)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, dispatchMetrics, logger)
	newsService := services.NewNewsService(newsRepo, notificationService, logger)

	var reconnect *services.ReconnectPolicy
	if cfg.ChangeFeed.Reconnect {
		reconnect = &services.ReconnectPolicy{
			InitialInterval: cfg.ChangeFeed.InitialBackoff,
			MaxInterval:     cfg.ChangeFeed.MaxBackoff,
			MaxElapsedTime:  cfg.ChangeFeed.MaxElapsed,
		}
	}
	listener := services.NewNotificationListener(feed, registry, hub, reconnect, dispatchMetrics, logger)

	scheduler := services.NewPublishScheduler(newsRepo, txManager, notificationService,
		services.PublishSchedulerConfig{FanOutConcurrency: cfg.Scheduler.FanOutConcurrency},
		dispatchMetrics, logger,
	)

	// 6. Start Background Workers
	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	if err := listener.Start(runCtx); err != nil {
		logger.Error("failed to start notification listener", "error", err)
		os.Exit(1)
	}

	if cfg.Scheduler.Enabled {
		if err := scheduler.Start(runCtx, cfg.Scheduler.Interval); err != nil {
			logger.Error("failed to start publish scheduler", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("publish scheduler disabled; scheduled news will not be published")
	}

	// 7. Initialize Rate Limiter
	var rateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		defer rateLimiter.Stop()
	}

	// 8. Handlers (Primary Adapters)
	errorHandler := httpAdapter.NewErrorHandler(logger)
	newsHandler := httpAdapter.NewNewsHandler(newsService, errorHandler, logger)
	notificationHandler := httpAdapter.NewNotificationHandler(notificationService, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, cfg, logger)

	healthHandler := httpAdapter.NewHealthHandler(pool, cfg.App.Version)
	healthHandler.AddCheck("change_feed", func(context.Context) httpAdapter.Check {
		state := listener.State()
		if state == services.ListenerListening {
			return httpAdapter.Check{Status: "healthy", Message: state.String()}
		}
		return httpAdapter.Check{Status: "unhealthy", Message: state.String()}
	})
	healthHandler.AddCheck("sessions", func(context.Context) httpAdapter.Check {
		return httpAdapter.Check{
			Status:  "healthy",
			Message: fmt.Sprintf("%d active, %d connections", registry.Count(), hub.ClientCount()),
		}
	})

	// 9. Setup Router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	healthHandler.RegisterRoutes(r)
	r.Handle("/metrics", dispatchMetrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if rateLimiter != nil {
			r.Use(rateLimiter.Middleware)
		}

		// Authentication is handled inside the handler
		r.Get("/ws", wsHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager, cfg.JWT.CookieName))
			r.Route("/news", newsHandler.RegisterRoutes)
			r.Route("/notifications", notificationHandler.RegisterRoutes)
		})
	})

	// 10. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		exitCode = 1
	}

	// Stop producers before the transport so nothing is pushed to closed clients.
	scheduler.Stop()
	newsService.Shutdown()
	listener.Stop()
	hub.CloseAll()
	stopRun()

	logger.Info("server shutdown complete")
	if exitCode != 0 {
		pool.Close()
		os.Exit(exitCode)
	}
}

func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
