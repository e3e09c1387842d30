package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marketsquad/authgate/internal/auth"
	"github.com/marketsquad/authgate/internal/background"
	"github.com/marketsquad/authgate/internal/config"
	"github.com/marketsquad/authgate/internal/database"
	"github.com/marketsquad/authgate/internal/handlers"
	"github.com/marketsquad/authgate/internal/metrics"
	middlewareCustom "github.com/marketsquad/authgate/internal/middleware"
	"github.com/marketsquad/authgate/internal/models"
	"github.com/marketsquad/authgate/internal/repositories"
	"github.com/marketsquad/authgate/internal/routes"
	"github.com/marketsquad/authgate/internal/services"
	"github.com/marketsquad/authgate/internal/social"
	pkglogger "github.com/marketsquad/authgate/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Repositories
	policyDefaults := models.LoginPolicy{
		MaxLoginHits:      cfg.Auth.MaxLoginHits,
		TempBlockDuration: cfg.Auth.TempBlockDuration,
	}
	accountRepo := repositories.NewAccountRepository(db)
	policyRepo := repositories.NewPolicyRepository(db, policyDefaults)
	revocationRepo := repositories.NewTokenRevocationRepository(db)

	// Token manager and audit logging
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Social exchange client (apple is enabled by configuration)
	socialClient, err := social.NewClient(cfg.Social, logger)
	if err != nil {
		logger.Error("failed to initialize social client", slog.Any("error", err))
		os.Exit(1)
	}

	// Lockout notices go out via SES when an email backend is configured
	var notifier services.NotificationSender
	if cfg.Email.AWSRegion != "" && cfg.Email.FromAddress != "" {
		sesNotifier, err := services.NewSESNotificationService(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Error("failed to initialize SES notifier", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = sesNotifier
	} else {
		notifier = services.NewNoopNotificationService(logger)
	}

	// Services
	loginService := services.NewLoginService(
		accountRepo,
		policyRepo,
		tokenManager,
		revocationRepo,
		notifier,
		logger,
		auditLogger,
	)
	socialService := services.NewSocialService(
		socialClient,
		accountRepo,
		policyRepo,
		tokenManager,
		auth.GenerateTemporaryToken,
		logger,
		auditLogger,
	)

	// Handlers
	authHandler := handlers.NewAuthHandler(loginService, socialService)

	// Background cleanup of revoked tokens and stale lockouts
	cleanupManager := background.NewCleanupManager(revocationRepo, accountRepo, policyRepo, logger, cfg.Auth.CleanupInterval)

	// Router
	metrics.Register()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(metrics.Instrument)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, authHandler, tokenManager, revocationRepo)

	router.Handle("/metrics", metrics.Handler())

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
