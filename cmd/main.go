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

	"github.com/fieldbook/fieldbook-api/config"
	"github.com/fieldbook/fieldbook-api/db"
	"github.com/fieldbook/fieldbook-api/handlers"
	"github.com/fieldbook/fieldbook-api/live"
	"github.com/fieldbook/fieldbook-api/repositories"
	"github.com/fieldbook/fieldbook-api/routes"
	"github.com/fieldbook/fieldbook-api/services"
	"github.com/fieldbook/fieldbook-api/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	migrateCtx, cancelMigrate := context.WithTimeout(ctx, 30*time.Second)
	err = db.Migrate(migrateCtx, dbConn)
	cancelMigrate()
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("database schema applied")

	// Загрузчик баннеров (Cloudflare R2) необязателен
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, banner uploads are disabled")
	}

	// WebSocket Hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := live.NewHub(logger)
	go wsHub.Run(hubCtx)
	logger.Info("WebSocket hub started")

	catalog, err := services.NewSlotCatalog(cfg.FieldOpenHour, cfg.FieldCloseHour)
	if err != nil {
		return err
	}

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	bookingRepo := repositories.NewPostgresBookingRepository(dbConn)

	tournamentService := services.NewTournamentService(tournamentRepo, uploader, wsHub, logger)
	bookingService := services.NewBookingService(bookingRepo, catalog, wsHub, logger)
	logger.Info("services initialized")

	// Планировщик автоматического обновления статусов турниров
	if cfg.StatusSchedulerInterval > 0 {
		scheduler, err := services.NewStatusScheduler(tournamentService, cfg.StatusSchedulerInterval, logger)
		if err != nil {
			return fmt.Errorf("failed to create status scheduler: %w", err)
		}
		scheduler.Start()
		logger.Info("tournament status scheduler started", slog.Duration("interval", cfg.StatusSchedulerInterval))
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				logger.Error("failed to stop status scheduler", slog.Any("error", err))
			}
		}()
	} else {
		logger.Info("tournament status scheduler disabled")
	}

	router := chi.NewRouter()
	routes.SetupRoutes(
		router,
		routes.Options{
			JWTSecret:      []byte(cfg.JWTSecretKey),
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Logger:         logger,
		},
		handlers.NewTournamentHandler(tournamentService, logger),
		handlers.NewBookingHandler(bookingService, logger),
		handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
		handlers.NewHealthHandler(dbConn, logger),
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped")
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
	// Hijacked websocket connections are not tracked by Shutdown, close them via the hub.
	stopHub()
	if err := server.Shutdown(shutdownCtx); err != nil {
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server shutdown complete")
	return nil
}
