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

	"github.com/Dosada05/lobby-tracker/brackets"
	"github.com/Dosada05/lobby-tracker/config"
	"github.com/Dosada05/lobby-tracker/db"
	"github.com/Dosada05/lobby-tracker/handlers"
	"github.com/Dosada05/lobby-tracker/middleware"
	"github.com/Dosada05/lobby-tracker/models"
	"github.com/Dosada05/lobby-tracker/repositories"
	api "github.com/Dosada05/lobby-tracker/routes"
	"github.com/Dosada05/lobby-tracker/services"
	"github.com/Dosada05/lobby-tracker/storage"
	"github.com/go-chi/chi/v5"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("application exited")
}

func run() error {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("log_level", cfg.LogLevel.String()))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Хранилище турниров: Postgres, если задан DATABASE_URL, иначе память процесса
	var store repositories.TournamentStore
	if cfg.DatabaseURL != "" {
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
		if err := db.EnsureSchema(ctx, dbConn); err != nil {
			return err
		}
		pgStore := repositories.NewPostgresTournamentStore(dbConn, cfg.DatabaseURL, logger)
		defer func() {
			if err := pgStore.Close(); err != nil {
				logger.Error("failed to close tournament listener", slog.Any("error", err))
			}
		}()
		store = pgStore
		logger.Info("database connection established")
	} else {
		store = repositories.NewMemoryTournamentStore(logger)
		logger.Warn("DATABASE_URL is not set, tournaments are kept in memory")
	}

	if cfg.RedisURL != "" {
		redisClient, err := repositories.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		store = repositories.NewCachedTournamentStore(store, redisClient, cfg.RedisCacheTTL, logger)
		logger.Info("redis read cache enabled", slog.Duration("ttl", cfg.RedisCacheTTL))
	}

	// Архив завершённых турниров (Cloudflare R2)
	var archiver storage.TournamentArchiver
	if cfg.ArchiveEnabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		archiver = storage.NewTournamentArchiver(uploader)
		logger.Info("Cloudflare R2 archive initialized")
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(store, logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация сервисов
	tournamentService := services.NewTournamentService(store, models.DefaultCatalog(), logger)
	matchService := services.NewMatchService(store, archiver, logger)
	compareService := services.NewCompareService(tournamentService, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.RunCleanup(ctx.Done())

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{AllowedOrigins: cfg.CORSAllowedOrigins, RateLimiter: limiter, Logger: logger},
		handlers.NewTournamentHandler(tournamentService),
		handlers.NewMatchHandler(matchService),
		handlers.NewCompareHandler(compareService),
		handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
	)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
	}

	// Закрываем websocket-комнаты и подписки до закрытия хранилища
	stop()
	<-wsHub.Done()
	return nil
}
