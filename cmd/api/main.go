package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/promo-links/internal/config"
	"github.com/SergeiKhy/promo-links/internal/handler"
	"github.com/SergeiKhy/promo-links/internal/middleware"
	"github.com/SergeiKhy/promo-links/internal/repository"
	"github.com/SergeiKhy/promo-links/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, err := newLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.App.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Приёмники событий жизненного цикла (опциональны)
	var sinks []repository.EventSink
	var journal repository.JournalRepository

	if cfg.DB.Enabled() {
		db, err := repository.NewPostgresDB(cfg.DB)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = db.EnsureSchema(ctx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to prepare journal schema", zap.Error(err))
		}

		journal = repository.NewJournalRepository(db)
		sinks = append(sinks, journal)
		logger.Info("Connected to PostgreSQL, event journal enabled")
	}

	if cfg.Redis.Enabled() {
		redis, err := repository.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redis.Close()

		sinks = append(sinks, repository.NewEventPublisher(redis, cfg.Redis.Channel))
		logger.Info("Connected to Redis, publishing link events", zap.String("channel", cfg.Redis.Channel))
	}

	// Единственное хранилище ссылок на весь процесс
	store := repository.NewLinkStore()

	// Процессор событий (Worker Pool)
	events := service.NewEventProcessor(service.DefaultProcessorConfig, logger, sinks...)
	events.Start()
	defer events.Stop()

	linkService := service.NewLinkService(store, events, cfg.Links, logger)

	// Очистка истёкших ссылок держит ссылку на то же хранилище
	sweeper := service.NewSweeper(store, events, cfg.Links.SweepInterval, logger)
	sweeper.Start()
	defer sweeper.Stop()

	// Инициализация middleware
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})
	defer rateLimiter.Stop()

	var apiKeyMiddleware gin.HandlerFunc
	if len(cfg.Auth.APIKeys) > 0 {
		apiKeyMiddleware = middleware.RequireAPIKey(cfg.Auth.APIKeys)
		logger.Info("API key authentication enabled", zap.Int("keys_count", len(cfg.Auth.APIKeys)))
	}

	// Настройка роутера
	linkHandler := handler.NewLinkHandler(linkService, journal, cfg.App.BaseURL, logger)
	router := handler.NewRouter(linkHandler, rateLimiter, apiKeyMiddleware, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("port", cfg.App.Port),
			zap.Int("default_visit_limit", cfg.Links.DefaultVisitLimit),
			zap.Duration("default_ttl", cfg.Links.DefaultTTL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
