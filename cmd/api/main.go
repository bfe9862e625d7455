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

	"github.com/SergeiKhy/linkpulse/internal/config"
	"github.com/SergeiKhy/linkpulse/internal/enrichment"
	"github.com/SergeiKhy/linkpulse/internal/handler"
	"github.com/SergeiKhy/linkpulse/internal/middleware"
	"github.com/SergeiKhy/linkpulse/internal/repository"
	"github.com/SergeiKhy/linkpulse/internal/repository/migrations"
	"github.com/SergeiKhy/linkpulse/internal/service"
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

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.App.AutoMigrate {
		if err := migrateUp(cfg.DB, logger); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Подключение к БД (postgres)
	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Подключение к Redis
	redis, err := repository.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	loc, err := cfg.Analytics.Location()
	if err != nil {
		logger.Fatal("Invalid analytics timezone", zap.String("tz", cfg.Analytics.Timezone), zap.Error(err))
	}

	// Инициализация репозиториев
	linkRepo := repository.NewLinkRepository(db)
	clickRepo := repository.NewClickRepository(db)
	userRepo := repository.NewUserRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	cache := repository.NewCacheRepository(redis)

	// Обогащение кликов
	geo := enrichment.NewGeoLocator(cfg.Geo, cache, logger)
	uaParser := enrichment.NewUserAgentParser()

	// Инициализация сервисов
	linkService := service.NewLinkService(linkRepo, clickRepo, cache, cfg.Redis.CacheTTL, logger)
	authService := service.NewAuthService(userRepo, cfg.Auth, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, loc, time.Now, logger)
	insightService := service.NewInsightService(clickRepo, time.Now)
	adminService := service.NewAdminService(adminRepo)
	reviewService := service.NewReviewService(reviewRepo)

	// Инициализация процессора кликов (Worker Pool)
	recorder := service.NewClickRecorder(clickRepo, geo, uaParser, cfg.Geo.Timeout, logger)
	clickProcessor := service.NewClickProcessor(recorder, cfg.Clicks, logger)
	clickProcessor.Start()

	// Инициализация middleware
	limits := handler.RateLimiters{
		Global: middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
		}),
		Auth: middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.AuthRequestsPerSecond,
			BurstSize:         cfg.RateLimit.AuthBurstSize,
			CleanupInterval:   time.Minute,
		}),
		User: middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
		}),
	}
	defer limits.Global.Stop()
	defer limits.Auth.Stop()
	defer limits.User.Stop()

	if cfg.Auth.GoogleEnabled() {
		logger.Info("Google sign-in enabled")
	}

	// Настройка роутера
	router := handler.NewRouter(handler.Handlers{
		Link:      handler.NewLinkHandler(linkService, clickProcessor, cfg.App.BaseURL, cfg.App.FallbackURL, logger),
		Analytics: handler.NewAnalyticsHandler(analyticsService, insightService, logger),
		Auth:      handler.NewAuthHandler(authService, cfg.Auth, cfg.App.Env == "production", logger),
		Admin:     handler.NewAdminHandler(adminService, reviewService, logger),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": db,
			"redis":    redis,
		}, logger),
	}, authService, limits, logger)

	// Запуск сервера
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port))
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

	// Новых редиректов больше нет, дописываем клики из буфера
	clickProcessor.Stop()

	logger.Info("Server exited")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func migrateUp(cfg config.DBConfig, logger *zap.Logger) error {
	m, err := migrations.New(cfg.MigrateURL(), logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}
