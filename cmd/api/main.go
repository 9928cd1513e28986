package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/shortlink-analytics/internal/config"
	"github.com/SergeiKhy/shortlink-analytics/internal/enrich"
	"github.com/SergeiKhy/shortlink-analytics/internal/handler"
	"github.com/SergeiKhy/shortlink-analytics/internal/repository"
	"github.com/SergeiKhy/shortlink-analytics/internal/service"
	"github.com/SergeiKhy/shortlink-analytics/internal/shortcode"
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
	logger, err := newLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(gin.ReleaseMode)

	// Хранилище (postgres или sqlite/libsql)
	linkRepo, clickRepo, closeStore, err := openStore(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("driver", cfg.DB.Driver), zap.Error(err))
	}
	defer closeStore()
	logger.Info("Connected to database", zap.String("driver", cfg.DB.Driver))

	// Кэш в Redis опционален
	cacheRepo := repository.NewNoopCacheRepository()
	if cfg.Redis.Enabled() {
		redis, err := repository.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redis.Close()
		cacheRepo = repository.NewCacheRepository(redis)
		logger.Info("Connected to Redis")
	} else {
		logger.Info("Redis is not configured, cache disabled")
	}

	// GeoIP база опциональна
	geo, closeGeo, err := enrich.NewGeoLocator(cfg.GeoIP.DBPath)
	if err != nil {
		logger.Fatal("Failed to open GeoIP database", zap.String("path", cfg.GeoIP.DBPath), zap.Error(err))
	}
	defer closeGeo()

	// Инициализация сервисов
	linkService := service.NewLinkService(
		linkRepo,
		cacheRepo,
		shortcode.NewGenerator(cfg.App.CodeLength),
		logger,
		service.WithCacheTTL(cfg.Redis.CacheTTL),
	)
	analyticsService := service.NewAnalyticsService(linkRepo, clickRepo)
	clickRecorder := service.NewClickRecorder(clickRepo, geo, enrich.NewUserAgentParser(), logger)

	// Настройка роутера
	router, err := handler.NewRouter(linkService, analyticsService, clickRecorder, handler.RouterConfig{
		BaseURL:        cfg.App.BaseURL,
		TrustedProxies: cfg.App.TrustedProxies,
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to configure router", zap.Error(err))
	}

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
		logger.Info("Server starting",
			zap.String("port", cfg.App.Port),
			zap.String("base_url", cfg.App.BaseURL),
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
		return
	}

	logger.Info("Server exited")
}

func newLogger(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		zapCfg.Level = lvl
	}
	return zapCfg.Build()
}

func openStore(cfg config.DBConfig) (repository.LinkRepository, repository.ClickRepository, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		db, err := repository.NewPostgresDB(cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		return repository.NewLinkRepository(db), repository.NewClickRepository(db), db.Close, nil

	case config.DriverSQLite:
		db, err := repository.NewSQLiteDB(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return repository.NewSQLiteLinkRepository(db), repository.NewSQLiteClickRepository(db), func() { db.Close() }, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}
