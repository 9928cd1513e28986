package handler

import (
	"fmt"

	"github.com/SergeiKhy/shortlink-analytics/internal/middleware"
	"github.com/SergeiKhy/shortlink-analytics/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig параметры HTTP-слоя
type RouterConfig struct {
	BaseURL string
	// TrustedProxies пустой список: заголовки X-Forwarded-For / X-Real-IP игнорируются
	TrustedProxies []string
	// AllowedOrigins пустой список отключает CORS
	AllowedOrigins []string
}

func NewRouter(
	linkService service.LinkService,
	analyticsService service.AnalyticsService,
	clickRecorder service.ClickRecorder,
	cfg RouterConfig,
	logger *zap.Logger,
) (*gin.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// IP клиента: первый адрес X-Forwarded-For, затем X-Real-IP, затем адрес соединения
	router.ForwardedByClientIP = true
	router.RemoteIPHeaders = []string{"X-Forwarded-For", "X-Real-IP"}
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	if len(cfg.AllowedOrigins) > 0 {
		corsMiddleware, err := middleware.CORS(cfg.AllowedOrigins)
		if err != nil {
			return nil, fmt.Errorf("invalid CORS config: %w", err)
		}
		router.Use(corsMiddleware)
	}

	// Request ID и логирование запросов
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))

	// Инициализация обработчика ссылок
	linkHandler := NewLinkHandler(linkService, analyticsService, clickRecorder, cfg.BaseURL, logger)

	router.GET("/", Home)

	// API v.1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", HealthCheck)

		v1.GET("/links", linkHandler.ListLinks)
		v1.POST("/links", linkHandler.CreateLink)
		v1.GET("/links/:code/analytics", linkHandler.GetAnalytics)
		v1.GET("/links/:code/qr", linkHandler.GetQRCode)
		v1.DELETE("/links/:code", linkHandler.DeleteLink)
	}

	// Редирект (корневой путь)
	router.GET("/:code", linkHandler.Redirect)

	return router, nil
}
