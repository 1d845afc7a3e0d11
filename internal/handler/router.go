package handler

import (
	"net/http"

	"github.com/SergeiKhy/promo-links/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func NewRouter(
	linkHandler *LinkHandler,
	rateLimiter *middleware.RateLimiter,
	apiKeyMiddleware gin.HandlerFunc,
	logger *zap.Logger,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Metrics())

	// Middleware для логгирования
	router.Use(func(c *gin.Context) {
		c.Next()
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
		)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := router.Group("/")
	if rateLimiter != nil {
		limited.Use(rateLimiter.Middleware())
	}

	// API v.1
	v1 := limited.Group("/api/v1")
	{
		v1.GET("/health", HealthCheck)

		// API Key middleware только для управляющих эндпоинтов
		if apiKeyMiddleware != nil {
			v1.Use(apiKeyMiddleware)
		}

		v1.POST("/links", linkHandler.CreateLink)
		v1.GET("/links/:code", linkHandler.GetStats)
		v1.PATCH("/links/:code", linkHandler.UpdateLink)
		v1.DELETE("/links/:code", linkHandler.DeleteLink)
		v1.GET("/links/:code/events", linkHandler.GetEvents)
	}

	// POST /shorten - короткий синоним POST /api/v1/links, ответ тот же
	shorten := limited.Group("/shorten")
	if apiKeyMiddleware != nil {
		shorten.Use(apiKeyMiddleware)
	}
	shorten.POST("", linkHandler.CreateLink)

	// Редирект (корневой путь) - без API key проверки
	limited.GET("/:code", linkHandler.Redirect)

	return router
}

// HealthCheck godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/v1/health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
