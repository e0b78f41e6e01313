package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ather123970/aalacomputer-sub003/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestLogger(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/enrichment/preview", handler.PreviewEnrichment)
		v1.POST("/images/resolve", handler.ResolveImage)
		v1.GET("/products/:id/enrichment", handler.GetProductEnrichment)
	}

	return router
}
