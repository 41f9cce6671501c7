package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"nestnav/forecaster/config"
	"nestnav/forecaster/internal/models"
)

// NewRouter builds the engine with middleware and all routes.
func NewRouter(handler *Handler, cfg config.ServerConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(handler.logger))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		router.Use(RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)))
	}

	SetupRoutes(router, handler)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.POST("/forecast/:metric", handler.ForecastByName)
		api.GET("/areas", handler.ListAreas)
	}

	// legacy frontend paths
	router.POST("/forecast", handler.Forecast(models.MetricPrice))
	router.POST("/forecast_plots", handler.Forecast(models.MetricPlots))
	router.POST("/forecast_rentals", handler.Forecast(models.MetricRentals))

	router.GET("/healthz", handler.Healthz)
	if handler.metrics != nil {
		router.GET("/metrics", gin.WrapH(handler.metrics.Handler()))
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, RequestIDHeader)
	cfg.ExposeHeaders = []string{RequestIDHeader, ForecastSourceHeader}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
