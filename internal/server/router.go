package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/madschristensen99/lit-full-self-signing/internal/handler"
	"github.com/madschristensen99/lit-full-self-signing/internal/handler/middleware"
	"github.com/madschristensen99/lit-full-self-signing/pkg/monitor"
)

// NewHTTPRouter wires the gin engine: health/metrics/swagger plus the
// transfer API behind the signature-recovery auth middleware.
func NewHTTPRouter(transferHandler *handler.TransferHandler) *gin.Engine {
	monitor.Init()

	r := gin.Default()
	r.Use(monitor.PrometheusMiddleware())

	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		api.POST("/transfer", middleware.AuthSigner(), transferHandler.Execute)
	}

	return r
}
