package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/limaJavier/timetabler/internal/config"
	"github.com/limaJavier/timetabler/internal/handler"
	"github.com/limaJavier/timetabler/internal/logger"
	internalmiddleware "github.com/limaJavier/timetabler/internal/middleware"
	corsmiddleware "github.com/limaJavier/timetabler/internal/middleware/cors"
	reqidmiddleware "github.com/limaJavier/timetabler/internal/middleware/requestid"
	"github.com/limaJavier/timetabler/internal/service"
)

// NewRouter wires middleware and routes around an already built generator.
func NewRouter(cfg *config.Config, logr *zap.Logger, generatorSvc *service.GeneratorService, metrics *service.MetricsService) *gin.Engine {
	generator := handler.NewGeneratorHandler(generatorSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/", generator.Root)
	r.GET("/healthz", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	r.POST("/generate", generator.Generate)
	r.POST("/generate/export", generator.Export)

	return r
}
