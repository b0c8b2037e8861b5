package main

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func newRouter(serviceName string, tp trace.TracerProvider, handler *DashboardHandler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		otelgin.Middleware(serviceName, otelgin.WithTracerProvider(tp)),
		requestLogger(logger),
	)

	r.GET("/health", handler.HealthCheck)

	dashboard := r.Group("/api/dashboard")
	dashboard.GET("/sales-summary", handler.SalesSummary)
	dashboard.GET("/metrics", handler.Metrics)

	return r
}
