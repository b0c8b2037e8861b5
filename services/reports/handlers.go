package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const maxWindowDays = 366

// DashboardHandler contém os handlers HTTP do dashboard
type DashboardHandler struct {
	useCase       *DashboardUseCase
	logger        *zap.Logger
	defaultWindow int
}

// NewDashboardHandler cria uma nova instância de DashboardHandler
func NewDashboardHandler(useCase *DashboardUseCase, logger *zap.Logger, defaultWindow int) *DashboardHandler {
	return &DashboardHandler{
		useCase:       useCase,
		logger:        logger,
		defaultWindow: defaultWindow,
	}
}

// SalesSummary responde o gráfico de vendas; window precisa ser um inteiro positivo
func (h *DashboardHandler) SalesSummary(c *gin.Context) {
	window := h.defaultWindow
	if raw := c.Query("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxWindowDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window must be an integer between 1 and 366"})
			return
		}
		window = parsed
	}

	trace.SpanFromContext(c.Request.Context()).SetName("sales_summary")

	summary, err := h.useCase.SalesSummary(c.Request.Context(), window)
	if err != nil {
		h.logger.Info("ℹ️ [SUMMARY] FAILED", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load sales"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Metrics responde os cartões de indicadores
func (h *DashboardHandler) Metrics(c *gin.Context) {
	trace.SpanFromContext(c.Request.Context()).SetName("dashboard_metrics")

	metrics, err := h.useCase.Metrics(c.Request.Context())
	if err != nil {
		h.logger.Info("ℹ️ [METRICS] FAILED", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load dashboard data"})
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// HealthCheck verifica se a fonte de vendas responde
func (h *DashboardHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.useCase.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
