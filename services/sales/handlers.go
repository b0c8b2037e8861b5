package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SaleHandler contém os handlers HTTP do processador de vendas
type SaleHandler struct {
	useCase *SaleUseCase
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewSaleHandler cria uma nova instância de SaleHandler
func NewSaleHandler(useCase *SaleUseCase, logger *zap.Logger, tracer trace.Tracer) *SaleHandler {
	return &SaleHandler{
		useCase: useCase,
		logger:  logger,
		tracer:  tracer,
	}
}

// CreateSale registra uma venda e devolve o recibo
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := startHandlerSpan(c, h.tracer, "create_sale")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", req.ProductID),
		attribute.Int("quantity", req.Quantity),
	)

	sale, err := h.useCase.ProcessSale(ctx, req)
	if err != nil {
		h.logger.Info("ℹ️ [SALE] FAILED", zap.String("productId", req.ProductID), zap.Error(err))
		span.SetStatus(codes.Error, err.Error())
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewReceipt(sale))
}

// ListSales devolve o livro de vendas, mais recentes primeiro
func (h *SaleHandler) ListSales(c *gin.Context) {
	ctx, span := startHandlerSpan(c, h.tracer, "list_sales")
	defer span.End()

	sales, err := h.useCase.ListSales(ctx)
	if err != nil {
		h.logger.Error("❌ [SALES] List failed", zap.Error(err))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sales)
}

// GetSale devolve o recibo de uma venda
func (h *SaleHandler) GetSale(c *gin.Context) {
	ctx, span := startHandlerSpan(c, h.tracer, "get_sale")
	defer span.End()

	sale, err := h.useCase.GetSale(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReceipt(sale))
}

// ProductHandler contém os handlers HTTP do catálogo
type ProductHandler struct {
	useCase *CatalogUseCase
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewProductHandler cria uma nova instância de ProductHandler
func NewProductHandler(useCase *CatalogUseCase, logger *zap.Logger, tracer trace.Tracer) *ProductHandler {
	return &ProductHandler{
		useCase: useCase,
		logger:  logger,
		tracer:  tracer,
	}
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	ctx, span := startHandlerSpan(c, h.tracer, "list_products")
	defer span.End()

	products, err := h.useCase.ListProducts(ctx, c.Query("search"))
	if err != nil {
		h.logger.Error("❌ [PRODUCTS] List failed", zap.Error(err))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	ctx, span := startHandlerSpan(c, h.tracer, "get_product")
	defer span.End()

	product, err := h.useCase.GetProduct(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := startHandlerSpan(c, h.tracer, "create_product")
	defer span.End()

	product, err := h.useCase.CreateProduct(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var changes ProductChangeSet
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := startHandlerSpan(c, h.tracer, "update_product")
	defer span.End()

	product, err := h.useCase.UpdateProduct(ctx, c.Param("id"), changes)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	ctx, span := startHandlerSpan(c, h.tracer, "delete_product")
	defer span.End()

	if err := h.useCase.DeleteProduct(ctx, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HealthCheck responde 503 quando o armazenamento não responde
func HealthCheck(pinger interface{ Ping(context.Context) error }) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := pinger.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

// writeError traduz a taxonomia de erros do domínio em status HTTP
func writeError(c *gin.Context, err error) {
	var stockErr *InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          err.Error(),
			"message":        "Insufficient stock",
			"availableStock": stockErr.Available,
		})
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrSaleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// startHandlerSpan continua o trace propagado nos headers (traceparent) ou inicia um novo
func startHandlerSpan(c *gin.Context, tracer trace.Tracer, operationName string) (context.Context, trace.Span) {
	ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
	return tracer.Start(ctx, operationName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("http.route", c.FullPath())),
	)
}
