package main

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RetryPolicy limita as novas tentativas após conflito de versão
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy é usada quando a configuração não informa valores
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:     5,
	InitialInterval: 10 * time.Millisecond,
	MaxInterval:     200 * time.Millisecond,
}

func (p RetryPolicy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	return b
}

// SaleUseCase contém a lógica de negócio do processamento de vendas
type SaleUseCase struct {
	repository SalesRepository
	logger     *zap.Logger
	tracer     trace.Tracer
	now        func() time.Time
	retry      RetryPolicy

	lowStockThreshold int

	saleCommittedCounter metric.Int64Counter
	saleRejectedCounter  metric.Int64Counter
	saleConflictRetries  metric.Int64Counter
}

// NewSaleUseCase cria uma nova instância de SaleUseCase
func NewSaleUseCase(
	repository SalesRepository,
	logger *zap.Logger,
	tracer trace.Tracer,
	meter metric.Meter,
	retry RetryPolicy,
) (*SaleUseCase, error) {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if retry.InitialInterval <= 0 {
		retry.InitialInterval = DefaultRetryPolicy.InitialInterval
	}
	if retry.MaxInterval < retry.InitialInterval {
		retry.MaxInterval = 20 * retry.InitialInterval
	}

	committed, err := meter.Int64Counter("sales.committed",
		metric.WithDescription("Vendas confirmadas"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sales.committed counter")
	}
	rejected, err := meter.Int64Counter("sales.rejected",
		metric.WithDescription("Vendas recusadas por motivo"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sales.rejected counter")
	}
	retries, err := meter.Int64Counter("sales.optimistic_lock_retries",
		metric.WithDescription("Conflitos de versão que provocaram nova tentativa"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sales.optimistic_lock_retries counter")
	}

	return &SaleUseCase{
		repository:           repository,
		logger:               logger,
		tracer:               tracer,
		now:                  func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		retry:                retry,
		lowStockThreshold:    5,
		saleCommittedCounter: committed,
		saleRejectedCounter:  rejected,
		saleConflictRetries:  retries,
	}, nil
}

// WithLowStockThreshold define o estoque restante a partir do qual a venda gera alerta no log
func (uc *SaleUseCase) WithLowStockThreshold(threshold int) *SaleUseCase {
	uc.lowStockThreshold = threshold
	return uc
}

// ProcessSale valida a requisição e confirma a venda com compare-and-swap na versão do produto.
// Conflitos refazem a leitura do zero, até retry.MaxAttempts tentativas.
func (uc *SaleUseCase) ProcessSale(ctx context.Context, req CreateSaleRequest) (*Sale, error) {
	ctx, span := uc.tracer.Start(ctx, "SaleUseCase.ProcessSale", trace.WithAttributes(
		attribute.String("product.id", req.ProductID),
		attribute.Int("sale.quantity", req.Quantity),
	))
	defer span.End()

	uc.logger.Info("➡️ [SALE] Processing",
		zap.String("productId", req.ProductID),
		zap.Int("quantity", req.Quantity),
		zap.String("traceId", span.SpanContext().TraceID().String()),
	)

	// 1. Validação: falha antes de tocar o estoque
	if err := req.Validate(); err != nil {
		uc.reject(ctx, span, "validation", err)
		return nil, err
	}
	customerName := strings.TrimSpace(req.CustomerName)

	// 2. Leitura + compare-and-swap, repetidos enquanto houver conflito
	attempt := 0
	operation := func() (*Sale, error) {
		attempt++
		sale, err := uc.tryCommit(ctx, req.ProductID, req.Quantity, customerName)
		if err == nil {
			return sale, nil
		}
		if errors.Is(err, ErrConflict) {
			// A última tentativa não volta a ser repetida
			if attempt < uc.retry.MaxAttempts {
				uc.saleConflictRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("product.id", req.ProductID)))
			}
			uc.logger.Warn("🔁 [CONFLICT] Product changed since read",
				zap.String("productId", req.ProductID),
				zap.Int("attempt", attempt),
			)
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	sale, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(uc.retry.newBackOff()),
		backoff.WithMaxTries(uint(uc.retry.MaxAttempts)),
	)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			err = errors.Wrapf(err, "max retries exceeded after %d attempts", attempt)
		}
		uc.reject(ctx, span, rejectionReason(err), err)
		return nil, err
	}

	span.SetAttributes(attribute.String("sale.id", sale.ID), attribute.Int("sale.attempts", attempt))
	uc.saleCommittedCounter.Add(ctx, 1)
	uc.logger.Info("✅ [SALE] Success",
		zap.String("saleId", sale.ID),
		zap.String("productId", sale.ProductID),
		zap.String("totalAmount", sale.TotalAmount.String()),
		zap.Int("attempts", attempt),
	)
	return sale, nil
}

// tryCommit executa uma única tentativa: ler, checar estoque, montar snapshot e confirmar
func (uc *SaleUseCase) tryCommit(ctx context.Context, productID string, quantity int, customerName string) (*Sale, error) {
	product, err := uc.repository.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if product.StockQuantity < quantity {
		return nil, &InsufficientStockError{
			ProductID: product.ID,
			Requested: quantity,
			Available: product.StockQuantity,
		}
	}

	sale := NewSale(product, quantity, customerName, uc.now())
	commit := StockCommit{
		ProductID:       product.ID,
		Quantity:        quantity,
		ExpectedVersion: product.Version,
	}
	if err := uc.repository.CommitSale(ctx, commit, sale); err != nil {
		return nil, err
	}

	if remaining := product.StockQuantity - quantity; remaining <= uc.lowStockThreshold {
		uc.logger.Warn("⚠️ [LOW STOCK]",
			zap.String("productId", product.ID),
			zap.String("productName", product.Name),
			zap.Int("remaining", remaining),
		)
	}
	return sale, nil
}

// ListSales retorna o livro de vendas, mais recentes primeiro
func (uc *SaleUseCase) ListSales(ctx context.Context) ([]*Sale, error) {
	ctx, span := uc.tracer.Start(ctx, "SaleUseCase.ListSales")
	defer span.End()

	sales, err := uc.repository.ListSales(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("sales.count", len(sales)))
	return sales, nil
}

// GetSale busca uma venda já confirmada
func (uc *SaleUseCase) GetSale(ctx context.Context, saleID string) (*Sale, error) {
	ctx, span := uc.tracer.Start(ctx, "SaleUseCase.GetSale", trace.WithAttributes(attribute.String("sale.id", saleID)))
	defer span.End()

	return uc.repository.GetSale(ctx, saleID)
}

func (uc *SaleUseCase) reject(ctx context.Context, span trace.Span, reason string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	uc.saleRejectedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	uc.logger.Warn("❌ [SALE] Rejected", zap.String("reason", reason), zap.Error(err))
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrProductNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
