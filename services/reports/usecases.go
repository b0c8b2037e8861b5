package main

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DashboardUseCase deriva os indicadores do dashboard a partir das vendas confirmadas.
// Lê dados frescos a cada chamada; cache fica a cargo de quem chama.
type DashboardUseCase struct {
	source            SalesSource
	logger            *zap.Logger
	tracer            trace.Tracer
	location          *time.Location
	lowStockThreshold int
}

// NewDashboardUseCase cria uma nova instância de DashboardUseCase
func NewDashboardUseCase(
	source SalesSource,
	logger *zap.Logger,
	tracer trace.Tracer,
	location *time.Location,
	lowStockThreshold int,
) *DashboardUseCase {
	if location == nil {
		location = time.UTC
	}
	return &DashboardUseCase{
		source:            source,
		logger:            logger,
		tracer:            tracer,
		location:          location,
		lowStockThreshold: lowStockThreshold,
	}
}

// SalesSummary monta o gráfico dos últimos window dias com o total geral e a média diária da janela
func (uc *DashboardUseCase) SalesSummary(ctx context.Context, window int) (*SalesSummary, error) {
	ctx, span := uc.tracer.Start(ctx, "DashboardUseCase.SalesSummary", trace.WithAttributes(attribute.Int("window", window)))
	defer span.End()

	sales, err := uc.source.ListSales(ctx)
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("❌ [SUMMARY] Failed to load sales", zap.Error(err))
		return nil, err
	}

	days := AggregateByDay(sales, window, uc.location)
	summary := &SalesSummary{
		Days:         days,
		TotalValue:   TotalValue(AggregateByDay(sales, len(sales), uc.location)),
		AverageDaily: AverageDaily(days),
		Window:       window,
		Timezone:     uc.location.String(),
	}

	uc.logger.Debug("📊 [SUMMARY] Built",
		zap.Int("sales", len(sales)),
		zap.Int("days", len(days)),
		zap.String("totalValue", summary.TotalValue.String()),
	)
	return summary, nil
}

// Metrics calcula os cartões do dashboard buscando vendas e produtos em paralelo
func (uc *DashboardUseCase) Metrics(ctx context.Context) (*DashboardMetrics, error) {
	ctx, span := uc.tracer.Start(ctx, "DashboardUseCase.Metrics")
	defer span.End()

	var (
		sales    []Sale
		products []Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sales, err = uc.source.ListSales(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = uc.source.ListProducts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		uc.logger.Error("❌ [METRICS] Failed to load dashboard data", zap.Error(err))
		return nil, err
	}

	lowStock := 0
	for _, product := range products {
		if product.StockQuantity <= uc.lowStockThreshold {
			lowStock++
		}
	}

	return &DashboardMetrics{
		TotalProducts:     len(products),
		TotalSales:        TotalValue(AggregateByDay(sales, len(sales), uc.location)),
		TotalTransactions: len(sales),
		LowStockProducts:  lowStock,
	}, nil
}

func (uc *DashboardUseCase) Ping(ctx context.Context) error {
	return uc.source.Ping(ctx)
}
