package main

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// MockSalesSource simula a fonte de vendas
type MockSalesSource struct {
	mock.Mock
}

func (m *MockSalesSource) ListSales(ctx context.Context) ([]Sale, error) {
	args := m.Called(ctx)
	sales, _ := args.Get(0).([]Sale)
	return sales, args.Error(1)
}

func (m *MockSalesSource) ListProducts(ctx context.Context) ([]Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]Product)
	return products, args.Error(1)
}

func (m *MockSalesSource) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSalesSource) Close() error { return nil }

func newTestDashboard(source SalesSource) *DashboardUseCase {
	return NewDashboardUseCase(source, zap.NewNop(), tracenoop.NewTracerProvider().Tracer("test"), time.UTC, 5)
}

func tenDaysOfSales() []Sale {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	sales := make([]Sale, 0, 10)
	for i := 0; i < 10; i++ {
		sales = append(sales, saleAt(start.AddDate(0, 0, i), "10"))
	}
	return sales
}

func TestDashboardUseCase_SalesSummary(t *testing.T) {
	// Arrange
	source := new(MockSalesSource)
	source.On("ListSales", mock.Anything).Return(tenDaysOfSales(), nil)
	uc := newTestDashboard(source)

	// Act
	summary, err := uc.SalesSummary(context.Background(), 7)

	// Assert
	require.NoError(t, err)
	require.Len(t, summary.Days, 7)
	assert.Equal(t, "2024-03-04", summary.Days[0].Date)
	assert.Equal(t, "2024-03-10", summary.Days[6].Date)
	assert.True(t, decimal.NewFromInt(100).Equal(summary.TotalValue), "total covers every sale, not only the window")
	assert.True(t, decimal.NewFromInt(10).Equal(summary.AverageDaily))
	assert.Equal(t, 7, summary.Window)
	assert.Equal(t, "UTC", summary.Timezone)
}

func TestDashboardUseCase_SalesSummaryEmpty(t *testing.T) {
	source := new(MockSalesSource)
	source.On("ListSales", mock.Anything).Return([]Sale{}, nil)

	summary, err := newTestDashboard(source).SalesSummary(context.Background(), 7)

	require.NoError(t, err)
	assert.Empty(t, summary.Days)
	assert.True(t, summary.TotalValue.IsZero())
	assert.True(t, summary.AverageDaily.IsZero())
}

func TestDashboardUseCase_Metrics(t *testing.T) {
	// Arrange
	source := new(MockSalesSource)
	source.On("ListSales", mock.Anything).Return(tenDaysOfSales()[:3], nil)
	source.On("ListProducts", mock.Anything).Return([]Product{
		{ID: "a", StockQuantity: 0},
		{ID: "b", StockQuantity: 5},
		{ID: "c", StockQuantity: 6},
		{ID: "d", StockQuantity: 120},
	}, nil)
	uc := newTestDashboard(source)

	// Act
	metrics, err := uc.Metrics(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 4, metrics.TotalProducts)
	assert.Equal(t, 3, metrics.TotalTransactions)
	assert.True(t, decimal.NewFromInt(30).Equal(metrics.TotalSales))
	assert.Equal(t, 2, metrics.LowStockProducts)
	source.AssertExpectations(t)
}

func TestDashboardUseCase_MetricsSourceFailure(t *testing.T) {
	source := new(MockSalesSource)
	source.On("ListSales", mock.Anything).Return([]Sale{}, nil)
	source.On("ListProducts", mock.Anything).Return(nil, errors.New("sales service returned 503"))

	_, err := newTestDashboard(source).Metrics(context.Background())

	assert.EqualError(t, err, "sales service returned 503")
}
