package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	// Arrange
	price := decimal.RequireFromString("10.50")

	// Act
	product := NewProduct("  Espresso  ", price, 3, nil)

	// Assert
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "Espresso", product.Name)
	assert.True(t, price.Equal(product.Price))
	assert.Equal(t, 3, product.StockQuantity)
	assert.Nil(t, product.Rating)
	assert.Equal(t, 1, product.Version)
	assert.False(t, product.CreatedAt.IsZero())
	assert.Equal(t, product.CreatedAt, product.UpdatedAt)
}

func TestNewSale(t *testing.T) {
	// Arrange
	product := NewProduct("P1", decimal.RequireFromString("10"), 3, nil)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// Act
	sale := NewSale(product, 3, "Alice", now)

	// Assert
	assert.NotEmpty(t, sale.ID)
	assert.Equal(t, product.ID, sale.ProductID)
	assert.Equal(t, "P1", sale.ProductName)
	assert.True(t, decimal.NewFromInt(10).Equal(sale.UnitPrice))
	assert.Equal(t, 3, sale.Quantity)
	assert.Equal(t, "Alice", sale.CustomerName)
	assert.True(t, decimal.NewFromInt(30).Equal(sale.TotalAmount))
	assert.Equal(t, now, sale.Timestamp)
}

func TestNewSale_KeepsDecimalPrecision(t *testing.T) {
	// Arrange
	product := NewProduct("Cup", decimal.RequireFromString("0.10"), 10, nil)

	// Act
	sale := NewSale(product, 3, "Bob", time.Now())

	// Assert
	assert.Equal(t, "0.3", sale.TotalAmount.String())
}

func TestSale_TransactionID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "uses the last eight characters", id: "0f8fad5b-d9cb-469f-a165-70867728950e", want: "TXN-7728950E"},
		{name: "short ids are kept whole", id: "abc", want: "TXN-ABC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale := &Sale{ID: tt.id}
			assert.Equal(t, tt.want, sale.TransactionID())
		})
	}
}

func TestReceipt_JSON(t *testing.T) {
	// Arrange
	product := NewProduct("P1", decimal.RequireFromString("10"), 3, nil)
	sale := NewSale(product, 2, "Alice", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	// Act
	body, err := json.Marshal(NewReceipt(sale))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))

	// Assert
	assert.Equal(t, sale.ID, decoded["saleId"])
	assert.Equal(t, sale.TransactionID(), decoded["transactionId"])
	assert.Equal(t, float64(20), decoded["totalAmount"])
	assert.Equal(t, float64(10), decoded["unitPrice"])
	assert.Equal(t, "2024-05-01T12:00:00Z", decoded["timestamp"])
}

func TestCreateSaleRequest_Validate(t *testing.T) {
	tests := []struct {
		name  string
		req   CreateSaleRequest
		field string
	}{
		{name: "missing product", req: CreateSaleRequest{Quantity: 1, CustomerName: "Alice"}, field: "productId"},
		{name: "zero quantity", req: CreateSaleRequest{ProductID: "p1", Quantity: 0, CustomerName: "Alice"}, field: "quantity"},
		{name: "negative quantity", req: CreateSaleRequest{ProductID: "p1", Quantity: -2, CustomerName: "Alice"}, field: "quantity"},
		{name: "blank customer", req: CreateSaleRequest{ProductID: "p1", Quantity: 1, CustomerName: "   "}, field: "customerName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}

	assert.NoError(t, CreateSaleRequest{ProductID: "p1", Quantity: 1, CustomerName: "Alice"}.Validate())
}

func TestProductRequest_Validate(t *testing.T) {
	badRating := 5.5

	tests := []struct {
		name  string
		req   ProductRequest
		field string
	}{
		{name: "blank name", req: ProductRequest{Name: " ", Price: decimal.NewFromInt(1)}, field: "name"},
		{name: "negative price", req: ProductRequest{Name: "Mug", Price: decimal.NewFromInt(-1)}, field: "price"},
		{name: "negative stock", req: ProductRequest{Name: "Mug", Price: decimal.NewFromInt(1), StockQuantity: -1}, field: "stockQuantity"},
		{name: "rating out of range", req: ProductRequest{Name: "Mug", Price: decimal.NewFromInt(1), Rating: &badRating}, field: "rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestProductChangeSet(t *testing.T) {
	t.Run("empty changeset is rejected", func(t *testing.T) {
		err := ProductChangeSet{}.Validate()

		assert.True(t, errors.Is(err, ErrValidation))
		assert.True(t, strings.Contains(err.Error(), "no fields to update"))
	})

	t.Run("apply only touches present fields", func(t *testing.T) {
		// Arrange
		original := *NewProduct("Mug", decimal.NewFromInt(12), 15, nil)
		name := "  Big Mug "
		stock := 7
		changes := ProductChangeSet{Name: &name, StockQuantity: &stock}

		// Act
		updated := changes.Apply(original)

		// Assert
		require.NoError(t, changes.Validate())
		assert.Equal(t, "Big Mug", updated.Name)
		assert.Equal(t, 7, updated.StockQuantity)
		assert.True(t, original.Price.Equal(updated.Price))
		assert.Equal(t, "Mug", original.Name)
	})
}

func TestInsufficientStockError(t *testing.T) {
	err := errors.Wrap(&InsufficientStockError{ProductID: "p1", Requested: 3, Available: 1}, "sale")

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 1, stockErr.Available)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrConflict))
}
