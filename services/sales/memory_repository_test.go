package main

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_CommitSale(t *testing.T) {
	ctx := context.Background()

	t.Run("applies decrement and records sale", func(t *testing.T) {
		// Arrange
		repository := NewMemoryRepository()
		product := seedProduct(t, repository, "P1", "10", 3)
		sale := NewSale(product, 2, "Alice", time.Now())

		// Act
		err := repository.CommitSale(ctx, StockCommit{ProductID: product.ID, Quantity: 2, ExpectedVersion: 1}, sale)

		// Assert
		require.NoError(t, err)
		stored, _ := repository.GetProduct(ctx, product.ID)
		assert.Equal(t, 1, stored.StockQuantity)
		assert.Equal(t, 2, stored.Version)
		recorded, err := repository.GetSale(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, sale.ID, recorded.ID)
	})

	t.Run("stale version conflicts without partial writes", func(t *testing.T) {
		// Arrange
		repository := NewMemoryRepository()
		product := seedProduct(t, repository, "P1", "10", 3)
		sale := NewSale(product, 1, "Alice", time.Now())

		// Act
		err := repository.CommitSale(ctx, StockCommit{ProductID: product.ID, Quantity: 1, ExpectedVersion: 9}, sale)

		// Assert
		assert.ErrorIs(t, err, ErrConflict)
		stored, _ := repository.GetProduct(ctx, product.ID)
		assert.Equal(t, 3, stored.StockQuantity)
		assert.Equal(t, 1, stored.Version)
		_, err = repository.GetSale(ctx, sale.ID)
		assert.ErrorIs(t, err, ErrSaleNotFound)
	})

	t.Run("stock guard conflicts even with matching version", func(t *testing.T) {
		// Arrange
		repository := NewMemoryRepository()
		product := seedProduct(t, repository, "P1", "10", 1)
		sale := NewSale(product, 2, "Alice", time.Now())

		// Act
		err := repository.CommitSale(ctx, StockCommit{ProductID: product.ID, Quantity: 2, ExpectedVersion: 1}, sale)

		// Assert
		assert.ErrorIs(t, err, ErrConflict)
		sales, _ := repository.ListSales(ctx)
		assert.Empty(t, sales)
	})

	t.Run("deleted product conflicts", func(t *testing.T) {
		// Arrange
		repository := NewMemoryRepository()
		product := seedProduct(t, repository, "P1", "10", 1)
		require.NoError(t, repository.DeleteProduct(ctx, product.ID))

		// Act
		err := repository.CommitSale(ctx, StockCommit{ProductID: product.ID, Quantity: 1, ExpectedVersion: 1}, NewSale(product, 1, "A", time.Now()))

		// Assert
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("timestamp never goes before the previous sale", func(t *testing.T) {
		// Arrange
		repository := NewMemoryRepository()
		product := seedProduct(t, repository, "P1", "10", 5)
		noon := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		first := NewSale(product, 1, "Alice", noon)
		second := NewSale(product, 1, "Bob", noon.Add(-time.Minute))

		// Act
		require.NoError(t, repository.CommitSale(ctx, StockCommit{ProductID: product.ID, Quantity: 1, ExpectedVersion: 1}, first))
		require.NoError(t, repository.CommitSale(ctx, StockCommit{ProductID: product.ID, Quantity: 1, ExpectedVersion: 2}, second))

		// Assert
		assert.Equal(t, noon, second.Timestamp)
		recorded, err := repository.GetSale(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, noon, recorded.Timestamp)
	})

	t.Run("duplicate sale id leaves stock untouched", func(t *testing.T) {
		// Arrange
		repository := NewMemoryRepository()
		product := seedProduct(t, repository, "P1", "10", 5)
		sale := NewSale(product, 1, "Alice", time.Now())
		require.NoError(t, repository.CommitSale(ctx, StockCommit{ProductID: product.ID, Quantity: 1, ExpectedVersion: 1}, sale))
		duplicate := NewSale(product, 2, "Bob", time.Now())
		duplicate.ID = sale.ID

		// Act
		err := repository.CommitSale(ctx, StockCommit{ProductID: product.ID, Quantity: 2, ExpectedVersion: 2}, duplicate)

		// Assert
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrConflict)
		stored, _ := repository.GetProduct(ctx, product.ID)
		assert.Equal(t, 4, stored.StockQuantity)
		assert.Equal(t, 2, stored.Version)
		sales, _ := repository.ListSales(ctx)
		assert.Len(t, sales, 1)
	})
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repository := NewMemoryRepository()
	rating := 4.0
	product := NewProduct("Mug", decimal.NewFromInt(12), 5, &rating)
	require.NoError(t, repository.CreateProduct(ctx, product))

	// Act
	first, _ := repository.GetProduct(ctx, product.ID)
	first.StockQuantity = 999
	*first.Rating = 1
	product.StockQuantity = 777
	second, _ := repository.GetProduct(ctx, product.ID)

	// Assert
	assert.Equal(t, 5, second.StockQuantity)
	assert.Equal(t, 4.0, *second.Rating)
}

func TestMemoryRepository_UpdateProductBumpsVersion(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repository := NewMemoryRepository()
	product := seedProduct(t, repository, "Mug", "12", 5)
	stock := 50

	// Act
	updated, err := repository.UpdateProduct(ctx, product.ID, ProductChangeSet{StockQuantity: &stock})
	_, missingErr := repository.UpdateProduct(ctx, "missing", ProductChangeSet{StockQuantity: &stock})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 50, updated.StockQuantity)
	assert.Equal(t, 2, updated.Version)
	assert.ErrorIs(t, missingErr, ErrProductNotFound)
}

func TestMemoryRepository_ListProducts(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repository := NewMemoryRepository()
	seedProduct(t, repository, "Paper Cups", "6.5", 10)
	seedProduct(t, repository, "Ceramic Mug", "12", 3)
	seedProduct(t, repository, "Espresso Cups", "9", 4)

	// Act
	all, err := repository.ListProducts(ctx, "")
	require.NoError(t, err)
	cups, err := repository.ListProducts(ctx, "CUPS")
	require.NoError(t, err)

	// Assert
	require.Len(t, all, 3)
	assert.Equal(t, "Ceramic Mug", all[0].Name)
	require.Len(t, cups, 2)
	assert.Equal(t, "Espresso Cups", cups[0].Name)
	assert.Equal(t, "Paper Cups", cups[1].Name)
}

func TestMemoryRepository_ListSalesNewestFirst(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repository := NewMemoryRepository()
	product := seedProduct(t, repository, "P1", "1", 10)
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		current, _ := repository.GetProduct(ctx, product.ID)
		sale := NewSale(current, 1, "Alice", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repository.CommitSale(ctx, StockCommit{ProductID: product.ID, Quantity: 1, ExpectedVersion: current.Version}, sale))
	}

	// Act
	sales, err := repository.ListSales(ctx)

	// Assert
	require.NoError(t, err)
	require.Len(t, sales, 3)
	assert.Equal(t, base.Add(2*time.Hour), sales[0].Timestamp)
	assert.Equal(t, base, sales[2].Timestamp)
}
