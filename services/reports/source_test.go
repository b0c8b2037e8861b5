package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSalesSource_ListSales(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/sales", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"saleId":"s2","productId":"p1","productName":"Mug","unitPrice":12.5,"quantity":2,"customerName":"Bob","totalAmount":25,"timestamp":"2024-03-02T10:00:00Z"},
			{"saleId":"s1","productId":"p1","productName":"Mug","unitPrice":12.5,"quantity":1,"customerName":"Alice","totalAmount":12.5,"timestamp":"2024-03-01T09:00:00Z"}
		]`))
	}))
	defer server.Close()
	source := NewHTTPSalesSource(server.URL, time.Second, 0)

	// Act
	sales, err := source.ListSales(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "s2", sales[0].ID)
	assert.Equal(t, "25", sales[0].TotalAmount.String())
	assert.Equal(t, "12.5", sales[1].UnitPrice.String())
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), sales[1].Timestamp)
}

func TestHTTPSalesSource_ListProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"productId":"p1","name":"Mug","price":12.5,"stockQuantity":3,"rating":4.5,"version":2}]`))
	}))
	defer server.Close()

	products, err := NewHTTPSalesSource(server.URL, time.Second, 0).ListProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, 3, products[0].StockQuantity)
}

func TestHTTPSalesSource_RetriesServerErrors(t *testing.T) {
	// Arrange
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()
	source := NewHTTPSalesSource(server.URL, time.Second, 2)

	// Act
	sales, err := source.ListSales(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Empty(t, sales)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPSalesSource_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	source := NewHTTPSalesSource(server.URL, time.Second, 0)

	_, salesErr := source.ListSales(context.Background())
	_, productsErr := source.ListProducts(context.Background())
	pingErr := source.Ping(context.Background())

	assert.ErrorContains(t, salesErr, "returned 404")
	assert.ErrorContains(t, productsErr, "returned 404")
	assert.ErrorContains(t, pingErr, "unhealthy")
}
