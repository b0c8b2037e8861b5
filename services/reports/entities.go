package main

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Sale é a visão de leitura de uma venda confirmada
type Sale struct {
	ID           string          `json:"saleId"`
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Quantity     int             `json:"quantity"`
	CustomerName string          `json:"customerName"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Product é a visão de leitura do catálogo usada pelos indicadores
type Product struct {
	ID            string          `json:"productId"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
}

// DailySummary agrega as vendas de um dia do calendário
type DailySummary struct {
	Date             string          `json:"date"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	TransactionCount int             `json:"transactionCount"`
}

// SalesSummary é a resposta do gráfico de vendas do dashboard
type SalesSummary struct {
	Days         []DailySummary  `json:"days"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	AverageDaily decimal.Decimal `json:"averageDaily"`
	Window       int             `json:"window"`
	Timezone     string          `json:"timezone"`
}

// DashboardMetrics são os cartões de indicadores do dashboard
type DashboardMetrics struct {
	TotalProducts     int             `json:"totalProducts"`
	TotalSales        decimal.Decimal `json:"totalSales"`
	TotalTransactions int             `json:"totalTransactions"`
	LowStockProducts  int             `json:"lowStockProducts"`
}
