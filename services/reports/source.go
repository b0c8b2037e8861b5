package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-resty/resty/v2"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// SalesSource fornece os dados confirmados que alimentam o dashboard
type SalesSource interface {
	ListSales(ctx context.Context) ([]Sale, error)
	ListProducts(ctx context.Context) ([]Product, error)
	Ping(ctx context.Context) error
	Close() error
}

// HTTPSalesSource lê vendas e produtos pela API do serviço de vendas
type HTTPSalesSource struct {
	client *resty.Client
}

// NewHTTPSalesSource cria uma nova instância de HTTPSalesSource
func NewHTTPSalesSource(baseURL string, timeout time.Duration, retries int) *HTTPSalesSource {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(retries).
		SetRetryWaitTime(100 * time.Millisecond).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})

	return &HTTPSalesSource{client: client}
}

func (s *HTTPSalesSource) request(ctx context.Context) *resty.Request {
	req := s.client.R().SetContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req
}

func (s *HTTPSalesSource) ListSales(ctx context.Context) ([]Sale, error) {
	var sales []Sale
	resp, err := s.request(ctx).SetResult(&sales).Get("/api/sales")
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch sales")
	}
	if resp.IsError() {
		return nil, errors.Errorf("sales service returned %d for /api/sales", resp.StatusCode())
	}
	return sales, nil
}

func (s *HTTPSalesSource) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	resp, err := s.request(ctx).SetResult(&products).Get("/api/products")
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch products")
	}
	if resp.IsError() {
		return nil, errors.Errorf("sales service returned %d for /api/products", resp.StatusCode())
	}
	return products, nil
}

func (s *HTTPSalesSource) Ping(ctx context.Context) error {
	resp, err := s.request(ctx).Get("/health")
	if err != nil {
		return errors.Wrap(err, "sales service unreachable")
	}
	if resp.IsError() {
		return errors.Errorf("sales service unhealthy: %d", resp.StatusCode())
	}
	return nil
}

func (s *HTTPSalesSource) Close() error { return nil }

// PostgresSalesSource lê direto das tabelas do serviço de vendas (somente leitura)
type PostgresSalesSource struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

// OpenPostgresSalesSource abre a conexão via lib/pq
func OpenPostgresSalesSource(dsn string, maxOpenConns int) (*PostgresSalesSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	return NewPostgresSalesSource(db), nil
}

// NewPostgresSalesSource cria uma nova instância de PostgresSalesSource
func NewPostgresSalesSource(db *sql.DB) *PostgresSalesSource {
	return &PostgresSalesSource{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(db),
	}
}

func (s *PostgresSalesSource) ListSales(ctx context.Context) ([]Sale, error) {
	rows, err := s.builder.
		Select("sale_id", "product_id", "product_name", "unit_price", "quantity", "customer_name", "total_amount", "created_at").
		From("sales").
		OrderBy("created_at DESC", "sale_id").
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sales")
	}
	defer rows.Close()

	sales := make([]Sale, 0)
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(
			&sale.ID,
			&sale.ProductID,
			&sale.ProductName,
			&sale.UnitPrice,
			&sale.Quantity,
			&sale.CustomerName,
			&sale.TotalAmount,
			&sale.Timestamp,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan sale")
		}
		sales = append(sales, sale)
	}
	return sales, errors.Wrap(rows.Err(), "failed to iterate sales")
}

func (s *PostgresSalesSource) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.builder.
		Select("product_id", "name", "price", "stock_quantity").
		From("products").
		OrderBy("name ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query products")
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var product Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.StockQuantity); err != nil {
			return nil, errors.Wrap(err, "failed to scan product")
		}
		products = append(products, product)
	}
	return products, errors.Wrap(rows.Err(), "failed to iterate products")
}

func (s *PostgresSalesSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresSalesSource) Close() error {
	return s.db.Close()
}
