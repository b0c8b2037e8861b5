package main

import (
	"context"
	_ "embed"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schemaSQL string

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var productColumns = []string{
	"product_id", "name", "price::text", "stock_quantity", "rating", "version", "created_at", "updated_at",
}

var saleColumns = []string{
	"sale_id", "product_id", "product_name", "unit_price::text", "quantity", "customer_name", "total_amount::text", "created_at",
}

// PostgresRepository implementa Repository usando PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository cria uma nova instância de PostgresRepository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate aplica o schema embutido. Idempotente.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schemaSQL)
	return errors.Wrap(err, "failed to apply schema")
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// withTx executa fn dentro de uma transação; qualquer erro desfaz tudo
func (r *PostgresRepository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(context.Background())

	if err := fn(tx); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(ctx), "failed to commit transaction")
}

// GetProduct busca um produto pelo ID
func (r *PostgresRepository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	query, args, err := psql.Select(productColumns...).
		From("products").
		Where(sq.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build product query")
	}

	product, err := scanProduct(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, errors.Wrapf(err, "failed to get product %s", productID)
	}
	return product, nil
}

// CommitSale baixa o estoque com compare-and-swap na versão e insere a venda na mesma transação.
// O horário da venda nunca fica antes da última venda já gravada para o produto.
func (r *PostgresRepository) CommitSale(ctx context.Context, commit StockCommit, sale *Sale) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		// 1. Baixa condicional: só aplica se ninguém mexeu no produto desde a leitura
		var soldAt time.Time
		err := tx.QueryRow(ctx, `
			UPDATE products
			SET stock_quantity = stock_quantity - $2,
			    version = version + 1,
			    last_sale_at = GREATEST($4, last_sale_at),
			    updated_at = NOW()
			WHERE product_id = $1
			  AND version = $3
			  AND stock_quantity >= $2
			RETURNING last_sale_at
		`, commit.ProductID, commit.Quantity, commit.ExpectedVersion, sale.Timestamp).Scan(&soldAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrConflict
			}
			return errors.Wrap(err, "failed to decrease stock")
		}

		// 2. Registra a venda
		_, err = tx.Exec(ctx, `
			INSERT INTO sales (sale_id, product_id, product_name, unit_price, quantity, customer_name, total_amount, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, sale.ID, sale.ProductID, sale.ProductName, sale.UnitPrice, sale.Quantity,
			sale.CustomerName, sale.TotalAmount, soldAt)
		if err != nil {
			return errors.Wrap(err, "failed to insert sale record")
		}

		sale.Timestamp = soldAt.UTC()
		return nil
	})
}

// ListSales retorna todas as vendas, mais recentes primeiro
func (r *PostgresRepository) ListSales(ctx context.Context) ([]*Sale, error) {
	query, args, err := psql.Select(saleColumns...).
		From("sales").
		OrderBy("created_at DESC", "sale_id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build sales query")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sales")
	}
	defer rows.Close()

	sales := make([]*Sale, 0)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, errors.Wrap(rows.Err(), "failed to iterate sales")
}

// GetSale busca uma venda pelo ID
func (r *PostgresRepository) GetSale(ctx context.Context, saleID string) (*Sale, error) {
	query, args, err := psql.Select(saleColumns...).
		From("sales").
		Where(sq.Eq{"sale_id": saleID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build sale query")
	}

	sale, err := scanSale(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return sale, nil
}

// ListProducts lista o catálogo ordenado por nome, filtrando por trecho do nome
func (r *PostgresRepository) ListProducts(ctx context.Context, search string) ([]*Product, error) {
	builder := psql.Select(productColumns...).
		From("products").
		OrderBy("name ASC", "product_id")
	if term := strings.TrimSpace(search); term != "" {
		builder = builder.Where(sq.Expr("name ILIKE ?", "%"+likeEscaper.Replace(term)+"%"))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build products query")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list products")
	}
	defer rows.Close()

	products := make([]*Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan product")
		}
		products = append(products, product)
	}
	return products, errors.Wrap(rows.Err(), "failed to iterate products")
}

// CreateProduct insere um novo produto
func (r *PostgresRepository) CreateProduct(ctx context.Context, product *Product) error {
	query, args, err := psql.Insert("products").
		SetMap(map[string]interface{}{
			"product_id":     product.ID,
			"name":           product.Name,
			"price":          product.Price,
			"stock_quantity": product.StockQuantity,
			"rating":         product.Rating,
			"version":        product.Version,
			"created_at":     product.CreatedAt,
			"updated_at":     product.UpdatedAt,
		}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build insert")
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return errors.Wrap(err, "failed to create product")
}

// UpdateProduct aplica o changeset e incrementa a versão do produto
func (r *PostgresRepository) UpdateProduct(ctx context.Context, productID string, changes ProductChangeSet) (*Product, error) {
	query, args, err := psql.Update("products").
		SetMap(changes.toMap()).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"product_id": productID}).
		Suffix("RETURNING " + strings.Join(productColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build update")
	}

	product, err := scanProduct(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, errors.Wrapf(err, "failed to update product %s", productID)
	}
	return product, nil
}

// DeleteProduct remove o produto; vendas antigas mantêm o snapshot
func (r *PostgresRepository) DeleteProduct(ctx context.Context, productID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, productID)
	if err != nil {
		return errors.Wrapf(err, "failed to delete product %s", productID)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (c ProductChangeSet) toMap() map[string]interface{} {
	m := make(map[string]interface{})
	if c.Name != nil {
		m["name"] = strings.TrimSpace(*c.Name)
	}
	if c.Price != nil {
		m["price"] = *c.Price
	}
	if c.StockQuantity != nil {
		m["stock_quantity"] = *c.StockQuantity
	}
	if c.Rating != nil {
		m["rating"] = *c.Rating
	}
	return m
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		product Product
		price   string
	)
	err := row.Scan(
		&product.ID,
		&product.Name,
		&price,
		&product.StockQuantity,
		&product.Rating,
		&product.Version,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse product price")
	}
	return &product, nil
}

func scanSale(row pgx.Row) (*Sale, error) {
	var (
		sale             Sale
		unitPrice, total string
	)
	err := row.Scan(
		&sale.ID,
		&sale.ProductID,
		&sale.ProductName,
		&unitPrice,
		&sale.Quantity,
		&sale.CustomerName,
		&total,
		&sale.Timestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan sale")
	}

	if sale.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return nil, errors.Wrap(err, "failed to parse unit price")
	}
	if sale.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, errors.Wrap(err, "failed to parse total amount")
	}
	return &sale, nil
}
