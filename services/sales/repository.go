package main

import (
	"context"
)

// SalesRepository define as operações de persistência usadas pelo processador de vendas
type SalesRepository interface {
	// GetProduct busca o produto; ErrProductNotFound se não existir
	GetProduct(ctx context.Context, productID string) (*Product, error)

	// CommitSale baixa o estoque e grava a venda numa única operação atômica.
	// Retorna ErrConflict se a versão do produto mudou desde a leitura ou se o estoque não cobre a quantidade.
	CommitSale(ctx context.Context, commit StockCommit, sale *Sale) error

	// ListSales retorna todas as vendas, da mais recente para a mais antiga
	ListSales(ctx context.Context) ([]*Sale, error)

	// GetSale busca uma venda pelo ID
	GetSale(ctx context.Context, saleID string) (*Sale, error)
}

// CatalogRepository define as operações do catálogo de produtos
type CatalogRepository interface {
	ListProducts(ctx context.Context, search string) ([]*Product, error)
	GetProduct(ctx context.Context, productID string) (*Product, error)
	CreateProduct(ctx context.Context, product *Product) error
	// UpdateProduct aplica o changeset e incrementa a versão, invalidando leituras em andamento
	UpdateProduct(ctx context.Context, productID string, changes ProductChangeSet) (*Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

// Repository agrega catálogo e livro de vendas sobre o mesmo armazenamento
type Repository interface {
	SalesRepository
	CatalogRepository
	Ping(ctx context.Context) error
	Close()
}
