package main

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// MemoryRepository implementa Repository em memória, com a mesma semântica de compare-and-swap do PostgreSQL.
// Usado em desenvolvimento (STORAGE_DRIVER=memory) e nos testes.
type MemoryRepository struct {
	mu         sync.RWMutex
	products   map[string]Product
	sales      map[string]Sale
	// último horário de venda gravado por produto
	lastSaleAt map[string]time.Time
	now        func() time.Time
}

// NewMemoryRepository cria uma nova instância de MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products:   make(map[string]Product),
		sales:      make(map[string]Sale),
		lastSaleAt: make(map[string]time.Time),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Ping(ctx context.Context) error { return nil }

func (r *MemoryRepository) Close() {}

func (r *MemoryRepository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	return cloneProduct(product), nil
}

// CommitSale aplica a baixa e grava a venda sob o mesmo lock de escrita
func (r *MemoryRepository) CommitSale(ctx context.Context, commit StockCommit, sale *Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[commit.ProductID]
	if !ok {
		// Removido entre a leitura e o commit
		return ErrConflict
	}
	if product.Version != commit.ExpectedVersion || product.StockQuantity < commit.Quantity {
		return ErrConflict
	}

	if _, exists := r.sales[sale.ID]; exists {
		return errors.Errorf("sale %s already exists", sale.ID)
	}

	if last, ok := r.lastSaleAt[product.ID]; ok && sale.Timestamp.Before(last) {
		sale.Timestamp = last
	}
	r.lastSaleAt[product.ID] = sale.Timestamp

	product.StockQuantity -= commit.Quantity
	product.Version++
	product.UpdatedAt = r.now()
	r.products[product.ID] = product
	r.sales[sale.ID] = *sale
	return nil
}

func (r *MemoryRepository) ListSales(ctx context.Context) ([]*Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sales := make([]*Sale, 0, len(r.sales))
	for _, sale := range r.sales {
		s := sale
		sales = append(sales, &s)
	}
	sort.Slice(sales, func(i, j int) bool {
		if sales[i].Timestamp.Equal(sales[j].Timestamp) {
			return sales[i].ID < sales[j].ID
		}
		return sales[i].Timestamp.After(sales[j].Timestamp)
	})
	return sales, nil
}

func (r *MemoryRepository) GetSale(ctx context.Context, saleID string) (*Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sale, ok := r.sales[saleID]
	if !ok {
		return nil, ErrSaleNotFound
	}
	return &sale, nil
}

func (r *MemoryRepository) ListProducts(ctx context.Context, search string) ([]*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(search))
	products := make([]*Product, 0, len(r.products))
	for _, product := range r.products {
		if term != "" && !strings.Contains(strings.ToLower(product.Name), term) {
			continue
		}
		products = append(products, cloneProduct(product))
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name == products[j].Name {
			return products[i].ID < products[j].ID
		}
		return products[i].Name < products[j].Name
	})
	return products, nil
}

func (r *MemoryRepository) CreateProduct(ctx context.Context, product *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[product.ID] = *cloneProduct(*product)
	return nil
}

func (r *MemoryRepository) UpdateProduct(ctx context.Context, productID string, changes ProductChangeSet) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}

	updated := changes.Apply(product)
	updated.Version++
	updated.UpdatedAt = r.now()
	r.products[productID] = updated
	return cloneProduct(updated), nil
}

func (r *MemoryRepository) DeleteProduct(ctx context.Context, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[productID]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, productID)
	return nil
}

func cloneProduct(p Product) *Product {
	if p.Rating != nil {
		rating := *p.Rating
		p.Rating = &rating
	}
	return &p
}
