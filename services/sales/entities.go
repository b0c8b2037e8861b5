package main

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// O dashboard consome preços e totais como números JSON, não strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Product representa um produto do catálogo com o seu estoque atual
type Product struct {
	ID            string          `json:"productId" db:"product_id"`
	Name          string          `json:"name" db:"name"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stockQuantity" db:"stock_quantity"`
	Rating        *float64        `json:"rating,omitempty" db:"rating"`
	Version       int             `json:"version" db:"version"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// NewProduct cria uma nova instância de Product com versão inicial
func NewProduct(name string, price decimal.Decimal, stockQuantity int, rating *float64) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:            uuid.New().String(),
		Name:          strings.TrimSpace(name),
		Price:         price,
		StockQuantity: stockQuantity,
		Rating:        rating,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Sale representa uma venda registrada no livro de vendas. É imutável depois de criada.
type Sale struct {
	ID           string          `json:"saleId" db:"sale_id"`
	ProductID    string          `json:"productId" db:"product_id"`
	ProductName  string          `json:"productName" db:"product_name"`
	UnitPrice    decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Quantity     int             `json:"quantity" db:"quantity"`
	CustomerName string          `json:"customerName" db:"customer_name"`
	TotalAmount  decimal.Decimal `json:"totalAmount" db:"total_amount"`
	Timestamp    time.Time       `json:"timestamp" db:"created_at"`
}

// NewSale captura o snapshot do produto no momento da venda.
// totalAmount é calculado uma única vez e nunca recalculado a partir do catálogo.
func NewSale(product *Product, quantity int, customerName string, now time.Time) *Sale {
	return &Sale{
		ID:           uuid.New().String(),
		ProductID:    product.ID,
		ProductName:  product.Name,
		UnitPrice:    product.Price,
		Quantity:     quantity,
		CustomerName: customerName,
		TotalAmount:  product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		Timestamp:    now,
	}
}

// TransactionID é o identificador curto impresso no recibo
func (s *Sale) TransactionID() string {
	id := s.ID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "TXN-" + strings.ToUpper(id)
}

// Receipt é a resposta devolvida ao caixa após o commit da venda
type Receipt struct {
	*Sale
	TransactionID string `json:"transactionId"`
}

// NewReceipt cria o recibo de uma venda confirmada
func NewReceipt(sale *Sale) Receipt {
	return Receipt{Sale: sale, TransactionID: sale.TransactionID()}
}

// StockCommit descreve a baixa de estoque condicionada à versão lida do produto
type StockCommit struct {
	ProductID       string
	Quantity        int
	ExpectedVersion int
}

// CreateSaleRequest representa a requisição para registrar uma venda
type CreateSaleRequest struct {
	ProductID    string `json:"productId"`
	Quantity     int    `json:"quantity"`
	CustomerName string `json:"customerName"`
}

// Validate falha rápido antes de qualquer acesso ao estoque
func (r CreateSaleRequest) Validate() error {
	if strings.TrimSpace(r.ProductID) == "" {
		return &ValidationError{Field: "productId", Reason: "is required"}
	}
	if r.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}
	if strings.TrimSpace(r.CustomerName) == "" {
		return &ValidationError{Field: "customerName", Reason: "is required"}
	}
	return nil
}

// ProductRequest representa a requisição de criação de produto
type ProductRequest struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	Rating        *float64        `json:"rating,omitempty"`
}

// Validate aplica apenas validação de campos; o catálogo não tem outras invariantes
func (r ProductRequest) Validate() error {
	return validateProductFields(&r.Name, &r.Price, &r.StockQuantity, r.Rating)
}

// ProductChangeSet representa uma atualização parcial de produto; campos nil não mudam
type ProductChangeSet struct {
	Name          *string          `json:"name,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	StockQuantity *int             `json:"stockQuantity,omitempty"`
	Rating        *float64         `json:"rating,omitempty"`
}

// Validate valida somente os campos presentes
func (c ProductChangeSet) Validate() error {
	if c.IsEmpty() {
		return &ValidationError{Field: "body", Reason: "no fields to update"}
	}
	return validateProductFields(c.Name, c.Price, c.StockQuantity, c.Rating)
}

// IsEmpty indica que nenhum campo foi enviado
func (c ProductChangeSet) IsEmpty() bool {
	return c.Name == nil && c.Price == nil && c.StockQuantity == nil && c.Rating == nil
}

// Apply aplica as mudanças sobre uma cópia do produto
func (c ProductChangeSet) Apply(p Product) Product {
	if c.Name != nil {
		p.Name = strings.TrimSpace(*c.Name)
	}
	if c.Price != nil {
		p.Price = *c.Price
	}
	if c.StockQuantity != nil {
		p.StockQuantity = *c.StockQuantity
	}
	if c.Rating != nil {
		rating := *c.Rating
		p.Rating = &rating
	}
	return p
}

func validateProductFields(name *string, price *decimal.Decimal, stock *int, rating *float64) error {
	if name != nil && strings.TrimSpace(*name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if price != nil && price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if stock != nil && *stock < 0 {
		return &ValidationError{Field: "stockQuantity", Reason: "must not be negative"}
	}
	if rating != nil && (*rating < 0 || *rating > 5) {
		return &ValidationError{Field: "rating", Reason: "must be between 0 and 5"}
	}
	return nil
}
