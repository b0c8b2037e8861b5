package main

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CatalogUseCase administra o cadastro de produtos
type CatalogUseCase struct {
	repository CatalogRepository
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewCatalogUseCase cria uma nova instância de CatalogUseCase
func NewCatalogUseCase(repository CatalogRepository, logger *zap.Logger, tracer trace.Tracer) *CatalogUseCase {
	return &CatalogUseCase{
		repository: repository,
		logger:     logger,
		tracer:     tracer,
	}
}

func (uc *CatalogUseCase) ListProducts(ctx context.Context, search string) ([]*Product, error) {
	ctx, span := uc.tracer.Start(ctx, "CatalogUseCase.ListProducts", trace.WithAttributes(attribute.String("search", search)))
	defer span.End()

	return uc.repository.ListProducts(ctx, search)
}

func (uc *CatalogUseCase) GetProduct(ctx context.Context, productID string) (*Product, error) {
	ctx, span := uc.tracer.Start(ctx, "CatalogUseCase.GetProduct", trace.WithAttributes(attribute.String("product.id", productID)))
	defer span.End()

	return uc.repository.GetProduct(ctx, productID)
}

// CreateProduct valida os campos e cadastra o produto com versão 1
func (uc *CatalogUseCase) CreateProduct(ctx context.Context, req ProductRequest) (*Product, error) {
	ctx, span := uc.tracer.Start(ctx, "CatalogUseCase.CreateProduct")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	product := NewProduct(req.Name, req.Price, req.StockQuantity, req.Rating)
	if err := uc.repository.CreateProduct(ctx, product); err != nil {
		uc.logger.Error("❌ [PRODUCT] Create failed", zap.Error(err))
		return nil, err
	}

	uc.logger.Info("✅ [PRODUCT] Created", zap.String("productId", product.ID), zap.String("name", product.Name))
	return product, nil
}

// UpdateProduct aplica uma atualização parcial; a nova versão faz vendas em andamento relerem o produto
func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, productID string, changes ProductChangeSet) (*Product, error) {
	ctx, span := uc.tracer.Start(ctx, "CatalogUseCase.UpdateProduct", trace.WithAttributes(attribute.String("product.id", productID)))
	defer span.End()

	if err := changes.Validate(); err != nil {
		return nil, err
	}

	product, err := uc.repository.UpdateProduct(ctx, productID, changes)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("✅ [PRODUCT] Updated", zap.String("productId", product.ID), zap.Int("version", product.Version))
	return product, nil
}

func (uc *CatalogUseCase) DeleteProduct(ctx context.Context, productID string) error {
	ctx, span := uc.tracer.Start(ctx, "CatalogUseCase.DeleteProduct", trace.WithAttributes(attribute.String("product.id", productID)))
	defer span.End()

	if err := uc.repository.DeleteProduct(ctx, productID); err != nil {
		return err
	}

	uc.logger.Info("🗑️ [PRODUCT] Deleted", zap.String("productId", productID))
	return nil
}
