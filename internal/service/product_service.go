package service

import (
	"context"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/repository"
)

// BatchPricer prices a batch of product inputs
type BatchPricer interface {
	Process(ctx context.Context, inputs []models.ProductInput) (*BatchResult, error)
}

// ProductService serves the demo catalog and prices it on demand
type ProductService struct {
	repo   repository.ProductRepository
	pricer BatchPricer
}

// NewProductService creates a new product service
func NewProductService(repo repository.ProductRepository, pricer BatchPricer) *ProductService {
	return &ProductService{
		repo:   repo,
		pricer: pricer,
	}
}

// ListProducts returns all catalog products
func (s *ProductService) ListProducts(ctx context.Context) ([]models.ProductSnapshot, error) {
	return s.repo.GetAll(ctx)
}

// GetProduct returns a catalog product by ID
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.ProductSnapshot, error) {
	return s.repo.GetByID(ctx, id)
}

// PriceCatalog prices every catalog product as one batch
func (s *ProductService) PriceCatalog(ctx context.Context) (*BatchResult, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	inputs := make([]models.ProductInput, len(products))
	for i, p := range products {
		inputs[i] = p.Input()
	}
	return s.pricer.Process(ctx, inputs)
}

// PriceProduct prices a single catalog product
func (s *ProductService) PriceProduct(ctx context.Context, id string) (*models.PricedProduct, string, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	result, err := s.pricer.Process(ctx, []models.ProductInput{product.Input()})
	if err != nil {
		return nil, "", err
	}
	return &result.Items[0], result.BatchID, nil
}
