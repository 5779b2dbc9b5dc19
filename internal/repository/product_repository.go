package repository

import (
	"context"
	"errors"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for demo catalog access
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.ProductSnapshot, error)
	GetByID(ctx context.Context, id string) (*models.ProductSnapshot, error)
}

// InMemoryProductRepository implements ProductRepository with in-memory storage
type InMemoryProductRepository struct {
	products []models.ProductSnapshot
	index    map[string]int
}

// DemoProducts is the seed catalog served by the demo endpoints.
func DemoProducts() []models.ProductSnapshot {
	return []models.ProductSnapshot{
		{ProductID: "P001", BasePrice: 100.0, Inventory: 15, SalesLast30Days: 120, AverageRating: 4.5, Category: "Electronics"},
		{ProductID: "P002", BasePrice: 200.0, Inventory: 50, SalesLast30Days: 40, AverageRating: 4.0, Category: "Apparel"},
		{ProductID: "P003", BasePrice: 50.0, Inventory: 5, SalesLast30Days: 10, AverageRating: 3.8, Category: "Home"},
		{ProductID: "P004", BasePrice: 75.0, Inventory: 25, SalesLast30Days: 80, AverageRating: 4.2, Category: "Electronics"},
		{ProductID: "P005", BasePrice: 150.0, Inventory: 8, SalesLast30Days: 60, AverageRating: 4.7, Category: "Apparel"},
	}
}

// NewInMemoryProductRepository creates a repository seeded with DemoProducts
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return NewInMemoryProductRepositoryWith(DemoProducts())
}

// NewInMemoryProductRepositoryWith creates a repository over the given snapshots
func NewInMemoryProductRepositoryWith(products []models.ProductSnapshot) *InMemoryProductRepository {
	r := &InMemoryProductRepository{
		products: make([]models.ProductSnapshot, len(products)),
		index:    make(map[string]int, len(products)),
	}
	copy(r.products, products)
	for i, p := range r.products {
		r.index[p.ProductID] = i
	}
	return r
}

// GetAll returns all products in catalog order
func (r *InMemoryProductRepository) GetAll(ctx context.Context) ([]models.ProductSnapshot, error) {
	products := make([]models.ProductSnapshot, len(r.products))
	copy(products, r.products)
	return products, nil
}

// GetByID returns a product by its ID
func (r *InMemoryProductRepository) GetByID(ctx context.Context, id string) (*models.ProductSnapshot, error) {
	i, exists := r.index[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	product := r.products[i]
	return &product, nil
}
