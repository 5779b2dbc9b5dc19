package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/competitor"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/demand"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/events"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/pricing"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/repository"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/service"
	"github.com/Lixing-Zhang/dynamic-pricing/pkg/logger"
)

func newPricingService(t *testing.T, opts service.Options) *service.PricingService {
	t.Helper()
	engine, err := pricing.NewEngine(pricing.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return service.NewPricingService(
		engine,
		demand.NewFormula(),
		competitor.NewStatic(competitor.DefaultFixture()),
		events.NopPublisher{},
		logger.New("error"),
		opts,
	)
}

func newProductHandler(t *testing.T) *ProductHandler {
	t.Helper()
	svc := service.NewProductService(repository.NewInMemoryProductRepository(), newPricingService(t, service.Options{}))
	return NewProductHandler(svc, logger.New("error"))
}

func TestListProducts(t *testing.T) {
	handler := newProductHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	w := httptest.NewRecorder()

	handler.ListProducts(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w.Header().Get(BatchIDHeader) == "" {
		t.Error("expected batch id header")
	}

	var products []models.PricedProduct
	if err := json.NewDecoder(w.Body).Decode(&products); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := []string{"P001", "P002", "P003", "P004", "P005"}
	if len(products) != len(want) {
		t.Fatalf("expected %d products, got %d", len(want), len(products))
	}
	for i, p := range products {
		if p.ProductID != want[i] {
			t.Errorf("product %d = %s, want %s", i, p.ProductID, want[i])
		}
		if p.PricingDecision == nil {
			t.Fatalf("product %s has no decision", p.ProductID)
		}
		if p.AdjustedPrice < p.BasePrice*1.1-1e-6 || p.AdjustedPrice > p.BasePrice*1.5+1e-6 {
			t.Errorf("product %s adjusted price %v outside band", p.ProductID, p.AdjustedPrice)
		}
		if p.CompetitorPrice == nil {
			t.Errorf("product %s should carry the fixture competitor price", p.ProductID)
		}
	}
}

func TestGetProduct(t *testing.T) {
	handler := newProductHandler(t)

	r := chi.NewRouter()
	r.Get("/api/products/{productId}", handler.GetProduct)

	tests := []struct {
		name           string
		productID      string
		expectedStatus int
	}{
		{name: "existing product", productID: "P001", expectedStatus: http.StatusOK},
		{name: "unknown product", productID: "P999", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/products/"+tt.productID, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.expectedStatus != http.StatusOK {
				var resp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode error response: %v", err)
				}
				if resp.Error != "Product not found" {
					t.Errorf("error = %q, want Product not found", resp.Error)
				}
				return
			}

			var product models.PricedProduct
			if err := json.NewDecoder(w.Body).Decode(&product); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if product.ProductID != tt.productID {
				t.Errorf("expected product %s, got %s", tt.productID, product.ProductID)
			}
			if product.RuleApplied == "" {
				t.Error("expected rule_applied to be populated")
			}
		})
	}
}
