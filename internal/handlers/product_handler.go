package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/service"
)

type catalogPricer interface {
	PriceCatalog(ctx context.Context) (*service.BatchResult, error)
	PriceProduct(ctx context.Context, id string) (*models.PricedProduct, string, error)
}

// ProductHandler handles demo catalog requests
type ProductHandler struct {
	service catalogPricer
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service catalogPricer, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// ListProducts handles GET /api/products
// Returns every catalog product with its current pricing decision
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.PriceCatalog(r.Context())
	if err != nil {
		h.logger.Error("failed to price catalog", "error", err)
		WriteServiceError(w, err, h.logger)
		return
	}

	w.Header().Set(BatchIDHeader, result.BatchID)
	WriteJSON(w, http.StatusOK, result.Items, h.logger)
}

// GetProduct handles GET /api/products/{productId}
// - 200: priced product
// - 400: empty ID
// - 404: product not found
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSpace(chi.URLParam(r, "productId"))

	if productID == "" {
		h.logger.Warn("product ID is required")
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.logger)
		return
	}

	product, batchID, err := h.service.PriceProduct(r.Context(), productID)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	w.Header().Set(BatchIDHeader, batchID)
	WriteJSON(w, http.StatusOK, product, h.logger)
}
