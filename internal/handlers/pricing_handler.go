package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/service"
)

// BatchIDHeader carries the id of the batch that produced a response
const BatchIDHeader = "X-Batch-Id"

type batchPricer interface {
	Process(ctx context.Context, inputs []models.ProductInput) (*service.BatchResult, error)
}

// PricingHandler handles price adjustment requests
type PricingHandler struct {
	pricer       batchPricer
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewPricingHandler creates a new pricing handler
func NewPricingHandler(pricer batchPricer, maxBodyBytes int64, logger *slog.Logger) *PricingHandler {
	return &PricingHandler{
		pricer:       pricer,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// AdjustPrices handles POST /api/prices
// The body is a JSON array of products; the reply holds one priced product per input, in order.
func (h *PricingHandler) AdjustPrices(w http.ResponseWriter, r *http.Request) {
	var inputs []models.ProductInput
	if err := decodeJSON(w, r, h.maxBodyBytes, &inputs); err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	result, err := h.pricer.Process(r.Context(), inputs)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	w.Header().Set(BatchIDHeader, result.BatchID)
	WriteJSON(w, http.StatusOK, result.Items, h.logger)
}
