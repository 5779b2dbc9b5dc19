package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/competitor"
)

// CompetitorHandler exposes the configured competitor price source
type CompetitorHandler struct {
	source competitor.Lookup
	logger *slog.Logger
}

// NewCompetitorHandler creates a new competitor handler
func NewCompetitorHandler(source competitor.Lookup, logger *slog.Logger) *CompetitorHandler {
	return &CompetitorHandler{
		source: source,
		logger: logger,
	}
}

// ListPrices handles GET /api/competitor-prices
// Sources that cannot enumerate their prices answer 501
func (h *CompetitorHandler) ListPrices(w http.ResponseWriter, r *http.Request) {
	lister, ok := h.source.(competitor.Lister)
	if !ok {
		WriteServiceError(w, competitor.ErrListUnsupported, h.logger)
		return
	}

	prices, err := lister.List(r.Context())
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, prices, h.logger)
}
