package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/competitor"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
	"github.com/Lixing-Zhang/dynamic-pricing/pkg/logger"
)

type lookupOnly struct{}

func (lookupOnly) Lookup(ctx context.Context, productID string) (*float64, error) {
	return nil, nil
}

func TestCompetitorHandler_ListPrices(t *testing.T) {
	handler := NewCompetitorHandler(competitor.NewStatic(competitor.DefaultFixture()), logger.New("error"))

	req := httptest.NewRequest(http.MethodGet, "/api/competitor-prices", nil)
	w := httptest.NewRecorder()
	handler.ListPrices(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var prices []models.CompetitorPrice
	if err := json.NewDecoder(w.Body).Decode(&prices); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(prices) != 5 || prices[0].CompetitorName != "CompetitorA" || prices[1].Price != 195 {
		t.Errorf("unexpected prices: %+v", prices)
	}
}

func TestCompetitorHandler_ListUnsupported(t *testing.T) {
	handler := NewCompetitorHandler(lookupOnly{}, logger.New("error"))

	req := httptest.NewRequest(http.MethodGet, "/api/competitor-prices", nil)
	w := httptest.NewRecorder()
	handler.ListPrices(w, req)

	if w.Code != http.StatusNotImplemented {
		t.Errorf("expected status 501, got %d", w.Code)
	}
}
