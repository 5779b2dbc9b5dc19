package competitor

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
)

// Remote queries a competitor price HTTP service.
type Remote struct {
	client *resty.Client
}

// NewRemote creates a client for the service at baseURL.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(timeout)

	return &Remote{client: client}
}

// Lookup calls GET /competitor-prices/{id}. A 404 means no price is known.
func (r *Remote) Lookup(ctx context.Context, productID string) (*float64, error) {
	var out models.CompetitorPrice
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/competitor-prices/" + url.PathEscape(productID))
	if err != nil {
		return nil, fmt.Errorf("competitor price request failed: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, nil
	case resp.IsError():
		return nil, fmt.Errorf("competitor service returned status %d", resp.StatusCode())
	}
	if math.IsNaN(out.Price) || math.IsInf(out.Price, 0) {
		return nil, fmt.Errorf("competitor service returned non-finite price")
	}

	price := out.Price
	return &price, nil
}

// List calls GET /competitor-prices.
func (r *Remote) List(ctx context.Context) ([]models.CompetitorPrice, error) {
	var out []models.CompetitorPrice
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/competitor-prices")
	if err != nil {
		return nil, fmt.Errorf("competitor price request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("competitor service returned status %d", resp.StatusCode())
	}
	return out, nil
}
