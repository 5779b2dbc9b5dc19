package demand

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Remote asks an HTTP model server for a forecast.
type Remote struct {
	client *resty.Client
}

type predictResponse struct {
	PredictedSales *float64 `json:"predicted_sales"`
}

// NewRemote creates a client for the model server at baseURL.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")

	return &Remote{client: client}
}

func (r *Remote) Name() string {
	return KindRemote
}

// Estimate posts the features to /predict. Non-2xx responses are errors.
func (r *Remote) Estimate(ctx context.Context, in Features) (float64, error) {
	var out predictResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(&out).
		Post("/predict")
	if err != nil {
		return 0, fmt.Errorf("demand model request failed: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("demand model returned status %d", resp.StatusCode())
	}
	if out.PredictedSales == nil {
		return 0, fmt.Errorf("demand model response missing predicted_sales")
	}
	if math.IsNaN(*out.PredictedSales) || math.IsInf(*out.PredictedSales, 0) {
		return 0, fmt.Errorf("demand model returned non-finite forecast")
	}

	return *out.PredictedSales, nil
}
