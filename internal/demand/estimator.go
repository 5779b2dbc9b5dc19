// Package demand provides the demand estimators used to forecast 30-day unit sales.
package demand

import (
	"context"
	"strings"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
)

// Estimator kinds accepted by configuration.
const (
	KindFormula = "formula"
	KindLinear  = "linear"
	KindRemote  = "remote"
)

// Estimator forecasts unit sales for one product.
// Implementations must be safe for concurrent use.
type Estimator interface {
	Estimate(ctx context.Context, f Features) (float64, error)
	Name() string
}

// Features is the model input derived from a product snapshot.
type Features struct {
	BasePrice float64 `json:"base_price"`
	Inventory int     `json:"inventory"`
	Rating    float64 `json:"average_rating"`
	Category  string  `json:"category,omitempty"`
}

// FeaturesFrom extracts estimator features from a snapshot.
func FeaturesFrom(s models.ProductSnapshot) Features {
	return Features{
		BasePrice: s.BasePrice,
		Inventory: s.Inventory,
		Rating:    s.AverageRating,
		Category:  s.Category,
	}
}

// categoryEffects are the demand effects the formula and the linear model encode per category.
var categoryEffects = map[string]float64{
	"electronics": 1.3,
	"apparel":     1.0,
	"home":        0.9,
	"books":       0.7,
	"sports":      1.1,
}

// CategoryEffect returns the demand effect of a category, 1.0 when unknown.
func CategoryEffect(category string) float64 {
	if e, ok := categoryEffects[strings.ToLower(strings.TrimSpace(category))]; ok {
		return e
	}
	return 1.0
}
