package demand

import (
	"context"
	"math"
)

const (
	demandCeiling     = 150.0
	priceElasticity   = 0.5
	inventoryVisScale = 0.3
	inventoryVisCap   = 20.0
	ratingEffect      = 30.0
)

// Formula is the closed-form demand curve: price elasticity scaled by category,
// plus inventory visibility and rating effects.
type Formula struct{}

// NewFormula returns the default estimator.
func NewFormula() *Formula {
	return &Formula{}
}

func (f *Formula) Name() string {
	return KindFormula
}

// Estimate never fails and never returns a negative forecast.
func (f *Formula) Estimate(ctx context.Context, in Features) (float64, error) {
	priceEffect := math.Max(0, demandCeiling-priceElasticity*in.BasePrice)
	visibility := math.Min(inventoryVisCap, inventoryVisScale*float64(in.Inventory))
	rating := ratingEffect * (in.Rating - 1)

	return math.Max(0, priceEffect*CategoryEffect(in.Category)+visibility+rating), nil
}
