package demand

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
)

// LinearModel is a fitted linear regression over the estimator features.
// Category is encoded as a per-category offset added to the intercept.
type LinearModel struct {
	Intercept float64            `json:"intercept"`
	BasePrice float64            `json:"base_price"`
	Inventory float64            `json:"inventory"`
	Rating    float64            `json:"average_rating"`
	Category  map[string]float64 `json:"category,omitempty"`
}

// Linear evaluates a LinearModel.
type Linear struct {
	model    LinearModel
	category map[string]float64
}

// NewLinear validates the coefficients and returns an estimator.
func NewLinear(m LinearModel) (*Linear, error) {
	coefficients := []float64{m.Intercept, m.BasePrice, m.Inventory, m.Rating}
	for _, v := range m.Category {
		coefficients = append(coefficients, v)
	}
	for _, c := range coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("linear model has non-finite coefficient %v", c)
		}
	}

	category := make(map[string]float64, len(m.Category))
	for name, v := range m.Category {
		category[strings.ToLower(strings.TrimSpace(name))] = v
	}
	return &Linear{model: m, category: category}, nil
}

// LoadLinear reads a JSON model file.
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read demand model: %w", err)
	}

	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse demand model %s: %w", path, err)
	}
	return NewLinear(m)
}

func (l *Linear) Name() string {
	return KindLinear
}

// Estimate floors the regression output at zero.
func (l *Linear) Estimate(ctx context.Context, in Features) (float64, error) {
	m := l.model
	y := m.Intercept +
		m.BasePrice*in.BasePrice +
		m.Inventory*float64(in.Inventory) +
		m.Rating*in.Rating +
		l.category[strings.ToLower(strings.TrimSpace(in.Category))]
	return math.Max(0, y), nil
}
