// Package pricing implements the pricing decision engine: an ordered chain of
// bounded business rules folded over a product's base price.
package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
)

// Config holds the tunable parts of the rule chain.
type Config struct {
	// MinMarkup and MaxMarkup bound the adjusted price relative to the base price.
	MinMarkup float64
	MaxMarkup float64
	// CategoryMultipliers maps a category name (case-insensitive) to its base multiplier.
	// Unknown categories use 1.0.
	CategoryMultipliers map[string]float64
}

// DefaultConfig returns the standard margin band and category table.
func DefaultConfig() Config {
	return Config{
		MinMarkup: 1.1,
		MaxMarkup: 1.5,
		CategoryMultipliers: map[string]float64{
			"Electronics": 1.2,
			"Apparel":     1.0,
			"Home":        0.9,
		},
	}
}

// Validate checks the margin band and category multipliers.
func (c Config) Validate() error {
	if !(c.MinMarkup > 0) || math.IsInf(c.MinMarkup, 0) {
		return fmt.Errorf("min markup must be positive, got %v", c.MinMarkup)
	}
	if !(c.MaxMarkup >= c.MinMarkup) || math.IsInf(c.MaxMarkup, 0) {
		return fmt.Errorf("max markup %v must not be below min markup %v", c.MaxMarkup, c.MinMarkup)
	}
	for name, m := range c.CategoryMultipliers {
		if !(m > 0) || math.IsInf(m, 0) {
			return fmt.Errorf("category %q multiplier must be positive, got %v", name, m)
		}
	}
	return nil
}

// Input is everything a rule may look at besides the working price.
type Input struct {
	Snapshot        models.ProductSnapshot
	PredictedSales  float64
	CompetitorPrice *float64
}

// Adjustment is the result of applying one rule to the working price.
type Adjustment struct {
	Price      float64
	Multiplier float64
	Note       string
}

// Rule is a named pure function over the working price.
type Rule struct {
	Name  string
	Apply func(price float64, in Input) Adjustment
}

// Engine evaluates the rule chain. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	cfg        Config
	categories map[string]float64
	rules      []Rule
}

// NewEngine creates an engine for the given configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pricing config: %w", err)
	}

	categories := make(map[string]float64, len(cfg.CategoryMultipliers))
	for name, m := range cfg.CategoryMultipliers {
		categories[normalizeCategory(name)] = m
	}

	e := &Engine{cfg: cfg, categories: categories}
	e.rules = []Rule{
		{Name: RuleDemandEstimate, Apply: demandEstimateRule},
		{Name: RuleCategoryDemand, Apply: e.categoryDemandRule},
		{Name: RuleInventory, Apply: inventoryRule},
		{Name: RuleCompetitorResponse, Apply: e.competitorRule},
		{Name: RuleRating, Apply: ratingRule},
		{Name: RuleMarginClamp, Apply: e.clampRule},
	}
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Rules returns the ordered rule chain.
func (e *Engine) Rules() []Rule {
	rules := make([]Rule, len(e.rules))
	copy(rules, e.rules)
	return rules
}

// Decide runs the rule chain for one product.
// predictedSales is the raw estimator output; competitorPrice is nil when unknown.
func (e *Engine) Decide(snapshot models.ProductSnapshot, predictedSales float64, competitorPrice *float64) (models.PricingDecision, error) {
	if err := snapshot.Validate(); err != nil {
		return models.PricingDecision{}, err
	}
	if math.IsNaN(predictedSales) || math.IsInf(predictedSales, 0) {
		return models.PricingDecision{}, models.NewInputError(snapshot.ProductID, "predicted_sales", "must be a finite number")
	}
	if competitorPrice != nil && (math.IsNaN(*competitorPrice) || math.IsInf(*competitorPrice, 0)) {
		return models.PricingDecision{}, models.NewInputError(snapshot.ProductID, "competitor_price", "must be a finite number")
	}

	in := Input{
		Snapshot:        snapshot,
		PredictedSales:  predictedSales,
		CompetitorPrice: competitorPrice,
	}

	price := snapshot.BasePrice
	notes := make([]string, 0, len(e.rules))
	trail := make([]models.RuleStep, 0, len(e.rules))
	for _, rule := range e.rules {
		adj := rule.Apply(price, in)
		trail = append(trail, models.RuleStep{
			Rule:       rule.Name,
			Multiplier: roundTo(adj.Multiplier, 4),
			Price:      roundTo(adj.Price, 4),
		})
		if adj.Note != "" {
			notes = append(notes, adj.Note)
		}
		price = adj.Price
	}

	base := snapshot.BasePrice
	lo, hi := e.band(base)
	var competitor *float64
	if competitorPrice != nil {
		cp := *competitorPrice
		competitor = &cp
	}

	return models.PricingDecision{
		AdjustedPrice:      displayPrice(price, lo, hi),
		PriceChangePercent: roundTo((price-base)/base*100, 2),
		PredictedSales:     predictedSales,
		CompetitorPrice:    competitor,
		RevenueImpact:      roundTo((price-base)*snapshot.SalesLast30Days, 2),
		DemandMultiplier:   roundTo(e.DemandMultiplier(snapshot), 4),
		RuleApplied:        strings.Join(notes, "; "),
		RuleTrail:          trail,
	}, nil
}

// Clamp bounds price into the margin band for base.
func (e *Engine) Clamp(price, base float64) float64 {
	lo, hi := e.band(base)
	return math.Min(math.Max(price, lo), hi)
}

func (e *Engine) band(base float64) (float64, float64) {
	return base * e.cfg.MinMarkup, base * e.cfg.MaxMarkup
}

func normalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
