package models

// PricingDecision is the outcome of running the rule chain for one product.
type PricingDecision struct {
	AdjustedPrice      float64    `json:"adjusted_price"`
	PriceChangePercent float64    `json:"price_change_percent"`
	PredictedSales     float64    `json:"predicted_sales"`
	CompetitorPrice    *float64   `json:"competitor_price"`
	RevenueImpact      float64    `json:"revenue_impact"`
	DemandMultiplier   float64    `json:"demand_multiplier"`
	RuleApplied        string     `json:"rule_applied"`
	RuleTrail          []RuleStep `json:"rule_trail,omitempty"`
}

// RuleStep records the working price after a single rule ran.
type RuleStep struct {
	Rule       string  `json:"rule"`
	Multiplier float64 `json:"multiplier"`
	Price      float64 `json:"price"`
}

// PricedProduct is a product record enriched with its pricing decision.
// Under the partial-results policy a failed item has a nil decision and a non-empty Error.
type PricedProduct struct {
	ProductSnapshot
	*PricingDecision
	Error string `json:"error,omitempty"`
}

// Failed reports whether the product could not be priced.
func (p PricedProduct) Failed() bool {
	return p.PricingDecision == nil
}
