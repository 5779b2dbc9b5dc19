package pricing

import (
	"fmt"
	"strings"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
)

// Rule names, in evaluation order.
const (
	RuleDemandEstimate     = "demand_estimate"
	RuleCategoryDemand     = "category_demand"
	RuleInventory          = "inventory"
	RuleCompetitorResponse = "competitor_response"
	RuleRating             = "rating"
	RuleMarginClamp        = "margin_clamp"
)

const (
	forecastHighRatio = 1.2
	forecastLowRatio  = 0.8
	forecastRaise     = 1.05
	forecastCut       = 0.95

	highSalesVolume  = 100
	lowSalesVolume   = 20
	highVolumeFactor = 1.1
	lowVolumeFactor  = 0.9

	scarcityThreshold  = 10
	scarcityStep       = 0.03
	scarcityCap        = 1.3
	overstockThreshold = 80
	overstockStep      = 0.005
	overstockFloor     = 0.9

	undercutRatio     = 0.8
	competitorPremium = 1.05

	premiumRating  = 4.5
	poorRating     = 3.5
	premiumFactor  = 1.02
	discountFactor = 0.98
)

func scale(price, multiplier float64, note string) Adjustment {
	return Adjustment{Price: price * multiplier, Multiplier: multiplier, Note: note}
}

func unchanged(price float64, note string) Adjustment {
	return Adjustment{Price: price, Multiplier: 1.0, Note: note}
}

func replaced(old, price float64, note string) Adjustment {
	return Adjustment{Price: price, Multiplier: price / old, Note: note}
}

func percent(multiplier float64) string {
	return fmt.Sprintf("%+.1f%%", (multiplier-1)*100)
}

// demandEstimateRule compares the estimator's forecast with actual recent sales.
func demandEstimateRule(price float64, in Input) Adjustment {
	sales := in.Snapshot.SalesLast30Days
	switch {
	case in.PredictedSales > sales*forecastHighRatio:
		return scale(price, forecastRaise,
			fmt.Sprintf("Forecast %.1f above recent sales %.0f: %s", in.PredictedSales, sales, percent(forecastRaise)))
	case in.PredictedSales < sales*forecastLowRatio:
		return scale(price, forecastCut,
			fmt.Sprintf("Forecast %.1f below recent sales %.0f: %s", in.PredictedSales, sales, percent(forecastCut)))
	default:
		return unchanged(price, "")
	}
}

// CategoryMultiplier returns the base multiplier for a category, 1.0 when unknown.
func (e *Engine) CategoryMultiplier(category string) float64 {
	if m, ok := e.categories[normalizeCategory(category)]; ok {
		return m
	}
	return 1.0
}

func volumeMultiplier(sales float64) float64 {
	switch {
	case sales > highSalesVolume:
		return highVolumeFactor
	case sales < lowSalesVolume:
		return lowVolumeFactor
	default:
		return 1.0
	}
}

// DemandMultiplier is the combined category and sales-volume factor for a product.
func (e *Engine) DemandMultiplier(s models.ProductSnapshot) float64 {
	return e.CategoryMultiplier(s.Category) * volumeMultiplier(s.SalesLast30Days)
}

func (e *Engine) categoryDemandRule(price float64, in Input) Adjustment {
	s := in.Snapshot
	category := e.CategoryMultiplier(s.Category)
	volume := volumeMultiplier(s.SalesLast30Days)
	m := category * volume
	if m == 1.0 {
		return unchanged(price, "")
	}

	parts := make([]string, 0, 2)
	if category != 1.0 {
		parts = append(parts, fmt.Sprintf("category %s x%.2f", s.Category, category))
	}
	switch {
	case volume > 1.0:
		parts = append(parts, fmt.Sprintf("high sales volume x%.2f", volume))
	case volume < 1.0:
		parts = append(parts, fmt.Sprintf("low sales volume x%.2f", volume))
	}
	return scale(price, m, fmt.Sprintf("Demand multiplier x%.3f (%s)", m, strings.Join(parts, ", ")))
}

// inventoryRule applies a linear scarcity premium or overstock discount.
func inventoryRule(price float64, in Input) Adjustment {
	inventory := in.Snapshot.Inventory
	switch {
	case inventory < scarcityThreshold:
		m := 1.0 + float64(scarcityThreshold-inventory)*scarcityStep
		if m > scarcityCap {
			m = scarcityCap
		}
		return scale(price, m, fmt.Sprintf("Low inventory (%d units): %s", inventory, percent(m)))
	case inventory > overstockThreshold:
		m := 1.0 - float64(inventory-overstockThreshold)*overstockStep
		if m < overstockFloor {
			m = overstockFloor
		}
		return scale(price, m, fmt.Sprintf("High inventory (%d units): %s", inventory, percent(m)))
	default:
		return unchanged(price, fmt.Sprintf("Normal inventory (%d units): no adjustment", inventory))
	}
}

// competitorRule can only lower the working price, never raise it.
func (e *Engine) competitorRule(price float64, in Input) Adjustment {
	if in.CompetitorPrice == nil || *in.CompetitorPrice <= 0 {
		return unchanged(price, "")
	}

	base := in.Snapshot.BasePrice
	cp := *in.CompetitorPrice
	if cp/base >= undercutRatio {
		return unchanged(price, "")
	}

	competitive := cp * competitorPremium
	if floor := base * e.cfg.MinMarkup; floor > competitive {
		competitive = floor
	}
	if competitive >= price {
		return unchanged(price, "")
	}
	return replaced(price, competitive,
		fmt.Sprintf("Competitor price $%.2f undercuts base: lowered to $%.2f", cp, competitive))
}

func ratingRule(price float64, in Input) Adjustment {
	rating := in.Snapshot.AverageRating
	switch {
	case rating >= premiumRating:
		return scale(price, premiumFactor, fmt.Sprintf("High rating (%.1f): %s", rating, percent(premiumFactor)))
	case rating < poorRating:
		return scale(price, discountFactor, fmt.Sprintf("Low rating (%.1f): %s", rating, percent(discountFactor)))
	default:
		return unchanged(price, "")
	}
}

// clampRule always runs last and overrides every earlier rule.
func (e *Engine) clampRule(price float64, in Input) Adjustment {
	base := in.Snapshot.BasePrice
	lo, hi := e.band(base)
	switch {
	case price < lo:
		return replaced(price, lo, fmt.Sprintf("Raised to minimum margin (%s)", percent(e.cfg.MinMarkup)))
	case price > hi:
		return replaced(price, hi, fmt.Sprintf("Capped at maximum markup (%s)", percent(e.cfg.MaxMarkup)))
	default:
		return unchanged(price, "")
	}
}
