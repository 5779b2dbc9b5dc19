package pricing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func floatPtr(v float64) *float64 {
	return &v
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero min markup", func(c *Config) { c.MinMarkup = 0 }},
		{"max below min", func(c *Config) { c.MaxMarkup = 1.0 }},
		{"NaN max markup", func(c *Config) { c.MaxMarkup = math.NaN() }},
		{"negative category multiplier", func(c *Config) { c.CategoryMultipliers["Toys"] = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewEngine(cfg); err == nil {
				t.Error("expected error for invalid config")
			}
		})
	}
}

func TestEngine_RuleOrder(t *testing.T) {
	e := newTestEngine(t)

	want := []string{
		RuleDemandEstimate,
		RuleCategoryDemand,
		RuleInventory,
		RuleCompetitorResponse,
		RuleRating,
		RuleMarginClamp,
	}

	rules := e.Rules()
	if len(rules) != len(want) {
		t.Fatalf("got %d rules, want %d", len(rules), len(want))
	}
	for i, r := range rules {
		if r.Name != want[i] {
			t.Errorf("rule %d = %s, want %s", i, r.Name, want[i])
		}
	}
}

func TestEngine_Decide_Scenarios(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name        string
		snapshot    models.ProductSnapshot
		predicted   float64
		competitor  *float64
		wantPrice   float64
		wantPercent float64
		wantImpact  float64
		wantDemand  float64
		wantNotes   []string
		avoidNotes  []string
	}{
		{
			name:        "scarce electronics with high sales is capped at max markup",
			snapshot:    models.ProductSnapshot{ProductID: "P001", BasePrice: 100, Inventory: 5, SalesLast30Days: 120, AverageRating: 4.5, Category: "Electronics"},
			predicted:   100,
			wantPrice:   150,
			wantPercent: 50,
			wantImpact:  6000,
			wantDemand:  1.32,
			wantNotes:   []string{"Low inventory (5 units): +15.0%", "High rating (4.5): +2.0%", "Capped at maximum markup (+50.0%)"},
		},
		{
			name:        "normal inventory apparel is raised to minimum margin",
			snapshot:    models.ProductSnapshot{ProductID: "P002", BasePrice: 200, Inventory: 50, SalesLast30Days: 40, AverageRating: 4.0, Category: "Apparel"},
			predicted:   40,
			wantPrice:   220,
			wantPercent: 10,
			wantImpact:  800,
			wantDemand:  1.0,
			wantNotes:   []string{"Normal inventory (50 units): no adjustment", "Raised to minimum margin (+10.0%)"},
			avoidNotes:  []string{"Demand multiplier", "Forecast"},
		},
		{
			name:        "undercutting competitor lowers an inflated working price",
			snapshot:    models.ProductSnapshot{ProductID: "P010", BasePrice: 200, Inventory: 50, SalesLast30Days: 150, AverageRating: 4.0, Category: "Electronics"},
			predicted:   150,
			competitor:  floatPtr(150),
			wantPrice:   220,
			wantPercent: 10,
			wantImpact:  3000,
			wantDemand:  1.32,
			wantNotes:   []string{"Competitor price $150.00 undercuts base: lowered to $220.00"},
		},
		{
			name:        "undercutting competitor never raises the working price",
			snapshot:    models.ProductSnapshot{ProductID: "P011", BasePrice: 200, Inventory: 50, SalesLast30Days: 40, AverageRating: 4.0, Category: "Apparel"},
			predicted:   40,
			competitor:  floatPtr(150),
			wantPrice:   220,
			wantPercent: 10,
			wantImpact:  800,
			wantDemand:  1.0,
			avoidNotes:  []string{"Competitor"},
		},
		{
			name:        "soft forecast, overstock and poor rating",
			snapshot:    models.ProductSnapshot{ProductID: "P012", BasePrice: 50, Inventory: 100, SalesLast30Days: 60, AverageRating: 3.0, Category: "Electronics"},
			predicted:   10,
			wantPrice:   55,
			wantPercent: 10,
			wantImpact:  300,
			wantDemand:  1.2,
			wantNotes:   []string{"Forecast 10.0 below recent sales 60: -5.0%", "High inventory (100 units): -10.0%", "Low rating (3.0): -2.0%", "Raised to minimum margin (+10.0%)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := e.Decide(tt.snapshot, tt.predicted, tt.competitor)
			if err != nil {
				t.Fatalf("Decide() error = %v", err)
			}

			if !approxEqual(d.AdjustedPrice, tt.wantPrice) {
				t.Errorf("AdjustedPrice = %v, want %v", d.AdjustedPrice, tt.wantPrice)
			}
			if !approxEqual(d.PriceChangePercent, tt.wantPercent) {
				t.Errorf("PriceChangePercent = %v, want %v", d.PriceChangePercent, tt.wantPercent)
			}
			if !approxEqual(d.RevenueImpact, tt.wantImpact) {
				t.Errorf("RevenueImpact = %v, want %v", d.RevenueImpact, tt.wantImpact)
			}
			if !approxEqual(d.DemandMultiplier, tt.wantDemand) {
				t.Errorf("DemandMultiplier = %v, want %v", d.DemandMultiplier, tt.wantDemand)
			}
			if d.PredictedSales != tt.predicted {
				t.Errorf("PredictedSales = %v, want raw %v", d.PredictedSales, tt.predicted)
			}
			for _, note := range tt.wantNotes {
				if !strings.Contains(d.RuleApplied, note) {
					t.Errorf("RuleApplied = %q, missing %q", d.RuleApplied, note)
				}
			}
			for _, note := range tt.avoidNotes {
				if strings.Contains(d.RuleApplied, note) {
					t.Errorf("RuleApplied = %q, must not contain %q", d.RuleApplied, note)
				}
			}
			if len(d.RuleTrail) != len(e.Rules()) {
				t.Errorf("RuleTrail has %d steps, want %d", len(d.RuleTrail), len(e.Rules()))
			}
		})
	}
}

func TestEngine_Decide_InventoryMultiplierIsNeutralInNormalRange(t *testing.T) {
	e := newTestEngine(t)
	s := models.ProductSnapshot{ProductID: "P002", BasePrice: 100, Inventory: 50, SalesLast30Days: 40, AverageRating: 4.0, Category: "Apparel"}

	d, err := e.Decide(s, 42, nil)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	for _, step := range d.RuleTrail {
		if step.Rule == RuleInventory && step.Multiplier != 1.0 {
			t.Errorf("inventory multiplier = %v, want exactly 1.0", step.Multiplier)
		}
	}
}

func TestEngine_Decide_RuleNotesFollowChainOrder(t *testing.T) {
	e := newTestEngine(t)
	s := models.ProductSnapshot{ProductID: "P003", BasePrice: 50, Inventory: 5, SalesLast30Days: 10, AverageRating: 3.0, Category: "Home"}

	d, err := e.Decide(s, 100, nil)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	order := []string{"Forecast", "Demand multiplier", "Low inventory", "Low rating"}
	last := -1
	for _, fragment := range order {
		idx := strings.Index(d.RuleApplied, fragment)
		if idx < 0 {
			t.Fatalf("RuleApplied = %q, missing %q", d.RuleApplied, fragment)
		}
		if idx < last {
			t.Errorf("%q appears out of order in %q", fragment, d.RuleApplied)
		}
		last = idx
	}
}

func TestEngine_Decide_InvalidInput(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name       string
		snapshot   models.ProductSnapshot
		predicted  float64
		competitor *float64
		wantField  string
	}{
		{"zero base price", models.ProductSnapshot{ProductID: "P001", BasePrice: 0, AverageRating: 4}, 10, nil, "base_price"},
		{"negative base price", models.ProductSnapshot{ProductID: "P001", BasePrice: -1, AverageRating: 4}, 10, nil, "base_price"},
		{"infinite base price", models.ProductSnapshot{ProductID: "P001", BasePrice: math.Inf(1), AverageRating: 4}, 10, nil, "base_price"},
		{"empty product id", models.ProductSnapshot{BasePrice: 10, AverageRating: 4}, 10, nil, "product_id"},
		{"negative inventory", models.ProductSnapshot{ProductID: "P001", BasePrice: 10, Inventory: -2, AverageRating: 4}, 10, nil, "inventory"},
		{"negative sales", models.ProductSnapshot{ProductID: "P001", BasePrice: 10, SalesLast30Days: -2, AverageRating: 4}, 10, nil, "sales_last_30_days"},
		{"NaN forecast", models.ProductSnapshot{ProductID: "P001", BasePrice: 10, AverageRating: 4}, math.NaN(), nil, "predicted_sales"},
		{"infinite competitor price", models.ProductSnapshot{ProductID: "P001", BasePrice: 10, AverageRating: 4}, 10, floatPtr(math.Inf(-1)), "competitor_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Decide(tt.snapshot, tt.predicted, tt.competitor)
			if !errors.Is(err, models.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var inputErr *models.InputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("expected *models.InputError, got %T", err)
			}
			if inputErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", inputErr.Field, tt.wantField)
			}
		})
	}
}

func TestEngine_Decide_MarginInvariant(t *testing.T) {
	e := newTestEngine(t)

	bases := []float64{0.01, 0.5, 1, 19.99, 33.333, 100, 999.99}
	inventories := []int{0, 5, 10, 50, 81, 200}
	sales := []float64{0, 10, 50, 150}
	ratings := []float64{0, 1, 3.4, 4, 4.5, 5, 9}
	categories := []string{"Electronics", "Home", "Apparel", "Toys", ""}
	forecasts := []float64{0, 50, 1000}
	competitorRatios := []float64{-1, 0, 0.5, 0.9, 2}

	checked := 0
	for _, base := range bases {
		lo, hi := base*1.1, base*1.5
		for _, inv := range inventories {
			for _, s := range sales {
				for _, r := range ratings {
					for _, cat := range categories {
						for _, f := range forecasts {
							for _, ratio := range competitorRatios {
								var competitor *float64
								if ratio >= 0 {
									competitor = floatPtr(base * ratio)
								}
								snapshot := models.ProductSnapshot{
									ProductID:       "P",
									BasePrice:       base,
									Inventory:       inv,
									SalesLast30Days: s,
									AverageRating:   r,
									Category:        cat,
								}
								d, err := e.Decide(snapshot, f, competitor)
								if err != nil {
									t.Fatalf("Decide(%+v) error = %v", snapshot, err)
								}
								if d.AdjustedPrice < lo-1e-6 || d.AdjustedPrice > hi+1e-6 {
									t.Fatalf("AdjustedPrice %v outside [%v, %v] for %+v forecast=%v competitor=%v",
										d.AdjustedPrice, lo, hi, snapshot, f, competitor)
								}
								checked++
							}
						}
					}
				}
			}
		}
	}

	if checked == 0 {
		t.Fatal("no cases checked")
	}
}

func TestEngine_Decide_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	s := models.ProductSnapshot{ProductID: "P005", BasePrice: 150, Inventory: 8, SalesLast30Days: 60, AverageRating: 4.7, Category: "Apparel"}

	first, err := e.Decide(s, 77.7, floatPtr(145))
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	second, err := e.Decide(s, 77.7, floatPtr(145))
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Errorf("Decide() not deterministic:\n%s\n%s", a, b)
	}
}

func TestEngine_Decide_CompetitorPriceIsCopied(t *testing.T) {
	e := newTestEngine(t)
	s := models.ProductSnapshot{ProductID: "P001", BasePrice: 100, Inventory: 15, SalesLast30Days: 120, AverageRating: 4.5, Category: "Electronics"}

	cp := 90.0
	d, err := e.Decide(s, 120, &cp)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	cp = 1

	if d.CompetitorPrice == nil || *d.CompetitorPrice != 90 {
		t.Errorf("CompetitorPrice = %v, want 90", d.CompetitorPrice)
	}
}

func TestEngine_Clamp_Idempotent(t *testing.T) {
	e := newTestEngine(t)

	for _, price := range []float64{0, 50, 109.99, 110, 123.45, 150, 150.01, 1e9} {
		t.Run(fmt.Sprintf("%v", price), func(t *testing.T) {
			once := e.Clamp(price, 100)
			twice := e.Clamp(once, 100)
			if once != twice {
				t.Errorf("Clamp not idempotent: once=%v twice=%v", once, twice)
			}
			if once < 110-1e-9 || once > 150+1e-9 {
				t.Errorf("Clamp(%v) = %v outside band", price, once)
			}
		})
	}
}

func TestEngine_CustomConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinMarkup = 1.0
	cfg.MaxMarkup = 2.0
	cfg.CategoryMultipliers = map[string]float64{"books": 0.7}

	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	if got := e.CategoryMultiplier("Books"); got != 0.7 {
		t.Errorf("CategoryMultiplier(Books) = %v, want 0.7", got)
	}
	if got := e.CategoryMultiplier("Electronics"); got != 1.0 {
		t.Errorf("CategoryMultiplier(Electronics) = %v, want neutral 1.0 when not configured", got)
	}

	s := models.ProductSnapshot{ProductID: "B1", BasePrice: 100, Inventory: 0, SalesLast30Days: 150, AverageRating: 5, Category: "Books"}
	d, err := e.Decide(s, 1000, nil)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	// 100 * 1.05 * 0.77 * 1.3 * 1.02
	if !approxEqual(d.AdjustedPrice, 107.21) {
		t.Errorf("AdjustedPrice = %v, want 107.21", d.AdjustedPrice)
	}
}
