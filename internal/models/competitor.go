package models

// CompetitorPrice is a competitor's current price for one of our products.
type CompetitorPrice struct {
	ProductID      string  `json:"product_id"`
	Price          float64 `json:"competitor_price"`
	CompetitorName string  `json:"competitor_name,omitempty"`
}
