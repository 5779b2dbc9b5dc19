package models

import (
	"math"
	"strings"
)

// ProductSnapshot is the current state of a product as seen by the pricing engine.
// It is read-only input; the engine never modifies it.
type ProductSnapshot struct {
	ProductID       string  `json:"product_id"`
	BasePrice       float64 `json:"base_price"`
	Inventory       int     `json:"inventory"`
	SalesLast30Days float64 `json:"sales_last_30_days"`
	AverageRating   float64 `json:"average_rating"`
	Category        string  `json:"category,omitempty"`
}

// ProductInput is the wire representation of a product record.
// Required fields are pointers so a missing field can be told apart from a zero value.
type ProductInput struct {
	ProductID       *string  `json:"product_id"`
	BasePrice       *float64 `json:"base_price"`
	Inventory       *int     `json:"inventory"`
	SalesLast30Days *float64 `json:"sales_last_30_days"`
	AverageRating   *float64 `json:"average_rating"`
	Category        string   `json:"category,omitempty"`
}

// ID returns the product id, or an empty string when it was not supplied.
func (in ProductInput) ID() string {
	if in.ProductID == nil {
		return ""
	}
	return strings.TrimSpace(*in.ProductID)
}

// Snapshot validates the input and converts it into a ProductSnapshot.
// Fields are checked in a fixed order so the reported field is stable.
func (in ProductInput) Snapshot() (ProductSnapshot, error) {
	id := in.ID()

	switch {
	case in.ProductID == nil:
		return ProductSnapshot{}, MissingField(id, "product_id")
	case id == "":
		return ProductSnapshot{}, NewInputError(id, "product_id", "must not be empty")
	case in.BasePrice == nil:
		return ProductSnapshot{}, MissingField(id, "base_price")
	case in.Inventory == nil:
		return ProductSnapshot{}, MissingField(id, "inventory")
	case in.SalesLast30Days == nil:
		return ProductSnapshot{}, MissingField(id, "sales_last_30_days")
	case in.AverageRating == nil:
		return ProductSnapshot{}, MissingField(id, "average_rating")
	}

	snapshot := ProductSnapshot{
		ProductID:       id,
		BasePrice:       *in.BasePrice,
		Inventory:       *in.Inventory,
		SalesLast30Days: *in.SalesLast30Days,
		AverageRating:   *in.AverageRating,
		Category:        strings.TrimSpace(in.Category),
	}

	if err := snapshot.Validate(); err != nil {
		return ProductSnapshot{}, err
	}
	return snapshot, nil
}

// Validate checks the range constraints of a snapshot.
// Ratings outside [1, 5] are accepted; the rating rule handles them.
func (s ProductSnapshot) Validate() error {
	if strings.TrimSpace(s.ProductID) == "" {
		return NewInputError(s.ProductID, "product_id", "must not be empty")
	}
	if math.IsNaN(s.BasePrice) || math.IsInf(s.BasePrice, 0) || s.BasePrice <= 0 {
		return NewInputError(s.ProductID, "base_price", "must be greater than 0")
	}
	if s.Inventory < 0 {
		return NewInputError(s.ProductID, "inventory", "must not be negative")
	}
	if math.IsNaN(s.SalesLast30Days) || math.IsInf(s.SalesLast30Days, 0) || s.SalesLast30Days < 0 {
		return NewInputError(s.ProductID, "sales_last_30_days", "must not be negative")
	}
	if math.IsNaN(s.AverageRating) || math.IsInf(s.AverageRating, 0) {
		return NewInputError(s.ProductID, "average_rating", "must be a finite number")
	}
	return nil
}

// Input converts a snapshot back into its wire form.
func (s ProductSnapshot) Input() ProductInput {
	id := s.ProductID
	price := s.BasePrice
	inventory := s.Inventory
	sales := s.SalesLast30Days
	rating := s.AverageRating

	return ProductInput{
		ProductID:       &id,
		BasePrice:       &price,
		Inventory:       &inventory,
		SalesLast30Days: &sales,
		AverageRating:   &rating,
		Category:        s.Category,
	}
}
