package competitor

import (
	"context"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
)

// DefaultFixture is the built-in competitor price table.
func DefaultFixture() []models.CompetitorPrice {
	return []models.CompetitorPrice{
		{ProductID: "P001", Price: 90.0, CompetitorName: "CompetitorA"},
		{ProductID: "P002", Price: 195.0, CompetitorName: "CompetitorB"},
		{ProductID: "P003", Price: 48.0, CompetitorName: "CompetitorC"},
		{ProductID: "P004", Price: 72.0, CompetitorName: "CompetitorA"},
		{ProductID: "P005", Price: 145.0, CompetitorName: "CompetitorB"},
	}
}

// Static serves a fixed, in-memory price table.
type Static struct {
	rows  []models.CompetitorPrice
	index map[string]int
}

// NewStatic builds a static source. Later rows override earlier rows for the same product.
func NewStatic(rows []models.CompetitorPrice) *Static {
	s := &Static{index: make(map[string]int, len(rows))}
	for _, row := range rows {
		if i, ok := s.index[row.ProductID]; ok {
			s.rows[i] = row
			continue
		}
		s.index[row.ProductID] = len(s.rows)
		s.rows = append(s.rows, row)
	}
	return s
}

func (s *Static) Lookup(ctx context.Context, productID string) (*float64, error) {
	i, ok := s.index[productID]
	if !ok {
		return nil, nil
	}
	price := s.rows[i].Price
	return &price, nil
}

// List returns rows in insertion order.
func (s *Static) List(ctx context.Context) ([]models.CompetitorPrice, error) {
	rows := make([]models.CompetitorPrice, len(s.rows))
	copy(rows, s.rows)
	return rows, nil
}

func (s *Static) ProductIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, len(s.rows))
	for i, row := range s.rows {
		ids[i] = row.ProductID
	}
	return ids, nil
}
