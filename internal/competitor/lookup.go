// Package competitor provides the competitor price sources consulted by the pricing service.
package competitor

import (
	"context"
	"errors"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
)

// Source kinds accepted by configuration.
const (
	SourceStatic = "static"
	SourceFeed   = "feed"
	SourceMySQL  = "mysql"
	SourceRemote = "remote"
)

// ErrListUnsupported is returned when the configured source cannot enumerate prices.
var ErrListUnsupported = errors.New("competitor source cannot list prices")

// Lookup returns the current competitor price for a product, or nil when none is known.
type Lookup interface {
	Lookup(ctx context.Context, productID string) (*float64, error)
}

// Lister is implemented by sources that can enumerate every known price.
type Lister interface {
	List(ctx context.Context) ([]models.CompetitorPrice, error)
}

// IDSource is implemented by sources that can enumerate the product ids they hold.
type IDSource interface {
	ProductIDs(ctx context.Context) ([]string, error)
}
