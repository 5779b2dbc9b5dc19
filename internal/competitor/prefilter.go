package competitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
)

// PrefilterSource is a backing store the prefilter can both query and enumerate.
type PrefilterSource interface {
	Lookup
	IDSource
}

// Prefilter answers "absent" from a bloom filter before querying the backing store.
// False positives fall through to the store; false negatives cannot occur for ids
// present at the last Refresh.
type Prefilter struct {
	source    PrefilterSource
	fpRate    float64
	mu        sync.RWMutex
	filter    *bloom.BloomFilter
	skipped   atomic.Uint64
	forwarded atomic.Uint64
}

// NewPrefilter builds the filter from the source's current ids.
func NewPrefilter(ctx context.Context, source PrefilterSource, fpRate float64) (*Prefilter, error) {
	p := &Prefilter{source: source, fpRate: fpRate}
	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Refresh rebuilds the filter. Call it after the backing store gains new products.
func (p *Prefilter) Refresh(ctx context.Context) error {
	ids, err := p.source.ProductIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh competitor prefilter: %w", err)
	}

	n := uint(len(ids))
	if n < 1 {
		n = 1
	}
	filter := bloom.NewWithEstimates(n, p.fpRate)
	for _, id := range ids {
		filter.AddString(id)
	}

	p.mu.Lock()
	p.filter = filter
	p.mu.Unlock()
	return nil
}

func (p *Prefilter) Lookup(ctx context.Context, productID string) (*float64, error) {
	p.mu.RLock()
	present := p.filter.TestString(productID)
	p.mu.RUnlock()

	if !present {
		p.skipped.Add(1)
		return nil, nil
	}
	p.forwarded.Add(1)
	return p.source.Lookup(ctx, productID)
}

// List delegates to the backing store when it can list.
func (p *Prefilter) List(ctx context.Context) ([]models.CompetitorPrice, error) {
	lister, ok := p.source.(Lister)
	if !ok {
		return nil, ErrListUnsupported
	}
	return lister.List(ctx)
}

// Stats reports how many lookups the filter answered without the store.
func (p *Prefilter) Stats() (skipped, forwarded uint64) {
	return p.skipped.Load(), p.forwarded.Load()
}
