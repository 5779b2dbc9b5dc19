package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/competitor"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/demand"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/events"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/pricing"
)

var (
	ErrEmptyBatch    = errors.New("batch must contain at least one product")
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
)

// FailurePolicy controls what a batch returns when some products cannot be priced.
type FailurePolicy string

const (
	// PolicyFail fails the whole batch with the first failing product in input order.
	PolicyFail FailurePolicy = "fail"
	// PolicyPartial prices what it can and reports per-product errors.
	PolicyPartial FailurePolicy = "partial"
)

// ParseFailurePolicy accepts "fail" or "partial", case-insensitively.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyFail, PolicyPartial:
		return p, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

// CollaboratorError reports a failed estimator or competitor call.
type CollaboratorError struct {
	ProductID    string
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed for product %s: %v", e.Collaborator, e.ProductID, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Options tunes batch processing.
type Options struct {
	// Workers bounds concurrent product evaluations. Zero means GOMAXPROCS.
	Workers int
	// MaxBatchSize rejects larger batches. Zero means unlimited.
	MaxBatchSize int
	Policy       FailurePolicy
	// PublishTimeout bounds the background publish of a batch's decision events.
	// Zero means DefaultPublishTimeout.
	PublishTimeout time.Duration
}

// DefaultPublishTimeout is used when Options.PublishTimeout is zero.
const DefaultPublishTimeout = 5 * time.Second

// BatchResult is the outcome of one pricing request.
type BatchResult struct {
	BatchID string
	Items   []models.PricedProduct
}

// Failed counts products without a decision.
func (r *BatchResult) Failed() int {
	n := 0
	for _, item := range r.Items {
		if item.Failed() {
			n++
		}
	}
	return n
}

// PricingService validates batches, gathers forecasts and competitor prices,
// and runs the pricing engine for every product.
type PricingService struct {
	engine    *pricing.Engine
	estimator demand.Estimator
	lookup    competitor.Lookup
	publisher events.Publisher
	logger    *slog.Logger
	opts      Options
	now       func() time.Time

	// publishing tracks background event publishes
	publishing sync.WaitGroup
}

// NewPricingService creates a new pricing service
func NewPricingService(
	engine *pricing.Engine,
	estimator demand.Estimator,
	lookup competitor.Lookup,
	publisher events.Publisher,
	logger *slog.Logger,
	opts Options,
) *PricingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Policy == "" {
		opts.Policy = PolicyFail
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	return &PricingService{
		engine:    engine,
		estimator: estimator,
		lookup:    lookup,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// Policy returns the configured failure policy.
func (s *PricingService) Policy() FailurePolicy {
	return s.opts.Policy
}

// Process prices a batch. Items are returned in input order.
func (s *PricingService) Process(ctx context.Context, inputs []models.ProductInput) (*BatchResult, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyBatch
	}
	if s.opts.MaxBatchSize > 0 && len(inputs) > s.opts.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d products, limit is %d", ErrBatchTooLarge, len(inputs), s.opts.MaxBatchSize)
	}

	start := time.Now()
	batchID := uuid.New().String()

	snapshots, errs := validateBatch(inputs)
	if s.opts.Policy == PolicyFail {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}

	items := make([]models.PricedProduct, len(inputs))
	if err := s.evaluate(ctx, snapshots, errs, items); err != nil {
		s.logger.Warn("batch failed", "batch_id", batchID, "items", len(inputs), "error", err)
		return nil, err
	}

	for i := range items {
		if errs[i] != nil {
			items[i] = models.PricedProduct{
				ProductSnapshot: partialSnapshot(inputs[i]),
				Error:           errs[i].Error(),
			}
		}
	}

	result := &BatchResult{BatchID: batchID, Items: items}
	s.publish(ctx, result)

	s.logger.Info("batch priced",
		"batch_id", batchID,
		"items", len(items),
		"failed", result.Failed(),
		"estimator", s.estimator.Name(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// evaluate fills items for every valid snapshot. Under PolicyFail it returns the
// failure of the lowest-index product; under PolicyPartial failures land in errs.
// Products start in input order and a running product is never cancelled by a
// sibling's failure, so every product before the first failure is evaluated.
func (s *PricingService) evaluate(ctx context.Context, snapshots []models.ProductSnapshot, errs []error, items []models.PricedProduct) error {
	failFast := s.opts.Policy == PolicyFail

	// firstFailed is the lowest index that has failed so far, len(snapshots) if none.
	var firstFailed atomic.Int64
	firstFailed.Store(int64(len(snapshots)))
	markFailed := func(i int) {
		for {
			cur := firstFailed.Load()
			if int64(i) >= cur || firstFailed.CompareAndSwap(cur, int64(i)) {
				return
			}
		}
	}

	g := &errgroup.Group{}
	g.SetLimit(s.opts.Workers)

	for i := range snapshots {
		if errs[i] != nil {
			continue
		}
		if failFast && firstFailed.Load() < int64(i) {
			break
		}
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if failFast && firstFailed.Load() < int64(i) {
				return nil
			}
			priced, err := s.priceOne(ctx, snapshots[i])
			if err != nil {
				errs[i] = err
				markFailed(i)
				return nil
			}
			items[i] = priced
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if !failFast {
		return nil
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *PricingService) priceOne(ctx context.Context, snapshot models.ProductSnapshot) (models.PricedProduct, error) {
	id := snapshot.ProductID

	predicted, err := s.estimator.Estimate(ctx, demand.FeaturesFrom(snapshot))
	if err != nil {
		return models.PricedProduct{}, &CollaboratorError{ProductID: id, Collaborator: "demand estimator", Err: err}
	}

	competitorPrice, err := s.lookup.Lookup(ctx, id)
	if err != nil {
		return models.PricedProduct{}, &CollaboratorError{ProductID: id, Collaborator: "competitor lookup", Err: err}
	}

	decision, err := s.engine.Decide(snapshot, predicted, competitorPrice)
	if err != nil {
		return models.PricedProduct{}, err
	}

	return models.PricedProduct{ProductSnapshot: snapshot, PricingDecision: &decision}, nil
}

// publish sends one event per priced product in a single background write.
// The write is detached from the request and bounded by PublishTimeout.
// Failures are logged, never returned.
func (s *PricingService) publish(ctx context.Context, result *BatchResult) {
	pricedAt := s.now().UTC()
	msgs := make([]events.Message, 0, len(result.Items))
	for _, item := range result.Items {
		if item.Failed() {
			continue
		}
		msgs = append(msgs, events.Message{
			Key: item.ProductID,
			Value: events.DecisionEvent{
				BatchID:  result.BatchID,
				PricedAt: pricedAt,
				Product:  item,
			},
		})
	}
	if len(msgs) == 0 {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PublishTimeout)
	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		defer cancel()
		if err := s.publisher.Publish(pubCtx, msgs...); err != nil {
			s.logger.Warn("failed to publish pricing decisions",
				"batch_id", result.BatchID,
				"events", len(msgs),
				"error", err,
			)
		}
	}()
}

// Wait blocks until every background publish has finished.
func (s *PricingService) Wait() {
	s.publishing.Wait()
}

// validateBatch converts inputs to snapshots and flags invalid and duplicate products.
func validateBatch(inputs []models.ProductInput) ([]models.ProductSnapshot, []error) {
	snapshots := make([]models.ProductSnapshot, len(inputs))
	errs := make([]error, len(inputs))
	seen := make(map[string]struct{}, len(inputs))

	for i, in := range inputs {
		snapshot, err := in.Snapshot()
		if err != nil {
			errs[i] = err
			continue
		}
		if _, dup := seen[snapshot.ProductID]; dup {
			errs[i] = models.NewInputError(snapshot.ProductID, "product_id", "is duplicated within the batch")
			continue
		}
		seen[snapshot.ProductID] = struct{}{}
		snapshots[i] = snapshot
	}
	return snapshots, errs
}

// partialSnapshot echoes whatever fields an invalid input did carry.
func partialSnapshot(in models.ProductInput) models.ProductSnapshot {
	s := models.ProductSnapshot{ProductID: in.ID(), Category: strings.TrimSpace(in.Category)}
	if in.Inventory != nil {
		s.Inventory = *in.Inventory
	}
	s.BasePrice = finiteOrZero(in.BasePrice)
	s.SalesLast30Days = finiteOrZero(in.SalesLast30Days)
	s.AverageRating = finiteOrZero(in.AverageRating)
	return s
}

func finiteOrZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}
