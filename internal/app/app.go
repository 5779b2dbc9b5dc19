// Package app wires configuration into the pricing service graph shared by
// the HTTP server and the pricectl CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/competitor"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/config"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/demand"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/events"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/pricing"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/repository"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/service"
)

// Version is reported by the health endpoints and the CLI.
const Version = "1.0.0"

// App holds the wired components.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Engine      *pricing.Engine
	Estimator   demand.Estimator
	Competitors competitor.Lookup
	Publisher   events.Publisher
	Pricing     *service.PricingService
	Products    *service.ProductService

	closers []func() error
}

// New builds every component described by cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	engine, err := pricing.NewEngine(pricing.Config{
		MinMarkup:           cfg.Pricing.MinMarkup,
		MaxMarkup:           cfg.Pricing.MaxMarkup,
		CategoryMultipliers: cfg.Pricing.CategoryMultipliers,
	})
	if err != nil {
		return nil, err
	}

	policy, err := service.ParseFailurePolicy(cfg.Pricing.FailurePolicy)
	if err != nil {
		return nil, err
	}

	estimator, err := NewEstimator(cfg.Demand)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Engine:    engine,
		Estimator: estimator,
	}

	competitors, closeCompetitors, err := NewCompetitorSource(ctx, cfg.Competitor, logger)
	if err != nil {
		return nil, err
	}
	a.Competitors = competitors
	a.closers = append(a.closers, closeCompetitors)

	a.Publisher = events.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	a.closers = append(a.closers, a.Publisher.Close)

	a.Pricing = service.NewPricingService(engine, estimator, competitors, a.Publisher, logger, service.Options{
		Workers:        cfg.Pricing.Workers,
		MaxBatchSize:   cfg.Pricing.MaxBatchSize,
		Policy:         policy,
		PublishTimeout: cfg.Kafka.PublishTimeout,
	})
	a.Products = service.NewProductService(repository.NewInMemoryProductRepository(), a.Pricing)

	logger.Info("pricing service ready",
		"estimator", estimator.Name(),
		"competitor_source", cfg.Competitor.Source,
		"failure_policy", policy,
		"workers", cfg.Pricing.Workers,
		"kafka_enabled", len(cfg.Kafka.Brokers) > 0,
	)
	return a, nil
}

// Close waits for pending decision events, then releases publishers and
// database connections.
func (a *App) Close() error {
	if a.Pricing != nil {
		a.Pricing.Wait()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewEstimator selects the demand estimator named by cfg.Estimator.
func NewEstimator(cfg config.DemandConfig) (demand.Estimator, error) {
	switch cfg.Estimator {
	case demand.KindFormula, "":
		return demand.NewFormula(), nil
	case demand.KindLinear:
		linear, err := demand.LoadLinear(cfg.ModelPath)
		if err != nil {
			return nil, err
		}
		return linear, nil
	case demand.KindRemote:
		return demand.NewRemote(cfg.URL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown demand estimator %q", cfg.Estimator)
	}
}

// NewCompetitorSource selects the competitor source named by cfg.Source.
// The returned close function is never nil.
func NewCompetitorSource(ctx context.Context, cfg config.CompetitorConfig, logger *slog.Logger) (competitor.Lookup, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Source {
	case competitor.SourceStatic, "":
		return competitor.NewStatic(competitor.DefaultFixture()), noop, nil

	case competitor.SourceFeed:
		feed := competitor.NewFeed(cfg.Timeout)
		if err := feed.Load(ctx, cfg.FeedURLs); err != nil {
			return nil, nil, err
		}
		stats := feed.Stats()
		logger.Info("competitor feeds loaded", "feeds", len(cfg.FeedURLs), "total_prices", stats["total_prices"])
		return feed, noop, nil

	case competitor.SourceMySQL:
		store, err := competitor.OpenMySQL(cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		prefilter, err := competitor.NewPrefilter(ctx, store, cfg.BloomFPRate)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		return prefilter, store.Close, nil

	case competitor.SourceRemote:
		return competitor.NewRemote(cfg.URL, cfg.Timeout), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown competitor source %q", cfg.Source)
	}
}
