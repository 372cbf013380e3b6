package signal

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/pulse/internal/customer/domain"
	"github.com/smallbiznis/pulse/internal/signal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config controls the observation windows for signal collection.
type Config struct {
	EngagementWindow time.Duration
	SLAWindow        time.Duration
	FallbackCatalog  int
}

func DefaultConfig() Config {
	return Config{
		EngagementWindow: 90 * 24 * time.Hour,
		SLAWindow:        30 * 24 * time.Hour,
		FallbackCatalog:  3,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.EngagementWindow <= 0 {
		c.EngagementWindow = defaults.EngagementWindow
	}
	if c.SLAWindow <= 0 {
		c.SLAWindow = defaults.SLAWindow
	}
	if c.FallbackCatalog <= 0 {
		c.FallbackCatalog = defaults.FallbackCatalog
	}
	return c
}

// Collector assembles the raw signal bundle for a customer. The customer
// lookup is fatal when missing; every other failed read degrades to that
// signal's zero-data default and is reported in Bundle.Degraded.
type Collector struct {
	log       *zap.Logger
	customers customerdomain.Repository
	source    domain.Source
	cfg       Config
}

func NewCollector(log *zap.Logger, customers customerdomain.Repository, source domain.Source, cfg Config) *Collector {
	return &Collector{
		log:       log.Named("signal.collector"),
		customers: customers,
		source:    source,
		cfg:       cfg.withDefaults(),
	}
}

// Collect gathers all raw signals for the customer as of the given instant.
// The independent sub-queries run concurrently.
func (c *Collector) Collect(ctx context.Context, customerID snowflake.ID, at time.Time) (*domain.Bundle, error) {
	customer, err := c.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	bundle := &domain.Bundle{
		CustomerID:    customerID,
		ContractEndAt: customer.ContractEndAt,
	}

	var (
		tickets      domain.TicketStats
		interactions int
		deployments  int
		catalog      int

		degradedTickets      bool
		degradedInteractions bool
		degradedDeployments  bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := c.source.TicketStats(gctx, customerID, at.Add(-c.cfg.SLAWindow))
		if err != nil {
			c.log.Warn("ticket stats unavailable", zap.String("customer_id", customerID.String()), zap.Error(err))
			degradedTickets = true
			return nil
		}
		tickets = stats
		return nil
	})
	g.Go(func() error {
		count, err := c.source.InteractionCount(gctx, customerID, at.Add(-c.cfg.EngagementWindow))
		if err != nil {
			c.log.Warn("interaction count unavailable", zap.String("customer_id", customerID.String()), zap.Error(err))
			degradedInteractions = true
			return nil
		}
		interactions = count
		return nil
	})
	g.Go(func() error {
		count, err := c.source.ActiveDeploymentCount(gctx, customerID)
		if err != nil {
			c.log.Warn("deployment count unavailable", zap.String("customer_id", customerID.String()), zap.Error(err))
			degradedDeployments = true
			return nil
		}
		deployments = count

		size, err := c.source.CatalogSize(gctx)
		if err != nil || size <= 0 {
			size = c.cfg.FallbackCatalog
		}
		catalog = size
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bundle.Tickets = tickets
	bundle.Interactions = interactions
	bundle.ActiveDeployments = deployments
	bundle.CatalogSize = catalog
	if bundle.CatalogSize <= 0 {
		bundle.CatalogSize = c.cfg.FallbackCatalog
	}

	if degradedTickets {
		bundle.Degraded = append(bundle.Degraded, "tickets")
	}
	if degradedInteractions {
		bundle.Degraded = append(bundle.Degraded, "interactions")
	}
	if degradedDeployments {
		bundle.Degraded = append(bundle.Degraded, "deployments")
	}
	return bundle, nil
}
