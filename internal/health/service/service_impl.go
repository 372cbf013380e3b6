package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pulse/internal/alert/trigger"
	"github.com/smallbiznis/pulse/internal/cache"
	"github.com/smallbiznis/pulse/internal/clock"
	"github.com/smallbiznis/pulse/internal/config"
	customerdomain "github.com/smallbiznis/pulse/internal/customer/domain"
	"github.com/smallbiznis/pulse/internal/health/domain"
	"github.com/smallbiznis/pulse/internal/health/scoring"
	"github.com/smallbiznis/pulse/internal/observability/metrics"
	"github.com/smallbiznis/pulse/internal/signal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// snapshotCacheTTL bounds staleness of the read-path snapshot cache; every
// scoring run overwrites the entry immediately after commit.
const snapshotCacheTTL = 5 * time.Minute

type Params struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Config    config.Config
	Customers customerdomain.Repository
	Collector *signal.Collector
	Scorer    *scoring.Scorer
	Store     domain.SnapshotStore
	Trigger   *trigger.Trigger
	Metrics   *metrics.ScoringMetrics
	GenID     *snowflake.Node
}

// ServiceImpl sequences signal collection, scoring, persistence, and alert
// evaluation for one customer, and fans the same pipeline out across the
// population for batch runs.
type ServiceImpl struct {
	log       *zap.Logger
	clock     clock.Clock
	cfg       config.BatchConfig
	customers customerdomain.Repository
	collector *signal.Collector
	scorer    *scoring.Scorer
	store     domain.SnapshotStore
	trigger   *trigger.Trigger
	metrics   *metrics.ScoringMetrics
	genID     *snowflake.Node

	locks        *keyedMutex
	current      *cache.TTLCache[snowflake.ID, domain.HealthScoreSnapshot]
	batchRunning atomic.Bool
}

func NewService(p Params) domain.Service {
	return &ServiceImpl{
		log:       p.Log.Named("health.service"),
		clock:     p.Clock,
		cfg:       p.Config.Batch,
		customers: p.Customers,
		collector: p.Collector,
		scorer:    p.Scorer,
		store:     p.Store,
		trigger:   p.Trigger,
		metrics:   p.Metrics,
		genID:     p.GenID,
		locks:     newKeyedMutex(),
		current:   cache.NewTTLCache[snowflake.ID, domain.HealthScoreSnapshot](),
	}
}

// ScoreCustomer recomputes the customer's health score on demand. The
// snapshot and history entry commit atomically; alert evaluation runs
// afterwards and its failure is reported without undoing the commit.
func (s *ServiceImpl) ScoreCustomer(ctx context.Context, customerID snowflake.ID) (*domain.ScoringResult, error) {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	start := time.Now()
	result, err := s.scoreLocked(ctx, customerID)
	s.metrics.ObserveRunDuration(time.Since(start))
	if err != nil {
		s.metrics.IncScoringRun("failed")
		return nil, err
	}
	if result.AlertErr != nil {
		s.metrics.IncScoringRun("alert_failed")
	} else {
		s.metrics.IncScoringRun("calculated")
	}
	return result, nil
}

func (s *ServiceImpl) scoreLocked(ctx context.Context, customerID snowflake.ID) (*domain.ScoringResult, error) {
	now := s.clock.Now()

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	bundle, err := s.collector.Collect(ctx, customerID, now)
	if err != nil {
		return nil, fmt.Errorf("collect signals: %w", err)
	}

	components := s.scorer.Score(bundle, now)
	overall := scoring.Overall(components)
	risk := scoring.ClassifyRisk(overall)

	baseline, err := s.store.HistoryBefore(ctx, customerID, now.Add(-scoring.BaselineAge))
	if err != nil {
		return nil, fmt.Errorf("load trend baseline: %w", err)
	}
	trend := scoring.ClassifyTrend(overall, baseline)

	prior, err := s.store.LatestSnapshot(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load prior snapshot: %w", err)
	}

	snapshot := &domain.HealthScoreSnapshot{
		ID:              s.genID.Generate(),
		CustomerID:      customerID,
		AdoptionScore:   components.Adoption,
		SupportScore:    components.Support,
		EngagementScore: components.Engagement,
		FinancialScore:  components.Financial,
		SLAScore:        components.SLA,
		OverallScore:    overall,
		RiskLevel:       risk,
		Trend:           trend,
		CalculatedAt:    now,
	}
	entry := &domain.HealthScoreHistoryEntry{
		ID:              s.genID.Generate(),
		CustomerID:      customerID,
		SnapshotID:      snapshot.ID,
		AdoptionScore:   components.Adoption,
		SupportScore:    components.Support,
		EngagementScore: components.Engagement,
		FinancialScore:  components.Financial,
		SLAScore:        components.SLA,
		OverallScore:    overall,
		RiskLevel:       risk,
		Trend:           trend,
		RecordedAt:      now,
	}

	if err := s.store.SaveSnapshot(ctx, snapshot, entry); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	s.current.Set(customerID, *snapshot, snapshotCacheTTL)
	s.metrics.IncRiskLevel(string(risk))

	result := &domain.ScoringResult{
		Snapshot: snapshot,
		Degraded: bundle.Degraded,
	}

	recent, err := s.store.RecentHistory(ctx, customerID, s.trigger.RunsNeeded())
	if err != nil {
		result.AlertErr = fmt.Errorf("load recent history: %w", err)
		s.logAlertFailure(customerID, result.AlertErr)
		return result, nil
	}

	alerts, err := s.trigger.Evaluate(ctx, trigger.Input{
		Customer:      customer,
		Bundle:        bundle,
		Snapshot:      snapshot,
		Prior:         prior,
		RecentHistory: recent,
	})
	result.Alerts = alerts
	if err != nil {
		result.AlertErr = err
		s.logAlertFailure(customerID, err)
	}
	return result, nil
}

func (s *ServiceImpl) logAlertFailure(customerID snowflake.ID, err error) {
	s.log.Warn("alert evaluation failed after commit",
		zap.String("customer_id", customerID.String()),
		zap.Error(err),
	)
}

// ScoreAll scores the whole population through a bounded worker pool. Only
// one batch run is admitted at a time. Customer failures are isolated into
// the summary; cancellation stops scheduling while in-flight customers run
// to their commit point.
func (s *ServiceImpl) ScoreAll(ctx context.Context, concurrency int) (*domain.BatchSummary, error) {
	if !s.batchRunning.CompareAndSwap(false, true) {
		return nil, domain.ErrBatchRunning
	}
	defer s.batchRunning.Store(false)

	if concurrency <= 0 {
		concurrency = s.cfg.Concurrency
	}

	ids, err := s.customers.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	summary := &domain.BatchSummary{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	remaining := len(ids)
	s.metrics.SetBatchBacklog(remaining)

	for _, id := range ids {
		select {
		case <-ctx.Done():
			mu.Lock()
			summary.Failed++
			summary.Errors = append(summary.Errors, domain.BatchError{
				CustomerID: id,
				Reason:     ctx.Err().Error(),
			})
			mu.Unlock()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(customerID snowflake.ID) {
			defer wg.Done()
			defer func() { <-sem }()

			alertErr, err := s.scoreOne(ctx, customerID)

			mu.Lock()
			remaining--
			s.metrics.SetBatchBacklog(remaining)
			if err != nil {
				summary.Failed++
				summary.Errors = append(summary.Errors, domain.BatchError{
					CustomerID: customerID,
					Reason:     err.Error(),
				})
			} else {
				summary.Calculated++
				if alertErr != nil {
					summary.AlertFailures = append(summary.AlertFailures, domain.BatchError{
						CustomerID: customerID,
						Reason:     alertErr.Error(),
					})
				}
			}
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	s.metrics.SetBatchBacklog(0)

	s.log.Info("batch scoring run finished",
		zap.Int("calculated", summary.Calculated),
		zap.Int("failed", summary.Failed),
		zap.Int("alert_failures", len(summary.AlertFailures)),
	)
	return summary, nil
}

// scoreOne wraps a single batch unit with its own timeout and panic
// isolation so one customer can never take down its siblings. A non-nil
// alertErr means the snapshot committed but alert evaluation failed; the
// caller reports it in the summary without counting the customer as failed.
func (s *ServiceImpl) scoreOne(ctx context.Context, customerID snowflake.ID) (alertErr, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	runCtx := ctx
	if s.cfg.CustomerTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CustomerTimeout)
		defer cancel()
	}

	result, err := s.ScoreCustomer(runCtx, customerID)
	if err != nil {
		return nil, err
	}
	if result.AlertErr != nil {
		s.log.Warn("batch alert emission failed",
			zap.String("customer_id", customerID.String()),
			zap.Error(result.AlertErr),
		)
	}
	return result.AlertErr, nil
}

// CurrentSnapshot returns the latest committed snapshot for the customer.
func (s *ServiceImpl) CurrentSnapshot(ctx context.Context, customerID snowflake.ID) (*domain.HealthScoreSnapshot, error) {
	if cached, ok := s.current.Get(customerID); ok {
		return &cached, nil
	}
	snapshot, err := s.store.LatestSnapshot(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		if _, err := s.customers.FindByID(ctx, customerID); err != nil {
			return nil, err
		}
		return nil, domain.ErrNoSnapshot
	}
	s.current.Set(customerID, *snapshot, snapshotCacheTTL)
	return snapshot, nil
}

// History returns the newest history entries for the customer.
func (s *ServiceImpl) History(ctx context.Context, customerID snowflake.ID, limit int) ([]domain.HealthScoreHistoryEntry, error) {
	if limit < 0 {
		return nil, domain.ErrInvalidWindow
	}
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.store.RecentHistory(ctx, customerID, limit)
}
