package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pulse/internal/alert/domain"
	customerdomain "github.com/smallbiznis/pulse/internal/customer/domain"
	"github.com/smallbiznis/pulse/internal/events"
	healthdomain "github.com/smallbiznis/pulse/internal/health/domain"
	"github.com/smallbiznis/pulse/internal/observability/metrics"
	signaldomain "github.com/smallbiznis/pulse/internal/signal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config controls alert rule thresholds and deduplication.
type Config struct {
	// CooldownWindow suppresses a duplicate unresolved alert of the same
	// (customer, category) created within this window.
	CooldownWindow time.Duration

	// SLAAlertThreshold is the sla score below which an escalation alert
	// fires, given ticket activity in the window.
	SLAAlertThreshold int

	// InactivityScoreCeiling is "at or near zero" engagement.
	InactivityScoreCeiling int

	// InactivityRuns is how many consecutive scoring runs must sit at or
	// below the ceiling before an inactivity alert fires.
	InactivityRuns int
}

func DefaultConfig() Config {
	return Config{
		CooldownWindow:         7 * 24 * time.Hour,
		SLAAlertThreshold:      70,
		InactivityScoreCeiling: 5,
		InactivityRuns:         2,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.CooldownWindow <= 0 {
		c.CooldownWindow = defaults.CooldownWindow
	}
	if c.SLAAlertThreshold <= 0 {
		c.SLAAlertThreshold = defaults.SLAAlertThreshold
	}
	if c.InactivityScoreCeiling < 0 {
		c.InactivityScoreCeiling = defaults.InactivityScoreCeiling
	}
	if c.InactivityRuns <= 0 {
		c.InactivityRuns = defaults.InactivityRuns
	}
	return c
}

// Input is everything the rules need about a freshly committed snapshot.
// Prior is the snapshot that was current before this run, nil for a first
// run. RecentHistory is newest-first and includes the entry for this run.
type Input struct {
	Customer      *customerdomain.Customer
	Bundle        *signaldomain.Bundle
	Snapshot      *healthdomain.HealthScoreSnapshot
	Prior         *healthdomain.HealthScoreSnapshot
	RecentHistory []healthdomain.HealthScoreHistoryEntry
}

// Trigger evaluates alert rules against committed snapshots. It runs
// strictly after the snapshot commit; its failures never touch the snapshot.
type Trigger struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	outbox  *events.Outbox
	genID   *snowflake.Node
	metrics *metrics.ScoringMetrics
	cfg     Config
}

func New(db *gorm.DB, log *zap.Logger, repo domain.Repository, outbox *events.Outbox, genID *snowflake.Node, m *metrics.ScoringMetrics, cfg Config) *Trigger {
	return &Trigger{
		db:      db,
		log:     log.Named("alert.trigger"),
		repo:    repo,
		outbox:  outbox,
		genID:   genID,
		metrics: m,
		cfg:     cfg.withDefaults(),
	}
}

// RunsNeeded reports how many recent history entries the inactivity rule
// inspects, the current run included.
func (t *Trigger) RunsNeeded() int {
	return t.cfg.InactivityRuns
}

// Evaluate runs every rule and creates the surviving alert events. Each
// event commits in its own transaction together with the dedup check and
// the outbox row, so a failure in one rule does not lose the others.
func (t *Trigger) Evaluate(ctx context.Context, in Input) ([]*domain.AlertEvent, error) {
	if in.Snapshot == nil {
		return nil, fmt.Errorf("trigger: missing snapshot")
	}

	candidates := t.collectCandidates(in)
	created := make([]*domain.AlertEvent, 0, len(candidates))
	var firstErr error
	for _, candidate := range candidates {
		event, err := t.create(ctx, candidate)
		if err != nil {
			t.log.Warn("alert creation failed",
				zap.String("customer_id", candidate.CustomerID.String()),
				zap.String("category", string(candidate.Category)),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if event != nil {
			created = append(created, event)
			t.metrics.IncAlertEmitted(string(event.Category))
		}
	}
	return created, firstErr
}

func (t *Trigger) collectCandidates(in Input) []*domain.AlertEvent {
	var candidates []*domain.AlertEvent
	if event := t.healthDrop(in); event != nil {
		candidates = append(candidates, event)
	}
	if event := t.contractExpiry(in); event != nil {
		candidates = append(candidates, event)
	}
	if event := t.escalation(in); event != nil {
		candidates = append(candidates, event)
	}
	if event := t.inactivity(in); event != nil {
		candidates = append(candidates, event)
	}
	return candidates
}

// healthDrop fires when risk severity increased against the prior snapshot.
func (t *Trigger) healthDrop(in Input) *domain.AlertEvent {
	if in.Prior == nil {
		return nil
	}
	current := in.Snapshot.RiskLevel
	if current.Rank() <= in.Prior.RiskLevel.Rank() {
		return nil
	}
	return t.newEvent(in, domain.CategoryHealthDrop, severityForRisk(current),
		fmt.Sprintf("Health risk escalated to %s", current),
		fmt.Sprintf("Overall score moved from %d to %d, raising risk from %s to %s.",
			in.Prior.OverallScore, in.Snapshot.OverallScore, in.Prior.RiskLevel, current),
	)
}

// severityForRisk mirrors the risk level a health drop landed in.
func severityForRisk(level healthdomain.RiskLevel) domain.Severity {
	switch level {
	case healthdomain.RiskLevelCritical:
		return domain.SeverityCritical
	case healthdomain.RiskLevelHigh:
		return domain.SeverityWarning
	default:
		return domain.SeverityInfo
	}
}

// contractExpiry fires when the financial score enters its lowest band:
// contract expiring within 30 days, already expired, or none on file.
func (t *Trigger) contractExpiry(in Input) *domain.AlertEvent {
	if in.Snapshot.FinancialScore > 30 {
		return nil
	}
	severity := domain.SeverityWarning
	description := "Contract expires within 30 days."
	if in.Snapshot.FinancialScore == 0 {
		severity = domain.SeverityCritical
		description = "Contract has expired or none is on file."
	}
	return t.newEvent(in, domain.CategoryContractExpiry, severity,
		"Contract renewal at risk", description)
}

// escalation fires when SLA compliance dropped below the threshold while
// the customer actually had tickets in the window.
func (t *Trigger) escalation(in Input) *domain.AlertEvent {
	if in.Bundle == nil || in.Bundle.Tickets.Total <= 0 {
		return nil
	}
	if in.Snapshot.SLAScore >= t.cfg.SLAAlertThreshold {
		return nil
	}
	return t.newEvent(in, domain.CategoryEscalation, domain.SeverityWarning,
		"SLA compliance degraded",
		fmt.Sprintf("SLA score %d fell below %d with %d tickets in window (%d breached).",
			in.Snapshot.SLAScore, t.cfg.SLAAlertThreshold, in.Bundle.Tickets.Total, in.Bundle.Tickets.Breached),
	)
}

// inactivity fires when engagement sat at or near zero for the configured
// number of consecutive runs, the current one included.
func (t *Trigger) inactivity(in Input) *domain.AlertEvent {
	if in.Snapshot.EngagementScore > t.cfg.InactivityScoreCeiling {
		return nil
	}
	if len(in.RecentHistory) < t.cfg.InactivityRuns {
		return nil
	}
	for _, entry := range in.RecentHistory[:t.cfg.InactivityRuns] {
		if entry.EngagementScore > t.cfg.InactivityScoreCeiling {
			return nil
		}
	}
	return t.newEvent(in, domain.CategoryInactivity, domain.SeverityWarning,
		"Customer has gone quiet",
		fmt.Sprintf("Engagement stayed at or below %d for %d consecutive scoring runs.",
			t.cfg.InactivityScoreCeiling, t.cfg.InactivityRuns),
	)
}

func (t *Trigger) newEvent(in Input, category domain.Category, severity domain.Severity, title, description string) *domain.AlertEvent {
	return &domain.AlertEvent{
		ID:          t.genID.Generate(),
		CustomerID:  in.Snapshot.CustomerID,
		Category:    category,
		Severity:    severity,
		Title:       title,
		Description: description,
		Resolved:    false,
		CreatedAt:   in.Snapshot.CalculatedAt,
	}
}

// create runs the dedup check, the insert, and the outbox publish in one
// transaction. Returns nil when the cooldown suppressed the event.
func (t *Trigger) create(ctx context.Context, event *domain.AlertEvent) (*domain.AlertEvent, error) {
	var suppressed bool
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		since := event.CreatedAt.Add(-t.cfg.CooldownWindow)
		exists, err := t.repo.HasUnresolvedSince(ctx, tx, event.CustomerID, event.Category, since)
		if err != nil {
			return err
		}
		if exists {
			suppressed = true
			return nil
		}
		if err := t.repo.Insert(ctx, tx, event); err != nil {
			return err
		}
		return t.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventAlertRaised,
			Payload:   events.NewAlertRaisedPayload(event).ToMap(),
			DedupeKey: event.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	if suppressed {
		t.log.Debug("alert suppressed by cooldown",
			zap.String("customer_id", event.CustomerID.String()),
			zap.String("category", string(event.Category)),
		)
		return nil, nil
	}
	return event, nil
}
