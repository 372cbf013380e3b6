package trigger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/smallbiznis/pulse/internal/alert/domain"
	alertrepo "github.com/smallbiznis/pulse/internal/alert/repository"
	"github.com/smallbiznis/pulse/internal/clock"
	"github.com/smallbiznis/pulse/internal/events"
	healthdomain "github.com/smallbiznis/pulse/internal/health/domain"
	signaldomain "github.com/smallbiznis/pulse/internal/signal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTriggerTest(t *testing.T) (*Trigger, *gorm.DB, *snowflake.Node) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&alertdomain.AlertEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Exec(
		`CREATE TABLE IF NOT EXISTS alert_events_outbox (
			id BIGINT PRIMARY KEY,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL,
			dedupe_key TEXT UNIQUE,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		)`).Error; err != nil {
		t.Fatalf("create outbox table: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	outbox := events.NewOutbox(db, node, clock.SystemClock{})
	trig := New(db, zap.NewNop(), alertrepo.NewRepository(db), outbox, node, nil, DefaultConfig())
	return trig, db, node
}

func snapshotInput(node *snowflake.Node, at time.Time) Input {
	customerID := node.Generate()
	return Input{
		Bundle: &signaldomain.Bundle{CustomerID: customerID},
		Snapshot: &healthdomain.HealthScoreSnapshot{
			ID:              node.Generate(),
			CustomerID:      customerID,
			AdoptionScore:   80,
			SupportScore:    80,
			EngagementScore: 80,
			FinancialScore:  80,
			SLAScore:        100,
			OverallScore:    82,
			RiskLevel:       healthdomain.RiskLevelLow,
			Trend:           healthdomain.TrendStable,
			CalculatedAt:    at,
		},
	}
}

func categories(alerts []*alertdomain.AlertEvent) map[alertdomain.Category]bool {
	set := make(map[alertdomain.Category]bool, len(alerts))
	for _, alert := range alerts {
		set[alert.Category] = true
	}
	return set
}

func TestEvaluateHealthyCustomerRaisesNothing(t *testing.T) {
	trig, _, node := setupTriggerTest(t)
	in := snapshotInput(node, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	alerts, err := trig.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %d", len(alerts))
	}
}

func TestHealthDropFiresOnRiskIncrease(t *testing.T) {
	trig, _, node := setupTriggerTest(t)
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	in := snapshotInput(node, at)
	in.Snapshot.OverallScore = 52
	in.Snapshot.RiskLevel = healthdomain.RiskLevelHigh
	in.Prior = &healthdomain.HealthScoreSnapshot{
		CustomerID:   in.Snapshot.CustomerID,
		OverallScore: 72,
		RiskLevel:    healthdomain.RiskLevelMedium,
		CalculatedAt: at.Add(-24 * time.Hour),
	}

	alerts, err := trig.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	set := categories(alerts)
	if !set[alertdomain.CategoryHealthDrop] {
		t.Fatalf("expected health_drop alert, got %v", set)
	}
	for _, alert := range alerts {
		if alert.Category == alertdomain.CategoryHealthDrop && alert.Severity != alertdomain.SeverityWarning {
			t.Fatalf("expected warning severity, got %s", alert.Severity)
		}
	}
}

func TestHealthDropSeverityMirrorsRiskLevel(t *testing.T) {
	trig, _, node := setupTriggerTest(t)
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	in := snapshotInput(node, at)
	in.Snapshot.OverallScore = 72
	in.Snapshot.RiskLevel = healthdomain.RiskLevelMedium
	in.Prior = &healthdomain.HealthScoreSnapshot{
		CustomerID:   in.Snapshot.CustomerID,
		OverallScore: 84,
		RiskLevel:    healthdomain.RiskLevelLow,
		CalculatedAt: at.Add(-24 * time.Hour),
	}

	alerts, err := trig.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	found := false
	for _, alert := range alerts {
		if alert.Category == alertdomain.CategoryHealthDrop {
			found = true
			if alert.Severity != alertdomain.SeverityInfo {
				t.Fatalf("low to medium drop should be info, got %s", alert.Severity)
			}
		}
	}
	if !found {
		t.Fatal("expected health_drop alert")
	}
}

func TestHealthDropCriticalSeverity(t *testing.T) {
	trig, _, node := setupTriggerTest(t)
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	in := snapshotInput(node, at)
	in.Snapshot.OverallScore = 20
	in.Snapshot.RiskLevel = healthdomain.RiskLevelCritical
	in.Prior = &healthdomain.HealthScoreSnapshot{
		CustomerID:   in.Snapshot.CustomerID,
		OverallScore: 45,
		RiskLevel:    healthdomain.RiskLevelHigh,
		CalculatedAt: at.Add(-24 * time.Hour),
	}

	alerts, err := trig.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	found := false
	for _, alert := range alerts {
		if alert.Category == alertdomain.CategoryHealthDrop {
			found = true
			if alert.Severity != alertdomain.SeverityCritical {
				t.Fatalf("expected critical severity, got %s", alert.Severity)
			}
		}
	}
	if !found {
		t.Fatal("expected health_drop alert")
	}
}

func TestHealthDropSkippedOnFirstRun(t *testing.T) {
	trig, _, node := setupTriggerTest(t)
	in := snapshotInput(node, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	in.Snapshot.RiskLevel = healthdomain.RiskLevelHigh
	in.Snapshot.OverallScore = 45

	alerts, err := trig.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if categories(alerts)[alertdomain.CategoryHealthDrop] {
		t.Fatal("health_drop must not fire without a prior snapshot")
	}
}

func TestCooldownSuppressesDuplicate(t *testing.T) {
	trig, db, node := setupTriggerTest(t)
	at := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	in := snapshotInput(node, at)
	in.Snapshot.FinancialScore = 30

	// Unresolved contract_expiry from two days ago is inside the window.
	existing := &alertdomain.AlertEvent{
		ID:          node.Generate(),
		CustomerID:  in.Snapshot.CustomerID,
		Category:    alertdomain.CategoryContractExpiry,
		Severity:    alertdomain.SeverityWarning,
		Title:       "Contract renewal at risk",
		Description: "Contract expires within 30 days.",
		CreatedAt:   at.Add(-2 * 24 * time.Hour),
	}
	if err := db.Create(existing).Error; err != nil {
		t.Fatalf("seed alert: %v", err)
	}

	alerts, err := trig.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if categories(alerts)[alertdomain.CategoryContractExpiry] {
		t.Fatal("expected cooldown to suppress duplicate contract_expiry")
	}

	var count int64
	db.Model(&alertdomain.AlertEvent{}).
		Where("customer_id = ? AND category = ?", in.Snapshot.CustomerID, alertdomain.CategoryContractExpiry).
		Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 stored alert, got %d", count)
	}
}

func TestCooldownExpiredAllowsNewAlert(t *testing.T) {
	trig, db, node := setupTriggerTest(t)
	at := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	in := snapshotInput(node, at)
	in.Snapshot.FinancialScore = 30

	existing := &alertdomain.AlertEvent{
		ID:          node.Generate(),
		CustomerID:  in.Snapshot.CustomerID,
		Category:    alertdomain.CategoryContractExpiry,
		Severity:    alertdomain.SeverityWarning,
		Title:       "Contract renewal at risk",
		Description: "Contract expires within 30 days.",
		CreatedAt:   at.Add(-9 * 24 * time.Hour),
	}
	if err := db.Create(existing).Error; err != nil {
		t.Fatalf("seed alert: %v", err)
	}

	alerts, err := trig.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !categories(alerts)[alertdomain.CategoryContractExpiry] {
		t.Fatal("expected a fresh contract_expiry after the cooldown lapsed")
	}
}

func TestContractExpirySeverities(t *testing.T) {
	trig, _, node := setupTriggerTest(t)
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	in := snapshotInput(node, at)
	in.Snapshot.FinancialScore = 0
	alerts, err := trig.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	found := false
	for _, alert := range alerts {
		if alert.Category == alertdomain.CategoryContractExpiry {
			found = true
			if alert.Severity != alertdomain.SeverityCritical {
				t.Fatalf("expected critical severity at score 0, got %s", alert.Severity)
			}
		}
	}
	if !found {
		t.Fatal("expected contract_expiry alert")
	}
}

func TestEscalationNeedsTickets(t *testing.T) {
	trig, _, node := setupTriggerTest(t)
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	in := snapshotInput(node, at)
	in.Snapshot.SLAScore = 40
	in.Bundle.Tickets = signaldomain.TicketStats{}
	alerts, err := trig.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if categories(alerts)[alertdomain.CategoryEscalation] {
		t.Fatal("escalation must not fire without ticket activity")
	}

	in = snapshotInput(node, at)
	in.Snapshot.SLAScore = 40
	in.Bundle.Tickets = signaldomain.TicketStats{Total: 5, Breached: 3}
	alerts, err = trig.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !categories(alerts)[alertdomain.CategoryEscalation] {
		t.Fatal("expected escalation alert")
	}
}

func TestInactivityNeedsConsecutiveRuns(t *testing.T) {
	trig, _, node := setupTriggerTest(t)
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// First quiet run: only one history entry, no alert yet.
	in := snapshotInput(node, at)
	in.Snapshot.EngagementScore = 0
	in.RecentHistory = []healthdomain.HealthScoreHistoryEntry{
		{CustomerID: in.Snapshot.CustomerID, EngagementScore: 0, RecordedAt: at},
	}
	alerts, err := trig.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if categories(alerts)[alertdomain.CategoryInactivity] {
		t.Fatal("inactivity must not fire after a single quiet run")
	}

	// Second consecutive quiet run fires.
	in = snapshotInput(node, at.Add(24*time.Hour))
	in.Snapshot.EngagementScore = 3
	in.RecentHistory = []healthdomain.HealthScoreHistoryEntry{
		{CustomerID: in.Snapshot.CustomerID, EngagementScore: 3, RecordedAt: at.Add(24 * time.Hour)},
		{CustomerID: in.Snapshot.CustomerID, EngagementScore: 0, RecordedAt: at},
	}
	alerts, err = trig.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !categories(alerts)[alertdomain.CategoryInactivity] {
		t.Fatal("expected inactivity alert after two quiet runs")
	}
}

func TestInactivityResetByActivity(t *testing.T) {
	trig, _, node := setupTriggerTest(t)
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	in := snapshotInput(node, at.Add(24*time.Hour))
	in.Snapshot.EngagementScore = 2
	in.RecentHistory = []healthdomain.HealthScoreHistoryEntry{
		{CustomerID: in.Snapshot.CustomerID, EngagementScore: 2, RecordedAt: at.Add(24 * time.Hour)},
		{CustomerID: in.Snapshot.CustomerID, EngagementScore: 60, RecordedAt: at},
	}
	alerts, err := trig.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if categories(alerts)[alertdomain.CategoryInactivity] {
		t.Fatal("inactivity must reset when a recent run had engagement")
	}
}

func TestEvaluateWritesOutboxRow(t *testing.T) {
	trig, db, node := setupTriggerTest(t)
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	in := snapshotInput(node, at)
	in.Snapshot.FinancialScore = 30

	alerts, err := trig.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}

	var count int64
	db.Raw(`SELECT COUNT(1) FROM alert_events_outbox WHERE event_type = ?`, events.EventAlertRaised).Scan(&count)
	if count != 1 {
		t.Fatalf("expected 1 outbox row, got %d", count)
	}
}
