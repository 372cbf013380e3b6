package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pulse/internal/health/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.HealthScoreSnapshot{}, &domain.HealthScoreHistoryEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

func saveAt(t *testing.T, store domain.SnapshotStore, node *snowflake.Node, customerID snowflake.ID, overall int, at time.Time) *domain.HealthScoreSnapshot {
	t.Helper()
	snapshot := &domain.HealthScoreSnapshot{
		ID:           node.Generate(),
		CustomerID:   customerID,
		OverallScore: overall,
		RiskLevel:    domain.RiskLevelMedium,
		Trend:        domain.TrendStable,
		CalculatedAt: at,
	}
	entry := &domain.HealthScoreHistoryEntry{
		ID:           node.Generate(),
		CustomerID:   customerID,
		SnapshotID:   snapshot.ID,
		OverallScore: overall,
		RiskLevel:    snapshot.RiskLevel,
		Trend:        snapshot.Trend,
		RecordedAt:   at,
	}
	if err := store.SaveSnapshot(context.Background(), snapshot, entry); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	return snapshot
}

func TestSaveSnapshotWritesBothTables(t *testing.T) {
	db := setupTestDB(t)
	node := testNode(t)
	store := NewRepository(db)
	customerID := node.Generate()

	saveAt(t, store, node, customerID, 72, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	var snapshots, entries int64
	db.Model(&domain.HealthScoreSnapshot{}).Count(&snapshots)
	db.Model(&domain.HealthScoreHistoryEntry{}).Count(&entries)
	if snapshots != 1 || entries != 1 {
		t.Fatalf("expected 1 snapshot and 1 history entry, got %d and %d", snapshots, entries)
	}
}

func TestSaveSnapshotRejectsNil(t *testing.T) {
	store := NewRepository(setupTestDB(t))
	if err := store.SaveSnapshot(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for nil snapshot")
	}
}

func TestLatestSnapshotPicksNewest(t *testing.T) {
	db := setupTestDB(t)
	node := testNode(t)
	store := NewRepository(db)
	customerID := node.Generate()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	saveAt(t, store, node, customerID, 40, base)
	want := saveAt(t, store, node, customerID, 65, base.Add(24*time.Hour))

	got, err := store.LatestSnapshot(context.Background(), customerID)
	if err != nil {
		t.Fatalf("latest snapshot: %v", err)
	}
	if got == nil || got.ID != want.ID {
		t.Fatalf("expected snapshot %v, got %+v", want.ID, got)
	}
	if got.OverallScore != 65 {
		t.Fatalf("expected overall 65, got %d", got.OverallScore)
	}
}

func TestLatestSnapshotNilWhenUnscored(t *testing.T) {
	store := NewRepository(setupTestDB(t))
	node := testNode(t)

	got, err := store.LatestSnapshot(context.Background(), node.Generate())
	if err != nil {
		t.Fatalf("latest snapshot: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil snapshot, got %+v", got)
	}
}

func TestHistoryBeforeCutoff(t *testing.T) {
	db := setupTestDB(t)
	node := testNode(t)
	store := NewRepository(db)
	customerID := node.Generate()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	saveAt(t, store, node, customerID, 80, now.Add(-60*24*time.Hour))
	saveAt(t, store, node, customerID, 70, now.Add(-35*24*time.Hour))
	saveAt(t, store, node, customerID, 50, now.Add(-2*24*time.Hour))

	got, err := store.HistoryBefore(context.Background(), customerID, now.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("history before: %v", err)
	}
	if got == nil {
		t.Fatal("expected a baseline entry")
	}
	if got.OverallScore != 70 {
		t.Fatalf("expected the 35-day-old entry, got overall %d", got.OverallScore)
	}
}

func TestHistoryBeforeNilWhenTooYoung(t *testing.T) {
	db := setupTestDB(t)
	node := testNode(t)
	store := NewRepository(db)
	customerID := node.Generate()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	saveAt(t, store, node, customerID, 50, now.Add(-2*24*time.Hour))

	got, err := store.HistoryBefore(context.Background(), customerID, now.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("history before: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil baseline, got %+v", got)
	}
}

func TestRecentHistoryNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	node := testNode(t)
	store := NewRepository(db)
	customerID := node.Generate()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		saveAt(t, store, node, customerID, 50+i, base.Add(time.Duration(i)*24*time.Hour))
	}

	entries, err := store.RecentHistory(context.Background(), customerID, 3)
	if err != nil {
		t.Fatalf("recent history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].RecordedAt.After(entries[i-1].RecordedAt) {
			t.Fatalf("entries out of order at index %d", i)
		}
	}
	if entries[0].OverallScore != 54 {
		t.Fatalf("expected newest entry first, got overall %d", entries[0].OverallScore)
	}
}
