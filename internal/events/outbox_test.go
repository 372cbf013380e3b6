package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pulse/internal/clock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOutboxTest(t *testing.T) (*Outbox, *gorm.DB, clock.Fixed) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
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
	fixed := clock.Fixed{At: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewOutbox(db, node, fixed), db, fixed
}

func TestPublishUsesInjectedClock(t *testing.T) {
	outbox, db, fixed := setupOutboxTest(t)

	err := outbox.Publish(context.Background(), Event{
		Type:      EventAlertRaised,
		Payload:   map[string]any{"alert_id": "1"},
		DedupeKey: "alert-1",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	var createdAt time.Time
	if err := db.Raw(`SELECT created_at FROM alert_events_outbox`).Scan(&createdAt).Error; err != nil {
		t.Fatalf("read row: %v", err)
	}
	if !createdAt.Equal(fixed.At) {
		t.Fatalf("created_at = %v, want %v", createdAt, fixed.At)
	}
}

func TestPublishDropsDuplicateDedupeKey(t *testing.T) {
	outbox, db, _ := setupOutboxTest(t)

	event := Event{
		Type:      EventAlertRaised,
		Payload:   map[string]any{"alert_id": "1"},
		DedupeKey: "alert-1",
	}
	if err := outbox.Publish(context.Background(), event); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := outbox.Publish(context.Background(), event); err != nil {
		t.Fatalf("replayed publish must not error: %v", err)
	}

	var count int64
	db.Raw(`SELECT COUNT(1) FROM alert_events_outbox`).Scan(&count)
	if count != 1 {
		t.Fatalf("expected 1 row after replay, got %d", count)
	}
}

func TestPublishRejectsMissingType(t *testing.T) {
	outbox, _, _ := setupOutboxTest(t)

	if err := outbox.Publish(context.Background(), Event{Payload: map[string]any{"a": 1}}); err == nil {
		t.Fatal("expected error for missing event type")
	}
}

func TestPublishTxRequiresTransaction(t *testing.T) {
	outbox, _, _ := setupOutboxTest(t)

	if err := outbox.PublishTx(context.Background(), nil, Event{Type: EventAlertRaised}); err == nil {
		t.Fatal("expected error for nil transaction")
	}
}
