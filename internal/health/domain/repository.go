package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// SnapshotStore persists scoring results. SaveSnapshot is the durability
// boundary of a scoring run: the snapshot and its history entry commit as
// one unit or not at all.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot *HealthScoreSnapshot, entry *HealthScoreHistoryEntry) error
	LatestSnapshot(ctx context.Context, customerID snowflake.ID) (*HealthScoreSnapshot, error)
	HistoryBefore(ctx context.Context, customerID snowflake.ID, cutoff time.Time) (*HealthScoreHistoryEntry, error)
	RecentHistory(ctx context.Context, customerID snowflake.ID, limit int) ([]HealthScoreHistoryEntry, error)
}
