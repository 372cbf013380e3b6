package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pulse/internal/health/domain"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.SnapshotStore {
	return &Repository{db: db}
}

// SaveSnapshot commits the snapshot and its history entry as one unit.
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *domain.HealthScoreSnapshot, entry *domain.HealthScoreHistoryEntry) error {
	if snapshot == nil || entry == nil {
		return errors.New("missing_snapshot")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(snapshot).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

func (r *Repository) LatestSnapshot(ctx context.Context, customerID snowflake.ID) (*domain.HealthScoreSnapshot, error) {
	var snapshots []domain.HealthScoreSnapshot
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("calculated_at DESC, id DESC").
		Limit(1).
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}
	return &snapshots[0], nil
}

// HistoryBefore returns the most recent history entry recorded at or before
// the cutoff, or nil when the customer has no entry that old.
func (r *Repository) HistoryBefore(ctx context.Context, customerID snowflake.ID, cutoff time.Time) (*domain.HealthScoreHistoryEntry, error) {
	var entries []domain.HealthScoreHistoryEntry
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND recorded_at <= ?", customerID, cutoff).
		Order("recorded_at DESC, id DESC").
		Limit(1).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (r *Repository) RecentHistory(ctx context.Context, customerID snowflake.ID, limit int) ([]domain.HealthScoreHistoryEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var entries []domain.HealthScoreHistoryEntry
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("recorded_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
