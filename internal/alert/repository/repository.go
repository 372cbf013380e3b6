package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pulse/internal/alert/domain"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, tx *gorm.DB, event *domain.AlertEvent) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(event).Error
}

func (r *Repository) HasUnresolvedSince(ctx context.Context, tx *gorm.DB, customerID snowflake.ID, category domain.Category, since time.Time) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM alert_events
		 WHERE customer_id = ? AND category = ? AND resolved = ? AND created_at >= ?`,
		customerID,
		category,
		false,
		since,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.AlertEvent, error) {
	query := r.db.WithContext(ctx).Model(&domain.AlertEvent{})
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Resolved != nil {
		query = query.Where("resolved = ?", *filter.Resolved)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var events []*domain.AlertEvent
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *Repository) Resolve(ctx context.Context, id snowflake.ID, at time.Time) (*domain.AlertEvent, error) {
	var event *domain.AlertEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var events []domain.AlertEvent
		if err := tx.Where("id = ?", id).Limit(1).Find(&events).Error; err != nil {
			return err
		}
		if len(events) == 0 {
			return domain.ErrAlertNotFound
		}
		if events[0].Resolved {
			return domain.ErrAlertResolved
		}
		result := tx.Model(&domain.AlertEvent{}).
			Where("id = ? AND resolved = ?", id, false).
			Updates(map[string]any{"resolved": true, "resolved_at": at})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrAlertResolved
		}
		events[0].Resolved = true
		events[0].ResolvedAt = &at
		event = &events[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}
