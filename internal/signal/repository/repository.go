package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pulse/internal/signal/domain"
	"gorm.io/gorm"
)

type Source struct {
	db *gorm.DB
}

func NewSource(db *gorm.DB) domain.Source {
	return &Source{db: db}
}

func (s *Source) TicketStats(ctx context.Context, customerID snowflake.ID, since time.Time) (domain.TicketStats, error) {
	var row struct {
		Total              int
		AvgResolutionHours float64
		Escalations        int
		Breached           int
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) AS total,
		        COALESCE(AVG(resolution_hours), 0) AS avg_resolution_hours,
		        COALESCE(SUM(CASE WHEN escalated THEN 1 ELSE 0 END), 0) AS escalations,
		        COALESCE(SUM(CASE WHEN sla_breached THEN 1 ELSE 0 END), 0) AS breached
		 FROM support_tickets
		 WHERE customer_id = ? AND created_at >= ?`,
		customerID,
		since,
	).Scan(&row).Error
	if err != nil {
		return domain.TicketStats{}, err
	}
	return domain.TicketStats{
		Total:              row.Total,
		AvgResolutionHours: row.AvgResolutionHours,
		Escalations:        row.Escalations,
		Breached:           row.Breached,
	}, nil
}

func (s *Source) InteractionCount(ctx context.Context, customerID snowflake.ID, since time.Time) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM interactions
		 WHERE customer_id = ? AND occurred_at >= ?`,
		customerID,
		since,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *Source) ActiveDeploymentCount(ctx context.Context, customerID snowflake.ID) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM product_deployments
		 WHERE customer_id = ? AND active`,
		customerID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *Source) CatalogSize(ctx context.Context) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM catalog_products`,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
