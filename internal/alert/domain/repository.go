package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrAlertNotFound = errors.New("alert_not_found")
	ErrAlertResolved = errors.New("alert_already_resolved")
)

// ListFilter narrows alert listing.
type ListFilter struct {
	CustomerID snowflake.ID
	Category   Category
	Resolved   *bool
	Limit      int
}

// Repository persists alert events. Insert and HasUnresolvedSince accept a
// transaction handle so the dedup check and the insert share one commit.
type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, event *AlertEvent) error
	HasUnresolvedSince(ctx context.Context, tx *gorm.DB, customerID snowflake.ID, category Category, since time.Time) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]*AlertEvent, error)
	Resolve(ctx context.Context, id snowflake.ID, at time.Time) (*AlertEvent, error)
}
