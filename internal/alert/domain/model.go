package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Category identifies the alert condition. Closed set; new conditions get a
// new constant, never a subtype.
type Category string

const (
	CategoryHealthDrop     Category = "health_drop"
	CategoryContractExpiry Category = "contract_expiry"
	CategoryLowCSAT        Category = "low_csat"
	CategoryEscalation     Category = "escalation"
	CategoryInactivity     Category = "inactivity"
)

// Valid reports whether the category is a known constant.
func (c Category) Valid() bool {
	switch c {
	case CategoryHealthDrop, CategoryContractExpiry, CategoryLowCSAT, CategoryEscalation, CategoryInactivity:
		return true
	}
	return false
}

// Severity grades an alert event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AlertEvent is a raised, deduplicated notification-worthy condition.
// Created only by the trigger; resolved only by an external action.
type AlertEvent struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID  snowflake.ID `gorm:"not null;index:idx_alerts_customer_category" json:"customer_id"`
	Category    Category     `gorm:"type:text;not null;index:idx_alerts_customer_category" json:"category"`
	Severity    Severity     `gorm:"type:text;not null" json:"severity"`
	Title       string       `gorm:"type:text;not null" json:"title"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Resolved    bool         `gorm:"not null;default:false" json:"resolved"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;index" json:"created_at"`
}

// TableName sets the database table name.
func (AlertEvent) TableName() string { return "alert_events" }
