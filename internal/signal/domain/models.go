package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SupportTicket is the read model for support tickets ingested by the
// ticketing subsystem. ResolutionHours is filled when the ticket closes.
type SupportTicket struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	CustomerID      snowflake.ID `gorm:"not null;index"`
	Subject         string       `gorm:"type:text;not null"`
	Status          string       `gorm:"type:text;not null"`
	Escalated       bool         `gorm:"not null;default:false"`
	SLABreached     bool         `gorm:"column:sla_breached;not null;default:false"`
	ResolutionHours *float64
	CreatedAt       time.Time `gorm:"not null;index"`
}

// TableName sets the database table name.
func (SupportTicket) TableName() string { return "support_tickets" }

// Interaction is the read model for logged customer touchpoints.
type Interaction struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	CustomerID snowflake.ID `gorm:"not null;index"`
	Kind       string       `gorm:"type:text;not null"`
	OccurredAt time.Time    `gorm:"not null;index"`
}

// TableName sets the database table name.
func (Interaction) TableName() string { return "interactions" }

// ProductDeployment marks a catalog product deployed at a customer.
type ProductDeployment struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	CustomerID  snowflake.ID `gorm:"not null;index"`
	ProductCode string       `gorm:"type:text;not null"`
	Active      bool         `gorm:"not null"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ProductDeployment) TableName() string { return "product_deployments" }

// CatalogProduct is one entry of the known product catalog.
type CatalogProduct struct {
	ID   snowflake.ID `gorm:"primaryKey"`
	Code string       `gorm:"type:text;not null;uniqueIndex"`
	Name string       `gorm:"type:text;not null"`
}

// TableName sets the database table name.
func (CatalogProduct) TableName() string { return "catalog_products" }

// TicketStats aggregates support ticket activity in an observation window.
type TicketStats struct {
	Total              int
	AvgResolutionHours float64
	Escalations        int
	Breached           int
}

// Bundle is the raw signal set collected for one customer. Zero counts are
// valid no-activity states. Degraded lists signal names that fell back to
// their zero-data defaults because the underlying read failed.
type Bundle struct {
	CustomerID        snowflake.ID
	ActiveDeployments int
	CatalogSize       int
	Tickets           TicketStats
	Interactions      int
	ContractEndAt     *time.Time
	Degraded          []string
}
