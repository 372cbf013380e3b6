package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RiskLevel classifies the overall score into a closed set of bands.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Rank orders risk levels by severity, low first. Unknown values rank lowest.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLevelLow:
		return 0
	case RiskLevelMedium:
		return 1
	case RiskLevelHigh:
		return 2
	case RiskLevelCritical:
		return 3
	default:
		return -1
	}
}

// Trend classifies score movement against the ~30-day-old baseline.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// HealthScoreSnapshot is the immutable scoring result for one run. The
// snapshot with the latest CalculatedAt is the customer's current state.
type HealthScoreSnapshot struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID      snowflake.ID `gorm:"not null;index:idx_snapshots_customer_calculated" json:"customer_id"`
	AdoptionScore   int          `gorm:"not null" json:"adoption_score"`
	SupportScore    int          `gorm:"not null" json:"support_score"`
	EngagementScore int          `gorm:"not null" json:"engagement_score"`
	FinancialScore  int          `gorm:"not null" json:"financial_score"`
	SLAScore        int          `gorm:"column:sla_score;not null" json:"sla_score"`
	OverallScore    int          `gorm:"not null" json:"overall_score"`
	RiskLevel       RiskLevel    `gorm:"type:text;not null" json:"risk_level"`
	Trend           Trend        `gorm:"type:text;not null" json:"trend"`
	CalculatedAt    time.Time    `gorm:"not null;index:idx_snapshots_customer_calculated" json:"calculated_at"`
}

// TableName sets the database table name.
func (HealthScoreSnapshot) TableName() string { return "health_score_snapshots" }

// HealthScoreHistoryEntry is the append-only copy of a snapshot used for
// trend lookups and longitudinal reporting. Never updated after insert.
type HealthScoreHistoryEntry struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID      snowflake.ID `gorm:"not null;index:idx_history_customer_recorded" json:"customer_id"`
	SnapshotID      snowflake.ID `gorm:"not null" json:"snapshot_id"`
	AdoptionScore   int          `gorm:"not null" json:"adoption_score"`
	SupportScore    int          `gorm:"not null" json:"support_score"`
	EngagementScore int          `gorm:"not null" json:"engagement_score"`
	FinancialScore  int          `gorm:"not null" json:"financial_score"`
	SLAScore        int          `gorm:"column:sla_score;not null" json:"sla_score"`
	OverallScore    int          `gorm:"not null" json:"overall_score"`
	RiskLevel       RiskLevel    `gorm:"type:text;not null" json:"risk_level"`
	Trend           Trend        `gorm:"type:text;not null" json:"trend"`
	RecordedAt      time.Time    `gorm:"not null;index:idx_history_customer_recorded" json:"recorded_at"`
}

// TableName sets the database table name.
func (HealthScoreHistoryEntry) TableName() string { return "health_score_history" }
