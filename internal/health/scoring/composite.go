package scoring

import (
	"math"
	"time"

	"github.com/smallbiznis/pulse/internal/health/domain"
)

// Fixed composite weights. They sum to 1.0; support weighs heaviest because
// it is the strongest churn predictor in our book of business.
const (
	weightAdoption   = 0.15
	weightSupport    = 0.25
	weightEngagement = 0.20
	weightFinancial  = 0.20
	weightSLA        = 0.20
)

// BaselineAge is how far back the trend baseline must lie.
const BaselineAge = 30 * 24 * time.Hour

// trendBand is the minimum overall-score movement that counts as a trend.
const trendBand = 5

// Overall computes the weighted composite score, clamped to [0,100].
func Overall(c Components) int {
	weighted := weightAdoption*float64(c.Adoption) +
		weightSupport*float64(c.Support) +
		weightEngagement*float64(c.Engagement) +
		weightFinancial*float64(c.Financial) +
		weightSLA*float64(c.SLA)
	return clamp(int(math.Round(weighted)))
}

// ClassifyRisk maps the overall score to its risk band. Boundaries are
// inclusive on the lower bound of each band.
func ClassifyRisk(overall int) domain.RiskLevel {
	switch {
	case overall >= 80:
		return domain.RiskLevelLow
	case overall >= 60:
		return domain.RiskLevelMedium
	case overall >= 40:
		return domain.RiskLevelHigh
	default:
		return domain.RiskLevelCritical
	}
}

// ClassifyTrend compares the current overall score against a baseline entry
// at least BaselineAge old. A missing baseline is an insufficient-data
// state, not an error, and reads as stable.
func ClassifyTrend(current int, baseline *domain.HealthScoreHistoryEntry) domain.Trend {
	if baseline == nil {
		return domain.TrendStable
	}
	diff := current - baseline.OverallScore
	switch {
	case diff >= trendBand:
		return domain.TrendImproving
	case diff <= -trendBand:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}
