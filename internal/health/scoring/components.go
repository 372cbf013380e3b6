package scoring

import (
	"math"
	"time"

	signaldomain "github.com/smallbiznis/pulse/internal/signal/domain"
)

// Components carries the five normalized sub-scores, each in [0,100].
type Components struct {
	Adoption   int
	Support    int
	Engagement int
	Financial  int
	SLA        int
}

// Scorer normalizes a raw signal bundle into component scores.
type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg.withDefaults()}
}

// Score computes all five components from the bundle as of now.
func (s *Scorer) Score(bundle *signaldomain.Bundle, now time.Time) Components {
	return Components{
		Adoption:   s.AdoptionScore(bundle.ActiveDeployments, bundle.CatalogSize),
		Support:    s.SupportScore(bundle.Tickets),
		Engagement: s.EngagementScore(bundle.Interactions),
		Financial:  s.FinancialScore(bundle.ContractEndAt, now),
		SLA:        s.SLAScore(bundle.Tickets),
	}
}

// AdoptionScore is the deployed share of the product catalog.
func (s *Scorer) AdoptionScore(activeDeployments, catalogSize int) int {
	if catalogSize <= 0 {
		return 0
	}
	if activeDeployments < 0 {
		activeDeployments = 0
	}
	return clamp(roundRatio(activeDeployments, catalogSize))
}

// EngagementScore scales linearly with interaction volume and saturates at
// the configured target. No interactions is a valid zero, not an error.
func (s *Scorer) EngagementScore(interactions int) int {
	if interactions <= 0 {
		return 0
	}
	if interactions >= s.cfg.EngagementTarget {
		return 100
	}
	return clamp(roundRatio(interactions, s.cfg.EngagementTarget))
}

// FinancialScore is a step function of days until contract expiry. An
// expired contract or none on file scores 0.
func (s *Scorer) FinancialScore(contractEndAt *time.Time, now time.Time) int {
	if contractEndAt == nil {
		return 0
	}
	days := int(contractEndAt.Sub(now).Hours() / 24)
	switch {
	case days >= 180:
		return 100
	case days >= 90:
		return 80
	case days >= 30:
		return 60
	case days >= 0:
		return 30
	default:
		return 0
	}
}

// SLAScore is the non-breached share of window tickets. A customer with no
// tickets gets the benefit of the doubt.
func (s *Scorer) SLAScore(tickets signaldomain.TicketStats) int {
	if tickets.Total <= 0 {
		return 100
	}
	breached := tickets.Breached
	if breached < 0 {
		breached = 0
	}
	if breached > tickets.Total {
		breached = tickets.Total
	}
	return clamp(100 - roundRatio(breached, tickets.Total))
}

// SupportScore starts at 100 and deducts capped penalties for ticket volume
// above the baseline, average resolution time above the SLA target, and
// escalations. Floored at 0.
func (s *Scorer) SupportScore(tickets signaldomain.TicketStats) int {
	score := 100
	score -= s.volumePenalty(tickets.Total)
	score -= s.resolutionPenalty(tickets.AvgResolutionHours)
	score -= s.escalationPenalty(tickets.Escalations)
	if score < 0 {
		return 0
	}
	return score
}

func (s *Scorer) volumePenalty(total int) int {
	extra := total - s.cfg.TicketBaseline
	if extra <= 0 {
		return 0
	}
	penalty := extra * s.cfg.PenaltyPerExtraTicket
	if penalty > s.cfg.VolumePenaltyCap {
		return s.cfg.VolumePenaltyCap
	}
	return penalty
}

func (s *Scorer) resolutionPenalty(avgHours float64) int {
	if avgHours <= s.cfg.ResolutionSLAHours {
		return 0
	}
	overage := (avgHours - s.cfg.ResolutionSLAHours) / s.cfg.ResolutionSLAHours
	penalty := int(math.Round(overage * float64(s.cfg.ResolutionPenaltyCap)))
	if penalty > s.cfg.ResolutionPenaltyCap {
		return s.cfg.ResolutionPenaltyCap
	}
	return penalty
}

func (s *Scorer) escalationPenalty(escalations int) int {
	if escalations <= 0 {
		return 0
	}
	penalty := escalations * s.cfg.PenaltyPerEscalation
	if penalty > s.cfg.EscalationPenaltyCap {
		return s.cfg.EscalationPenaltyCap
	}
	return penalty
}

// roundRatio returns round(100 * num / den).
func roundRatio(num, den int) int {
	return int(math.Round(100 * float64(num) / float64(den)))
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
