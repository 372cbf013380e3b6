package scoring

// Config holds the tunable constants behind the component scorers. All
// penalties are monotonic in their input and bounded so the support score
// stays in [0,100].
type Config struct {
	// EngagementTarget is the interaction count in the trailing window that
	// saturates the engagement score at 100.
	EngagementTarget int

	// TicketBaseline is the per-window ticket volume considered normal.
	// Tickets above the baseline each cost PenaltyPerExtraTicket points,
	// capped at VolumePenaltyCap.
	TicketBaseline        int
	PenaltyPerExtraTicket int
	VolumePenaltyCap      int

	// ResolutionSLAHours is the target average resolution time. The penalty
	// grows with the overage ratio and is capped at ResolutionPenaltyCap.
	ResolutionSLAHours   float64
	ResolutionPenaltyCap int

	// Escalations each cost PenaltyPerEscalation points, capped at
	// EscalationPenaltyCap.
	PenaltyPerEscalation int
	EscalationPenaltyCap int
}

func DefaultConfig() Config {
	return Config{
		EngagementTarget:      10,
		TicketBaseline:        5,
		PenaltyPerExtraTicket: 3,
		VolumePenaltyCap:      30,
		ResolutionSLAHours:    48,
		ResolutionPenaltyCap:  30,
		PenaltyPerEscalation:  10,
		EscalationPenaltyCap:  40,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.EngagementTarget <= 0 {
		c.EngagementTarget = defaults.EngagementTarget
	}
	if c.TicketBaseline <= 0 {
		c.TicketBaseline = defaults.TicketBaseline
	}
	if c.PenaltyPerExtraTicket <= 0 {
		c.PenaltyPerExtraTicket = defaults.PenaltyPerExtraTicket
	}
	if c.VolumePenaltyCap <= 0 {
		c.VolumePenaltyCap = defaults.VolumePenaltyCap
	}
	if c.ResolutionSLAHours <= 0 {
		c.ResolutionSLAHours = defaults.ResolutionSLAHours
	}
	if c.ResolutionPenaltyCap <= 0 {
		c.ResolutionPenaltyCap = defaults.ResolutionPenaltyCap
	}
	if c.PenaltyPerEscalation <= 0 {
		c.PenaltyPerEscalation = defaults.PenaltyPerEscalation
	}
	if c.EscalationPenaltyCap <= 0 {
		c.EscalationPenaltyCap = defaults.EscalationPenaltyCap
	}
	return c
}
