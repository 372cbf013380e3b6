package events

import alertdomain "github.com/smallbiznis/pulse/internal/alert/domain"

// Event types consumed by the notification subsystem.
const (
	EventAlertRaised   = "alert.raised"
	EventAlertResolved = "alert.resolved"
)

// AlertRaisedPayload carries the minimal data the notifier needs to deliver
// an alert.
type AlertRaisedPayload struct {
	AlertID     string `json:"alert_id"`
	CustomerID  string `json:"customer_id"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewAlertRaisedPayload builds the outbox payload for a freshly created
// alert event.
func NewAlertRaisedPayload(event *alertdomain.AlertEvent) AlertRaisedPayload {
	return AlertRaisedPayload{
		AlertID:     event.ID.String(),
		CustomerID:  event.CustomerID.String(),
		Category:    string(event.Category),
		Severity:    string(event.Severity),
		Title:       event.Title,
		Description: event.Description,
	}
}

// ToMap converts the payload into an outbox-friendly map.
func (p AlertRaisedPayload) ToMap() map[string]any {
	return map[string]any{
		"alert_id":    p.AlertID,
		"customer_id": p.CustomerID,
		"category":    p.Category,
		"severity":    p.Severity,
		"title":       p.Title,
		"description": p.Description,
	}
}
