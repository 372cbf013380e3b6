package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	alertdomain "github.com/smallbiznis/pulse/internal/alert/domain"
	"github.com/smallbiznis/pulse/internal/events"
)

// @Summary      List Alerts
// @Description  List alert events, optionally filtered by customer, category and resolution state
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Param        customer_id  query     string  false  "Customer ID"
// @Param        category     query     string  false  "Category"
// @Param        resolved     query     bool    false  "Resolved"
// @Param        limit        query     int     false  "Max entries"
// @Success      200  {object}  []alertdomain.AlertEvent
// @Router       /alerts [get]
func (s *Server) ListAlerts(c *gin.Context) {
	var query struct {
		CustomerID string `form:"customer_id"`
		Category   string `form:"category"`
		Resolved   *bool  `form:"resolved"`
		Limit      int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	filter := alertdomain.ListFilter{
		Resolved: query.Resolved,
		Limit:    query.Limit,
	}
	if raw := strings.TrimSpace(query.CustomerID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("customer_id", "invalid_customer_id", "invalid customer id"))
			return
		}
		filter.CustomerID = id
	}
	if raw := strings.TrimSpace(query.Category); raw != "" {
		category := alertdomain.Category(raw)
		if !category.Valid() {
			AbortWithError(c, newValidationError("category", "invalid_category", "unknown alert category"))
			return
		}
		filter.Category = category
	}

	resp, err := s.alertRepo.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Resolve Alert
// @Description  Mark an alert event resolved
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Alert ID"
// @Success      200  {object}  alertdomain.AlertEvent
// @Router       /alerts/{id}/resolve [post]
func (s *Server) ResolveAlert(c *gin.Context) {
	alertID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_alert_id", "invalid alert id"))
		return
	}

	resp, err := s.alertRepo.Resolve(c.Request.Context(), alertID, s.clockNow())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.outbox != nil {
		_ = s.outbox.Publish(c.Request.Context(), events.Event{
			Type: events.EventAlertResolved,
			Payload: map[string]any{
				"alert_id":    resp.ID.String(),
				"customer_id": resp.CustomerID.String(),
				"category":    string(resp.Category),
			},
			DedupeKey: resp.ID.String() + ":resolved",
		})
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), nil, "alert.resolve", "alert", &targetID, map[string]any{
			"alert_id":    targetID,
			"customer_id": resp.CustomerID.String(),
			"category":    string(resp.Category),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
