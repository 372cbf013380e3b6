package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func parseCustomerID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		return 0, newValidationError("id", "invalid_customer_id", "invalid customer id")
	}
	return id, nil
}

// @Summary      Score Customer
// @Description  Recalculate the health score for one customer and evaluate alerts
// @Tags         health
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  healthdomain.ScoringResult
// @Router       /customers/{id}/health/score [post]
func (s *Server) ScoreCustomer(c *gin.Context) {
	customerID, err := parseCustomerID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.healthSvc.ScoreCustomer(c.Request.Context(), customerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := customerID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), nil, "health.score", "customer", &targetID, map[string]any{
			"customer_id":   targetID,
			"overall_score": resp.Snapshot.OverallScore,
			"risk_level":    string(resp.Snapshot.RiskLevel),
			"alerts_raised": len(resp.Alerts),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Health
// @Description  Return the most recent health snapshot for a customer
// @Tags         health
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  healthdomain.HealthScoreSnapshot
// @Router       /customers/{id}/health [get]
func (s *Server) GetHealth(c *gin.Context) {
	customerID, err := parseCustomerID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.healthSvc.CurrentSnapshot(c.Request.Context(), customerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Health History
// @Description  Return recorded score history for a customer, newest first
// @Tags         health
// @Accept       json
// @Produce      json
// @Param        id     path      string  true   "Customer ID"
// @Param        limit  query     int     false  "Max entries"
// @Success      200  {object}  []healthdomain.HealthScoreHistoryEntry
// @Router       /customers/{id}/health/history [get]
func (s *Server) GetHealthHistory(c *gin.Context) {
	customerID, err := parseCustomerID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var query struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if query.Limit < 0 {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must not be negative"))
		return
	}

	resp, err := s.healthSvc.History(c.Request.Context(), customerID, query.Limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type scoreRunRequest struct {
	Concurrency int `json:"concurrency"`
}

// @Summary      Run Batch Scoring
// @Description  Score every customer with a bounded worker pool and report the outcome
// @Tags         health
// @Accept       json
// @Produce      json
// @Param        request body scoreRunRequest false "Score Run Request"
// @Success      200  {object}  healthdomain.BatchSummary
// @Router       /health/score-runs [post]
func (s *Server) ScoreAll(c *gin.Context) {
	var req scoreRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}
	if req.Concurrency < 0 {
		AbortWithError(c, newValidationError("concurrency", "invalid_concurrency", "concurrency must not be negative"))
		return
	}
	if req.Concurrency == 0 {
		req.Concurrency = s.cfg.Batch.Concurrency
	}

	resp, err := s.healthSvc.ScoreAll(c.Request.Context(), req.Concurrency)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(c.Request.Context(), nil, "health.score_all", "score_run", nil, map[string]any{
			"calculated": resp.Calculated,
			"failed":     resp.Failed,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
