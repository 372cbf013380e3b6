package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	alertdomain "github.com/smallbiznis/pulse/internal/alert/domain"
	customerdomain "github.com/smallbiznis/pulse/internal/customer/domain"
	healthdomain "github.com/smallbiznis/pulse/internal/health/domain"
)

var ErrNotFound = &APIError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}

// APIError is the JSON error shape returned by every handler.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return e.Message }

func invalidRequestError() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body or query is invalid",
	}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Field:   field,
		Message: message,
	}
}

// AbortWithError maps domain errors onto HTTP responses.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	switch {
	case errors.Is(err, customerdomain.ErrCustomerNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": &APIError{
			Status: http.StatusNotFound, Code: "customer_not_found", Message: "customer not found",
		}})
	case errors.Is(err, healthdomain.ErrNoSnapshot):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": &APIError{
			Status: http.StatusNotFound, Code: "no_snapshot", Message: "customer has not been scored yet",
		}})
	case errors.Is(err, alertdomain.ErrAlertNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": &APIError{
			Status: http.StatusNotFound, Code: "alert_not_found", Message: "alert not found",
		}})
	case errors.Is(err, healthdomain.ErrInvalidWindow):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": &APIError{
			Status: http.StatusBadRequest, Code: "invalid_window", Message: "history window is invalid",
		}})
	case errors.Is(err, healthdomain.ErrBatchRunning):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": &APIError{
			Status: http.StatusConflict, Code: "batch_already_running", Message: "a scoring run is already in progress",
		}})
	case errors.Is(err, alertdomain.ErrAlertResolved):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": &APIError{
			Status: http.StatusConflict, Code: "alert_already_resolved", Message: "alert is already resolved",
		}})
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": &APIError{
			Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal error",
		}})
	}
}
