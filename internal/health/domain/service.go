package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/smallbiznis/pulse/internal/alert/domain"
)

// Service is the scoring orchestrator surface invoked by request handlers
// and the batch scheduler.
type Service interface {
	ScoreCustomer(ctx context.Context, customerID snowflake.ID) (*ScoringResult, error)
	ScoreAll(ctx context.Context, concurrency int) (*BatchSummary, error)
	CurrentSnapshot(ctx context.Context, customerID snowflake.ID) (*HealthScoreSnapshot, error)
	History(ctx context.Context, customerID snowflake.ID, limit int) ([]HealthScoreHistoryEntry, error)
}

var (
	ErrNoSnapshot    = errors.New("no_snapshot")
	ErrBatchRunning  = errors.New("batch_already_running")
	ErrInvalidWindow = errors.New("invalid_window")
)

// ScoringResult is the outcome of one customer scoring run. AlertErr is set
// when the snapshot committed but alert evaluation failed afterwards; the
// snapshot stays durable either way.
type ScoringResult struct {
	Snapshot *HealthScoreSnapshot      `json:"snapshot"`
	Alerts   []*alertdomain.AlertEvent `json:"alerts,omitempty"`
	Degraded []string                  `json:"degraded_signals,omitempty"`
	AlertErr error                     `json:"-"`
}

// BatchError records one failed customer in a batch run.
type BatchError struct {
	CustomerID snowflake.ID `json:"customer_id"`
	Reason     string       `json:"reason"`
}

// BatchSummary reports the outcome of a population-wide scoring run.
// AlertFailures lists customers whose snapshot committed but whose alert
// evaluation failed afterwards; they still count as calculated.
type BatchSummary struct {
	Calculated    int          `json:"calculated"`
	Failed        int          `json:"failed"`
	Errors        []BatchError `json:"errors,omitempty"`
	AlertFailures []BatchError `json:"alert_failures,omitempty"`
}
