package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Source exposes the read-only signal queries owned by the persistence layer.
type Source interface {
	TicketStats(ctx context.Context, customerID snowflake.ID, since time.Time) (TicketStats, error)
	InteractionCount(ctx context.Context, customerID snowflake.ID, since time.Time) (int, error)
	ActiveDeploymentCount(ctx context.Context, customerID snowflake.ID) (int, error)
	CatalogSize(ctx context.Context) (int, error)
}
