package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Repository reads customer records owned by the account management layer.
type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Customer, error)
	ListIDs(ctx context.Context) ([]snowflake.ID, error)
}
