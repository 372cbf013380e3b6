package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrCustomerNotFound = errors.New("customer_not_found")

// Customer is the read model for a tracked account. Ownership of the record
// (CRUD, cascade deletion) lives in the account management service; scoring
// only references it by id.
type Customer struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Name            string       `gorm:"type:text;not null" json:"name"`
	ContractStartAt *time.Time   `gorm:"index" json:"contract_start_at,omitempty"`
	ContractEndAt   *time.Time   `gorm:"index" json:"contract_end_at,omitempty"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
