package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pulse/internal/customer/domain"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Customer, error) {
	var customers []domain.Customer
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&customers).Error; err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, domain.ErrCustomerNotFound
	}
	return &customers[0], nil
}

func (r *Repository) ListIDs(ctx context.Context) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	if err := r.db.WithContext(ctx).Raw(
		`SELECT id FROM customers ORDER BY id`,
	).Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
