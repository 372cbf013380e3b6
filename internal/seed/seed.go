package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	signaldomain "github.com/smallbiznis/pulse/internal/signal/domain"
	"gorm.io/gorm"
)

// The known product catalog. Adoption scoring divides by its size, so the
// catalog is seeded at bootstrap rather than managed through an API.
var catalogProducts = []struct {
	Code string
	Name string
}{
	{Code: "core", Name: "Pulse Core"},
	{Code: "insights", Name: "Pulse Insights"},
	{Code: "connect", Name: "Pulse Connect"},
}

// EnsureCatalog seeds the product catalog for startup bootstrap. Existing
// rows are left untouched.
func EnsureCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, product := range catalogProducts {
			code := strings.TrimSpace(product.Code)
			if code == "" {
				continue
			}
			var count int64
			if err := tx.Model(&signaldomain.CatalogProduct{}).
				Where("code = ?", code).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			entry := signaldomain.CatalogProduct{
				ID:   node.Generate(),
				Code: code,
				Name: product.Name,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
