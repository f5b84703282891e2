package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/lvflow-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.Offer{},
		&types.ProdGroup{},
		&types.ProdVariant{},
		&types.Component{},
		&types.ProdVariantComponent{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureUniqueIndexes(db)
}

// COALESCE makes null natural keys collide, so "no group_nr" is one key per offer.
// Both Postgres and SQLite accept expression indexes in this form.
var uniqueIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_group_per_offer ON prod_group (offer_id, COALESCE(group_nr, ''))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_variant_per_group ON prod_variant (group_id, COALESCE(var_nr, ''))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_variant_component ON prod_variant_component (prod_variant_id, component_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_component_description ON component (description)`,
}

func EnsureUniqueIndexes(db *gorm.DB) error {
	for _, stmt := range uniqueIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create unique index: %w", err)
		}
	}
	return nil
}
