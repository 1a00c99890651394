package db

import (
	"fmt"

	"github.com/zulandar/rdtrack/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Asset{},
		&models.AssetVersion{},
		&models.AssetProjectRelation{},
		&models.AssetHealthMetrics{},
		&models.Project{},
		&models.Task{},
		&models.LaborCost{},
		&models.Engineer{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
