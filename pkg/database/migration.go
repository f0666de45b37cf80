package database

import (
	"github.com/natours/api/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Tour{},
		&model.Review{},
	); err != nil {
		return err
	}
	return CreateIndexes(db)
}
