package database

import (
	"charityops_backend/internal/models"

	"gorm.io/gorm"
)

// Migrate applies the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Notification{},
	)
}
