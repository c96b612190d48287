package database

import (
	"gorm.io/gorm"

	"github.com/liuxin327/heartbeat/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Task{},
		&models.CheckIn{},
		&models.Comment{},
		&models.Like{},
		&models.ScoreRequest{},
	)
}
