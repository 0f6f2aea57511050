package database

import (
	"log/slog"

	"hospreq/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		slog.Warn("failed to auto-migrate models", "error", err)
	}

	return db, nil
}

// Migrate runs auto-migration for all core models. Split out so tests can
// run it against their own database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Group{},
		&model.Permission{},
		&model.Direction{},
		&model.Department{},
		&model.Service{},
		&model.Sector{},
		&model.Repartition{},
		&model.Request{},
		&model.RequestItem{},
		&model.Notification{},
		&model.AuditLog{},
	)
}
