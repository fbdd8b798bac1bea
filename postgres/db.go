// Package postgres implements the credential store and session registry on
// Postgres via GORM.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres using the given DSN.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the principals and sessions tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&principalModel{}, &sessionModel{})
}
