package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"dvfmap/internal/models"
)

// Open opens the SQLite staging database used to hold raw sale rows
// between ingestion and reconciliation.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open staging database: %w", err)
	}
	return db, nil
}

// ResetStaging drops and recreates the sale rows table. Every run is a
// full rebuild; nothing persists between runs.
func ResetStaging(db *gorm.DB) error {
	if db.Migrator().HasTable(&models.SaleRow{}) {
		if err := db.Migrator().DropTable(&models.SaleRow{}); err != nil {
			return fmt.Errorf("failed to drop staging table: %w", err)
		}
	}
	if err := db.AutoMigrate(&models.SaleRow{}); err != nil {
		return fmt.Errorf("failed to migrate staging table: %w", err)
	}
	return nil
}

// InsertSaleRows writes a batch of rows to the staging table.
func InsertSaleRows(tx *gorm.DB, rows []*models.SaleRow) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(rows).Error
}
