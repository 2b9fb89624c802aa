package database

import (
	"fmt"

	"gorm.io/gorm"
)

// RunMigrations executes the raw-SQL part of the schema
func RunMigrations(db *gorm.DB) error {
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func createIndexes(db *gorm.DB) error {
	// Listing newest captures first
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_scraped_pdfs_scrape_date
		ON scraped_pdfs(scrape_date)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_scraped_pdfs_order_date
		ON scraped_pdfs(order_date)
	`).Error; err != nil {
		return err
	}

	return nil
}
