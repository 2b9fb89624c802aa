package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the SQLite file without touching the schema
func Open(dbPath string) (*gorm.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create database directory: %v", ErrStorageUnavailable, err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %v", ErrStorageUnavailable, err)
	}

	return db, nil
}

// Initialize opens the database and ensures the schema exists
func Initialize(dbPath string) (*gorm.DB, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("%w: failed to run migrations: %v", ErrStorageUnavailable, err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&CaseRecord{}); err != nil {
		return err
	}
	return RunMigrations(db)
}
