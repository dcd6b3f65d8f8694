package datastore

import (
	"os"
	"path/filepath"

	"github.com/objectscan/objectscan-go/internal/conf"
	"github.com/objectscan/objectscan-go/internal/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements the detections store for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection and migrates the schema.
func (store *SQLiteStore) Open() error {
	dbPath := store.Settings.Output.SQLite.Path

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Newf("creating database directory: %w", err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("path", dbPath).
				Build()
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return errors.Newf("failed to open SQLite database: %w", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", dbPath).
			Build()
	}

	if err := db.AutoMigrate(&Detection{}); err != nil {
		return errors.Newf("failed to migrate detections schema: %w", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	store.DB = db
	return nil
}

// Close closes the underlying SQLite connection.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
