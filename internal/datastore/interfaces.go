// interfaces.go: this code defines the interface for the detections store
package datastore

import (
	"github.com/objectscan/objectscan-go/internal/conf"
	"github.com/objectscan/objectscan-go/internal/errors"
	"gorm.io/gorm"
)

// Interface abstracts the underlying database implementation and defines the
// operations the pipeline and analytics need.
type Interface interface {
	Open() error
	Save(detection *Detection) error
	GetLastDetections(numDetections int) ([]Detection, error)
	CountByClass() ([]ClassCount, error)
	Close() error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a store based on the provided settings. Returns nil when no
// database output is enabled.
func New(settings *conf.Settings) Interface {
	if settings.Output.SQLite.Enabled {
		return &SQLiteStore{
			Settings: settings,
		}
	}
	return nil
}

// Save inserts a new detection row.
func (ds *DataStore) Save(detection *Detection) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	if err := ds.DB.Create(detection).Error; err != nil {
		return errors.Newf("saving detection: %w", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// GetLastDetections retrieves the most recent detection rows.
func (ds *DataStore) GetLastDetections(numDetections int) ([]Detection, error) {
	var detections []Detection
	if err := ds.DB.Order("id DESC").Limit(numDetections).Find(&detections).Error; err != nil {
		return nil, errors.Newf("getting last detections: %w", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return detections, nil
}

// CountByClass returns detection counts grouped by object class, most
// frequent first.
func (ds *DataStore) CountByClass() ([]ClassCount, error) {
	var counts []ClassCount
	err := ds.DB.Model(&Detection{}).
		Select("detected_class, COUNT(*) as count").
		Group("detected_class").
		Order("count DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, errors.Newf("counting detections by class: %w", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return counts, nil
}
