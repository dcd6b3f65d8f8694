// model.go this code defines the data model for the detections store
package datastore

import (
	"github.com/objectscan/objectscan-go/internal/observation"
)

// Detection mirrors one observation.Record row in the SQLite store. The
// JSONL file remains the source of truth; this table exists for analytics
// queries.
type Detection struct {
	ID            uint   `gorm:"primaryKey"`
	MessageID     int64  `gorm:"index:idx_detections_message"`
	ImagePath     string
	ScrapedDate   string `gorm:"index:idx_detections_date;index:idx_detections_date_class"`
	ChannelName   string `gorm:"index:idx_detections_channel"`
	DetectedClass string `gorm:"index:idx_detections_class;index:idx_detections_date_class"`
	Confidence    float64
	Timestamp     string
}

// FromRecord converts an observation record into its store representation.
func FromRecord(rec *observation.Record) Detection {
	return Detection{
		MessageID:     rec.MessageID,
		ImagePath:     rec.ImagePath,
		ScrapedDate:   rec.ScrapedDate,
		ChannelName:   rec.ChannelName,
		DetectedClass: rec.DetectedClass,
		Confidence:    rec.Confidence,
		Timestamp:     rec.Timestamp,
	}
}

// ClassCount is one row of the per-class detection summary.
type ClassCount struct {
	DetectedClass string
	Count         int64
}
