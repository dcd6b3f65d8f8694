// Package observation defines the detection record and its durable sinks.
package observation

import (
	"time"

	"github.com/objectscan/objectscan-go/internal/detector"
	"github.com/objectscan/objectscan-go/internal/imagemeta"
)

// Record represents a single detected object instance. An image with N
// detections yields exactly N records. Records are immutable once written;
// both sinks are append-only and never rewrite or delete.
type Record struct {
	MessageID      int64   `json:"message_id"`
	ImagePath      string  `json:"image_path"`
	ScrapedDate    string  `json:"scraped_date"`
	ChannelName    string  `json:"channel_name"`
	DetectedClass  string  `json:"detected_object_class"`
	Confidence     float64 `json:"confidence_score"`
	Timestamp      string  `json:"timestamp"`
}

// New builds a Record for one detection, stamped with the current wall-clock
// time. The original image path is kept for traceability.
func New(meta imagemeta.Metadata, imagePath string, det detector.Detection) Record {
	return Record{
		MessageID:     meta.MessageID,
		ImagePath:     imagePath,
		ScrapedDate:   meta.ScrapedDate,
		ChannelName:   meta.ChannelName,
		DetectedClass: det.Class,
		Confidence:    det.Confidence,
		Timestamp:     time.Now().Format(time.RFC3339),
	}
}
