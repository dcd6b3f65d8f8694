// Package detector wraps the external object detection model behind a single
// call contract. The pipeline only depends on this boundary; model weights,
// architecture and inference internals live on the other side of it.
package detector

import (
	"context"

	"github.com/objectscan/objectscan-go/internal/errors"
)

// Detection is one detected object instance in an image.
type Detection struct {
	Class      string  // detected object class name, e.g. "car"
	Confidence float64 // detection confidence score in [0,1]
}

// Interface abstracts the object detection capability. Detect returns all
// detections at or above the adapter's confidence threshold, with overlapping
// boxes already suppressed. Any image the adapter cannot process (corrupt
// file, unsupported format, model failure) yields an error; the orchestrator
// treats every Detect error as permanent for that image.
type Interface interface {
	Detect(ctx context.Context, imagePath string) ([]Detection, error)
}

// ErrDetectionFailed is the base error wrapped by all per-image detection
// failures.
var ErrDetectionFailed = errors.NewStd("detection failed")
