// conf/validate.go settings validation
package conf

import (
	"github.com/objectscan/objectscan-go/internal/errors"
)

// ValidateSettings checks the loaded settings for values that would make a
// sweep pass misbehave. It is called once before any sweep starts.
func ValidateSettings(settings *Settings) error {
	if settings == nil {
		return errors.Newf("settings not loaded").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if settings.Input.Path == "" {
		return errors.Newf("input.path must not be empty").
			Component("conf").
			Category(errors.CategoryValidation).
			Context("setting", "input.path").
			Build()
	}

	if settings.Output.Detections == "" || settings.Output.Ledger == "" {
		return errors.Newf("output.detections and output.ledger must not be empty").
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}

	if c := settings.Detector.Confidence; c < 0 || c > 1 {
		return errors.Newf("detector.confidence %.2f out of range, must be between 0.0 and 1.0", c).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("setting", "detector.confidence").
			Build()
	}

	if o := settings.Detector.Overlap; o <= 0 || o > 1 {
		return errors.Newf("detector.overlap %.2f out of range, must be between 0.0 and 1.0", o).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("setting", "detector.overlap").
			Build()
	}

	if settings.Detector.Timeout <= 0 {
		return errors.Newf("detector.timeout must be positive, got %d", settings.Detector.Timeout).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("setting", "detector.timeout").
			Build()
	}

	return nil
}
