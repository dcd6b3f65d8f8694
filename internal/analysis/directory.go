package analysis

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/objectscan/objectscan-go/internal/conf"
	"github.com/objectscan/objectscan-go/internal/datastore"
	"github.com/objectscan/objectscan-go/internal/detector"
	"github.com/objectscan/objectscan-go/internal/imagehash"
	"github.com/objectscan/objectscan-go/internal/imagemeta"
	"github.com/objectscan/objectscan-go/internal/ledger"
	"github.com/objectscan/objectscan-go/internal/logging"
	"github.com/objectscan/objectscan-go/internal/observation"
)

// Sweeper coordinates one full pass over the partitioned image tree. A single
// worker processes images one at a time; the detector is shared state and is
// not assumed to be reentrant.
type Sweeper struct {
	Settings *conf.Settings
	Detector detector.Interface
	Ledger   *ledger.Ledger
	Sink     *observation.Writer
	Store    datastore.Interface // optional secondary sink, may be nil
	FileLog  *slog.Logger        // optional per-detection log file, may be nil

	logger *slog.Logger
}

// SweepResult holds the run-level counters reported at pass end. Per-image
// failures are visible in logs only, not in these counts.
type SweepResult struct {
	ImagesScanned int // candidate image files visited this pass
	NewDetections int // detection records appended this pass
	Elapsed       time.Duration
}

// NewSweeper wires a sweeper from its collaborators.
func NewSweeper(settings *conf.Settings, det detector.Interface, ldg *ledger.Ledger, sink *observation.Writer, store datastore.Interface) *Sweeper {
	logger := logging.ForService("analysis")
	if logger == nil {
		logger = slog.Default().With("service", "analysis")
	}
	return &Sweeper{
		Settings: settings,
		Detector: det,
		Ledger:   ldg,
		Sink:     sink,
		Store:    store,
		logger:   logger,
	}
}

// DirectorySweep enumerates the two-level root/<date>/<channel>/<file>
// partition and runs the per-image pipeline on every candidate. Only
// directories are descended and only recognized image extensions are
// candidates; ordering across dates, channels and files is whatever the
// filesystem yields. A single bad image never aborts the pass.
func (s *Sweeper) DirectorySweep(ctx context.Context) (SweepResult, error) {
	runID := uuid.New().String()
	logger := s.logger.With("run_id", runID)
	start := time.Now()

	root := s.Settings.Input.Path
	logger.Info("starting image sweep", "root", root)

	var result SweepResult

	dateDirs, err := os.ReadDir(root)
	if err != nil {
		return result, err
	}

	for _, dateDir := range dateDirs {
		if !dateDir.IsDir() {
			continue
		}
		datePath := filepath.Join(root, dateDir.Name())

		channelDirs, err := os.ReadDir(datePath)
		if err != nil {
			logger.Warn("cannot read date directory, skipping", "path", datePath, "error", err)
			continue
		}

		for _, channelDir := range channelDirs {
			if !channelDir.IsDir() {
				continue
			}
			channelPath := filepath.Join(datePath, channelDir.Name())

			files, err := os.ReadDir(channelPath)
			if err != nil {
				logger.Warn("cannot read channel directory, skipping", "path", channelPath, "error", err)
				continue
			}

			for _, file := range files {
				if file.IsDir() || !imagemeta.HasImageExtension(file.Name()) {
					continue
				}
				result.ImagesScanned++
				result.NewDetections += s.processImage(ctx, logger, filepath.Join(channelPath, file.Name()))
			}
		}
	}

	result.Elapsed = time.Since(start)
	logger.Info("image sweep complete",
		"images_scanned", result.ImagesScanned,
		"new_detections", result.NewDetections,
		"elapsed", result.Elapsed.Round(time.Millisecond).String())
	return result, nil
}

// processImage runs one image through the pipeline and returns the number of
// detection records written for it. Terminal outcomes, success or not, end
// with the image's identity in the ledger; only a hash failure leaves it
// unrecorded so the next pass retries it.
func (s *Sweeper) processImage(ctx context.Context, logger *slog.Logger, imagePath string) int {
	digest, err := imagehash.FileDigest(imagePath)
	if err != nil {
		// Transient read failure, leave the image unrecorded for retry.
		logger.Warn("could not hash image, will retry next pass", "image", imagePath, "error", err)
		return 0
	}

	if s.Ledger.Contains(digest) {
		if s.Settings.Debug {
			logger.Debug("skipping already processed image", "image", imagePath)
		}
		return 0
	}

	meta, err := imagemeta.FromPath(imagePath, s.Settings.Input.Root)
	if err != nil {
		// An unattributable image will never become attributable, mark it
		// processed so it is not reattempted on every pass.
		logger.Warn("skipping unattributable image", "image", imagePath, "error", err)
		s.recordProcessed(logger, imagePath, digest)
		return 0
	}

	detections, err := s.Detector.Detect(ctx, imagePath)
	if err != nil {
		// Detection failures are treated as permanent for the image; marking
		// it processed suppresses poison-pill inputs at the cost of never
		// retrying a transient model failure.
		logger.Error("detection failed", "image", imagePath, "error", err)
		s.recordProcessed(logger, imagePath, digest)
		return 0
	}

	written := 0
	for _, det := range detections {
		rec := observation.New(meta, imagePath, det)
		if err := s.Sink.Append(rec); err != nil {
			logger.Error("failed to append detection record", "image", imagePath, "error", err)
			break
		}
		written++

		if s.FileLog != nil {
			s.FileLog.Info("detection",
				"class", det.Class,
				"confidence", det.Confidence,
				"message_id", meta.MessageID,
				"channel", meta.ChannelName,
				"scraped_date", meta.ScrapedDate,
				"image", imagePath)
		}

		if s.Store != nil {
			row := datastore.FromRecord(&rec)
			if err := s.Store.Save(&row); err != nil {
				// Database mirror is best effort, the JSONL file is the
				// source of truth.
				logger.Error("failed to save detection to database", "image", imagePath, "error", err)
			}
		}
	}

	if s.Settings.Debug && written > 0 {
		logger.Debug("image processed",
			"image", imagePath,
			"message_id", meta.MessageID,
			"channel", meta.ChannelName,
			"detections", written)
	}

	s.recordProcessed(logger, imagePath, digest)
	return written
}

// recordProcessed appends the identity to the ledger, logging rather than
// propagating failures so the sweep keeps going.
func (s *Sweeper) recordProcessed(logger *slog.Logger, imagePath, digest string) {
	if err := s.Ledger.Record(digest); err != nil {
		logger.Error("failed to record image in ledger", "image", imagePath, "error", err)
	}
}
