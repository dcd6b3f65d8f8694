// Package scan implements the subcommand that performs one full sweep pass.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/objectscan/objectscan-go/internal/analysis"
	"github.com/objectscan/objectscan-go/internal/conf"
	"github.com/objectscan/objectscan-go/internal/datastore"
	"github.com/objectscan/objectscan-go/internal/detector"
	"github.com/objectscan/objectscan-go/internal/errors"
	"github.com/objectscan/objectscan-go/internal/ledger"
	"github.com/objectscan/objectscan-go/internal/logging"
	"github.com/objectscan/objectscan-go/internal/observation"
)

// Command returns the scan subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the image tree once and record new detections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSweep(cmd.Context(), settings)
		},
	}
}

// RunSweep wires the pipeline together and performs a single pass. Adapter
// initialization failure aborts the pass before any image is touched; after
// that, per-image failures only surface in logs.
func RunSweep(ctx context.Context, settings *conf.Settings) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := conf.ValidateSettings(settings); err != nil {
		return err
	}

	if err := os.MkdirAll(settings.Output.Path, 0o755); err != nil {
		return errors.Newf("creating output directory: %w", err).
			Component("scan").
			Category(errors.CategoryFileIO).
			Context("path", settings.Output.Path).
			Build()
	}

	det, err := detector.NewRemote(&settings.Detector)
	if err != nil {
		return err
	}
	if err := det.Initialize(ctx); err != nil {
		return err
	}

	ldg, err := ledger.Open(settings.Output.Ledger)
	if err != nil {
		return err
	}
	defer ldg.Close()

	sink, err := observation.OpenWriter(settings.Output.Detections)
	if err != nil {
		return err
	}
	defer sink.Close()

	store := datastore.New(settings)
	if store != nil {
		if err := store.Open(); err != nil {
			return err
		}
		defer store.Close()
	}

	sweeper := analysis.NewSweeper(settings, det, ldg, sink, store)

	if settings.Main.Log.Enabled {
		fileLog, closeLog, err := logging.NewFileLogger(settings.Main.Log.Path, settings.Main.Name, slog.LevelInfo)
		if err != nil {
			logging.Warn("could not open detection log file, continuing without it", "path", settings.Main.Log.Path, "error", err)
		} else {
			sweeper.FileLog = fileLog
			defer closeLog()
		}
	}

	result, err := sweeper.DirectorySweep(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Sweep complete. Scanned %d images, found %d new detections in %v.\n",
		result.ImagesScanned, result.NewDetections, result.Elapsed.Round(10*time.Millisecond))
	return nil
}
