package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/objectscan/objectscan-go/cmd/scan"
	"github.com/objectscan/objectscan-go/internal/conf"
	"github.com/objectscan/objectscan-go/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "objectscan",
		Short: "Incremental object detection over a scraped image corpus",
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		scan.Command(settings),
		configCommand(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Input.Path, "input", "i", viper.GetString("input.path"), "Root of the partitioned image tree")
	rootCmd.PersistentFlags().Float64VarP(&settings.Detector.Confidence, "threshold", "t", viper.GetFloat64("detector.confidence"), "Confidence threshold for detections, value between 0.0 and 1.0")
	rootCmd.PersistentFlags().Float64Var(&settings.Detector.Overlap, "overlap", viper.GetFloat64("detector.overlap"), "IoU threshold for suppressing overlapping detections")
	rootCmd.PersistentFlags().StringVar(&settings.Detector.Endpoint, "endpoint", viper.GetString("detector.endpoint"), "Inference service URL")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		logging.Error("error binding flags", "error", err)
	}
}

// configCommand prints the effective configuration as YAML.
func configCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := settings.DumpYAML()
			if err != nil {
				return err
			}
			cmd.Print(out)
			return nil
		},
	}
}
