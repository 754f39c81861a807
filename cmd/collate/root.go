package main

import (
	"github.com/spf13/cobra"

	"github.com/collatehq/collate/internal/api"
	"github.com/collatehq/collate/version"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "collate",
	Short: "Multi-source document extraction and reconciliation service",
	Long: `Collate merges word, shape, and table detections from heterogeneous
extraction sources into a single deduplicated document representation.

Sources include:
  - Native PDF text layer extraction
  - Tesseract word-level OCR over rasterized pages
  - Optional vision-model OCR
  - Table and shape detectors

Each page carries a coverage estimate comparing the merged word count
against the best single source.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.collate/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
