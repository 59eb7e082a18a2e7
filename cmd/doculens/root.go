package main

import (
	"github.com/spf13/cobra"

	"github.com/Orsso/DocuLens/internal/api"
	"github.com/Orsso/DocuLens/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "doculens",
	Short: "PDF structure detection and image extraction pipeline",
	Long: `DocuLens extracts the useful images out of structured PDF documents.

The pipeline includes:
  - Heuristic section and subsection detection from text typography
  - Perceptual-hash filtering of repeated boilerplate images
  - Deterministic per-section image naming
  - Optional AI captioning of extracted images`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.doculens/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "doculens home directory (default: ~/.doculens)",
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
