package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Orsso/DocuLens/internal/api"
	"github.com/Orsso/DocuLens/internal/config"
	"github.com/Orsso/DocuLens/internal/extract"
	"github.com/Orsso/DocuLens/internal/pdfio"
	"github.com/Orsso/DocuLens/internal/sections"
)

var (
	extractOut         string
	extractName        string
	extractNoFilter    bool
	extractNoHierarchy bool
	extractVerbose     bool
)

// extractSummary is the structured output of a local extraction run.
type extractSummary struct {
	Document          string             `json:"document"`
	PageCount         int                `json:"page_count"`
	OutputDir         string             `json:"output_dir"`
	Sections          []sections.Section `json:"sections"`
	Images            []string           `json:"images"`
	RemovedDuplicates int                `json:"removed_duplicates"`
}

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>",
	Short: "Extract sections and images from a local PDF",
	Long: `Extract runs the full pipeline against a local PDF without a server:
section detection, duplicate filtering, and per-section image naming.
Images are written to the output directory (default: ./<document>_images).

Examples:
  doculens extract manual.pdf
  doculens extract manual.pdf --out ./figures --no-filter`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if extractVerbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cfgMgr.Get()

		docName := extractName
		if docName == "" {
			docName = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}

		outDir := extractOut
		if outDir == "" {
			outDir = docName + "_images"
		}

		doc, err := pdfio.Open(args[0], logger)
		if err != nil {
			return err
		}
		defer doc.Close()

		extractor := extract.New(cfg.ToExtractorConfig(), logger)
		result, err := extractor.Run(cmd.Context(), doc, extract.Options{
			DocumentName:     docName,
			FilterDuplicates: !extractNoFilter,
			DetectHierarchy:  !extractNoHierarchy,
		})
		if err != nil {
			return err
		}

		store, err := extract.NewStore(outDir, logger)
		if err != nil {
			return err
		}
		written := store.WriteAll(result.Images)

		return api.Output(extractSummary{
			Document:          docName,
			PageCount:         doc.PageCount(),
			OutputDir:         outDir,
			Sections:          result.Sections,
			Images:            written,
			RemovedDuplicates: result.RemovedDuplicates,
		})
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractOut, "out", "", "output directory (default: ./<document>_images)")
	extractCmd.Flags().StringVar(&extractName, "name", "", "document name (defaults to the file name)")
	extractCmd.Flags().BoolVar(&extractNoFilter, "no-filter", false, "keep duplicate images")
	extractCmd.Flags().BoolVar(&extractNoHierarchy, "no-hierarchy", false, "skip section detection, use flat page chunks")
	extractCmd.Flags().BoolVarP(&extractVerbose, "verbose", "v", false, "verbose pipeline logging")

	rootCmd.AddCommand(extractCmd)
}
