package main

import (
	"github.com/spf13/cobra"

	"github.com/Orsso/DocuLens/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running DocuLens server via HTTP.

These commands require a running server (doculens serve).
Use --server to specify a custom server URL.

Examples:
  doculens api health                        # Check server health
  doculens api documents upload manual.pdf   # Upload and extract a PDF
  doculens api documents images manual       # List extracted images`,
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Document management commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))

	// Documents as subcommand group
	documentsCmd.AddCommand((&endpoints.ListDocumentsEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.UploadEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.ListImagesEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.GetImageEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.SaveImageEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.ArchiveEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.ExportEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.CaptionsEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(apiCmd)
}
