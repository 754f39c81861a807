package main

import (
	"github.com/spf13/cobra"

	"github.com/collatehq/collate/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Collate server via HTTP.

These commands require a running server (collate serve).
Use --server to specify a custom server URL.

Examples:
  collate api health              # Check server health
  collate api status              # Detailed source status
  collate api extract doc.pdf     # Extract a document`,
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8000", "Server URL",
	)

	for _, ep := range endpoints.All() {
		apiCmd.AddCommand(ep.Command(getServerURL))
	}

	rootCmd.AddCommand(apiCmd)
}
