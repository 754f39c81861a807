package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/collatehq/collate/internal/config"
	"github.com/collatehq/collate/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Collate server",
	Long: `Start the Collate HTTP server.

Serving begins once the extractor sidecar reports healthy. The server
provides:
  - POST /extract - Reconciled extraction of a PDF or image upload
  - GET  /health  - Liveness plus per-source availability
  - GET  /ready   - Readiness check (includes the sidecar)
  - GET  /status  - Detailed source and sidecar status

Examples:
  collate serve                        # Start on default port 8000
  COLLATE_SERVER_PORT=3000 collate serve
  collate serve --config ./config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfgMgr.WatchConfig()

		srv, err := server.New(server.Config{
			ConfigManager: cfgMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
