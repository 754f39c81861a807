package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/collatehq/collate/internal/api"
	"github.com/collatehq/collate/internal/svcctx"
)

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server  string         `json:"server"`
	Sidecar SidecarStatus  `json:"sidecar"`
	Sources []SourceStatus `json:"sources"`
}

// SidecarStatus shows extractor sidecar reachability.
type SidecarStatus struct {
	URL    string `json:"url"`
	Health string `json:"health"`
}

// SourceStatus describes one registered extraction source.
type SourceStatus struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Healthy bool   `json:"healthy"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Server: "running", Sources: []SourceStatus{}}

	if client := svcctx.SidecarFrom(r.Context()); client != nil {
		resp.Sidecar.URL = client.URL()
		if err := client.HealthCheck(r.Context()); err != nil {
			resp.Sidecar.Health = "unhealthy"
		} else {
			resp.Sidecar.Health = "healthy"
		}
	} else {
		resp.Sidecar.Health = "not_initialized"
	}

	if sources := svcctx.SourcesFrom(r.Context()); sources != nil {
		health := sources.Health(r.Context())
		for _, src := range sources.All() {
			resp.Sources = append(resp.Sources, SourceStatus{
				Name:    src.Name(),
				Role:    string(src.Role()),
				Healthy: health[src.Name()],
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			fmt.Printf("Server: %s\n", resp.Server)
			fmt.Printf("Sidecar:\n")
			fmt.Printf("  URL:    %s\n", resp.Sidecar.URL)
			fmt.Printf("  Health: %s\n", resp.Sidecar.Health)
			fmt.Printf("Sources:\n")
			for _, s := range resp.Sources {
				fmt.Printf("  %-10s role=%-8s healthy=%v\n", s.Name, s.Role, s.Healthy)
			}
			return nil
		},
	}
}
