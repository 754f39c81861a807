// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/collatehq/collate/internal/config"
	"github.com/collatehq/collate/internal/reconcile"
	"github.com/collatehq/collate/internal/sidecar"
	"github.com/collatehq/collate/internal/source"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Pipeline *reconcile.Pipeline
	Sources  *source.Registry
	Sidecar  *sidecar.Client
	Config   *config.Manager
	Logger   *slog.Logger
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// PipelineFrom extracts the reconciliation pipeline from context.
func PipelineFrom(ctx context.Context) *reconcile.Pipeline {
	if s := ServicesFrom(ctx); s != nil {
		return s.Pipeline
	}
	return nil
}

// SourcesFrom extracts the extraction source registry from context.
func SourcesFrom(ctx context.Context) *source.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Sources
	}
	return nil
}

// SidecarFrom extracts the extractor sidecar client from context.
func SidecarFrom(ctx context.Context) *sidecar.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.Sidecar
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}
