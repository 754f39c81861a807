// Package server wires configuration, the extractor sidecar, and the
// reconciliation pipeline into the Collate HTTP service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/collatehq/collate/internal/api"
	"github.com/collatehq/collate/internal/config"
	"github.com/collatehq/collate/internal/reconcile"
	"github.com/collatehq/collate/internal/server/endpoints"
	"github.com/collatehq/collate/internal/sidecar"
	"github.com/collatehq/collate/internal/source"
	"github.com/collatehq/collate/internal/svcctx"
)

// Server is the main Collate HTTP server. It owns the sidecar client and
// the source registry built from configuration; serving begins only after
// the sidecar reports healthy.
type Server struct {
	httpServer *http.Server
	sidecar    *sidecar.Client
	sources    *source.Registry
	pipeline   *reconcile.Pipeline
	configMgr  *config.Manager
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
	ready   bool
}

// Config holds server configuration.
type Config struct {
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := cfg.ConfigManager.Get()

	sc := sidecar.NewClient(c.Sidecar.URL)
	sources, err := buildSources(c, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction sources: %w", err)
	}

	s := &Server{
		sidecar:   sc,
		sources:   sources,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}

	s.pipeline = reconcile.New(sources, reconcile.Config{
		SourceTimeout: c.SourceTimeout(),
		Logger:        cfg.Logger,
	})

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port)),
		Handler:     s.withServices(mux),
		ReadTimeout: 30 * time.Second,
		// Writes stream large merged documents and sit behind slow OCR;
		// bound them by the per-source timeout plus slack.
		WriteTimeout: c.SourceTimeout() + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// buildSources constructs the source registry from config toggles. The
// sidecar client doubles as the rasterizer for OCR sources.
func buildSources(c *config.Config, sc *sidecar.Client) (*source.Registry, error) {
	var list []source.Source

	if c.Sources.Native {
		list = append(list, source.NewNativeSource(sc))
	}

	// OCR engines run in configured order, which fixes dedup input order.
	order := c.Pipeline.OCROrder
	if len(order) == 0 {
		order = []string{source.TesseractName, source.VisionName}
	}
	for _, name := range order {
		switch name {
		case source.TesseractName:
			if !c.Sources.Tesseract {
				continue
			}
			list = append(list, source.NewTesseractSource(sc, source.TesseractConfig{
				Languages: c.Tesseract.Languages,
				Scale:     c.Pipeline.RasterScale,
			}))
		case source.VisionName:
			if !c.Sources.Vision {
				continue
			}
			key := c.ResolveVisionAPIKey()
			if key == "" {
				return nil, errors.New("vision source enabled but no API key configured")
			}
			list = append(list, source.NewVisionSource(sc, source.VisionConfig{
				APIKey:  key,
				Model:   c.Vision.Model,
				BaseURL: c.Vision.BaseURL,
				Scale:   c.Pipeline.RasterScale,
			}))
		default:
			return nil, fmt.Errorf("unknown OCR engine %q in ocr_order", name)
		}
	}

	if c.Sources.Tables {
		list = append(list, source.NewTablesSource(sc))
	}
	if c.Sources.Shapes {
		list = append(list, source.NewShapesSource(sc))
	}

	if len(list) == 0 {
		return nil, errors.New("no extraction sources enabled")
	}
	return source.NewRegistry(list...), nil
}

// Start starts the server. It blocks until the context is cancelled or an
// error occurs. The extractor sidecar must become healthy within the
// configured startup window before requests are accepted.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	cfg := s.configMgr.Get()
	wait := time.Duration(cfg.Sidecar.StartupWaitSeconds) * time.Second

	s.logger.Info("waiting for extractor sidecar", "url", s.sidecar.URL(), "timeout", wait)
	if err := s.sidecar.WaitReady(ctx, wait); err != nil {
		s.setNotRunning()
		return fmt.Errorf("extractor sidecar not ready: %w", err)
	}
	s.logger.Info("extractor sidecar is ready", "url", s.sidecar.URL())

	// Create services struct for context enrichment
	s.services = &svcctx.Services{
		Pipeline: s.pipeline,
		Sources:  s.sources,
		Sidecar:  s.sidecar,
		Config:   s.configMgr,
		Logger:   s.logger,
	}

	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"addr", s.httpServer.Addr,
			"sources", s.sources.Names())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.ready = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Sources returns the extraction source registry.
func (s *Server) Sources() *source.Registry {
	return s.sources
}

// withServices wraps a handler to enrich the request context with services
// and convert panics into a JSON 500 instead of a dropped connection.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"detail":"internal server error"}`))
			}
		}()

		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the sidecar wait has completed.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		ready := s.ready
		s.mu.RUnlock()
		if !ready {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"detail":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
