// Package reconcile merges the output of independent extraction sources
// into one deduplicated, coverage-scored document representation.
//
// Each request fans out to every enabled source concurrently, joins, and
// only then runs the order-sensitive merge: the deduplicator must see the
// complete combined word list, native words first, so no downstream stage
// may start before every source has finished or failed.
package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/collatehq/collate/internal/ir"
	"github.com/collatehq/collate/internal/source"
)

// DefaultSourceTimeout bounds a single source's execution. OCR inference
// can be slow; a source that exceeds the bound is treated as failed and
// the request proceeds without it.
const DefaultSourceTimeout = 120 * time.Second

// Config holds pipeline settings.
type Config struct {
	// SourceTimeout bounds each source adapter's execution.
	SourceTimeout time.Duration
	// Logger receives per-source diagnostics.
	Logger *slog.Logger
}

// Pipeline reconciles one upload at a time. It owns no per-request state;
// concurrent Run calls are independent.
type Pipeline struct {
	registry *source.Registry
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a reconciliation pipeline over the registered sources.
func New(registry *source.Registry, cfg Config) *Pipeline {
	timeout := cfg.SourceTimeout
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		registry: registry,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run extracts the upload through every source and assembles the merged
// document. Individual source failures never fail the run; they are
// logged, recorded in the returned results, and contribute nothing.
func (p *Pipeline) Run(ctx context.Context, in source.Input) (*ir.Document, []source.Result) {
	logger := p.logger.With("request_id", uuid.New().String(), "filename", in.Filename)

	sources := p.registry.All()
	results := make([]source.Result, len(sources))

	// Fan out; the WaitGroup is the join barrier required before the
	// order-sensitive merge.
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()

			srcCtx, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()

			start := time.Now()
			pages, err := src.Extract(srcCtx, in)
			results[i] = source.Result{
				Name:     src.Name(),
				Role:     src.Role(),
				Pages:    pages,
				Err:      err,
				Duration: time.Since(start),
			}
		}(i, src)
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			logger.Warn("extraction source failed, continuing without it",
				"source", r.Name,
				"error", r.Err,
				"duration", r.Duration)
			continue
		}
		logger.Info("extraction source finished",
			"source", r.Name,
			"pages", len(r.Pages),
			"duration", r.Duration)
	}

	doc := assemble(results)
	logger.Info("reconciliation complete",
		"total_pages", doc.TotalPages,
		"overall_coverage", doc.OverallCoverage,
		"extraction_methods", doc.ExtractionMethods)
	return doc, results
}
