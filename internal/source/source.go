// Package source defines the contract between the reconciliation core and
// the extraction collaborators (native text layer, OCR engines, table and
// shape detectors).
//
// Each source runs independently over the same upload and returns
// page-indexed partial data in normalized unit coordinates. Sources are
// imperfect and optional: a source that is unavailable or fails
// contributes nothing, and the pipeline continues with the rest.
package source

import (
	"context"
	"time"

	"github.com/collatehq/collate/internal/filetype"
	"github.com/collatehq/collate/internal/ir"
)

// Role describes how a source's words are counted by the coverage
// estimator. Detector sources produce no words at all.
type Role string

const (
	RoleNative   Role = "native"
	RoleOCR      Role = "ocr"
	RoleDetector Role = "detector"
)

// Capabilities declares which record kinds a source can produce.
type Capabilities struct {
	Words  bool
	Shapes bool
	Tables bool
}

// Input is one decoded upload handed to every enabled source.
type Input struct {
	Data     []byte
	Kind     filetype.Kind
	Filename string
}

// PageData is the partial page contract a source returns: only the fields
// it can produce, with bounding boxes already in unit coordinates.
// Width/Height are the source's view of the absolute page dimensions, 0
// when unknown.
type PageData struct {
	PageNumber int
	Width      float64
	Height     float64
	Words      []ir.Word
	Shapes     []ir.Shape
	Tables     []ir.Table
}

// Source is one extraction collaborator adapter.
type Source interface {
	// Name is the stable identifier recorded on every word this source
	// produces and listed in extraction_methods.
	Name() string

	Role() Role
	Capabilities() Capabilities

	// Extract runs the source over the upload and returns per-page
	// partial data. Implementations must honor ctx cancellation; slow
	// collaborators are cut off by the per-source timeout upstream.
	Extract(ctx context.Context, in Input) ([]PageData, error)
}

// HealthChecker is implemented by sources whose collaborator can be
// probed without running an extraction.
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// Result is a source's complete contribution to one request: its pages or
// its error, never both meaningful at once. The orchestrator maps Err to
// an empty contribution and keeps the error for diagnostics.
type Result struct {
	Name     string
	Role     Role
	Pages    []PageData
	Err      error
	Duration time.Duration
}

// Contributed reports whether the source produced at least one record.
func (r Result) Contributed() bool {
	if r.Err != nil {
		return false
	}
	for _, p := range r.Pages {
		if len(p.Words) > 0 || len(p.Shapes) > 0 || len(p.Tables) > 0 {
			return true
		}
	}
	return false
}
