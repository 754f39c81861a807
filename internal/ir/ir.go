// Package ir defines the intermediate representation produced by the
// reconciliation pipeline: the normalized, source-agnostic document
// structure returned to API callers.
//
// The JSON field names here are the compatibility surface for downstream
// consumers. Field order is irrelevant, keys must match exactly.
package ir

import "github.com/collatehq/collate/internal/geom"

// ShapeType identifies the kind of graphic primitive a detector found.
type ShapeType string

const (
	ShapeLine      ShapeType = "line"
	ShapeRectangle ShapeType = "rectangle"
)

// Word is a single text detection with its position and the source that
// produced it. Text is always non-empty after trimming; adapters filter
// empty detections before records reach the deduplicator.
type Word struct {
	Text       string           `json:"text"`
	BBox       geom.BoundingBox `json:"bbox"`
	Confidence float64          `json:"confidence"`
	Source     string           `json:"source"`
}

// Shape is a line or rectangle detection. Coordinates carries the ordered
// endpoint sequence for lines; rectangles use the bounding box alone.
// Shapes from different sources are concatenated, never merged.
type Shape struct {
	Type        ShapeType        `json:"type"`
	BBox        geom.BoundingBox `json:"bbox"`
	Coordinates []geom.Point     `json:"coordinates,omitempty"`
}

// TableCell is one populated cell of a detected table.
type TableCell struct {
	Text       string  `json:"text"`
	Row        int     `json:"row"`
	Col        int     `json:"col"`
	Confidence float64 `json:"confidence"`
}

// Table is a table detection tied to a specific page.
type Table struct {
	PageNumber int              `json:"page_number"`
	TableID    string           `json:"table_id"`
	BBox       geom.BoundingBox `json:"bbox"`
	Cells      []TableCell      `json:"cells"`
	Rows       int              `json:"rows"`
	Cols       int              `json:"cols"`
}

// Coverage estimates how complete a page's merged word set is relative to
// the best single source. Recomputed on every merge, never mutated after.
type Coverage struct {
	NativeWords     int     `json:"native_words"`
	OCRWords        int     `json:"ocr_words"`
	FinalWords      int     `json:"final_words"`
	CoveragePercent float64 `json:"coverage_percent"`
}

// Page is the reconciled representation of one document page. Words are
// deduplicated; shapes and tables are carried as reported.
type Page struct {
	PageNumber int      `json:"page_number"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Words      []Word   `json:"words"`
	Shapes     []Shape  `json:"shapes"`
	Tables     []Table  `json:"tables"`
	Coverage   Coverage `json:"coverage"`
}

// Document is the top-level IR for one extraction request.
// ExtractionMethods lists the sources that contributed at least one
// record, sorted for deterministic output.
type Document struct {
	Pages             []Page   `json:"pages"`
	TotalPages        int      `json:"total_pages"`
	ExtractionMethods []string `json:"extraction_methods"`
	OverallCoverage   float64  `json:"overall_coverage"`
}
