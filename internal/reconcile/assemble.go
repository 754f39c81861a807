package reconcile

import (
	"sort"

	"github.com/collatehq/collate/internal/coverage"
	"github.com/collatehq/collate/internal/dedupe"
	"github.com/collatehq/collate/internal/ir"
	"github.com/collatehq/collate/internal/source"
)

// fallbackPageDim is used when no source reports dimensions for a page,
// so downstream consumers always have usable bounding-box denominators.
const fallbackPageDim = 1000.0

// assemble composes the final document from the joined source results.
// Results arrive in run order (native before OCR), which fixes the
// deduplicator's input ordering. Failed sources are already empty.
func assemble(results []source.Result) *ir.Document {
	totalPages := 0
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for _, p := range r.Pages {
			if p.PageNumber > totalPages {
				totalPages = p.PageNumber
			}
		}
	}

	pages := make([]ir.Page, 0, totalPages)
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		pages = append(pages, assemblePage(pageNum, results))
	}

	methods := make([]string, 0, len(results))
	for _, r := range results {
		if r.Contributed() {
			methods = append(methods, r.Name)
		}
	}
	sort.Strings(methods)

	return &ir.Document{
		Pages:             pages,
		TotalPages:        len(pages),
		ExtractionMethods: methods,
		OverallCoverage:   coverage.Overall(pages),
	}
}

func assemblePage(pageNum int, results []source.Result) ir.Page {
	page := ir.Page{
		PageNumber: pageNum,
		Width:      fallbackPageDim,
		Height:     fallbackPageDim,
		Words:      []ir.Word{},
		Shapes:     []ir.Shape{},
		Tables:     []ir.Table{},
	}

	var combined []ir.Word
	nativeWords, ocrWords := 0, 0
	haveDims := false

	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for _, pd := range r.Pages {
			if pd.PageNumber != pageNum {
				continue
			}

			// First source reporting dimensions wins; sources run in
			// native-first order, so the text layer takes precedence
			// over rasterized sizes.
			if !haveDims && pd.Width > 0 && pd.Height > 0 {
				page.Width = pd.Width
				page.Height = pd.Height
				haveDims = true
			}

			combined = append(combined, pd.Words...)
			switch r.Role {
			case source.RoleNative:
				nativeWords += len(pd.Words)
			case source.RoleOCR:
				ocrWords += len(pd.Words)
			}

			// Shapes concatenate across sources; tables are filtered by
			// their own page number. Neither is deduplicated.
			page.Shapes = append(page.Shapes, pd.Shapes...)
			for _, t := range pd.Tables {
				if t.PageNumber == pageNum {
					page.Tables = append(page.Tables, t)
				}
			}
		}
	}

	merged := dedupe.Merge(combined)
	page.Words = merged
	page.Coverage = coverage.ForPage(nativeWords, ocrWords, len(merged))
	return page
}
