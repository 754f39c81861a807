// Package pdfinfo probes PDF structure (page count, page dimensions)
// without decoding page content.
package pdfinfo

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Dim is one page's media box size in PDF points.
type Dim struct {
	Width  float64
	Height float64
}

// Info describes a PDF's page structure.
type Info struct {
	PageCount int
	Dims      []Dim // one entry per page, in page order
}

// Probe reads the PDF cross-reference structure and returns page count
// and per-page dimensions.
func Probe(pdf []byte) (*Info, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	info := &Info{PageCount: ctx.PageCount, Dims: make([]Dim, 0, len(dims))}
	for _, d := range dims {
		info.Dims = append(info.Dims, Dim{Width: d.Width, Height: d.Height})
	}
	return info, nil
}

// PageCount returns just the page count, cheaper to call when dimensions
// are not needed.
func PageCount(pdf []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(pdf), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return count, nil
}
