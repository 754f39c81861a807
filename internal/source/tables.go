package source

import (
	"context"

	"github.com/google/uuid"

	"github.com/collatehq/collate/internal/filetype"
	"github.com/collatehq/collate/internal/geom"
	"github.com/collatehq/collate/internal/ir"
	"github.com/collatehq/collate/internal/sidecar"
)

// TablesName identifies the table-detector source.
const TablesName = "tables"

// TablesSource adapts the sidecar's table detector. Detections carry
// their own page dimensions, since the detector may operate at a
// different resolution than the text layer.
type TablesSource struct {
	client *sidecar.Client
}

// NewTablesSource creates the table-detector source.
func NewTablesSource(client *sidecar.Client) *TablesSource {
	return &TablesSource{client: client}
}

func (s *TablesSource) Name() string { return TablesName }
func (s *TablesSource) Role() Role   { return RoleDetector }

func (s *TablesSource) Capabilities() Capabilities {
	return Capabilities{Tables: true}
}

// Healthy reports whether the extractor sidecar is reachable.
func (s *TablesSource) Healthy(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

func (s *TablesSource) Extract(ctx context.Context, in Input) ([]PageData, error) {
	if in.Kind != filetype.KindPDF {
		return nil, nil
	}

	result, err := s.client.Tables(ctx, in.Data)
	if err != nil {
		return nil, err
	}

	// Group tables by page, preserving detector order within a page.
	byPage := make(map[int]*PageData)
	var order []int
	for _, wt := range result.Tables {
		bbox, err := geom.NormalizeRect(wt.X0, wt.Y0, wt.X1, wt.Y1, wt.PageWidth, wt.PageHeight)
		if err != nil {
			return nil, err
		}

		tableID := wt.TableID
		if tableID == "" {
			tableID = uuid.New().String()
		}

		table := ir.Table{
			PageNumber: wt.PageNumber,
			TableID:    tableID,
			BBox:       bbox,
			Cells:      make([]ir.TableCell, 0, len(wt.Cells)),
			Rows:       wt.Rows,
			Cols:       wt.Cols,
		}
		for _, c := range wt.Cells {
			if c.Text == "" {
				continue
			}
			table.Cells = append(table.Cells, ir.TableCell{
				Text:       c.Text,
				Row:        c.Row,
				Col:        c.Col,
				Confidence: c.Confidence,
			})
		}

		page, ok := byPage[wt.PageNumber]
		if !ok {
			page = &PageData{
				PageNumber: wt.PageNumber,
				Width:      wt.PageWidth,
				Height:     wt.PageHeight,
			}
			byPage[wt.PageNumber] = page
			order = append(order, wt.PageNumber)
		}
		page.Tables = append(page.Tables, table)
	}

	pages := make([]PageData, 0, len(order))
	for _, num := range order {
		pages = append(pages, *byPage[num])
	}
	return pages, nil
}
