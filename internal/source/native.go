package source

import (
	"context"
	"strings"

	"github.com/collatehq/collate/internal/filetype"
	"github.com/collatehq/collate/internal/geom"
	"github.com/collatehq/collate/internal/ir"
	"github.com/collatehq/collate/internal/sidecar"
)

// NativeName identifies the PDF text-layer source.
const NativeName = "native"

// NativeSource adapts the sidecar's native PDF extraction: the embedded
// text layer plus vector graphics. It contributes nothing for raster
// image uploads, which have no text layer.
type NativeSource struct {
	client *sidecar.Client
}

// NewNativeSource creates the native text-layer source.
func NewNativeSource(client *sidecar.Client) *NativeSource {
	return &NativeSource{client: client}
}

func (s *NativeSource) Name() string { return NativeName }
func (s *NativeSource) Role() Role   { return RoleNative }

func (s *NativeSource) Capabilities() Capabilities {
	return Capabilities{Words: true, Shapes: true}
}

// Healthy reports whether the extractor sidecar is reachable.
func (s *NativeSource) Healthy(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

func (s *NativeSource) Extract(ctx context.Context, in Input) ([]PageData, error) {
	if in.Kind != filetype.KindPDF {
		return nil, nil
	}

	result, err := s.client.Native(ctx, in.Data)
	if err != nil {
		return nil, err
	}

	pages := make([]PageData, 0, len(result.Pages))
	for _, wp := range result.Pages {
		page := PageData{
			PageNumber: wp.PageNumber,
			Width:      wp.Width,
			Height:     wp.Height,
		}

		for _, w := range wp.Words {
			text := strings.TrimSpace(w.Text)
			if text == "" {
				continue
			}
			bbox, err := geom.NormalizeRect(w.X0, w.Y0, w.X1, w.Y1, wp.Width, wp.Height)
			if err != nil {
				return nil, err
			}
			// The embedded text layer is authoritative; the sidecar may
			// omit confidence, in which case it is 1.0 by definition.
			conf := w.Confidence
			if conf == 0 {
				conf = 1.0
			}
			page.Words = append(page.Words, ir.Word{
				Text:       text,
				BBox:       bbox,
				Confidence: conf,
				Source:     NativeName,
			})
		}

		shapes, err := convertShapes(wp.Shapes, wp.Width, wp.Height)
		if err != nil {
			return nil, err
		}
		page.Shapes = shapes

		pages = append(pages, page)
	}
	return pages, nil
}

// convertShapes normalizes wire shapes into IR records. Unknown shape
// types are dropped rather than failing the whole source.
func convertShapes(shapes []sidecar.WireShape, pageWidth, pageHeight float64) ([]ir.Shape, error) {
	out := make([]ir.Shape, 0, len(shapes))
	for _, ws := range shapes {
		var shapeType ir.ShapeType
		switch ws.Type {
		case "line":
			shapeType = ir.ShapeLine
		case "rectangle":
			shapeType = ir.ShapeRectangle
		default:
			continue
		}

		bbox, err := geom.NormalizeRect(ws.X0, ws.Y0, ws.X1, ws.Y1, pageWidth, pageHeight)
		if err != nil {
			return nil, err
		}

		shape := ir.Shape{Type: shapeType, BBox: bbox}
		for _, p := range ws.Points {
			pt, err := geom.NormalizePoint(p.X, p.Y, pageWidth, pageHeight)
			if err != nil {
				return nil, err
			}
			shape.Coordinates = append(shape.Coordinates, pt)
		}
		out = append(out, shape)
	}
	return out, nil
}
