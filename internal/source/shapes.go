package source

import (
	"context"

	"github.com/collatehq/collate/internal/filetype"
	"github.com/collatehq/collate/internal/sidecar"
)

// ShapesName identifies the vision-based shape detector source.
const ShapesName = "shapes"

// ShapesSource adapts the sidecar's line/rectangle detector for raster
// images. PDF vector graphics arrive through the native source instead,
// so this source only contributes on the image path. Shapes are never
// deduplicated across sources; both firing on the same feature is an
// accepted limitation.
type ShapesSource struct {
	client *sidecar.Client
}

// NewShapesSource creates the shape-detector source.
func NewShapesSource(client *sidecar.Client) *ShapesSource {
	return &ShapesSource{client: client}
}

func (s *ShapesSource) Name() string { return ShapesName }
func (s *ShapesSource) Role() Role   { return RoleDetector }

func (s *ShapesSource) Capabilities() Capabilities {
	return Capabilities{Shapes: true}
}

// Healthy reports whether the extractor sidecar is reachable.
func (s *ShapesSource) Healthy(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

func (s *ShapesSource) Extract(ctx context.Context, in Input) ([]PageData, error) {
	if in.Kind != filetype.KindImage {
		return nil, nil
	}

	result, err := s.client.Shapes(ctx, in.Data)
	if err != nil {
		return nil, err
	}

	shapes, err := convertShapes(result.Shapes, result.Width, result.Height)
	if err != nil {
		return nil, err
	}
	if len(shapes) == 0 {
		return nil, nil
	}

	return []PageData{{
		PageNumber: 1,
		Width:      result.Width,
		Height:     result.Height,
		Shapes:     shapes,
	}}, nil
}
