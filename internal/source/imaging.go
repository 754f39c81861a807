package source

import (
	"bytes"
	"context"
	"fmt"
	"image"

	// Register decoders for every image type the /extract endpoint accepts.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/collatehq/collate/internal/filetype"
	"github.com/collatehq/collate/internal/pdfinfo"
)

// Rasterizer turns one PDF page into a raster image for OCR. The extractor
// sidecar implements this; tests substitute their own.
type Rasterizer interface {
	Render(ctx context.Context, pdf []byte, page int, scale float64) ([]byte, error)
}

// pageImage is one ready-to-OCR page: its raster bytes and pixel
// dimensions, which serve as the normalization denominators.
type pageImage struct {
	PageNumber int
	Data       []byte
	Width      float64
	Height     float64
}

// decodeDims reads the image header and returns pixel dimensions without
// decoding the full image.
func decodeDims(data []byte) (width, height float64, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image header: %w", err)
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

// pagesForOCR expands an upload into per-page images. Images are a single
// page as-is; PDFs are rasterized page by page at the given scale.
func pagesForOCR(ctx context.Context, in Input, rasterizer Rasterizer, scale float64) ([]pageImage, error) {
	if in.Kind == filetype.KindImage {
		w, h, err := decodeDims(in.Data)
		if err != nil {
			return nil, err
		}
		return []pageImage{{PageNumber: 1, Data: in.Data, Width: w, Height: h}}, nil
	}

	count, err := pdfinfo.PageCount(in.Data)
	if err != nil {
		return nil, err
	}

	pages := make([]pageImage, 0, count)
	for pageNum := 1; pageNum <= count; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := rasterizer.Render(ctx, in.Data, pageNum, scale)
		if err != nil {
			return nil, fmt.Errorf("rasterize page %d: %w", pageNum, err)
		}
		w, h, err := decodeDims(img)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNum, err)
		}
		pages = append(pages, pageImage{PageNumber: pageNum, Data: img, Width: w, Height: h})
	}
	return pages, nil
}
