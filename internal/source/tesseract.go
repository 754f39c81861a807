package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/collatehq/collate/internal/geom"
	"github.com/collatehq/collate/internal/ir"
)

// TesseractName identifies the in-process Tesseract OCR source.
const TesseractName = "tesseract"

// tesseractMinConfidence drops garbage detections the engine is not sure
// about, on the gosseract 0..1 scale.
const tesseractMinConfidence = 0.30

// TesseractConfig configures the Tesseract source.
type TesseractConfig struct {
	Languages []string // e.g. ["eng"]; engine default when empty
	Scale     float64  // PDF rasterization scale (default 2)
}

// TesseractSource runs word-level OCR via the system Tesseract install.
// Images are recognized directly; PDF pages are rasterized through the
// sidecar first.
type TesseractSource struct {
	rasterizer Rasterizer
	languages  []string
	scale      float64

	// newClient is swappable for tests.
	newClient func() *gosseract.Client
}

// NewTesseractSource creates the Tesseract OCR source.
func NewTesseractSource(rasterizer Rasterizer, cfg TesseractConfig) *TesseractSource {
	scale := cfg.Scale
	if scale <= 0 {
		scale = 2
	}
	return &TesseractSource{
		rasterizer: rasterizer,
		languages:  cfg.Languages,
		scale:      scale,
		newClient:  gosseract.NewClient,
	}
}

func (s *TesseractSource) Name() string { return TesseractName }
func (s *TesseractSource) Role() Role   { return RoleOCR }

func (s *TesseractSource) Capabilities() Capabilities {
	return Capabilities{Words: true}
}

func (s *TesseractSource) Extract(ctx context.Context, in Input) ([]PageData, error) {
	pageImages, err := pagesForOCR(ctx, in, s.rasterizer, s.scale)
	if err != nil {
		return nil, err
	}

	// One client for the whole document amortizes engine setup.
	client := s.newClient()
	defer client.Close()

	if len(s.languages) > 0 {
		if err := client.SetLanguage(s.languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}

	pages := make([]PageData, 0, len(pageImages))
	for _, pi := range pageImages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		words, err := s.recognizePage(client, pi)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pi.PageNumber, err)
		}
		pages = append(pages, PageData{
			PageNumber: pi.PageNumber,
			Width:      pi.Width,
			Height:     pi.Height,
			Words:      words,
		})
	}
	return pages, nil
}

func (s *TesseractSource) recognizePage(client *gosseract.Client, pi pageImage) ([]ir.Word, error) {
	if err := client.SetImageFromBytes(pi.Data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("get word boxes: %w", err)
	}

	words := make([]ir.Word, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		conf := b.Confidence / 100.0
		if conf < tesseractMinConfidence {
			continue
		}
		bbox, err := geom.NormalizeRect(
			float64(b.Box.Min.X), float64(b.Box.Min.Y),
			float64(b.Box.Max.X), float64(b.Box.Max.Y),
			pi.Width, pi.Height,
		)
		if err != nil {
			return nil, err
		}
		words = append(words, ir.Word{
			Text:       text,
			BBox:       bbox,
			Confidence: conf,
			Source:     TesseractName,
		})
	}
	return words, nil
}
