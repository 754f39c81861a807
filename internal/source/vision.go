package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"github.com/collatehq/collate/internal/geom"
	"github.com/collatehq/collate/internal/ir"
)

// VisionName identifies the vision-model OCR source.
const VisionName = "vision"

// visionPageSchema constrains the model to words-with-boxes in pixel
// coordinates of the supplied image.
var visionPageSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"words": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text":       map[string]any{"type": "string"},
					"x":          map[string]any{"type": "number"},
					"y":          map[string]any{"type": "number"},
					"width":      map[string]any{"type": "number"},
					"height":     map[string]any{"type": "number"},
					"confidence": map[string]any{"type": "number"},
				},
				"required":             []string{"text", "x", "y", "width", "height", "confidence"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"words"},
	"additionalProperties": false,
}

const visionPrompt = `Read every word visible in this document image.

For each word report:
- "text": the word exactly as printed
- "x", "y": the top-left corner of its bounding box in pixels
- "width", "height": the box size in pixels
- "confidence": 0.0-1.0, how certain you are of the reading

Report single words, not lines or paragraphs. Skip decorative marks that
are not text. The image is WIDTHxHEIGHT pixels; coordinates must stay
inside it.`

// VisionConfig configures the vision OCR source.
type VisionConfig struct {
	APIKey  string
	Model   string  // default gpt-4o-mini
	BaseURL string  // optional, for OpenAI-compatible gateways and tests
	Scale   float64 // PDF rasterization scale (default 2)
}

// VisionSource extracts words with positions using an OpenAI-compatible
// vision model constrained to a JSON schema. It is an optional second
// OCR engine; when no API key is configured the source is simply not
// registered.
type VisionSource struct {
	client     openai.Client
	model      string
	rasterizer Rasterizer
	scale      float64
}

// NewVisionSource creates the vision OCR source.
func NewVisionSource(rasterizer Rasterizer, cfg VisionConfig) *VisionSource {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	scale := cfg.Scale
	if scale <= 0 {
		scale = 2
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &VisionSource{
		client:     openai.NewClient(opts...),
		model:      model,
		rasterizer: rasterizer,
		scale:      scale,
	}
}

func (s *VisionSource) Name() string { return VisionName }
func (s *VisionSource) Role() Role   { return RoleOCR }

func (s *VisionSource) Capabilities() Capabilities {
	return Capabilities{Words: true}
}

func (s *VisionSource) Extract(ctx context.Context, in Input) ([]PageData, error) {
	pageImages, err := pagesForOCR(ctx, in, s.rasterizer, s.scale)
	if err != nil {
		return nil, err
	}

	pages := make([]PageData, 0, len(pageImages))
	for _, pi := range pageImages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		words, err := s.recognizePage(ctx, pi)
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

func (s *VisionSource) recognizePage(ctx context.Context, pi pageImage) ([]ir.Word, error) {
	prompt := strings.NewReplacer(
		"WIDTH", fmt.Sprintf("%.0f", pi.Width),
		"HEIGHT", fmt.Sprintf("%.0f", pi.Height),
	).Replace(visionPrompt)

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pi.Data)

	response, err := s.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ChatModel(s.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(
					responses.ResponseInputMessageContentListParam{
						responses.ResponseInputContentUnionParam{
							OfInputImage: &responses.ResponseInputImageParam{
								ImageURL: openai.String(dataURL),
								Detail:   responses.ResponseInputImageDetailHigh,
							},
						},
						responses.ResponseInputContentParamOfInputText(prompt),
					},
					"user",
				),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema("page_words", visionPageSchema),
		},
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Words []struct {
			Text       string  `json:"text"`
			X          float64 `json:"x"`
			Y          float64 `json:"y"`
			Width      float64 `json:"width"`
			Height     float64 `json:"height"`
			Confidence float64 `json:"confidence"`
		} `json:"words"`
	}
	if err := json.Unmarshal([]byte(response.OutputText()), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}

	words := make([]ir.Word, 0, len(parsed.Words))
	for _, w := range parsed.Words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		bbox, err := geom.NormalizeXYWH(w.X, w.Y, w.Width, w.Height, pi.Width, pi.Height)
		if err != nil {
			return nil, err
		}
		conf := w.Confidence
		if conf < 0 {
			conf = 0
		} else if conf > 1 {
			conf = 1
		}
		words = append(words, ir.Word{
			Text:       text,
			BBox:       bbox,
			Confidence: conf,
			Source:     VisionName,
		})
	}
	return words, nil
}
