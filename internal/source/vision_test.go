package source

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/collatehq/collate/internal/filetype"
)

// stubVisionUpstream answers the Responses API with a fixed page reading.
func stubVisionUpstream(t *testing.T, pageJSON string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/responses" {
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":         "resp_test",
			"object":     "response",
			"created_at": 0,
			"model":      "gpt-4o-mini",
			"status":     "completed",
			"output": []any{
				map[string]any{
					"type":   "message",
					"id":     "msg_test",
					"role":   "assistant",
					"status": "completed",
					"content": []any{
						map[string]any{
							"type":        "output_text",
							"text":        pageJSON,
							"annotations": []any{},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVisionSource(t *testing.T) {
	pageJSON := `{"words":[
		{"text":"alpha","x":32,"y":24,"width":64,"height":12,"confidence":0.9},
		{"text":"  ","x":0,"y":0,"width":10,"height":10,"confidence":0.9},
		{"text":"beta","x":160,"y":24,"width":64,"height":12,"confidence":1.7}
	]}`
	upstream := stubVisionUpstream(t, pageJSON)

	src := NewVisionSource(nil, VisionConfig{
		APIKey:  "test-key",
		BaseURL: upstream.URL,
	})

	pages, err := src.Extract(t.Context(), Input{
		Data: pngBytes(t, 320, 240),
		Kind: filetype.KindImage,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}

	page := pages[0]
	if page.Width != 320 || page.Height != 240 {
		t.Errorf("page dims = %gx%g, want 320x240", page.Width, page.Height)
	}
	if len(page.Words) != 2 {
		t.Fatalf("words = %d, want 2 (blank dropped)", len(page.Words))
	}

	w := page.Words[0]
	if w.Text != "alpha" || w.Source != VisionName {
		t.Errorf("word = %+v, want alpha from vision", w)
	}
	if !approx(w.BBox.X, 0.1) || !approx(w.BBox.Y, 0.1) || !approx(w.BBox.Width, 0.2) || !approx(w.BBox.Height, 0.05) {
		t.Errorf("bbox not normalized from pixels: %+v", w.BBox)
	}

	// Out-of-range model confidence is clamped, not rejected.
	if page.Words[1].Confidence != 1 {
		t.Errorf("confidence = %v, want clamped to 1", page.Words[1].Confidence)
	}
}

func TestVisionSource_ModelGarbage(t *testing.T) {
	upstream := stubVisionUpstream(t, `not json at all`)

	src := NewVisionSource(nil, VisionConfig{APIKey: "test-key", BaseURL: upstream.URL})
	_, err := src.Extract(t.Context(), Input{
		Data: pngBytes(t, 100, 100),
		Kind: filetype.KindImage,
	})
	if err == nil {
		t.Error("expected error when the model output is not valid JSON")
	}
}
