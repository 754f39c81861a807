package source

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/collatehq/collate/internal/filetype"
	"github.com/collatehq/collate/internal/sidecar"
)

// stubSidecar serves canned JSON for the extractor sidecar's endpoints.
func stubSidecar(t *testing.T, handlers map[string]any) *sidecar.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, ok := handlers[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return sidecar.NewClient(srv.URL)
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNativeSource(t *testing.T) {
	client := stubSidecar(t, map[string]any{
		"/native": sidecar.NativeResult{Pages: []sidecar.WirePage{{
			PageNumber: 1,
			Width:      1000,
			Height:     500,
			Words: []sidecar.WireWord{
				{Text: "hello", X0: 100, Y0: 50, X1: 200, Y1: 75},
				{Text: "  ", X0: 0, Y0: 0, X1: 10, Y1: 10},
				{Text: "scored", X0: 300, Y0: 50, X1: 400, Y1: 75, Confidence: 0.9},
			},
			Shapes: []sidecar.WireShape{
				{Type: "line", X0: 0, Y0: 250, X1: 1000, Y1: 250},
				{Type: "hexagon", X0: 0, Y0: 0, X1: 10, Y1: 10},
			},
		}}},
	})

	src := NewNativeSource(client)
	pages, err := src.Extract(t.Context(), Input{Data: []byte("%PDF"), Kind: filetype.KindPDF})
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}

	page := pages[0]
	if len(page.Words) != 2 {
		t.Fatalf("words = %d, want 2 (blank dropped)", len(page.Words))
	}
	// Missing confidence means the text layer is authoritative.
	if page.Words[0].Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0 default", page.Words[0].Confidence)
	}
	if page.Words[1].Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9 from wire", page.Words[1].Confidence)
	}
	w := page.Words[0]
	if !approx(w.BBox.X, 0.1) || !approx(w.BBox.Y, 0.1) || !approx(w.BBox.Width, 0.1) || !approx(w.BBox.Height, 0.05) {
		t.Errorf("bbox not normalized: %+v", w.BBox)
	}
	if len(page.Shapes) != 1 {
		t.Errorf("shapes = %d, want 1 (unknown type dropped)", len(page.Shapes))
	}
}

func TestNativeSource_SkipsImages(t *testing.T) {
	src := NewNativeSource(sidecar.NewClient("http://localhost:1"))
	pages, err := src.Extract(t.Context(), Input{Data: []byte{0xFF}, Kind: filetype.KindImage})
	if err != nil {
		t.Fatal(err)
	}
	if pages != nil {
		t.Errorf("expected no contribution for images, got %+v", pages)
	}
}

func TestTablesSource(t *testing.T) {
	client := stubSidecar(t, map[string]any{
		"/tables": sidecar.TablesResult{Tables: []sidecar.WireTable{
			{
				PageNumber: 2, TableID: "det-1",
				X0: 100, Y0: 100, X1: 900, Y1: 400,
				PageWidth: 1000, PageHeight: 500,
				Cells: []sidecar.WireCell{
					{Text: "name", Row: 0, Col: 0, Confidence: 0.9},
					{Text: "", Row: 0, Col: 1, Confidence: 0.9},
				},
				Rows: 1, Cols: 2,
			},
			{
				PageNumber: 2, TableID: "",
				X0: 100, Y0: 420, X1: 900, Y1: 480,
				PageWidth: 1000, PageHeight: 500,
				Rows: 1, Cols: 1,
			},
		}},
	})

	src := NewTablesSource(client)
	pages, err := src.Extract(t.Context(), Input{Data: []byte("%PDF"), Kind: filetype.KindPDF})
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].PageNumber != 2 {
		t.Fatalf("pages = %+v, want one page numbered 2", pages)
	}

	tables := pages[0].Tables
	if len(tables) != 2 {
		t.Fatalf("tables = %d, want 2", len(tables))
	}
	if len(tables[0].Cells) != 1 {
		t.Errorf("cells = %d, want 1 (empty text dropped)", len(tables[0].Cells))
	}
	if tables[1].TableID == "" {
		t.Error("expected generated table_id for blank detector id")
	}
	if tables[0].TableID != "det-1" {
		t.Errorf("table_id = %q, want detector's det-1", tables[0].TableID)
	}
}

func TestShapesSource(t *testing.T) {
	client := stubSidecar(t, map[string]any{
		"/shapes": sidecar.ShapesResult{
			Width:  800,
			Height: 600,
			Shapes: []sidecar.WireShape{
				{Type: "rectangle", X0: 80, Y0: 60, X1: 720, Y1: 540},
			},
		},
	})

	src := NewShapesSource(client)

	t.Run("detects on images", func(t *testing.T) {
		pages, err := src.Extract(t.Context(), Input{Data: []byte{0xFF}, Kind: filetype.KindImage})
		if err != nil {
			t.Fatal(err)
		}
		if len(pages) != 1 || len(pages[0].Shapes) != 1 {
			t.Fatalf("pages = %+v, want one page with one shape", pages)
		}
		s := pages[0].Shapes[0]
		if !approx(s.BBox.X, 0.1) || !approx(s.BBox.Y, 0.1) || !approx(s.BBox.Width, 0.8) || !approx(s.BBox.Height, 0.8) {
			t.Errorf("bbox not normalized: %+v", s.BBox)
		}
	})

	t.Run("skips pdfs", func(t *testing.T) {
		pages, err := src.Extract(t.Context(), Input{Data: []byte("%PDF"), Kind: filetype.KindPDF})
		if err != nil {
			t.Fatal(err)
		}
		if pages != nil {
			t.Errorf("expected no contribution for PDFs, got %+v", pages)
		}
	})
}

func TestRegistry_Order(t *testing.T) {
	mk := func(name string, role Role) Source {
		return &orderedStub{name: name, role: role}
	}
	reg := NewRegistry(
		mk("shapes", RoleDetector),
		mk("tesseract", RoleOCR),
		mk("vision", RoleOCR),
		mk("native", RoleNative),
	)

	want := []string{"native", "tesseract", "vision", "shapes"}
	got := reg.Names()
	if len(got) != len(want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names = %v, want %v", got, want)
		}
	}
}

func TestRegistry_Health(t *testing.T) {
	healthy := stubSidecar(t, map[string]any{}) // 404 on /health
	reg := NewRegistry(
		NewNativeSource(healthy),
		&orderedStub{name: "inprocess", role: RoleOCR},
	)

	status := reg.Health(t.Context())
	if status["native"] {
		t.Error("native should be unhealthy when sidecar 404s /health")
	}
	if !status["inprocess"] {
		t.Error("sources without a health check should report available")
	}
}

type orderedStub struct {
	name string
	role Role
}

func (s *orderedStub) Name() string               { return s.name }
func (s *orderedStub) Role() Role                 { return s.role }
func (s *orderedStub) Capabilities() Capabilities { return Capabilities{} }
func (s *orderedStub) Extract(context.Context, Input) ([]PageData, error) {
	return nil, nil
}

func TestPagesForOCR_Image(t *testing.T) {
	data := pngBytes(t, 320, 240)
	pages, err := pagesForOCR(t.Context(), Input{Data: data, Kind: filetype.KindImage}, nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	p := pages[0]
	if p.PageNumber != 1 || p.Width != 320 || p.Height != 240 {
		t.Errorf("page = %+v, want page 1 at 320x240", p)
	}
}

func TestPagesForOCR_BadImage(t *testing.T) {
	_, err := pagesForOCR(t.Context(), Input{Data: []byte("not an image"), Kind: filetype.KindImage}, nil, 2)
	if err == nil {
		t.Error("expected error for undecodable image")
	}
}
