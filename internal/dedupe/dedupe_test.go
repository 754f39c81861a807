package dedupe

import (
	"math"
	"reflect"
	"testing"

	"github.com/collatehq/collate/internal/geom"
	"github.com/collatehq/collate/internal/ir"
)

func word(text string, x, y, w, h, conf float64, source string) ir.Word {
	return ir.Word{
		Text:       text,
		BBox:       geom.BoundingBox{X: x, Y: y, Width: w, Height: h},
		Confidence: conf,
		Source:     source,
	}
}

func TestMerge_HigherConfidenceWins(t *testing.T) {
	native := word("Invoice", 0.1, 0.1, 0.2, 0.05, 0.6, "native")
	ocr := word("Invoice", 0.1, 0.1, 0.2, 0.05, 0.9, "tesseract")

	got := Merge([]ir.Word{native, ocr})
	if len(got) != 1 {
		t.Fatalf("Merge() returned %d words, want 1", len(got))
	}
	if got[0].Confidence != 0.9 || got[0].Source != "tesseract" {
		t.Errorf("Merge() kept %+v, want the 0.9-confidence record", got[0])
	}
}

func TestMerge_LowerConfidenceDiscarded(t *testing.T) {
	first := word("Total", 0.5, 0.5, 0.1, 0.03, 0.95, "native")
	second := word("Total", 0.5, 0.5, 0.1, 0.03, 0.4, "tesseract")

	got := Merge([]ir.Word{first, second})
	if len(got) != 1 {
		t.Fatalf("Merge() returned %d words, want 1", len(got))
	}
	if got[0].Source != "native" {
		t.Errorf("Merge() kept %q, want the earlier higher-confidence record", got[0].Source)
	}
}

func TestMerge_EqualConfidenceKeepsEarlier(t *testing.T) {
	first := word("Sum", 0.2, 0.2, 0.1, 0.03, 0.8, "native")
	second := word("Sum", 0.2, 0.2, 0.1, 0.03, 0.8, "tesseract")

	got := Merge([]ir.Word{first, second})
	if len(got) != 1 || got[0].Source != "native" {
		t.Errorf("Merge() = %+v, want only the earlier record on a tie", got)
	}
}

func TestMerge_BelowThresholdsNotMerged(t *testing.T) {
	t.Run("overlap_below_iou", func(t *testing.T) {
		a := word("Name", 0.0, 0.0, 0.1, 0.1, 1.0, "native")
		b := word("Name", 0.05, 0.05, 0.1, 0.1, 1.0, "tesseract")
		if got := Merge([]ir.Word{a, b}); len(got) != 2 {
			t.Errorf("Merge() merged boxes with IoU below 0.7: %+v", got)
		}
	})

	t.Run("text_below_similarity", func(t *testing.T) {
		a := word("alpha beta gamma", 0.1, 0.1, 0.3, 0.05, 1.0, "native")
		b := word("alpha delta epsilon", 0.1, 0.1, 0.3, 0.05, 1.0, "tesseract")
		if got := Merge([]ir.Word{a, b}); len(got) != 2 {
			t.Errorf("Merge() merged dissimilar texts: %+v", got)
		}
	})
}

func TestMerge_DisjointSourcesConcatenate(t *testing.T) {
	words := []ir.Word{
		word("one", 0.0, 0.0, 0.1, 0.05, 1.0, "native"),
		word("two", 0.3, 0.0, 0.1, 0.05, 1.0, "native"),
		word("three", 0.6, 0.0, 0.1, 0.05, 0.7, "tesseract"),
	}
	if got := Merge(words); len(got) != 3 {
		t.Errorf("Merge() = %d words, want 3 distinct", len(got))
	}
}

func TestMerge_Idempotent(t *testing.T) {
	words := []ir.Word{
		word("alpha", 0.0, 0.0, 0.1, 0.05, 1.0, "native"),
		word("alpha", 0.0, 0.0, 0.1, 0.05, 0.8, "tesseract"),
		word("beta", 0.3, 0.0, 0.1, 0.05, 0.9, "tesseract"),
	}
	once := Merge(words)
	twice := Merge(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Merge not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMerge_FirstMatchNotBestMatch(t *testing.T) {
	// Two accepted words both qualify against the incoming one (but not
	// against each other); the scan must stop at the first, even though
	// the second overlaps more.
	first := word("report", 0.10, 0.10, 0.20, 0.050, 0.9, "native")  // IoU vs second ~0.67
	second := word("report", 0.14, 0.10, 0.20, 0.050, 0.9, "native") // IoU vs incoming ~0.90
	incoming := word("report", 0.13, 0.10, 0.20, 0.050, 0.95, "tesseract")

	got := Merge([]ir.Word{first, second, incoming})
	if len(got) != 2 {
		t.Fatalf("Merge() = %d words, want 2", len(got))
	}
	if got[0].Confidence != 0.95 {
		t.Errorf("incoming word replaced index %d, want replacement at first match (index 0)", 1)
	}
	if got[1].Confidence != 0.9 {
		t.Errorf("second accepted word should be untouched, got %+v", got[1])
	}
}

func TestMerge_InputNotMutated(t *testing.T) {
	in := []ir.Word{
		word("x", 0.1, 0.1, 0.1, 0.05, 0.5, "native"),
		word("x", 0.1, 0.1, 0.1, 0.05, 0.9, "tesseract"),
	}
	snapshot := make([]ir.Word, len(in))
	copy(snapshot, in)

	Merge(in)
	if !reflect.DeepEqual(in, snapshot) {
		t.Errorf("Merge mutated its input: %+v", in)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Total Due", "Total Due", 1.0},
		{"case_insensitive", "TOTAL", "total", 1.0},
		{"empty_left", "", "word", 0.0},
		{"empty_right", "word", "", 0.0},
		{"both_empty", "", "", 0.0},
		{"whitespace_only", "   ", "word", 0.0},
		{"half_overlap", "a b", "a c", 1.0 / 3.0},
		{"disjoint", "foo", "bar", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a, b := "gross total due", "total due"
	if Similarity(a, b) != Similarity(b, a) {
		t.Errorf("Similarity not symmetric")
	}
}
