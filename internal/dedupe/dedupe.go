// Package dedupe merges near-duplicate word detections from independent
// extraction sources into a minimal set.
//
// The merge is greedy and order-sensitive: the caller must feed words in
// a stable order (native source first, then OCR engines in configured
// order) or results are not deterministic. Two detections count as
// duplicates only when both their geometric overlap and text similarity
// clear fixed thresholds; the first qualifying match wins, not the best
// one. Earlier words are never re-compared against later arrivals beyond
// that first-match rule.
package dedupe

import (
	"strings"

	"github.com/collatehq/collate/internal/geom"
	"github.com/collatehq/collate/internal/ir"
)

const (
	// iouThreshold is the minimum intersection-over-union for two boxes
	// to be considered the same detection.
	iouThreshold = 0.7
	// textThreshold is the minimum token-set Jaccard similarity for two
	// texts to be considered the same word(s).
	textThreshold = 0.8
)

// Merge deduplicates a page's combined word list. The input is never
// mutated; on a duplicate the record with higher confidence survives.
// O(n²) in the page word count, which stays in the hundreds per page.
func Merge(words []ir.Word) []ir.Word {
	result := make([]ir.Word, 0, len(words))

	for _, w := range words {
		// Scan without mutating, then replace by index after the scan.
		// Only the first qualifying duplicate is considered.
		matched := -1
		for i, e := range result {
			if geom.IoU(w.BBox, e.BBox) > iouThreshold && Similarity(w.Text, e.Text) > textThreshold {
				matched = i
				break
			}
		}

		if matched < 0 {
			result = append(result, w)
			continue
		}
		if w.Confidence > result[matched].Confidence {
			result[matched] = w
		}
	}

	return result
}

// Similarity is the token-set Jaccard index of two texts: tokens are
// lower-cased and whitespace-split. Either text being empty yields 0 so
// that label-less boxes never merge on geometry alone.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
