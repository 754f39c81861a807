// Package coverage scores extraction completeness without ground truth.
//
// The heuristic: measure how much of the best single-source yield survived
// deduplication. Capped at 100 because the merged set can legitimately
// exceed every individual source when sources contribute unique words.
package coverage

import "github.com/collatehq/collate/internal/ir"

// ForPage computes a page's coverage stats from the pre-merge source word
// counts and the deduplicated final count. The max(...,1) floor keeps the
// ratio defined for pages where every source came up empty.
func ForPage(nativeWords, ocrWords, finalWords int) ir.Coverage {
	denom := nativeWords
	if ocrWords > denom {
		denom = ocrWords
	}
	if denom < 1 {
		denom = 1
	}

	percent := float64(finalWords) / float64(denom) * 100
	if percent > 100 {
		percent = 100
	}

	return ir.Coverage{
		NativeWords:     nativeWords,
		OCRWords:        ocrWords,
		FinalWords:      finalWords,
		CoveragePercent: percent,
	}
}

// Overall is the arithmetic mean of per-page coverage percentages.
// Zero-page documents score 0.
func Overall(pages []ir.Page) float64 {
	if len(pages) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pages {
		sum += p.Coverage.CoveragePercent
	}
	return sum / float64(len(pages))
}
