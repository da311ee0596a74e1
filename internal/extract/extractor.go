// Package extract turns OCR document text into a handful of annotation-ready
// snippets: sentence-aligned passages sized for a reviewer, chosen by entity
// density so annotation time lands on name-rich text.
package extract

import (
	"errors"
	"sort"
	"strings"

	"github.com/prairie-archives/nerbench/internal/workspace"
)

// Snippet sizing in code points.
const (
	MinSnippetChars    = 300
	MaxSnippetChars    = 1200
	TargetSnippetChars = 800

	minDocumentChars = 50
)

// ErrTooShort marks documents whose OCR text is too small to annotate.
// Callers warn and skip these rather than aborting a batch.
var ErrTooShort = errors.New("document text under 50 characters")

// Strategy names how a document was sampled, recorded in the snippets file.
type Strategy string

const (
	StrategyFullText  Strategy = "full_text"
	StrategySmallDoc  Strategy = "small_doc"
	StrategyMediumDoc Strategy = "medium_doc"
	StrategyLargeDoc  Strategy = "large_doc"
)

// Plan maps a document's word count to a sampling strategy and snippet count.
func Plan(wordCount int) (Strategy, int) {
	switch {
	case wordCount < 500:
		return StrategyFullText, 1
	case wordCount < 2000:
		return StrategySmallDoc, clamp(wordCount/500, 1, 3)
	case wordCount < 10000:
		return StrategyMediumDoc, clamp(wordCount/1000, 5, 10)
	default:
		return StrategyLargeDoc, clamp(wordCount/2000, 10, 15)
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Result is one document's extraction output. Snippet offsets refer to
// Text, the normalized full document text.
type Result struct {
	Text      string
	Strategy  Strategy
	WordCount int
	CharCount int
	Snippets  []workspace.Snippet
}

type candidate struct {
	start   int
	end     int
	density float64
}

// Extract normalizes raw OCR text and selects snippets for annotation.
func Extract(rawText string) (*Result, error) {
	text := Normalize(rawText)
	runes := []rune(text)

	res := &Result{
		Text:      text,
		WordCount: len(strings.Fields(text)),
		CharCount: len(runes),
	}

	if res.CharCount < minDocumentChars {
		return nil, ErrTooShort
	}

	var count int
	res.Strategy, count = Plan(res.WordCount)

	// Short documents become a single whole-text snippet.
	if res.CharCount < MinSnippetChars || res.CharCount < 3*TargetSnippetChars/2 {
		res.Snippets = []workspace.Snippet{{
			SnippetID:          workspace.SnippetID(1),
			Text:               text,
			CharStart:          0,
			CharEnd:            res.CharCount,
			EntityDensityScore: roundScore(DensityScore(text)),
		}}
		return res, nil
	}

	candidates, err := sentenceCandidates(text, runes)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		candidates = chunkCandidates(runes)
	}

	selected := selectCandidates(candidates, count)

	res.Snippets = make([]workspace.Snippet, 0, len(selected))
	for i, c := range selected {
		res.Snippets = append(res.Snippets, workspace.Snippet{
			SnippetID:          workspace.SnippetID(i + 1),
			Text:               string(runes[c.start:c.end]),
			CharStart:          c.start,
			CharEnd:            c.end,
			EntityDensityScore: roundScore(c.density),
		})
	}
	return res, nil
}

// sentenceCandidates grows a candidate from every sentence boundary:
// sentences accumulate until the passage reaches the target size, never
// crossing the maximum. Candidates that stay under the minimum are dropped,
// so unpunctuated OCR yields none and the caller falls back to chunking.
func sentenceCandidates(text string, runes []rune) ([]candidate, error) {
	spans, err := sentenceSpans(text)
	if err != nil {
		return nil, err
	}

	var candidates []candidate
	for i := range spans {
		start := spans[i].Start
		end := 0
		for j := i; j < len(spans); j++ {
			if spans[j].End-start > MaxSnippetChars {
				break
			}
			end = spans[j].End
			if end-start >= TargetSnippetChars {
				break
			}
		}
		if end > 0 && end-start >= MinSnippetChars {
			candidates = append(candidates, scored(runes, start, end))
		}
	}
	return candidates, nil
}

// chunkCandidates cuts fixed windows of the target size, half-overlapping.
func chunkCandidates(runes []rune) []candidate {
	var candidates []candidate
	total := len(runes)
	for start := 0; start < total; start += TargetSnippetChars / 2 {
		end := start + TargetSnippetChars
		if end > total {
			end = total
		}
		if end-start >= MinSnippetChars {
			candidates = append(candidates, scored(runes, start, end))
		}
		if end == total {
			break
		}
	}
	return candidates
}

func scored(runes []rune, start, end int) candidate {
	return candidate{start: start, end: end, density: DensityScore(string(runes[start:end]))}
}

// selectCandidates takes the densest non-overlapping candidates up to count,
// then restores document order.
func selectCandidates(candidates []candidate, count int) []candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].density > candidates[j].density
	})

	var selected []candidate
	for _, c := range candidates {
		if len(selected) >= count {
			break
		}
		overlaps := false
		for _, s := range selected {
			if c.start < s.end && s.start < c.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			selected = append(selected, c)
		}
	}

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].start < selected[j].start
	})
	return selected
}
