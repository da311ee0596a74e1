// Package metrics rolls per-snippet match results into evaluation reports:
// overall, per-type, and per-document precision/recall/F1 for the exact and
// partial variants, plus the combined error list.
package metrics

import (
	"fmt"
	"time"

	"github.com/prairie-archives/nerbench/internal/entity"
	"github.com/prairie-archives/nerbench/internal/eval/spanmatch"
)

// Measure bundles raw counts with derived scores for one scope. A nil score
// means the denominator was zero: precision with no predictions, recall with
// no gold spans. JSON renders those as null; text output as "n/a".
type Measure struct {
	TP        int      `json:"tp"`
	FP        int      `json:"fp"`
	FN        int      `json:"fn"`
	Precision *float64 `json:"precision"`
	Recall    *float64 `json:"recall"`
	F1        *float64 `json:"f1"`
}

// NewMeasure derives scores from counts. F1 is 0 when precision and recall
// are both defined and sum to zero, and undefined when either input is.
func NewMeasure(c spanmatch.Counts) Measure {
	m := Measure{TP: c.TP, FP: c.FP, FN: c.FN}
	if pred := c.Pred(); pred > 0 {
		v := float64(c.TP) / float64(pred)
		m.Precision = &v
	}
	if gold := c.Gold(); gold > 0 {
		v := float64(c.TP) / float64(gold)
		m.Recall = &v
	}
	if m.Precision != nil && m.Recall != nil {
		var f1 float64
		if sum := *m.Precision + *m.Recall; sum > 0 {
			f1 = 2 * *m.Precision * *m.Recall / sum
		}
		m.F1 = &f1
	}
	return m
}

// Counts recovers the raw tallies.
func (m Measure) Counts() spanmatch.Counts {
	return spanmatch.Counts{TP: m.TP, FP: m.FP, FN: m.FN}
}

// Breakdown pairs the exact and partial measures for one scope.
type Breakdown struct {
	Exact   Measure `json:"exact"`
	Partial Measure `json:"partial"`
}

// TypeBreakdown is one per-type report row. All four taxonomy types are
// always present, in canonical order.
type TypeBreakdown struct {
	Type    entity.Type `json:"type"`
	Exact   Measure     `json:"exact"`
	Partial Measure     `json:"partial"`
}

// DocumentBreakdown is one per-document report row.
type DocumentBreakdown struct {
	DocumentID string  `json:"document_id"`
	Snippets   int     `json:"snippets"`
	Exact      Measure `json:"exact"`
	Partial    Measure `json:"partial"`
}

// Warning reasons surfaced in reports.
const (
	WarnEmptyInput        = "empty_input"
	WarnMissingPrediction = "missing_prediction"
)

// Warning records a non-fatal condition hit during a run.
type Warning struct {
	DocumentID string `json:"document_id"`
	SnippetID  string `json:"snippet_id,omitempty"`
	Reason     string `json:"reason"`
}

func (w Warning) String() string {
	if w.SnippetID != "" {
		return fmt.Sprintf("%s %s/%s", w.Reason, w.DocumentID, w.SnippetID)
	}
	return fmt.Sprintf("%s %s", w.Reason, w.DocumentID)
}

// Report is the full output of one evaluation run for one model.
type Report struct {
	Model       string                  `json:"model"`
	RunID       string                  `json:"run_id,omitempty"`
	EvaluatedAt time.Time               `json:"evaluated_at"`
	Documents   int                     `json:"documents"`
	Snippets    int                     `json:"snippets"`
	GoldSpans   int                     `json:"gold_spans"`
	PredSpans   int                     `json:"pred_spans"`
	Overall     Breakdown               `json:"overall"`
	PerType     []TypeBreakdown         `json:"per_type"`
	PerDocument []DocumentBreakdown     `json:"per_document"`
	Errors      []spanmatch.Discrepancy `json:"errors"`
	Warnings    []Warning               `json:"warnings,omitempty"`
}

// ErrorTally counts error-list entries by kind.
func (r *Report) ErrorTally() map[spanmatch.Kind]int {
	tally := make(map[spanmatch.Kind]int)
	for _, e := range r.Errors {
		tally[e.Kind]++
	}
	return tally
}

// FormatScore renders a score for text output, "n/a" when undefined.
func FormatScore(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *v)
}
