package metrics

import (
	"strings"
	"testing"

	"github.com/prairie-archives/nerbench/internal/entity"
	"github.com/prairie-archives/nerbench/internal/eval/spanmatch"
)

func snippetResult(docID, snippetID string, exact, partial map[entity.Type]spanmatch.Counts) *spanmatch.Result {
	return &spanmatch.Result{
		DocumentID: docID,
		SnippetID:  snippetID,
		Exact:      exact,
		Partial:    partial,
	}
}

func TestAggregate(t *testing.T) {
	results := []*spanmatch.Result{
		snippetResult("ptr_19260121", "001",
			map[entity.Type]spanmatch.Counts{
				entity.LOC: {TP: 4, FP: 1, FN: 1},
				entity.PER: {TP: 2, FN: 1},
			},
			map[entity.Type]spanmatch.Counts{
				entity.LOC: {TP: 5, FN: 1},
				entity.PER: {TP: 2, FN: 1},
			}),
		snippetResult("ptr_19260121", "002",
			map[entity.Type]spanmatch.Counts{
				entity.LOC: {TP: 1, FP: 2},
			},
			map[entity.Type]spanmatch.Counts{
				entity.LOC: {TP: 2, FP: 1},
			}),
		snippetResult("brm_18890305", "001",
			map[entity.Type]spanmatch.Counts{
				entity.ORG: {TP: 3, FP: 1, FN: 2},
			},
			map[entity.Type]spanmatch.Counts{
				entity.ORG: {TP: 4, FP: 0, FN: 1},
			}),
	}

	r := Aggregate(results, nil)

	if r.Documents != 2 {
		t.Errorf("Documents = %d, want 2", r.Documents)
	}
	if r.Snippets != 3 {
		t.Errorf("Snippets = %d, want 3", r.Snippets)
	}

	// Overall exact: TP=10, FP=4, FN=4.
	if r.Overall.Exact.TP != 10 || r.Overall.Exact.FP != 4 || r.Overall.Exact.FN != 4 {
		t.Errorf("Overall exact = %+v, want 10/4/4", r.Overall.Exact)
	}
	if r.GoldSpans != 14 {
		t.Errorf("GoldSpans = %d, want 14", r.GoldSpans)
	}
	if r.PredSpans != 14 {
		t.Errorf("PredSpans = %d, want 14", r.PredSpans)
	}

	// Per-document counts must sum to the overall counts.
	var sum spanmatch.Counts
	for _, doc := range r.PerDocument {
		sum.Add(doc.Exact.Counts())
	}
	if sum != r.Overall.Exact.Counts() {
		t.Errorf("Per-document sum %+v != overall %+v", sum, r.Overall.Exact.Counts())
	}

	// Per-type rows cover the whole taxonomy in canonical order.
	if len(r.PerType) != 4 {
		t.Fatalf("PerType rows = %d, want 4", len(r.PerType))
	}
	wantOrder := []entity.Type{entity.LOC, entity.PER, entity.ORG, entity.MISC}
	var typeSum spanmatch.Counts
	for i, row := range r.PerType {
		if row.Type != wantOrder[i] {
			t.Errorf("PerType[%d] = %q, want %q", i, row.Type, wantOrder[i])
		}
		typeSum.Add(row.Exact.Counts())
	}
	if typeSum != r.Overall.Exact.Counts() {
		t.Errorf("Per-type sum %+v != overall %+v", typeSum, r.Overall.Exact.Counts())
	}

	// MISC saw no spans: its scores must be N/A, not zero.
	misc := r.PerType[3]
	if misc.Exact.Precision != nil || misc.Exact.Recall != nil || misc.Exact.F1 != nil {
		t.Errorf("MISC scores should be undefined, got %+v", misc.Exact)
	}

	// Document rows keep first-appearance order.
	if r.PerDocument[0].DocumentID != "ptr_19260121" || r.PerDocument[1].DocumentID != "brm_18890305" {
		t.Errorf("Unexpected document order: %+v", r.PerDocument)
	}
	if r.PerDocument[0].Snippets != 2 {
		t.Errorf("ptr_19260121 snippets = %d, want 2", r.PerDocument[0].Snippets)
	}
}

func TestAggregateWarnings(t *testing.T) {
	empty := &spanmatch.Result{
		DocumentID: "bdm_19120405",
		SnippetID:  "003",
		Exact:      map[entity.Type]spanmatch.Counts{},
		Partial:    map[entity.Type]spanmatch.Counts{},
		Empty:      true,
	}
	pre := []Warning{{DocumentID: "lmt_19010101", Reason: WarnMissingPrediction}}

	r := Aggregate([]*spanmatch.Result{empty}, pre)

	if len(r.Warnings) != 2 {
		t.Fatalf("Warnings = %d, want 2", len(r.Warnings))
	}
	if r.Warnings[0].Reason != WarnMissingPrediction {
		t.Errorf("First warning = %q, want missing_prediction", r.Warnings[0].Reason)
	}
	if r.Warnings[1].Reason != WarnEmptyInput || r.Warnings[1].SnippetID != "003" {
		t.Errorf("Second warning = %+v, want empty_input for snippet 003", r.Warnings[1])
	}

	// The empty snippet contributes no counts: all scores undefined.
	if r.Overall.Exact.Precision != nil || r.Overall.Exact.Recall != nil {
		t.Errorf("Empty input should leave scores undefined, got %+v", r.Overall.Exact)
	}
}

func TestAggregateCollectsErrors(t *testing.T) {
	res := &spanmatch.Result{
		DocumentID: "d1",
		SnippetID:  "001",
		Exact:      map[entity.Type]spanmatch.Counts{entity.LOC: {FP: 1, FN: 1}},
		Partial:    map[entity.Type]spanmatch.Counts{entity.LOC: {TP: 1}},
		Errors: []spanmatch.Discrepancy{
			{DocumentID: "d1", SnippetID: "001", Kind: spanmatch.BoundaryError},
		},
	}
	r := Aggregate([]*spanmatch.Result{res}, nil)
	if len(r.Errors) != 1 || r.Errors[0].Kind != spanmatch.BoundaryError {
		t.Fatalf("Errors = %+v, want the boundary_error entry", r.Errors)
	}
	tally := r.ErrorTally()
	if tally[spanmatch.BoundaryError] != 1 {
		t.Errorf("Tally = %+v, want boundary_error: 1", tally)
	}
}

func TestPrintSummary(t *testing.T) {
	results := []*spanmatch.Result{
		snippetResult("ptr_19260121", "001",
			map[entity.Type]spanmatch.Counts{entity.LOC: {TP: 2, FP: 1, FN: 1}},
			map[entity.Type]spanmatch.Counts{entity.LOC: {TP: 3, FN: 0}}),
	}
	r := Aggregate(results, nil)
	r.Model = "spacy_en_core_web_sm"

	var sb strings.Builder
	PrintSummary(&sb, r)
	out := sb.String()

	for _, want := range []string{
		"NER EVALUATION REPORT: spacy_en_core_web_sm",
		"Overall Performance (Exact Match):",
		"Overall Performance (Partial Match):",
		"Per-Entity-Type Performance",
		"Per-Document Performance",
		"ptr_19260121",
		"Error Summary:",
		"n/a", // MISC row has no spans
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Summary missing %q", want)
		}
	}
}
