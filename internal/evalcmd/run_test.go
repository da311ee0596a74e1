package evalcmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prairie-archives/nerbench/internal/entity"
	"github.com/prairie-archives/nerbench/internal/eval/metrics"
	"github.com/prairie-archives/nerbench/internal/eval/spanmatch"
	"github.com/prairie-archives/nerbench/internal/workspace"
)

const testModel = "spacy_en_core_web_sm"

func saveGoldDoc(t *testing.T, w *workspace.Workspace, docID string, snippets []workspace.AnnotatedSnippet) {
	t.Helper()
	err := w.SaveGold(&workspace.AnnotationFile{
		DocumentID:    docID,
		Annotator:     workspace.AnnotatorReviewed,
		TotalSnippets: len(snippets),
		Snippets:      snippets,
	})
	if err != nil {
		t.Fatalf("SaveGold(%s) failed: %v", docID, err)
	}
}

func savePredDoc(t *testing.T, w *workspace.Workspace, docID string, snippets []workspace.PredictionSnippet) {
	t.Helper()
	err := w.SavePrediction(&workspace.PredictionFile{
		DocumentID: docID,
		Model:      testModel,
		Snippets:   snippets,
	})
	if err != nil {
		t.Fatalf("SavePrediction(%s) failed: %v", docID, err)
	}
}

func TestCollectInputs(t *testing.T) {
	w := workspace.New(t.TempDir())

	// brm has a prediction file that misses snippet 002.
	saveGoldDoc(t, w, "brm_18890305", []workspace.AnnotatedSnippet{
		{SnippetID: "001", Text: "Fort Carlton stood here.", Entities: []entity.Span{
			{Text: "Fort Carlton", Start: 0, End: 12, Type: entity.LOC, Reviewed: true},
		}},
		{SnippetID: "002", Text: "Regina in 1912.", Entities: []entity.Span{
			{Text: "Regina", Start: 0, End: 6, Type: entity.LOC, Reviewed: true},
		}},
	})
	savePredDoc(t, w, "brm_18890305", []workspace.PredictionSnippet{
		{SnippetID: "001", Entities: []entity.Span{
			{Text: "Carlton", Start: 5, End: 12, Type: entity.LOC, Confidence: 0.9},
		}},
	})

	// ptr is fully predicted.
	saveGoldDoc(t, w, "ptr_19260121", []workspace.AnnotatedSnippet{
		{SnippetID: "001", Text: "Near Duck Lake.", Entities: []entity.Span{
			{Text: "Duck Lake", Start: 5, End: 14, Type: entity.LOC, Reviewed: true},
		}},
	})
	savePredDoc(t, w, "ptr_19260121", []workspace.PredictionSnippet{
		{SnippetID: "001", Entities: []entity.Span{
			{Text: "Duck Lake", Start: 5, End: 14, Type: entity.LOC, Confidence: 0.8},
		}},
	})

	// zzz has no prediction file at all.
	saveGoldDoc(t, w, "zzz_19010101", []workspace.AnnotatedSnippet{
		{SnippetID: "001", Text: "Batoche.", Entities: []entity.Span{
			{Text: "Batoche", Start: 0, End: 7, Type: entity.LOC, Reviewed: true},
		}},
	})

	inputs, warnings, err := collectInputs(testModel, w.GoldDir(), w.PredictionsDir(testModel))
	if err != nil {
		t.Fatalf("collectInputs failed: %v", err)
	}

	if len(inputs) != 2 {
		t.Fatalf("Expected 2 inputs, got %d: %+v", len(inputs), inputs)
	}
	if inputs[0].DocumentID != "brm_18890305" || inputs[0].SnippetID != "001" {
		t.Errorf("inputs[0] = %s/%s", inputs[0].DocumentID, inputs[0].SnippetID)
	}
	if inputs[1].DocumentID != "ptr_19260121" || inputs[1].SnippetID != "001" {
		t.Errorf("inputs[1] = %s/%s", inputs[1].DocumentID, inputs[1].SnippetID)
	}
	if len(inputs[0].Gold) != 1 || len(inputs[0].Pred) != 1 || inputs[0].Pred[0].Text != "Carlton" {
		t.Errorf("inputs[0] spans = gold %+v pred %+v", inputs[0].Gold, inputs[0].Pred)
	}

	// Missing predictions warn and skip; they never count against the model.
	if len(warnings) != 2 {
		t.Fatalf("Expected 2 warnings, got %+v", warnings)
	}
	if warnings[0].DocumentID != "brm_18890305" || warnings[0].SnippetID != "002" {
		t.Errorf("warnings[0] = %+v", warnings[0])
	}
	if warnings[1].DocumentID != "zzz_19010101" || warnings[1].SnippetID != "" {
		t.Errorf("warnings[1] = %+v", warnings[1])
	}
	for _, warn := range warnings {
		if warn.Reason != metrics.WarnMissingPrediction {
			t.Errorf("Warning reason = %s", warn.Reason)
		}
	}
}

func TestCollectInputsRejectsOutOfRangePrediction(t *testing.T) {
	w := workspace.New(t.TempDir())

	saveGoldDoc(t, w, "d1", []workspace.AnnotatedSnippet{
		{SnippetID: "001", Text: "short", Entities: []entity.Span{
			{Text: "short", Start: 0, End: 5, Type: entity.MISC, Reviewed: true},
		}},
	})
	// Offsets pass the load-time checks but overrun the gold snippet text.
	savePredDoc(t, w, "d1", []workspace.PredictionSnippet{
		{SnippetID: "001", Entities: []entity.Span{
			{Text: "short", Start: 0, End: 99, Type: entity.MISC},
		}},
	})

	_, _, err := collectInputs(testModel, w.GoldDir(), w.PredictionsDir(testModel))
	if err == nil {
		t.Fatal("Expected out-of-range prediction to fail, got nil")
	}
	var spanErr *entity.InvalidSpanError
	if !errors.As(err, &spanErr) {
		t.Fatalf("Expected InvalidSpanError, got %T: %v", err, err)
	}
	if spanErr.Side != entity.SidePred || spanErr.SnippetID != "001" {
		t.Errorf("Error context = %+v", spanErr)
	}
}

func TestCollectInputsNoGold(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := collectInputs(testModel, dir, dir); err == nil {
		t.Fatal("Expected error for an empty gold directory, got nil")
	}
}

func TestEvaluateAllKeepsInputOrder(t *testing.T) {
	var inputs []spanmatch.Input
	for i := 0; i < 12; i++ {
		inputs = append(inputs, spanmatch.Input{
			DocumentID: "doc",
			SnippetID:  fmt.Sprintf("%03d", i+1),
			Gold: []entity.Span{
				{Text: "Regina", Start: 0, End: 6, Type: entity.LOC},
			},
			Pred: []entity.Span{
				{Text: "Regina", Start: 0, End: 6, Type: entity.LOC},
			},
		})
	}
	// An empty snippet stays empty in place.
	inputs = append(inputs, spanmatch.Input{DocumentID: "doc", SnippetID: "013"})

	results, err := evaluateAll(inputs, 4)
	if err != nil {
		t.Fatalf("evaluateAll failed: %v", err)
	}
	if len(results) != len(inputs) {
		t.Fatalf("Expected %d results, got %d", len(inputs), len(results))
	}
	for i, r := range results {
		if r.SnippetID != inputs[i].SnippetID {
			t.Errorf("results[%d] = snippet %s, want %s", i, r.SnippetID, inputs[i].SnippetID)
		}
	}
	if !results[12].Empty {
		t.Error("Snippet with no spans on either side should be marked empty")
	}
	if results[0].Empty || results[0].Exact[entity.LOC].TP != 1 {
		t.Errorf("results[0] = %+v", results[0])
	}
}

func TestEvaluateAllPropagatesError(t *testing.T) {
	inputs := []spanmatch.Input{
		{DocumentID: "doc", SnippetID: "001", Gold: []entity.Span{
			{Text: "x", Start: 6, End: 2, Type: entity.LOC},
		}},
	}
	if _, err := evaluateAll(inputs, 2); err == nil {
		t.Fatal("Expected invalid span to fail the run, got nil")
	}
}
