package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prairie-archives/nerbench/internal/entity"
)

// saveJSON writes v as indented UTF-8 JSON, creating the parent directory.
func saveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// listDocs returns the document ids of files matching dir/*suffix, sorted.
func listDocs(dir, suffix string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+suffix))
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, m := range matches {
		name := filepath.Base(m)
		ids = append(ids, strings.TrimSuffix(name, suffix))
	}
	sort.Strings(ids)
	return ids, nil
}

// SaveSnippets writes a snippets file to its canonical path.
func (w *Workspace) SaveSnippets(f *SnippetsFile) error {
	return saveJSON(w.SnippetsPath(f.DocumentID), f)
}

// LoadSnippets reads one document's snippets file.
func (w *Workspace) LoadSnippets(docID string) (*SnippetsFile, error) {
	var f SnippetsFile
	if err := loadJSON(w.SnippetsPath(docID), &f); err != nil {
		return nil, fmt.Errorf("failed to load snippets for %s: %w", docID, err)
	}
	return &f, nil
}

// ListSnippets returns document ids with extracted snippets, sorted.
func (w *Workspace) ListSnippets() ([]string, error) {
	return listDocs(w.SnippetsDir(), "_snippets.json")
}

// SaveSummary writes snippets/SUMMARY.json.
func (w *Workspace) SaveSummary(s *Summary) error {
	return saveJSON(w.SummaryPath(), s)
}

// LoadSummary reads snippets/SUMMARY.json.
func (w *Workspace) LoadSummary() (*Summary, error) {
	var s Summary
	if err := loadJSON(w.SummaryPath(), &s); err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}
	return &s, nil
}

// SaveDraft writes a draft annotation file.
func (w *Workspace) SaveDraft(f *AnnotationFile) error {
	return saveJSON(w.DraftPath(f.DocumentID), f)
}

// LoadDraft reads one document's draft file.
func (w *Workspace) LoadDraft(docID string) (*AnnotationFile, error) {
	var f AnnotationFile
	if err := loadJSON(w.DraftPath(docID), &f); err != nil {
		return nil, fmt.Errorf("failed to load draft for %s: %w", docID, err)
	}
	return &f, nil
}

// ListDrafts returns document ids with drafts, sorted.
func (w *Workspace) ListDrafts() ([]string, error) {
	return listDocs(w.DraftsDir(), "_draft.json")
}

// SaveGold writes a gold standard file.
func (w *Workspace) SaveGold(f *AnnotationFile) error {
	return saveJSON(w.GoldPath(f.DocumentID), f)
}

// LoadGold reads one document's gold file and validates every span against
// its snippet text. Files annotated before the reviewed flag existed load
// fine; validation only checks offsets and types.
func (w *Workspace) LoadGold(docID string) (*AnnotationFile, error) {
	return LoadGoldIn(w.GoldDir(), docID)
}

// LoadGoldIn reads a gold file from an explicit directory, for callers
// evaluating outside the standard workspace layout.
func LoadGoldIn(dir, docID string) (*AnnotationFile, error) {
	var f AnnotationFile
	if err := loadJSON(filepath.Join(dir, docID+"_gold.json"), &f); err != nil {
		return nil, fmt.Errorf("failed to load gold standard for %s: %w", docID, err)
	}
	for _, s := range f.Snippets {
		if err := entity.Validate(docID, s.SnippetID, entity.SideGold, s.Entities, entity.TextLen(s.Text)); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// ListGold returns document ids with gold standard files, sorted.
func (w *Workspace) ListGold() ([]string, error) {
	return ListGoldIn(w.GoldDir())
}

// ListGoldIn lists gold document ids in an explicit directory, sorted.
func ListGoldIn(dir string) ([]string, error) {
	return listDocs(dir, "_gold.json")
}

// SavePrediction writes a prediction file under the model's directory.
func (w *Workspace) SavePrediction(f *PredictionFile) error {
	return saveJSON(w.PredictionPath(f.Model, f.DocumentID), f)
}

// LoadPrediction reads one document's prediction file for a model and
// validates every span. Prediction files carry no snippet text, so only
// ordering and type constraints apply here; offset bounds are checked
// during evaluation against the gold snippet.
func (w *Workspace) LoadPrediction(model, docID string) (*PredictionFile, error) {
	return LoadPredictionIn(w.PredictionsDir(model), docID)
}

// LoadPredictionIn reads a prediction file from an explicit per-model
// directory.
func LoadPredictionIn(dir, docID string) (*PredictionFile, error) {
	var f PredictionFile
	if err := loadJSON(filepath.Join(dir, docID+"_pred.json"), &f); err != nil {
		return nil, fmt.Errorf("failed to load prediction for %s: %w", docID, err)
	}
	for _, s := range f.Snippets {
		if err := entity.Validate(docID, s.SnippetID, entity.SidePred, s.Entities, -1); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// ListPredictions returns document ids with predictions for a model, sorted.
func (w *Workspace) ListPredictions(model string) ([]string, error) {
	return listDocs(w.PredictionsDir(model), "_pred.json")
}

// PredictionExists reports whether a prediction file is present.
func (w *Workspace) PredictionExists(model, docID string) bool {
	_, err := os.Stat(w.PredictionPath(model, docID))
	return err == nil
}

// GoldExists reports whether a gold file is present.
func (w *Workspace) GoldExists(docID string) bool {
	_, err := os.Stat(w.GoldPath(docID))
	return err == nil
}

// DraftExists reports whether a draft file is present.
func (w *Workspace) DraftExists(docID string) bool {
	_, err := os.Stat(w.DraftPath(docID))
	return err == nil
}

// ListModels returns the model names with at least one prediction file.
func (w *Workspace) ListModels() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(w.Root, "predictions"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read predictions directory: %w", err)
	}

	var models []string
	for _, e := range entries {
		if e.IsDir() {
			models = append(models, e.Name())
		}
	}
	sort.Strings(models)
	return models, nil
}
