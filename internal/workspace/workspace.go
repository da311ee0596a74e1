// Package workspace owns the test-set directory layout and the JSON file
// shapes that flow through it: extracted snippets, AI drafts, reviewed gold
// standard files, and model predictions.
package workspace

import (
	"fmt"
	"path/filepath"

	"github.com/prairie-archives/nerbench/internal/entity"
)

// DefaultRoot is the workspace directory used when none is configured.
const DefaultRoot = "./test_dataset"

// Workspace resolves paths under one test-set root.
type Workspace struct {
	Root string
}

// New returns a workspace rooted at root, or DefaultRoot when empty.
func New(root string) *Workspace {
	if root == "" {
		root = DefaultRoot
	}
	return &Workspace{Root: root}
}

func (w *Workspace) SnippetsDir() string   { return filepath.Join(w.Root, "snippets") }
func (w *Workspace) DraftsDir() string     { return filepath.Join(w.Root, "drafts") }
func (w *Workspace) GoldDir() string       { return filepath.Join(w.Root, "gold_standard") }
func (w *Workspace) EvaluationDir() string { return filepath.Join(w.Root, "evaluation") }
func (w *Workspace) EvalsDir() string      { return filepath.Join(w.Root, "evals") }

// PredictionsDir is the per-model prediction directory.
func (w *Workspace) PredictionsDir(model string) string {
	return filepath.Join(w.Root, "predictions", model)
}

func (w *Workspace) SnippetsPath(docID string) string {
	return filepath.Join(w.SnippetsDir(), docID+"_snippets.json")
}

func (w *Workspace) SummaryPath() string {
	return filepath.Join(w.SnippetsDir(), "SUMMARY.json")
}

func (w *Workspace) DraftPath(docID string) string {
	return filepath.Join(w.DraftsDir(), docID+"_draft.json")
}

func (w *Workspace) GoldPath(docID string) string {
	return filepath.Join(w.GoldDir(), docID+"_gold.json")
}

func (w *Workspace) PredictionPath(model, docID string) string {
	return filepath.Join(w.PredictionsDir(model), docID+"_pred.json")
}

// SnippetID renders the zero-padded identifier used in every artifact.
func SnippetID(n int) string {
	return fmt.Sprintf("%03d", n)
}

// Annotator and status values written into annotation files.
const (
	AnnotatorDraft    = "ai_draft"
	AnnotatorReviewed = "human_reviewed"
	AnnotatorHuman    = "human"

	MethodAIAssisted = "ai_assisted"
	MethodManual     = "manual"

	StatusDraft = "draft"
)

// DocumentMetadata is the document-level header shared by snippets, draft,
// and gold files.
type DocumentMetadata struct {
	Title              string `json:"title"`
	Year               string `json:"year"`
	Language           string `json:"language"`
	Collection         string `json:"collection"`
	DocType            string `json:"doc_type"`
	WordCount          int    `json:"word_count"`
	CharCount          int    `json:"char_count"`
	TotalPages         int    `json:"total_pages"`
	ExtractionStrategy string `json:"extraction_strategy"`
	NumSnippets        int    `json:"num_snippets"`
}

// Snippet is one extracted passage. Offsets refer to the normalized full
// document text and count Unicode code points.
type Snippet struct {
	SnippetID          string  `json:"snippet_id"`
	Text               string  `json:"text"`
	CharStart          int     `json:"char_start"`
	CharEnd            int     `json:"char_end"`
	EntityDensityScore float64 `json:"entity_density_score"`
}

// SnippetsFile is snippets/{doc}_snippets.json.
type SnippetsFile struct {
	DocumentID string           `json:"document_id"`
	Metadata   DocumentMetadata `json:"metadata"`
	Snippets   []Snippet        `json:"snippets"`
}

// AnnotatedSnippet is a snippet carrying entity annotations.
type AnnotatedSnippet struct {
	SnippetID          string        `json:"snippet_id"`
	Text               string        `json:"text"`
	CharStart          int           `json:"char_start"`
	CharEnd            int           `json:"char_end"`
	EntityDensityScore float64       `json:"entity_density_score,omitempty"`
	Entities           []entity.Span `json:"entities"`
}

// AnnotationFile is the shared shape of drafts/{doc}_draft.json and
// gold_standard/{doc}_gold.json; the annotator and status fields tell
// them apart.
type AnnotationFile struct {
	DocumentID       string             `json:"document_id"`
	Metadata         DocumentMetadata   `json:"metadata"`
	AnnotationDate   string             `json:"annotation_date"`
	Annotator        string             `json:"annotator"`
	AnnotationMethod string             `json:"annotation_method,omitempty"`
	Model            string             `json:"model,omitempty"`
	Status           string             `json:"status,omitempty"`
	TotalSnippets    int                `json:"total_snippets"`
	TotalEntities    int                `json:"total_entities"`
	Snippets         []AnnotatedSnippet `json:"snippets"`
}

// CountEntities sums entities across snippets.
func (f *AnnotationFile) CountEntities() int {
	n := 0
	for _, s := range f.Snippets {
		n += len(s.Entities)
	}
	return n
}

// CountByType tallies entities per taxonomy type across snippets.
func (f *AnnotationFile) CountByType() map[entity.Type]int {
	counts := make(map[entity.Type]int)
	for _, s := range f.Snippets {
		for _, e := range s.Entities {
			counts[e.Type]++
		}
	}
	return counts
}

// Snippet returns the snippet with the given id, or nil.
func (f *AnnotationFile) Snippet(snippetID string) *AnnotatedSnippet {
	for i := range f.Snippets {
		if f.Snippets[i].SnippetID == snippetID {
			return &f.Snippets[i]
		}
	}
	return nil
}

// PredictionSnippet is one snippet's model output. It carries no text;
// offsets refer to the gold snippet with the same id.
type PredictionSnippet struct {
	SnippetID string        `json:"snippet_id"`
	Entities  []entity.Span `json:"entities"`
}

// PredictionFile is predictions/{model}/{doc}_pred.json.
type PredictionFile struct {
	DocumentID     string              `json:"document_id"`
	Model          string              `json:"model"`
	PredictionDate string              `json:"prediction_date"`
	Snippets       []PredictionSnippet `json:"snippets"`
}

// Snippet returns the prediction snippet with the given id, or nil.
func (f *PredictionFile) Snippet(snippetID string) *PredictionSnippet {
	for i := range f.Snippets {
		if f.Snippets[i].SnippetID == snippetID {
			return &f.Snippets[i]
		}
	}
	return nil
}

// SummaryRow is one document's line in snippets/SUMMARY.json.
type SummaryRow struct {
	DocumentID  string `json:"doc_id"`
	Title       string `json:"title"`
	Year        string `json:"year"`
	Language    string `json:"language"`
	DocType     string `json:"type"`
	NumSnippets int    `json:"num_snippets"`
	WordCount   int    `json:"word_count"`
}

// Summary is snippets/SUMMARY.json.
type Summary struct {
	TotalDocuments int          `json:"total_documents"`
	TotalSnippets  int          `json:"total_snippets"`
	Documents      []SummaryRow `json:"documents"`
}
