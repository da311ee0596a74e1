// Package models defines the shapes served by the nerbench API: workflow
// progress, document detail, report summaries, and review sessions.
package models

import (
	"sync"
	"time"

	"github.com/prairie-archives/nerbench/internal/annotate"
	"github.com/prairie-archives/nerbench/internal/entity"
	"github.com/prairie-archives/nerbench/internal/workspace"
)

// Session statuses.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// ReviewSession is one in-memory review walk over a document's draft,
// driven by decision posts. Mu serializes access to the engine and the
// mutable fields; sessions are not persisted across restarts.
type ReviewSession struct {
	ID         string
	DocumentID string
	Model      string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	GoldPath   string

	Mu     sync.Mutex
	Review *annotate.Review
}

// PendingEntity is the entity a session is waiting on, shown with the same
// bracketed context the CLI review presents.
type PendingEntity struct {
	SnippetID string      `json:"snippet_id"`
	Index     int         `json:"index"`
	Total     int         `json:"total"`
	Context   string      `json:"context"`
	Entity    entity.Span `json:"entity"`
}

// SessionView is the session JSON served over the API. It is a snapshot;
// the live session keeps moving as decisions arrive.
type SessionView struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Model      string         `json:"model,omitempty"`
	Status     string         `json:"status"`
	State      string         `json:"state"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	GoldPath   string         `json:"gold_path,omitempty"`
	Pending    *PendingEntity `json:"pending,omitempty"`
}

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	DocumentID string `json:"document_id"`
}

// DecisionRequest is the body of POST /api/sessions/{id}/decisions. The
// snippet id and index must match the entity the session is waiting on.
type DecisionRequest struct {
	SnippetID string `json:"snippet_id"`
	Index     int    `json:"index"`
	Action    string `json:"action"`
	Type      string `json:"type,omitempty"`
	Start     *int   `json:"start,omitempty"`
	End       *int   `json:"end,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// DocumentProgress is one document's workflow status.
type DocumentProgress struct {
	DocumentID    string   `json:"document_id"`
	Title         string   `json:"title,omitempty"`
	Snippets      int      `json:"snippets"`
	HasDraft      bool     `json:"has_draft"`
	HasGold       bool     `json:"has_gold"`
	DraftEntities int      `json:"draft_entities"`
	GoldEntities  int      `json:"gold_entities"`
	Models        []string `json:"models,omitempty"`
}

// Progress is the dataset-wide workflow status served by /api/progress.
type Progress struct {
	Workspace      string             `json:"workspace"`
	TotalDocuments int                `json:"total_documents"`
	TotalSnippets  int                `json:"total_snippets"`
	WithDraft      int                `json:"with_draft"`
	WithGold       int                `json:"with_gold"`
	GoldEntities   int                `json:"gold_entities"`
	Models         []string           `json:"models"`
	Documents      []DocumentProgress `json:"documents"`
}

// DocumentSummary is one row of GET /api/documents.
type DocumentSummary struct {
	DocumentID  string `json:"document_id"`
	Title       string `json:"title"`
	Year        string `json:"year"`
	Language    string `json:"language"`
	DocType     string `json:"doc_type"`
	NumSnippets int    `json:"num_snippets"`
	HasDraft    bool   `json:"has_draft"`
	HasGold     bool   `json:"has_gold"`
}

// DocumentDetail is GET /api/documents/{id}.
type DocumentDetail struct {
	DocumentID string                     `json:"document_id"`
	Metadata   workspace.DocumentMetadata `json:"metadata"`
	Snippets   []workspace.Snippet        `json:"snippets"`
	Draft      *workspace.AnnotationFile  `json:"draft,omitempty"`
	Gold       *workspace.AnnotationFile  `json:"gold,omitempty"`
}

// ReportSummary is one row of GET /api/reports.
type ReportSummary struct {
	Model       string    `json:"model"`
	EvaluatedAt time.Time `json:"evaluated_at"`
	Documents   int       `json:"documents"`
	ExactF1     *float64  `json:"exact_f1"`
}
