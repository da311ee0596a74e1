package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prairie-archives/nerbench/internal/entity"
	"github.com/prairie-archives/nerbench/internal/models"
	"github.com/prairie-archives/nerbench/internal/workspace"
)

func newTestHandler(t *testing.T) (*Handler, *workspace.Workspace) {
	t.Helper()
	ws := workspace.New(t.TempDir())
	return New(ws), ws
}

func saveReviewDraft(t *testing.T, ws *workspace.Workspace) {
	t.Helper()
	draft := &workspace.AnnotationFile{
		DocumentID:     "ptr_19260121",
		Metadata:       workspace.DocumentMetadata{Title: "The Prince Albert Times", Year: "1926", Language: "en"},
		AnnotationDate: "2026-08-01",
		Annotator:      workspace.AnnotatorDraft,
		Model:          "gemini-2.0-flash",
		Status:         workspace.StatusDraft,
		TotalSnippets:  2,
		TotalEntities:  3,
		Snippets: []workspace.AnnotatedSnippet{
			{
				SnippetID: "001",
				Text:      "Fort Carlton stands near Duck Lake.",
				Entities: []entity.Span{
					{Text: "Fort Carlton", Start: 0, End: 12, Type: entity.LOC, Confidence: 0.8, Source: "gemini-2.0-flash"},
					{Text: "Duck Lake", Start: 25, End: 34, Type: entity.PER, Confidence: 0.6, Source: "gemini-2.0-flash"},
				},
			},
			{
				SnippetID: "002",
				Text:      "Treaty Six was signed at Fort Carlton in 1876.",
				Entities: []entity.Span{
					{Text: "Fort Carlton", Start: 25, End: 37, Type: entity.LOC, Confidence: 0.9, Source: "gemini-2.0-flash"},
				},
			},
		},
	}
	if err := ws.SaveDraft(draft); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func getPath(handler http.HandlerFunc, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) *models.SessionView {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var view models.SessionView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("Failed to decode session view: %v", err)
	}
	return &view
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Error response is not JSON: %s", rec.Body.String())
	}
	return body["error"]
}

func TestSessionLifecycle(t *testing.T) {
	h, ws := newTestHandler(t)
	saveReviewDraft(t, ws)

	rec := postJSON(t, h.HandleSessions, "/api/sessions", models.CreateSessionRequest{DocumentID: "ptr_19260121"})
	view := decodeView(t, rec)

	if view.ID == "" || view.Status != models.SessionActive || view.State != "deciding" {
		t.Fatalf("Fresh session = %+v", view)
	}
	if view.Model != "gemini-2.0-flash" {
		t.Errorf("Model = %s", view.Model)
	}
	if view.Pending == nil {
		t.Fatal("Fresh session has no pending entity")
	}
	p := view.Pending
	if p.SnippetID != "001" || p.Index != 0 || p.Total != 2 {
		t.Errorf("Pending = %+v", p)
	}
	if p.Entity.Text != "Fort Carlton" {
		t.Errorf("Pending entity = %+v", p.Entity)
	}
	if !strings.Contains(p.Context, "[[[Fort Carlton]]]") {
		t.Errorf("Context = %q", p.Context)
	}

	decide := func(snippetID string, index int, req models.DecisionRequest) *models.SessionView {
		t.Helper()
		req.SnippetID = snippetID
		req.Index = index
		rec := postJSON(t, h.HandleSessionDetail, "/api/sessions/"+view.ID+"/decisions", req)
		return decodeView(t, rec)
	}

	v := decide("001", 0, models.DecisionRequest{Action: "accept"})
	if v.Pending == nil || v.Pending.Index != 1 || v.Pending.Entity.Text != "Duck Lake" {
		t.Fatalf("After accept, pending = %+v", v.Pending)
	}

	// Duck Lake came back typed PER; re-type it.
	v = decide("001", 1, models.DecisionRequest{Action: "modify", Type: "LOC", Notes: "place, not a person"})
	if v.Pending == nil || v.Pending.SnippetID != "002" || v.Pending.Index != 0 {
		t.Fatalf("After snippet 001, pending = %+v", v.Pending)
	}
	if v.Status != models.SessionActive {
		t.Errorf("Status mid-review = %s", v.Status)
	}

	// The last decision finishes the walk and writes the gold file.
	v = decide("002", 0, models.DecisionRequest{Action: "accept"})
	if v.Status != models.SessionCompleted || v.State != "done" {
		t.Fatalf("Final view = %+v", v)
	}
	if v.Pending != nil {
		t.Errorf("Completed session still pending: %+v", v.Pending)
	}
	if v.GoldPath == "" {
		t.Error("GoldPath not set on completion")
	}

	gold, err := ws.LoadGold("ptr_19260121")
	if err != nil {
		t.Fatalf("Gold file not written: %v", err)
	}
	if gold.Annotator != workspace.AnnotatorReviewed || gold.AnnotationMethod != workspace.MethodAIAssisted {
		t.Errorf("Gold provenance = %s/%s", gold.Annotator, gold.AnnotationMethod)
	}
	if gold.TotalEntities != 3 {
		t.Errorf("Gold entities = %d", gold.TotalEntities)
	}
	if gold.Snippets[0].Entities[1].Type != entity.LOC {
		t.Errorf("Modified entity = %+v", gold.Snippets[0].Entities[1])
	}

	// Decisions against a completed session are rejected.
	rec = postJSON(t, h.HandleSessionDetail, "/api/sessions/"+view.ID+"/decisions",
		models.DecisionRequest{SnippetID: "002", Index: 0, Action: "accept"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Decision after completion = %d", rec.Code)
	}

	rec = getPath(h.HandleSessionDetail, "/api/sessions/"+view.ID)
	got := decodeView(t, rec)
	if got.Status != models.SessionCompleted {
		t.Errorf("GET after completion = %+v", got)
	}

	rec = getPath(h.HandleSessions, "/api/sessions")
	if rec.Code != http.StatusOK {
		t.Fatalf("List sessions = %d", rec.Code)
	}
	var list []models.SessionView
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("Failed to decode session list: %v", err)
	}
	if len(list) != 1 || list[0].ID != view.ID {
		t.Errorf("Session list = %+v", list)
	}
}

func TestSessionDecisionOutOfOrder(t *testing.T) {
	h, ws := newTestHandler(t)
	saveReviewDraft(t, ws)

	view := decodeView(t, postJSON(t, h.HandleSessions, "/api/sessions",
		models.CreateSessionRequest{DocumentID: "ptr_19260121"}))

	rec := postJSON(t, h.HandleSessionDetail, "/api/sessions/"+view.ID+"/decisions",
		models.DecisionRequest{SnippetID: "001", Index: 1, Action: "accept"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Wrong index = %d", rec.Code)
	}
	if msg := errorMessage(t, rec); !strings.Contains(msg, "Decision out of order") {
		t.Errorf("Error = %q", msg)
	}

	rec = postJSON(t, h.HandleSessionDetail, "/api/sessions/"+view.ID+"/decisions",
		models.DecisionRequest{SnippetID: "002", Index: 0, Action: "accept"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Wrong snippet = %d", rec.Code)
	}

	// The session is untouched; the right decision still lands.
	rec = postJSON(t, h.HandleSessionDetail, "/api/sessions/"+view.ID+"/decisions",
		models.DecisionRequest{SnippetID: "001", Index: 0, Action: "accept"})
	v := decodeView(t, rec)
	if v.Pending == nil || v.Pending.Index != 1 {
		t.Errorf("After recovery, pending = %+v", v.Pending)
	}
}

func TestSessionUnknownAction(t *testing.T) {
	h, ws := newTestHandler(t)
	saveReviewDraft(t, ws)

	view := decodeView(t, postJSON(t, h.HandleSessions, "/api/sessions",
		models.CreateSessionRequest{DocumentID: "ptr_19260121"}))

	rec := postJSON(t, h.HandleSessionDetail, "/api/sessions/"+view.ID+"/decisions",
		models.DecisionRequest{SnippetID: "001", Index: 0, Action: "approve"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Unknown action = %d", rec.Code)
	}
	if msg := errorMessage(t, rec); !strings.Contains(msg, "approve") {
		t.Errorf("Error should name the action, got %q", msg)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	h, ws := newTestHandler(t)
	saveReviewDraft(t, ws)

	rec := postJSON(t, h.HandleSessions, "/api/sessions", models.CreateSessionRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Missing document_id = %d", rec.Code)
	}

	rec = postJSON(t, h.HandleSessions, "/api/sessions", models.CreateSessionRequest{DocumentID: "nope"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Unknown document = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader("{not json"))
	rec2 := httptest.NewRecorder()
	h.HandleSessions(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("Malformed JSON = %d", rec2.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/sessions", nil)
	rec2 = httptest.NewRecorder()
	h.HandleSessions(rec2, req)
	if rec2.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE = %d", rec2.Code)
	}
}

func TestSessionNotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := getPath(h.HandleSessionDetail, "/api/sessions/ghost")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Unknown session GET = %d", rec.Code)
	}

	rec = postJSON(t, h.HandleSessionDetail, "/api/sessions/ghost/decisions",
		models.DecisionRequest{SnippetID: "001", Action: "accept"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Unknown session decision = %d", rec.Code)
	}
}

func TestCreateSessionEmptyDraft(t *testing.T) {
	h, ws := newTestHandler(t)

	// No draft entities at all: the review has nothing to decide, so the
	// session completes on creation.
	draft := &workspace.AnnotationFile{
		DocumentID: "brm_18890305",
		Annotator:  workspace.AnnotatorDraft,
		Model:      "gemini-2.0-flash",
		Status:     workspace.StatusDraft,
		Snippets: []workspace.AnnotatedSnippet{
			{SnippetID: "001", Text: "Nothing here."},
		},
	}
	if err := ws.SaveDraft(draft); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	view := decodeView(t, postJSON(t, h.HandleSessions, "/api/sessions",
		models.CreateSessionRequest{DocumentID: "brm_18890305"}))
	if view.Status != models.SessionCompleted || view.State != "done" {
		t.Fatalf("Empty-draft session = %+v", view)
	}
	if _, err := ws.LoadGold("brm_18890305"); err != nil {
		t.Errorf("Gold file not written: %v", err)
	}
}

func TestCreateSessionSkipsLeadingEmptySnippet(t *testing.T) {
	h, ws := newTestHandler(t)

	draft := &workspace.AnnotationFile{
		DocumentID: "bdm_19120405",
		Annotator:  workspace.AnnotatorDraft,
		Model:      "gemini-2.0-flash",
		Status:     workspace.StatusDraft,
		Snippets: []workspace.AnnotatedSnippet{
			{SnippetID: "001", Text: "Nothing in this one."},
			{SnippetID: "002", Text: "Regina in 1912.", Entities: []entity.Span{
				{Text: "Regina", Start: 0, End: 6, Type: entity.LOC, Confidence: 0.7},
			}},
		},
	}
	if err := ws.SaveDraft(draft); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	view := decodeView(t, postJSON(t, h.HandleSessions, "/api/sessions",
		models.CreateSessionRequest{DocumentID: "bdm_19120405"}))
	if view.Pending == nil || view.Pending.SnippetID != "002" {
		t.Fatalf("Pending = %+v", view.Pending)
	}
}
