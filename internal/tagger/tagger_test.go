package tagger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/entity"
)

func TestMapLabel(t *testing.T) {
	tests := []struct {
		raw      string
		expected entity.Type
		ok       bool
	}{
		{"GPE", entity.LOC, true},
		{"LOC", entity.LOC, true},
		{"FAC", entity.LOC, true},
		{"PERSON", entity.PER, true},
		{"PER", entity.PER, true},
		{"ORG", entity.ORG, true},
		{"NORP", entity.MISC, true},
		{"EVENT", entity.MISC, true},
		{"LAW", entity.MISC, true},
		{"MISC", entity.MISC, true},
		{"person", entity.PER, true}, // case folded
		{" org ", entity.ORG, true},  // whitespace trimmed
		{"DATE", "", false},
		{"CARDINAL", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := MapLabel(tt.raw)
			if ok != tt.ok {
				t.Fatalf("MapLabel(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && got != tt.expected {
				t.Errorf("MapLabel(%q) = %s, want %s", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestDraftSpan(t *testing.T) {
	span, ok := draftSpan("spacy_en_core_web_sm", "Fort Carlton", 41, 53, "GPE", 0)
	if !ok {
		t.Fatal("Expected span for GPE label")
	}
	if span.Type != entity.LOC {
		t.Errorf("Expected LOC, got %s", span.Type)
	}
	if span.Confidence != DraftConfidence {
		t.Errorf("Expected default confidence %v, got %v", DraftConfidence, span.Confidence)
	}
	if span.OriginalType != "GPE" {
		t.Errorf("Expected original type GPE, got %s", span.OriginalType)
	}
	if span.Source != "spacy_en_core_web_sm" {
		t.Errorf("Expected source name, got %s", span.Source)
	}
	if span.Notes != "Auto-detected by spacy_en_core_web_sm as GPE" {
		t.Errorf("Unexpected notes: %s", span.Notes)
	}

	// Backend-reported confidence wins.
	span, _ = draftSpan("m", "x", 0, 1, "ORG", 0.93)
	if span.Confidence != 0.93 {
		t.Errorf("Expected confidence 0.93, got %v", span.Confidence)
	}

	if _, ok := draftSpan("m", "x", 0, 1, "DATE", 0); ok {
		t.Error("Expected DATE label to be dropped")
	}
}

func TestForModel(t *testing.T) {
	if _, err := ForModel(config.ModelConfig{Name: "x", Kind: "http"}); err != nil {
		t.Errorf("http kind should build: %v", err)
	}
	if _, err := ForModel(config.ModelConfig{Name: "x", Kind: "gemini"}); err != nil {
		t.Errorf("gemini kind should build: %v", err)
	}
	if _, err := ForModel(config.ModelConfig{Name: "x", Kind: "quantum"}); err == nil {
		t.Error("Expected error for unknown kind")
	}
}

func TestHTTPTag(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tag" {
			t.Errorf("Expected POST /tag, got %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("Request body is not JSON: %v", err)
		}
		io.WriteString(w, `{"responses":[{"id":"ptr_19260121/001","entities":[
			{"text":"Fort Carlton","start":0,"end":12,"label":"GPE","confidence":0.97},
			{"text":"1926","start":20,"end":24,"label":"DATE"},
			{"text":"Mistawasis","start":30,"end":40,"label":"PERSON"}
		]}]}`)
	}))
	defer srv.Close()

	tg := NewHTTP(config.ModelConfig{Name: "spacy_en_core_web_sm", Kind: "http", URL: srv.URL, Language: "en"})

	spans, err := tg.Tag(context.Background(), Request{
		DocumentID: "ptr_19260121",
		SnippetID:  "001",
		Text:       "Fort Carlton in 1926 with Mistawasis.",
	})
	if err != nil {
		t.Fatalf("Tag failed: %v", err)
	}

	// DATE is off-taxonomy and dropped.
	if len(spans) != 2 {
		t.Fatalf("Expected 2 spans, got %d: %+v", len(spans), spans)
	}
	if spans[0].Type != entity.LOC || spans[0].Confidence != 0.97 {
		t.Errorf("First span = %+v", spans[0])
	}
	if spans[1].Type != entity.PER || spans[1].Confidence != DraftConfidence {
		t.Errorf("Second span = %+v", spans[1])
	}

	// Request carried the batch shape with id and language.
	reqs, ok := gotBody["requests"].([]any)
	if !ok || len(reqs) != 1 {
		t.Fatalf("Expected one request in batch, got %v", gotBody)
	}
	first := reqs[0].(map[string]any)
	if first["id"] != "ptr_19260121/001" {
		t.Errorf("Expected id ptr_19260121/001, got %v", first["id"])
	}
	if first["language"] != "en" {
		t.Errorf("Expected language en, got %v", first["language"])
	}
}

func TestHTTPTagErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tg := NewHTTP(config.ModelConfig{Name: "m", URL: srv.URL})
	_, err := tg.Tag(context.Background(), Request{Text: "x"})
	if err == nil {
		t.Fatal("Expected error for 503, got nil")
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "model not loaded") {
		t.Errorf("Error should carry status and body excerpt: %v", err)
	}
}

func TestParseEntityJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     int
		wantErr  bool
	}{
		{
			name:     "bare JSON array",
			response: `[{"text":"Regina","start":0,"end":6,"type":"LOC"}]`,
			want:     1,
		},
		{
			name: "json fence",
			response: "```json\n" +
				`[{"text":"Regina","start":0,"end":6,"type":"LOC"},{"text":"Cree","start":10,"end":14,"type":"MISC"}]` +
				"\n```",
			want: 2,
		},
		{
			name:     "plain fence",
			response: "```\n[]\n```",
			want:     0,
		},
		{
			name:     "off-taxonomy entities dropped",
			response: `[{"text":"1926","start":0,"end":4,"type":"DATE"}]`,
			want:     0,
		},
		{
			name:     "prose is an error",
			response: "Here are the entities I found: Regina (LOC)",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans, err := parseEntityJSON("gemini-flash", tt.response)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseEntityJSON failed: %v", err)
			}
			if len(spans) != tt.want {
				t.Errorf("Expected %d spans, got %d", tt.want, len(spans))
			}
		})
	}
}

func TestAnchorSpans(t *testing.T) {
	text := "Fort Carlton stood on the rivière near Fort Carlton House."

	spans := []entity.Span{
		{Text: "Fort Carlton", Start: 0, End: 12, Type: entity.LOC},   // exact
		{Text: "rivière", Start: 20, End: 27, Type: entity.LOC},       // wrong offsets
		{Text: "Batoche", Start: 0, End: 7, Type: entity.LOC},         // not in text
		{Text: "", Start: 3, End: 3, Type: entity.LOC},                // empty
		{Text: "Carlton House", Start: 999, End: 1200, Type: entity.LOC}, // out of range
	}

	out := anchorSpans(text, spans)
	if len(out) != 3 {
		t.Fatalf("Expected 3 anchored spans, got %d: %+v", len(out), out)
	}

	if out[0].Start != 0 || out[0].End != 12 {
		t.Errorf("Exact span should keep offsets, got [%d, %d)", out[0].Start, out[0].End)
	}

	// rivière re-anchored to its real position, counted in code points.
	runes := []rune(text)
	if got := string(runes[out[1].Start:out[1].End]); got != "rivière" {
		t.Errorf("Re-anchored span slices %q", got)
	}
	if got := string(runes[out[2].Start:out[2].End]); got != "Carlton House" {
		t.Errorf("Re-anchored span slices %q", got)
	}
}

func TestNewHTTPDefaultURL(t *testing.T) {
	t.Setenv("NER_SERVICE_URL", "http://ner.internal:9000/")
	tg := NewHTTP(config.ModelConfig{Name: "m"})
	if tg.url != "http://ner.internal:9000" {
		t.Errorf("Expected env URL without trailing slash, got %s", tg.url)
	}

	t.Setenv("NER_SERVICE_URL", "")
	tg = NewHTTP(config.ModelConfig{Name: "m"})
	if tg.url != "http://localhost:8400" {
		t.Errorf("Expected default URL, got %s", tg.url)
	}
}

func TestOpenAITag(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("Request body is not JSON: %v", err)
		}
		io.WriteString(w, `{"choices":[{"message":{"content":"`+
			"```json\\n"+
			`[{\"text\":\"Prince Albert\",\"start\":0,\"end\":13,\"type\":\"LOC\"},`+
			`{\"text\":\"Hudson's Bay Company\",\"start\":99,\"end\":119,\"type\":\"ORG\"}]`+
			"\\n```"+
			`"}}]}`)
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "sk-test")
	tg := NewOpenAI(config.ModelConfig{Name: "gpt", Kind: "openai", URL: srv.URL, Model: "gpt-4o-mini", Temperature: 0.1})

	text := "Prince Albert granted the charter of the Hudson's Bay Company."
	spans, err := tg.Tag(context.Background(), Request{Text: text})
	if err != nil {
		t.Fatalf("Tag failed: %v", err)
	}

	if gotPath != "/chat/completions" {
		t.Errorf("Expected POST /chat/completions, got %s", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Expected bearer auth from env, got %q", gotAuth)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Errorf("Expected model gpt-4o-mini in body, got %v", gotBody["model"])
	}

	if len(spans) != 2 {
		t.Fatalf("Expected 2 spans, got %d: %+v", len(spans), spans)
	}
	if spans[0].Type != entity.LOC || spans[0].Start != 0 || spans[0].End != 13 {
		t.Errorf("First span = %+v", spans[0])
	}
	// The second span's offsets are wrong in the model output; it must be
	// re-anchored at the real occurrence.
	if spans[1].Type != entity.ORG || spans[1].Start != 41 {
		t.Errorf("Second span should re-anchor to offset 41, got %+v", spans[1])
	}
}

func TestOpenAITagNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	tg := NewOpenAI(config.ModelConfig{Name: "gpt", URL: srv.URL})
	if _, err := tg.Tag(context.Background(), Request{Text: "x"}); err == nil {
		t.Fatal("Expected error for empty choices, got nil")
	}
}

func TestOllamaTag(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("Request body is not JSON: %v", err)
		}
		io.WriteString(w, `{"response":"[{\"text\":\"Batoche\",\"start\":8,\"end\":15,\"type\":\"LOC\"}]"}`)
	}))
	defer srv.Close()

	tg := NewOllama(config.ModelConfig{Name: "llama31-local", Kind: "ollama", URL: srv.URL, Model: "llama3.1", Temperature: 0.1})

	spans, err := tg.Tag(context.Background(), Request{Text: "News of Batoche."})
	if err != nil {
		t.Fatalf("Tag failed: %v", err)
	}

	if gotPath != "/api/generate" {
		t.Errorf("Expected POST /api/generate, got %s", gotPath)
	}
	if gotBody["model"] != "llama3.1" {
		t.Errorf("Expected model llama3.1 in body, got %v", gotBody["model"])
	}
	if gotBody["stream"] != false {
		t.Errorf("Expected stream:false, got %v", gotBody["stream"])
	}

	if len(spans) != 1 || spans[0].Text != "Batoche" || spans[0].Start != 8 {
		t.Fatalf("Spans = %+v", spans)
	}
	if spans[0].Source != "llama31-local" {
		t.Errorf("Source = %s", spans[0].Source)
	}
}

func TestNewOllamaDefaultURL(t *testing.T) {
	t.Setenv("OLLAMA_URL", "")
	tg := NewOllama(config.ModelConfig{Name: "m"})
	if tg.url != "http://localhost:11434" {
		t.Errorf("Expected default URL, got %s", tg.url)
	}
}
