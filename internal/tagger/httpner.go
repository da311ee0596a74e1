package tagger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/entity"
)

// nerRequest is one item in the bridge service's batch request.
type nerRequest struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

type nerEntity struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence,omitempty"`
}

type nerResponse struct {
	ID       string      `json:"id"`
	Entities []nerEntity `json:"entities"`
}

// HTTP calls a bridge service wrapping spaCy or GLiNER models.
type HTTP struct {
	name     string
	url      string
	language string
	client   *http.Client
}

// NewHTTP builds the backend. The service URL comes from the model config,
// then NER_SERVICE_URL, then the local default.
func NewHTTP(mc config.ModelConfig) *HTTP {
	url := mc.URL
	if url == "" {
		url = os.Getenv("NER_SERVICE_URL")
	}
	if url == "" {
		url = "http://localhost:8400"
	}
	return &HTTP{
		name:     mc.Name,
		url:      strings.TrimRight(url, "/"),
		language: mc.Language,
		client:   &http.Client{},
	}
}

func (h *HTTP) Name() string { return h.name }

// Tag posts the snippet to <url>/tag and maps the returned entities.
func (h *HTTP) Tag(ctx context.Context, req Request) ([]entity.Span, error) {
	language := req.Language
	if language == "" {
		language = h.language
	}

	requestBody, err := json.Marshal(map[string]any{
		"requests": []nerRequest{{
			ID:       req.DocumentID + "/" + req.SnippetID,
			Text:     req.Text,
			Language: language,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", h.url+"/tag", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Responses []nerResponse `json:"responses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Responses) == 0 {
		return nil, fmt.Errorf("no responses returned from NER service")
	}

	var spans []entity.Span
	for _, e := range response.Responses[0].Entities {
		span, ok := draftSpan(h.name, e.Text, e.Start, e.End, e.Label, e.Confidence)
		if !ok {
			slog.Debug("Dropping off-taxonomy entity", "label", e.Label, "text", e.Text)
			continue
		}
		spans = append(spans, span)
	}
	return spans, nil
}
