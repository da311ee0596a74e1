package tagger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/entity"
)

// Ollama asks a locally served model for entities as strict JSON through
// the native generate API. No API key; the server is assumed local.
type Ollama struct {
	name        string
	url         string
	model       string
	temperature float64
	client      *http.Client
}

// NewOllama builds the backend. The endpoint comes from the model config,
// then OLLAMA_URL, then the default local server.
func NewOllama(mc config.ModelConfig) *Ollama {
	url := mc.URL
	if url == "" {
		url = os.Getenv("OLLAMA_URL")
	}
	if url == "" {
		url = "http://localhost:11434"
	}
	return &Ollama{
		name:        mc.Name,
		url:         strings.TrimRight(url, "/"),
		model:       mc.Model,
		temperature: mc.Temperature,
		client:      &http.Client{},
	}
}

func (o *Ollama) Name() string { return o.name }

// Tag sends the snippet through /api/generate, non-streaming, and parses
// the entity JSON out of the reply the same way the other LLM backends do.
func (o *Ollama) Tag(ctx context.Context, req Request) ([]entity.Span, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"model":  o.model,
		"prompt": entityPrompt(req.Text),
		"stream": false,
		"options": map[string]interface{}{
			"temperature": o.temperature,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.url+"/api/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	spans, err := parseEntityJSON(o.name, response.Response)
	if err != nil {
		return nil, err
	}
	return anchorSpans(req.Text, spans), nil
}
