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

// OpenAI calls a chat-completions endpoint for entities as strict JSON.
// Besides api.openai.com this covers every OpenAI-compatible server
// (vLLM, Ollama) hosting UniversalNER-style instruction models.
type OpenAI struct {
	name        string
	url         string
	model       string
	temperature float64
	client      *http.Client
}

// NewOpenAI builds the backend. The endpoint comes from the model config,
// then OPENAI_URL, then the hosted API default.
func NewOpenAI(mc config.ModelConfig) *OpenAI {
	url := mc.URL
	if url == "" {
		url = os.Getenv("OPENAI_URL")
	}
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	return &OpenAI{
		name:        mc.Name,
		url:         strings.TrimRight(url, "/"),
		model:       mc.Model,
		temperature: mc.Temperature,
		client:      &http.Client{},
	}
}

func (o *OpenAI) Name() string { return o.name }

// Tag sends the snippet through the chat-completions API and parses the
// entity JSON out of the reply, with the same fence trimming and offset
// anchoring as the Gemini backend.
func (o *OpenAI) Tag(ctx context.Context, req Request) ([]entity.Span, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")

	requestBody, err := json.Marshal(map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": entityPrompt(req.Text),
			},
		},
		"temperature": o.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.url+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

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
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from chat completions endpoint")
	}

	spans, err := parseEntityJSON(o.name, response.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return anchorSpans(req.Text, spans), nil
}
