package tagger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/entity"
	"google.golang.org/api/option"
)

// Gemini asks a Gemini model for entities as strict JSON.
type Gemini struct {
	name        string
	model       string
	temperature float64
}

// NewGemini builds the backend from a config entry.
func NewGemini(mc config.ModelConfig) *Gemini {
	return &Gemini{
		name:        mc.Name,
		model:       mc.Model,
		temperature: mc.Temperature,
	}
}

func (g *Gemini) Name() string { return g.name }

// Tag sends the snippet to Gemini and parses the entity JSON out of the
// response. Offsets from the model are verified against the snippet text
// and re-anchored when they miss.
func (g *Gemini) Tag(ctx context.Context, req Request) ([]entity.Span, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(float32(g.temperature))

	resp, err := model.GenerateContent(ctx, genai.Text(entityPrompt(req.Text)))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("empty content returned from Gemini")
	}

	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response format from Gemini")
	}

	spans, err := parseEntityJSON(g.name, string(txt))
	if err != nil {
		return nil, err
	}
	return anchorSpans(req.Text, spans), nil
}

// parseEntityJSON strips markdown code fences and unmarshals the entity
// array. An unparseable response is an error, never silently empty.
func parseEntityJSON(backend, response string) ([]entity.Span, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var raw []struct {
		Text       string  `json:"text"`
		Start      int     `json:"start"`
		End        int     `json:"end"`
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence,omitempty"`
	}
	if err := json.Unmarshal([]byte(response), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse entity JSON from model output: %w", err)
	}

	var spans []entity.Span
	for _, e := range raw {
		span, ok := draftSpan(backend, e.Text, e.Start, e.End, e.Type, e.Confidence)
		if !ok {
			slog.Debug("Dropping off-taxonomy entity", "label", e.Type, "text", e.Text)
			continue
		}
		spans = append(spans, span)
	}
	return spans, nil
}

// anchorSpans keeps spans whose offsets slice their own text out of the
// snippet, re-anchors the rest at the first case-sensitive occurrence, and
// drops what cannot be found at all. Language models count characters
// unreliably even when the entity text is right.
func anchorSpans(text string, spans []entity.Span) []entity.Span {
	runes := []rune(text)

	var out []entity.Span
	for _, s := range spans {
		if s.Text == "" {
			slog.Warn("Dropping entity with empty text", "start", s.Start, "end", s.End)
			continue
		}
		if s.Start >= 0 && s.Start < s.End && s.End <= len(runes) &&
			string(runes[s.Start:s.End]) == s.Text {
			out = append(out, s)
			continue
		}
		if idx := runeIndex(text, s.Text); idx >= 0 {
			slog.Debug("Re-anchored entity", "text", s.Text, "from", s.Start, "to", idx)
			s.Start = idx
			s.End = idx + utf8.RuneCountInString(s.Text)
			out = append(out, s)
			continue
		}
		slog.Warn("Dropping entity that could not be anchored",
			"text", s.Text, "start", s.Start, "end", s.End)
	}
	return out
}

// runeIndex is strings.Index in code points.
func runeIndex(text, sub string) int {
	byteIdx := strings.Index(text, sub)
	if byteIdx < 0 {
		return -1
	}
	return utf8.RuneCountInString(text[:byteIdx])
}
