// Package tagger runs named entity recognition backends over snippet text.
// Backends return raw entities in their own label vocabularies; this package
// folds everything into the annotation taxonomy before it reaches a draft or
// prediction file.
package tagger

import (
	"context"
	"fmt"

	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/entity"
)

// Request is one snippet to tag.
type Request struct {
	DocumentID string
	SnippetID  string
	Text       string
	Language   string
}

// Tagger is one NER backend.
type Tagger interface {
	Name() string
	Tag(ctx context.Context, req Request) ([]entity.Span, error)
}

// ForModel builds the backend a config entry declares.
func ForModel(mc config.ModelConfig) (Tagger, error) {
	switch mc.Kind {
	case config.KindHTTP:
		return NewHTTP(mc), nil
	case config.KindGemini:
		return NewGemini(mc), nil
	case config.KindOpenAI:
		return NewOpenAI(mc), nil
	case config.KindOllama:
		return NewOllama(mc), nil
	default:
		return nil, fmt.Errorf("unknown model kind %q for model %s", mc.Kind, mc.Name)
	}
}
