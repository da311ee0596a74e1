package annotate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/prairie-archives/nerbench/internal/entity"
	"github.com/prairie-archives/nerbench/internal/tagger"
	"github.com/prairie-archives/nerbench/internal/workspace"
)

// GenerateDraft tags every snippet of a document with the given backend,
// writes the draft annotation file, and returns it.
func GenerateDraft(ctx context.Context, ws *workspace.Workspace, tg tagger.Tagger, docID string) (*workspace.AnnotationFile, error) {
	snips, err := ws.LoadSnippets(docID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no snippets found for %s, run 'nerbench dataset extract' first", docID)
		}
		return nil, err
	}

	draft := &workspace.AnnotationFile{
		DocumentID:     docID,
		Metadata:       snips.Metadata,
		AnnotationDate: today(),
		Annotator:      workspace.AnnotatorDraft,
		Model:          tg.Name(),
		Status:         workspace.StatusDraft,
	}

	for _, s := range snips.Snippets {
		slog.Info("tagging snippet", "document", docID, "snippet", s.SnippetID, "chars", entity.TextLen(s.Text))

		spans, err := tg.Tag(ctx, tagger.Request{
			DocumentID: docID,
			SnippetID:  s.SnippetID,
			Text:       s.Text,
			Language:   snips.Metadata.Language,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to tag snippet %s/%s: %w", docID, s.SnippetID, err)
		}
		sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

		draft.Snippets = append(draft.Snippets, workspace.AnnotatedSnippet{
			SnippetID:          s.SnippetID,
			Text:               s.Text,
			CharStart:          s.CharStart,
			CharEnd:            s.CharEnd,
			EntityDensityScore: s.EntityDensityScore,
			Entities:           spans,
		})
	}

	draft.TotalSnippets = len(draft.Snippets)
	draft.TotalEntities = draft.CountEntities()

	if err := ws.SaveDraft(draft); err != nil {
		return nil, err
	}

	counts := draft.CountByType()
	slog.Info("draft saved",
		"document", docID,
		"model", tg.Name(),
		"snippets", draft.TotalSnippets,
		"entities", draft.TotalEntities,
		"loc", counts[entity.LOC],
		"per", counts[entity.PER],
		"org", counts[entity.ORG],
		"misc", counts[entity.MISC],
	)
	return draft, nil
}
