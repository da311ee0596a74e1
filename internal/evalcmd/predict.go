package evalcmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/entity"
	"github.com/prairie-archives/nerbench/internal/tagger"
	"github.com/prairie-archives/nerbench/internal/workspace"
	"golang.org/x/sync/errgroup"
)

func executePredict(ctx context.Context, configPath, workspaceDir, model, document string, minConfidence float64, concurrency int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if workspaceDir == "" {
		workspaceDir = cfg.Workspace
	}
	ws := workspace.New(workspaceDir)

	mc, err := cfg.Model(model)
	if err != nil {
		return err
	}
	tg, err := tagger.ForModel(mc)
	if err != nil {
		return err
	}

	var docIDs []string
	if document != "" {
		docIDs = []string{document}
	} else {
		docIDs, err = ws.ListGold()
		if err != nil {
			return fmt.Errorf("failed to list gold standard files: %w", err)
		}
		if len(docIDs) == 0 {
			return fmt.Errorf("no gold standard files in %s, annotate documents first", ws.GoldDir())
		}
	}

	if concurrency < 1 {
		concurrency = 1
	}

	slog.Info("Starting prediction run",
		"model", model,
		"documents", len(docIDs),
		"concurrency", concurrency,
		"min_confidence", minConfidence)

	var totalSnippets, totalEntities atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, docID := range docIDs {
		g.Go(func() error {
			snippets, entities, err := predictDocument(gctx, ws, tg, docID, minConfidence)
			if err != nil {
				return fmt.Errorf("prediction failed for %s: %w", docID, err)
			}
			totalSnippets.Add(int64(snippets))
			totalEntities.Add(int64(entities))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("Prediction run finished",
		"model", model,
		"documents", len(docIDs),
		"snippets", totalSnippets.Load(),
		"entities", totalEntities.Load())

	fmt.Printf("\nPredictions saved to: %s\n", ws.PredictionsDir(model))
	fmt.Printf("\nEvaluate them with:\n")
	fmt.Printf("  nerbench eval run --model %s\n", model)

	return nil
}

// predictDocument tags every snippet of one gold file and writes the
// prediction file. Entities below the confidence threshold are dropped
// before anything is stored, so evaluation never sees them.
func predictDocument(ctx context.Context, ws *workspace.Workspace, tg tagger.Tagger, docID string, minConfidence float64) (snippets, entities int, err error) {
	gold, err := ws.LoadGold(docID)
	if err != nil {
		return 0, 0, err
	}

	pf := &workspace.PredictionFile{
		DocumentID:     docID,
		Model:          tg.Name(),
		PredictionDate: time.Now().Format("2006-01-02"),
	}

	for _, s := range gold.Snippets {
		spans, err := tg.Tag(ctx, tagger.Request{
			DocumentID: docID,
			SnippetID:  s.SnippetID,
			Text:       s.Text,
			Language:   gold.Metadata.Language,
		})
		if err != nil {
			return 0, 0, fmt.Errorf("failed to tag snippet %s: %w", s.SnippetID, err)
		}

		if minConfidence > 0 {
			spans = filterByConfidence(spans, minConfidence)
		}

		slog.Debug("Tagged snippet", "document", docID, "snippet", s.SnippetID, "entities", len(spans))

		pf.Snippets = append(pf.Snippets, workspace.PredictionSnippet{
			SnippetID: s.SnippetID,
			Entities:  spans,
		})
		entities += len(spans)
	}

	if err := ws.SavePrediction(pf); err != nil {
		return 0, 0, err
	}

	slog.Info("Saved predictions", "document", docID, "snippets", len(pf.Snippets), "entities", entities)
	return len(pf.Snippets), entities, nil
}

func filterByConfidence(spans []entity.Span, min float64) []entity.Span {
	var kept []entity.Span
	for _, s := range spans {
		if s.Confidence >= min {
			kept = append(kept, s)
		}
	}
	return kept
}
