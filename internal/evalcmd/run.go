package evalcmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/entity"
	"github.com/prairie-archives/nerbench/internal/eval/metrics"
	"github.com/prairie-archives/nerbench/internal/eval/results"
	"github.com/prairie-archives/nerbench/internal/eval/spanmatch"
	"github.com/prairie-archives/nerbench/internal/workspace"
)

func executeRun(configPath, workspaceDir, model, goldDir, predDir, output, format string, concurrency int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if workspaceDir == "" {
		workspaceDir = cfg.Workspace
	}
	ws := workspace.New(workspaceDir)
	if goldDir == "" {
		goldDir = ws.GoldDir()
	}
	if predDir == "" {
		predDir = ws.PredictionsDir(model)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	slog.Info("Starting evaluation run", "model", model, "gold", goldDir, "predictions", predDir)

	inputs, warnings, err := collectInputs(model, goldDir, predDir)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("nothing to evaluate: no gold snippets with predictions under %s", predDir)
	}

	slog.Info("Evaluating snippets", "snippets", len(inputs), "concurrency", concurrency)

	evaluated, err := evaluateAll(inputs, concurrency)
	if err != nil {
		return err
	}

	report := metrics.Aggregate(evaluated, warnings)
	report.Model = model
	report.RunID = uuid.New().String()
	report.EvaluatedAt = time.Now()

	switch format {
	case "", "text":
		metrics.PrintSummary(os.Stdout, report)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	// Save the machine-readable report
	reportPath := output
	if reportPath == "" {
		reportPath = results.ReportPath(ws.EvaluationDir(), model)
	}
	saved, err := results.SaveReportTo(reportPath, report)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	// Save the YAML run artifact
	artifact, err := results.SaveToYAML(ws.EvalsDir(), goldDir, predDir, report)
	if err != nil {
		return fmt.Errorf("failed to save run artifact: %w", err)
	}

	fmt.Printf("\nReport saved to: %s\n", saved)
	fmt.Printf("Run artifact saved to: %s\n", artifact)
	fmt.Printf("\nRender it again with:\n")
	fmt.Printf("  nerbench eval report --model %s\n", model)

	return nil
}

// collectInputs walks the gold files in sorted order and aligns each gold
// snippet with the model's prediction snippet of the same id. A document
// without a prediction file, or a gold snippet without a prediction entry,
// is skipped with a warning rather than counted against the model. The
// resulting input order is deterministic: documents sorted by id, snippets
// in gold file order.
func collectInputs(model, goldDir, predDir string) ([]spanmatch.Input, []metrics.Warning, error) {
	docIDs, err := workspace.ListGoldIn(goldDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list gold standard files: %w", err)
	}
	if len(docIDs) == 0 {
		return nil, nil, fmt.Errorf("no gold standard files found in %s", goldDir)
	}

	var inputs []spanmatch.Input
	var warnings []metrics.Warning

	for _, docID := range docIDs {
		gold, err := workspace.LoadGoldIn(goldDir, docID)
		if err != nil {
			return nil, nil, err
		}

		pred, err := workspace.LoadPredictionIn(predDir, docID)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				slog.Warn("No prediction file for document, skipping", "model", model, "document", docID)
				warnings = append(warnings, metrics.Warning{
					DocumentID: docID,
					Reason:     metrics.WarnMissingPrediction,
				})
				continue
			}
			return nil, nil, err
		}

		for _, s := range gold.Snippets {
			ps := pred.Snippet(s.SnippetID)
			if ps == nil {
				slog.Warn("No prediction for snippet, skipping",
					"model", model, "document", docID, "snippet", s.SnippetID)
				warnings = append(warnings, metrics.Warning{
					DocumentID: docID,
					SnippetID:  s.SnippetID,
					Reason:     metrics.WarnMissingPrediction,
				})
				continue
			}

			// The gold snippet text is in hand here, so predicted offsets
			// get the upper-bound check loading alone could not do.
			if err := entity.Validate(docID, s.SnippetID, entity.SidePred, ps.Entities, entity.TextLen(s.Text)); err != nil {
				return nil, nil, err
			}

			inputs = append(inputs, spanmatch.Input{
				DocumentID: docID,
				SnippetID:  s.SnippetID,
				Gold:       s.Entities,
				Pred:       ps.Entities,
			})
		}
	}

	return inputs, warnings, nil
}

// evaluateAll scores the snippets concurrently. Every result keeps its
// input position, so aggregation sees snippets in the same deterministic
// order no matter how the goroutines interleave.
func evaluateAll(inputs []spanmatch.Input, concurrency int) ([]*spanmatch.Result, error) {
	type indexed struct {
		idx int
		res *spanmatch.Result
		err error
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)
	resultsChan := make(chan indexed, len(inputs))

	for i, in := range inputs {
		wg.Add(1)
		go func(idx int, in spanmatch.Input) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			res, err := spanmatch.Evaluate(in)
			resultsChan <- indexed{idx: idx, res: res, err: err}
		}(i, in)
	}

	// Wait for all goroutines to finish
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	ordered := make([]*spanmatch.Result, len(inputs))
	for r := range resultsChan {
		if r.err != nil {
			return nil, r.err
		}
		ordered[r.idx] = r.res
	}

	return ordered, nil
}
