package evalcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/eval/metrics"
	"github.com/prairie-archives/nerbench/internal/eval/results"
	"github.com/prairie-archives/nerbench/internal/eval/spanmatch"
	"github.com/prairie-archives/nerbench/internal/workspace"
)

func executeReport(configPath, workspaceDir, model, format string, showErrors bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if workspaceDir == "" {
		workspaceDir = cfg.Workspace
	}
	ws := workspace.New(workspaceDir)

	if model == "" {
		return listSavedReports(ws.EvaluationDir())
	}

	report, err := results.LoadReport(results.ReportPath(ws.EvaluationDir(), model))
	if err != nil {
		return err
	}

	switch format {
	case "", "text":
		return printTextReport(report, showErrors)
	case "json":
		return printJSONReport(report)
	case "csv":
		return printCSVReport(report)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func listSavedReports(evalDir string) error {
	models, err := results.ListReports(evalDir)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Printf("No saved evaluation reports in %s\n", evalDir)
		fmt.Println("\nRun an evaluation first:")
		fmt.Println("  nerbench eval run --model <name>")
		return nil
	}

	fmt.Printf("%-30s %-22s %-10s\n", "Model", "Evaluated", "Exact F1")
	fmt.Printf("%-30s %-22s %-10s\n", "-----", "---------", "--------")
	for _, m := range models {
		report, err := results.LoadReport(results.ReportPath(evalDir, m))
		if err != nil {
			fmt.Printf("%-30s (unreadable: %v)\n", m, err)
			continue
		}
		fmt.Printf("%-30s %-22s %-10s\n",
			m,
			report.EvaluatedAt.Format("2006-01-02 15:04"),
			metrics.FormatScore(report.Overall.Exact.F1))
	}
	return nil
}

func printTextReport(report *metrics.Report, showErrors bool) error {
	metrics.PrintSummary(os.Stdout, report)

	if showErrors {
		printErrorList(report)
	}
	return nil
}

func printErrorList(report *metrics.Report) {
	if len(report.Errors) == 0 {
		fmt.Println("\nNo errors: every prediction matched exactly.")
		return
	}

	fmt.Printf("\nClassified Errors (%d):\n", len(report.Errors))
	for _, kind := range []spanmatch.Kind{
		spanmatch.FalsePositive,
		spanmatch.FalseNegative,
		spanmatch.BoundaryError,
		spanmatch.TypeError,
	} {
		var entries []spanmatch.Discrepancy
		for _, e := range report.Errors {
			if e.Kind == kind {
				entries = append(entries, e)
			}
		}
		if len(entries) == 0 {
			continue
		}

		fmt.Printf("\n%s (%d):\n", kind, len(entries))
		for _, e := range entries {
			fmt.Printf("  %s/%s", e.DocumentID, e.SnippetID)
			if e.Gold != nil {
				fmt.Printf("  gold %s", e.Gold)
			}
			if e.Pred != nil {
				fmt.Printf("  pred %s", e.Pred)
			}
			fmt.Println()
		}
	}
}

func printJSONReport(report *metrics.Report) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(report)
}

// printCSVReport emits one row per scope and match variant. Undefined
// scores become empty cells so spreadsheets never mistake n/a for zero.
func printCSVReport(report *metrics.Report) error {
	writer := csv.NewWriter(os.Stdout)
	defer writer.Flush()

	header := []string{"scope", "variant", "tp", "fp", "fn", "precision", "recall", "f1"}
	if err := writer.Write(header); err != nil {
		return err
	}

	row := func(scope, variant string, m metrics.Measure) error {
		return writer.Write([]string{
			scope,
			variant,
			fmt.Sprintf("%d", m.TP),
			fmt.Sprintf("%d", m.FP),
			fmt.Sprintf("%d", m.FN),
			csvScore(m.Precision),
			csvScore(m.Recall),
			csvScore(m.F1),
		})
	}

	if err := row("overall", "exact", report.Overall.Exact); err != nil {
		return err
	}
	if err := row("overall", "partial", report.Overall.Partial); err != nil {
		return err
	}
	for _, t := range report.PerType {
		if err := row("type:"+string(t.Type), "exact", t.Exact); err != nil {
			return err
		}
		if err := row("type:"+string(t.Type), "partial", t.Partial); err != nil {
			return err
		}
	}
	for _, d := range report.PerDocument {
		if err := row("document:"+d.DocumentID, "exact", d.Exact); err != nil {
			return err
		}
		if err := row("document:"+d.DocumentID, "partial", d.Partial); err != nil {
			return err
		}
	}

	return nil
}

func csvScore(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.4f", *v)
}
