package evalcmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPredictCmd creates the predict command for running a model over the gold snippets
func NewPredictCmd() *cobra.Command {
	var configPath string
	var workspaceDir string
	var model string
	var document string
	var minConfidence float64
	var concurrency int

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run a registered model over the gold snippets",
		Long: `Run a configured NER model over every gold-standard snippet and store its
predictions under predictions/{model}/ for evaluation.

Models are declared in nerbench.yaml. HTTP models post snippets to a bridge
service wrapping spaCy or GLiNER; gemini, openai, and ollama models prompt
a language model for strict JSON entities.`,
		Example: `  # Tag every gold document with the spaCy bridge
  nerbench eval predict --model spacy_en_core_web_sm

  # One document, dropping low-confidence entities
  nerbench eval predict --model gemini-flash --document ptr_19260121 --min-confidence 0.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if model == "" {
				return fmt.Errorf("--model is required")
			}
			return executePredict(cmd.Context(), configPath, workspaceDir, model, document, minConfidence, concurrency)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to nerbench.yaml")
	cmd.Flags().StringVar(&workspaceDir, "workspace", "", "Test dataset directory (overrides config)")
	cmd.Flags().StringVar(&model, "model", "", "Model name from the config (required)")
	cmd.Flags().StringVar(&document, "document", "", "Predict a single document id")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "Drop predicted entities below this confidence")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "Number of documents to tag concurrently")

	_ = cmd.MarkFlagRequired("model")
	return cmd
}

// NewRunCmd creates the run command for evaluating predictions against the gold standard
func NewRunCmd() *cobra.Command {
	var configPath string
	var workspaceDir string
	var model string
	var goldDir string
	var predDir string
	var output string
	var format string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate model predictions against the gold standard",
		Long: `Score a model's predictions against the gold-standard annotations.

For every gold snippet the evaluator pairs predicted spans with gold spans
one-to-one (greedy, first-fit in input order) under two rules: exact match
(same offsets and type) and partial match (overlapping offsets, same type).
The report carries precision/recall/F1 overall, per entity type, and per
document, plus a categorized error list (false positives, false negatives,
boundary errors, type errors).`,
		Example: `  # Evaluate a model's stored predictions
  nerbench eval run --model spacy_en_core_web_sm

  # Custom directories, print the report as JSON
  nerbench eval run --model gliner_multi --gold-dir ./gold --pred-dir ./preds --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if model == "" {
				return fmt.Errorf("--model is required")
			}
			return executeRun(configPath, workspaceDir, model, goldDir, predDir, output, format, concurrency)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to nerbench.yaml")
	cmd.Flags().StringVar(&workspaceDir, "workspace", "", "Test dataset directory (overrides config)")
	cmd.Flags().StringVar(&model, "model", "", "Model whose predictions to evaluate (required)")
	cmd.Flags().StringVar(&goldDir, "gold-dir", "", "Gold standard directory (default workspace/gold_standard)")
	cmd.Flags().StringVar(&predDir, "pred-dir", "", "Predictions directory (default workspace/predictions/{model})")
	cmd.Flags().StringVar(&output, "output", "", "Report path (default workspace/evaluation/{model}_evaluation.json)")
	cmd.Flags().StringVar(&format, "format", "text", "Printed output format (text or json)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Number of snippets to evaluate concurrently")

	_ = cmd.MarkFlagRequired("model")
	return cmd
}

// NewReportCmd creates the report command for rendering saved evaluation reports
func NewReportCmd() *cobra.Command {
	var configPath string
	var workspaceDir string
	var model string
	var format string
	var showErrors bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a saved evaluation report",
		Long: `Render a previously saved evaluation report as text, JSON, or CSV.

Without --model, lists the models with saved reports and their headline
exact-match F1 scores.`,
		Example: `  # List saved reports
  nerbench eval report

  # Full text report with the categorized error list
  nerbench eval report --model spacy_en_core_web_sm --errors

  # CSV rows per scope for a spreadsheet
  nerbench eval report --model spacy_en_core_web_sm --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(configPath, workspaceDir, model, format, showErrors)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to nerbench.yaml")
	cmd.Flags().StringVar(&workspaceDir, "workspace", "", "Test dataset directory (overrides config)")
	cmd.Flags().StringVar(&model, "model", "", "Model whose report to render")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, or csv)")
	cmd.Flags().BoolVar(&showErrors, "errors", false, "Include the categorized error list (text format)")

	return cmd
}
