package results

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prairie-archives/nerbench/internal/eval/metrics"
	"github.com/prairie-archives/nerbench/internal/eval/spanmatch"
	"gopkg.in/yaml.v3"
)

// RunConfig represents the configuration section of the eval YAML
type RunConfig struct {
	Model       string `yaml:"model"`
	RunID       string `yaml:"runid"`
	GoldPath    string `yaml:"goldpath"`
	PredPath    string `yaml:"predpath"`
	Documents   int    `yaml:"documents"`
	Snippets    int    `yaml:"snippets"`
	Timestamp   string `yaml:"timestamp"`
	EvaluatedAt string `yaml:"evaluatedat"`
}

// TypeScore holds the exact and partial scores for one entity type
type TypeScore struct {
	Type             string  `yaml:"type"`
	Gold             int     `yaml:"gold"`
	Predicted        int     `yaml:"predicted"`
	ExactPrecision   string  `yaml:"exactprecision"`
	ExactRecall      string  `yaml:"exactrecall"`
	ExactF1          string  `yaml:"exactf1"`
	PartialPrecision string  `yaml:"partialprecision"`
	PartialRecall    string  `yaml:"partialrecall"`
	PartialF1        string  `yaml:"partialf1"`
	TruePositives    int     `yaml:"truepositives"`
	FalsePositives   int     `yaml:"falsepositives"`
	FalseNegatives   int     `yaml:"falsenegatives"`
	Fraction         float64 `yaml:"fraction"`
}

// RunSpec represents the complete evaluation run artifact
type RunSpec struct {
	Config   RunConfig      `yaml:"config"`
	Overall  TypeScore      `yaml:"overall"`
	PerType  []TypeScore    `yaml:"pertype"`
	Errors   map[string]int `yaml:"errors"`
	Warnings []string       `yaml:"warnings,omitempty"`
}

func typeScore(name string, b metrics.Breakdown) TypeScore {
	exact := b.Exact.Counts()
	return TypeScore{
		Type:             name,
		ExactPrecision:   metrics.FormatScore(b.Exact.Precision),
		ExactRecall:      metrics.FormatScore(b.Exact.Recall),
		ExactF1:          metrics.FormatScore(b.Exact.F1),
		PartialPrecision: metrics.FormatScore(b.Partial.Precision),
		PartialRecall:    metrics.FormatScore(b.Partial.Recall),
		PartialF1:        metrics.FormatScore(b.Partial.F1),
		TruePositives:    exact.TP,
		FalsePositives:   exact.FP,
		FalseNegatives:   exact.FN,
	}
}

// SaveToYAML saves an evaluation run artifact to a YAML file in evals/ directory
func SaveToYAML(evalsDir, goldPath, predPath string, report *metrics.Report) (string, error) {
	if evalsDir == "" {
		evalsDir = "evals"
	}
	if err := os.MkdirAll(evalsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create evals directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")

	overall := typeScore("ALL", report.Overall)
	overall.Gold = report.GoldSpans
	overall.Predicted = report.PredSpans

	spec := RunSpec{
		Config: RunConfig{
			Model:       report.Model,
			RunID:       report.RunID,
			GoldPath:    goldPath,
			PredPath:    predPath,
			Documents:   report.Documents,
			Snippets:    report.Snippets,
			Timestamp:   timestamp,
			EvaluatedAt: report.EvaluatedAt.Format(time.RFC3339),
		},
		Overall: overall,
		PerType: make([]TypeScore, 0, len(report.PerType)),
		Errors:  make(map[string]int),
	}

	for _, row := range report.PerType {
		ts := typeScore(string(row.Type), metrics.Breakdown{Exact: row.Exact, Partial: row.Partial})
		ts.Gold = row.Exact.TP + row.Exact.FN
		ts.Predicted = row.Exact.TP + row.Exact.FP
		if report.GoldSpans > 0 {
			ts.Fraction = float64(ts.Gold) / float64(report.GoldSpans)
		}
		spec.PerType = append(spec.PerType, ts)
	}

	for kind, n := range report.ErrorTally() {
		spec.Errors[string(kind)] = n
	}
	// Keys are stable even when a kind never occurred.
	for _, kind := range []spanmatch.Kind{spanmatch.FalsePositive, spanmatch.FalseNegative, spanmatch.BoundaryError, spanmatch.TypeError} {
		if _, ok := spec.Errors[string(kind)]; !ok {
			spec.Errors[string(kind)] = 0
		}
	}

	for _, w := range report.Warnings {
		spec.Warnings = append(spec.Warnings, w.String())
	}

	filename := filepath.Join(evalsDir, fmt.Sprintf("%s-%s.yaml", report.Model, timestamp))

	data, err := yaml.Marshal(&spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return filename, nil
}
