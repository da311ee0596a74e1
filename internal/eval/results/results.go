// Package results persists evaluation reports: a machine-readable JSON
// report per model under the workspace evaluation directory, plus a YAML
// run artifact under evals/ for tracking runs over time.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prairie-archives/nerbench/internal/eval/metrics"
)

// ReportPath returns the canonical report location for a model.
func ReportPath(evalDir, model string) string {
	return filepath.Join(evalDir, fmt.Sprintf("%s_evaluation.json", model))
}

// SaveReport writes the report as indented JSON to the model's canonical
// path under evalDir, creating the directory if needed.
func SaveReport(evalDir string, report *metrics.Report) (string, error) {
	return SaveReportTo(ReportPath(evalDir, report.Model), report)
}

// SaveReportTo writes the report to an explicit path.
func SaveReportTo(path string, report *metrics.Report) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create evaluation directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	return path, nil
}

// LoadReport reads a previously saved report.
func LoadReport(path string) (*metrics.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var report metrics.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}

	return &report, nil
}

// ListReports returns the model names with a saved report under evalDir,
// sorted alphabetically.
func ListReports(evalDir string) ([]string, error) {
	entries, err := os.ReadDir(evalDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read evaluation directory: %w", err)
	}

	var models []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, "_evaluation.json") {
			continue
		}
		models = append(models, strings.TrimSuffix(name, "_evaluation.json"))
	}
	sort.Strings(models)

	return models, nil
}
