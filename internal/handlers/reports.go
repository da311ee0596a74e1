package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/prairie-archives/nerbench/internal/eval/results"
	"github.com/prairie-archives/nerbench/internal/models"
)

// HandleReports lists the saved evaluation reports with their headline
// exact-match F1.
func (h *Handler) HandleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	names, err := results.ListReports(h.ws.EvaluationDir())
	if err != nil {
		h.writeError(w, "Failed to list reports: "+err.Error(), http.StatusInternalServerError)
		return
	}

	rows := make([]models.ReportSummary, 0, len(names))
	for _, model := range names {
		report, err := results.LoadReport(results.ReportPath(h.ws.EvaluationDir(), model))
		if err != nil {
			slog.Warn("Unreadable report", "model", model, "err", err)
			continue
		}
		rows = append(rows, models.ReportSummary{
			Model:       report.Model,
			EvaluatedAt: report.EvaluatedAt,
			Documents:   report.Documents,
			ExactF1:     report.Overall.Exact.F1,
		})
	}

	h.writeJSON(w, rows)
}

// HandleReportDetail returns one model's full saved report.
func (h *Handler) HandleReportDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	model := strings.TrimPrefix(r.URL.Path, "/api/reports/")
	if model == "" {
		h.HandleReports(w, r)
		return
	}

	report, err := results.LoadReport(results.ReportPath(h.ws.EvaluationDir(), model))
	if err != nil {
		h.writeError(w, "No saved report for model "+model, http.StatusNotFound)
		return
	}

	h.writeJSON(w, report)
}
