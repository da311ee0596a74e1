package handlers

import (
	"log/slog"
	"net/http"

	"github.com/prairie-archives/nerbench/internal/models"
)

// HandleProgress reports the workflow status of every document with
// extracted snippets: draft and gold presence, entity totals, and which
// models have predictions for it.
func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docs, err := h.ws.ListSnippets()
	if err != nil {
		h.writeError(w, "Failed to list snippets: "+err.Error(), http.StatusInternalServerError)
		return
	}
	modelNames, err := h.ws.ListModels()
	if err != nil {
		h.writeError(w, "Failed to list models: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if modelNames == nil {
		modelNames = []string{}
	}

	progress := models.Progress{
		Workspace: h.ws.Root,
		Models:    modelNames,
		Documents: []models.DocumentProgress{},
	}

	for _, docID := range docs {
		snips, err := h.ws.LoadSnippets(docID)
		if err != nil {
			h.writeError(w, "Failed to load snippets for "+docID+": "+err.Error(), http.StatusInternalServerError)
			return
		}

		row := models.DocumentProgress{
			DocumentID: docID,
			Title:      snips.Metadata.Title,
			Snippets:   len(snips.Snippets),
		}

		if h.ws.DraftExists(docID) {
			row.HasDraft = true
			progress.WithDraft++
			if draft, err := h.ws.LoadDraft(docID); err == nil {
				row.DraftEntities = draft.CountEntities()
			} else {
				slog.Warn("Unreadable draft file", "document", docID, "err", err)
			}
		}

		if h.ws.GoldExists(docID) {
			row.HasGold = true
			progress.WithGold++
			if gold, err := h.ws.LoadGold(docID); err == nil {
				row.GoldEntities = gold.CountEntities()
				progress.GoldEntities += row.GoldEntities
			} else {
				slog.Warn("Unreadable gold file", "document", docID, "err", err)
			}
		}

		for _, m := range modelNames {
			if h.ws.PredictionExists(m, docID) {
				row.Models = append(row.Models, m)
			}
		}

		progress.TotalSnippets += row.Snippets
		progress.Documents = append(progress.Documents, row)
	}
	progress.TotalDocuments = len(progress.Documents)

	h.writeJSON(w, progress)
}
