package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/prairie-archives/nerbench/internal/models"
)

// HandleDocuments lists the documents with extracted snippets.
func (h *Handler) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docs, err := h.ws.ListSnippets()
	if err != nil {
		h.writeError(w, "Failed to list snippets: "+err.Error(), http.StatusInternalServerError)
		return
	}

	rows := make([]models.DocumentSummary, 0, len(docs))
	for _, docID := range docs {
		snips, err := h.ws.LoadSnippets(docID)
		if err != nil {
			h.writeError(w, "Failed to load snippets for "+docID+": "+err.Error(), http.StatusInternalServerError)
			return
		}
		rows = append(rows, models.DocumentSummary{
			DocumentID:  docID,
			Title:       snips.Metadata.Title,
			Year:        snips.Metadata.Year,
			Language:    snips.Metadata.Language,
			DocType:     snips.Metadata.DocType,
			NumSnippets: len(snips.Snippets),
			HasDraft:    h.ws.DraftExists(docID),
			HasGold:     h.ws.GoldExists(docID),
		})
	}

	h.writeJSON(w, rows)
}

// HandleDocumentDetail returns one document's snippets plus its draft and
// gold files when they exist.
func (h *Handler) HandleDocumentDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docID := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	if docID == "" {
		h.HandleDocuments(w, r)
		return
	}

	snips, err := h.ws.LoadSnippets(docID)
	if err != nil {
		h.writeError(w, "Document not found: "+docID, http.StatusNotFound)
		return
	}

	detail := models.DocumentDetail{
		DocumentID: docID,
		Metadata:   snips.Metadata,
		Snippets:   snips.Snippets,
	}

	if h.ws.DraftExists(docID) {
		if draft, err := h.ws.LoadDraft(docID); err == nil {
			detail.Draft = draft
		} else {
			slog.Warn("Unreadable draft file", "document", docID, "err", err)
		}
	}
	if h.ws.GoldExists(docID) {
		if gold, err := h.ws.LoadGold(docID); err == nil {
			detail.Gold = gold
		} else {
			slog.Warn("Unreadable gold file", "document", docID, "err", err)
		}
	}

	h.writeJSON(w, detail)
}
