// Package handlers implements the JSON API behind nerbench serve: workflow
// progress, document detail, saved evaluation reports, and review sessions.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prairie-archives/nerbench/internal/models"
	"github.com/prairie-archives/nerbench/internal/storage"
	"github.com/prairie-archives/nerbench/internal/workspace"
)

// Handler serves every endpoint over one workspace.
type Handler struct {
	ws           *workspace.Workspace
	sessionStore *storage.SessionStore
}

func New(ws *workspace.Workspace) *Handler {
	return &Handler{
		ws:           ws,
		sessionStore: storage.New(),
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "code", code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		slog.Error("Unable to encode error response", "err", err)
	}
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*models.ReviewSession, bool) {
	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}
