package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prairie-archives/nerbench/internal/annotate"
	"github.com/prairie-archives/nerbench/internal/entity"
	"github.com/prairie-archives/nerbench/internal/models"
)

// HandleSessions lists review sessions (GET) or creates one over a
// document's draft (POST).
func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessions := h.sessionStore.GetAll()
		views := make([]*models.SessionView, 0, len(sessions))
		for _, session := range sessions {
			session.Mu.Lock()
			views = append(views, sessionView(session))
			session.Mu.Unlock()
		}
		sort.Slice(views, func(i, j int) bool { return views[i].CreatedAt.Before(views[j].CreatedAt) })
		h.writeJSON(w, views)

	case http.MethodPost:
		h.createSession(w, r)

	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.DocumentID == "" {
		h.writeError(w, "document_id is required", http.StatusBadRequest)
		return
	}

	draft, err := h.ws.LoadDraft(req.DocumentID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			h.writeError(w, "No draft for document "+req.DocumentID, http.StatusNotFound)
			return
		}
		h.writeError(w, "Failed to load draft: "+err.Error(), http.StatusInternalServerError)
		return
	}

	now := time.Now()
	session := &models.ReviewSession{
		ID:         uuid.New().String(),
		DocumentID: req.DocumentID,
		Model:      draft.Model,
		Status:     models.SessionActive,
		CreatedAt:  now,
		UpdatedAt:  now,
		Review:     annotate.NewReview(draft),
	}

	session.Mu.Lock()
	// Drafts can open on snippets with no entities; move past them.
	if err := h.advance(session); err != nil {
		session.Mu.Unlock()
		h.writeError(w, "Failed to start session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	view := sessionView(session)
	session.Mu.Unlock()

	h.sessionStore.Set(session.ID, session)
	slog.Info("Review session created", "session_id", session.ID, "document", req.DocumentID, "entities", draft.TotalEntities)

	h.writeJSON(w, view)
}

// HandleSessionDetail serves GET /api/sessions/{id} and
// POST /api/sessions/{id}/decisions.
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")

	if sessionID, ok := strings.CutSuffix(rest, "/decisions"); ok {
		h.handleDecision(w, r, sessionID)
		return
	}

	session, ok := h.getSessionOrError(w, rest)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session.Mu.Lock()
	view := sessionView(session)
	session.Mu.Unlock()
	h.writeJSON(w, view)
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	var req models.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	session.Mu.Lock()
	defer session.Mu.Unlock()

	if session.Status != models.SessionActive {
		h.writeError(w, "Session is already completed", http.StatusBadRequest)
		return
	}

	snippet, span, ok := session.Review.Current()
	if !ok {
		h.writeError(w, "No entity awaiting a decision", http.StatusBadRequest)
		return
	}
	_, ei := session.Review.Position()
	if req.SnippetID != snippet.SnippetID || req.Index != ei {
		h.writeError(w,
			fmt.Sprintf("Decision out of order: session is waiting on snippet %s entity %d", snippet.SnippetID, ei),
			http.StatusBadRequest)
		return
	}

	decision, err := decisionFromRequest(req, span)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := session.Review.Apply(decision); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	session.UpdatedAt = time.Now()

	if err := h.advance(session); err != nil {
		h.writeError(w, "Failed to finalize session: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, sessionView(session))
}

// advance auto-closes additions passes (the API reviews draft entities only,
// there is no add-missed step) and, once the walk is done, writes the gold
// file and marks the session completed. Caller holds the session mutex.
func (h *Handler) advance(session *models.ReviewSession) error {
	for session.Review.State() == annotate.StateAdditions {
		if err := session.Review.FinishSnippet(); err != nil {
			return err
		}
	}
	if session.Review.State() != annotate.StateDone || session.Status != models.SessionActive {
		return nil
	}

	gold, err := session.Review.Gold()
	if err != nil {
		return err
	}
	if err := h.ws.SaveGold(gold); err != nil {
		return err
	}
	session.Status = models.SessionCompleted
	session.GoldPath = h.ws.GoldPath(gold.DocumentID)
	session.UpdatedAt = time.Now()
	slog.Info("Review session completed",
		"session_id", session.ID,
		"document", gold.DocumentID,
		"snippets", gold.TotalSnippets,
		"entities", gold.TotalEntities)
	return nil
}

func decisionFromRequest(req models.DecisionRequest, current *entity.Span) (annotate.Decision, error) {
	switch req.Action {
	case "accept":
		return annotate.Decision{Action: annotate.ActionAccept}, nil
	case "reject":
		return annotate.Decision{Action: annotate.ActionReject}, nil
	case "skip":
		return annotate.Decision{Action: annotate.ActionSkip}, nil
	case "modify":
		d := annotate.Decision{
			Action: annotate.ActionModify,
			Type:   current.Type,
			Start:  req.Start,
			End:    req.End,
			Notes:  req.Notes,
		}
		if req.Type != "" {
			t, err := entity.ParseType(req.Type)
			if err != nil {
				return annotate.Decision{}, err
			}
			d.Type = t
		}
		return d, nil
	default:
		return annotate.Decision{}, fmt.Errorf("unknown action %q (expected accept, reject, modify, or skip)", req.Action)
	}
}

// sessionView snapshots a session for the API. Caller holds the session
// mutex.
func sessionView(session *models.ReviewSession) *models.SessionView {
	view := &models.SessionView{
		ID:         session.ID,
		DocumentID: session.DocumentID,
		Model:      session.Model,
		Status:     session.Status,
		State:      string(session.Review.State()),
		CreatedAt:  session.CreatedAt,
		UpdatedAt:  session.UpdatedAt,
		GoldPath:   session.GoldPath,
	}

	if snippet, span, ok := session.Review.Current(); ok {
		_, ei := session.Review.Position()
		view.Pending = &models.PendingEntity{
			SnippetID: snippet.SnippetID,
			Index:     ei,
			Total:     len(snippet.Entities),
			Context:   annotate.Highlight(snippet.Text, span.Start, span.End, 50, "[[[", "]]]"),
			Entity:    *span,
		}
	}
	return view
}
