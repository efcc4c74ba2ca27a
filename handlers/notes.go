package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"tweet-fleet/config"
	"tweet-fleet/models"

	"go.uber.org/zap"
)

// NoteSaver writes a note to the notes repository.
type NoteSaver interface {
	Save(ctx context.Context, content string) (*models.NoteResult, error)
}

// NoteHandler serves POST /save.
type NoteHandler struct {
	saver NoteSaver
}

func NewNoteHandler(saver NoteSaver) *NoteHandler {
	return &NoteHandler{saver: saver}
}

func (h *NoteHandler) SaveNote(w http.ResponseWriter, r *http.Request) {
	var req models.NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logRequest(r, "error", "Invalid note body", zap.Error(err))
		badRequest(w, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		badRequest(w, "Content is required")
		return
	}

	result, err := h.saver.Save(r.Context(), req.Content)
	if err != nil {
		logRequest(r, "error", "Failed to save note", zap.Error(err))
		if errors.Is(err, config.ErrMissingConfig) {
			internalError(w, "GitHub is not configured")
		} else {
			badRequest(w, "Could not save note: "+err.Error())
		}
		return
	}

	logRequest(r, "info", "Note saved", zap.String("path", result.Path))
	writeJSON(w, http.StatusOK, result)
}
