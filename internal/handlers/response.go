package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/voyage-engine/pkg/state"
	"github.com/jwebster45206/voyage-engine/pkg/storage"
	"github.com/jwebster45206/voyage-engine/pkg/story"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// writeIntentError maps a refused intent to a status code. Validation
// failures are 422 with their kind; lifecycle refusals are 409.
func writeIntentError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *story.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, logger, http.StatusUnprocessableEntity, ErrorResponse{
			Error: verr.Error(),
			Kind:  verr.Kind.String(),
		})
	case errors.Is(err, state.ErrAtStart):
		writeJSON(w, logger, http.StatusConflict, ErrorResponse{Error: err.Error(), Kind: "at_start"})
	case errors.Is(err, state.ErrAtEnd):
		writeJSON(w, logger, http.StatusConflict, ErrorResponse{Error: err.Error(), Kind: "at_end"})
	case errors.Is(err, state.ErrNotInProgress):
		writeJSON(w, logger, http.StatusConflict, ErrorResponse{Error: err.Error(), Kind: "not_in_progress"})
	case errors.Is(err, state.ErrAlreadyStarted):
		writeJSON(w, logger, http.StatusConflict, ErrorResponse{Error: err.Error(), Kind: "already_started"})
	default:
		logger.Error("Intent failed", "error", err)
		writeError(w, logger, http.StatusInternalServerError, "Internal server error")
	}
}

// writeStoryError reports a story that could not be loaded.
func writeStoryError(w http.ResponseWriter, logger *slog.Logger, filename string, err error) {
	var verr *story.ValidationError
	switch {
	case errors.Is(err, storage.ErrStoryNotFound):
		logger.Warn("Story not found", "story", filename, "error", err)
		writeError(w, logger, http.StatusNotFound, "Story not found: "+filename)
	case errors.As(err, &verr):
		logger.Warn("Story is invalid", "story", filename, "error", err)
		writeJSON(w, logger, http.StatusUnprocessableEntity, ErrorResponse{
			Error: err.Error(),
			Kind:  verr.Kind.String(),
		})
	default:
		logger.Error("Failed to load story", "story", filename, "error", err)
		writeError(w, logger, http.StatusInternalServerError, "Failed to load story")
	}
}
