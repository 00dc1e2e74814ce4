package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/filedock/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
	Kind  string `json:"kind" example:"not_found" validate:"required"`
}

func errorBody(msg, kind string) errResponse {
	return errResponse{Error: msg, Kind: kind}
}

// writeError maps err onto a status and an {error, kind} body. Internal
// errors are logged and reported without detail.
func writeError(w http.ResponseWriter, err error, attrs ...any) {
	var (
		status int
		msg    string
	)
	switch {
	case errors.Is(err, apperr.ErrAccessDenied):
		status, msg = http.StatusForbidden, "access denied"
	case errors.Is(err, apperr.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, apperr.ErrInvalidPath):
		status, msg = http.StatusBadRequest, "invalid path"
	case errors.Is(err, apperr.ErrUserCancelled):
		status, msg = http.StatusConflict, "cancelled"
	case errors.Is(err, apperr.ErrWriteFailed):
		status, msg = http.StatusInternalServerError, "write failed"
	default:
		status, msg = http.StatusInternalServerError, "internal error"
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", append(attrs, slog.String("error", err.Error()))...)
	}
	writeJSON(w, status, errorBody(msg, apperr.Kind(err)))
}
