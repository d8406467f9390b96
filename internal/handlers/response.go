package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/oakwell/treeaid/internal/apperror"
)

// ErrorResponse is the single error envelope every API route returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding JSON response", "error", err)
		}
	}
}

// writeError maps the application error taxonomy onto HTTP statuses:
// validation 400, not found 404, integrity 409, upstream 502, anything
// else a generic 500.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		kind := "internal_error"
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			kind = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			kind = "not_found"
		case errors.Is(err, apperror.ErrIntegrity):
			status = http.StatusConflict
			kind = "integrity_error"
		case errors.Is(err, apperror.ErrUpstream):
			status = http.StatusBadGateway
			kind = "upstream_error"
		}
		writeJSON(w, status, ErrorResponse{Error: kind, Message: appErr.Message})
		return
	}

	slog.Error("unhandled error", "error", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}
