package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/snipbin/internal/apperror"
)

// ErrorResponse is the JSON error shape shared by every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// wantsJSON reports whether the caller declared a preference for JSON.
// Browsers posting plain forms get redirects; API callers get JSON.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// writeJSON sends data with the given status. The encoder runs with HTML
// escaping off so snippet code is returned byte-exact.
func writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeError maps a domain error to its HTTP shape.
//
// Validation → 400, NotFound → 404, Token → 403 (stale_token), Conflict →
// 409, Auth → 401 or a login redirect, and anything else → 500 with the
// internals kept out of the body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrToken):
			status = http.StatusForbidden
			errorType = "stale_token"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrAuth):
			if !wantsJSON(r) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			status = http.StatusUnauthorized
			errorType = "unauthenticated"
		case errors.Is(err, apperror.ErrStorage):
			status = http.StatusInternalServerError
			errorType = "storage_error"
		}

		message := appErr.Message
		if status == http.StatusInternalServerError {
			// Storage failures get logged with detail; the body stays
			// generic.
			slog.Error("request failed", slog.String("error", err.Error()))
			message = "an internal error occurred"
		}

		writeJSON(w, status, ErrorResponse{
			Success: false,
			Error:   errorType,
			Message: message,
		})
		return
	}

	slog.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}
