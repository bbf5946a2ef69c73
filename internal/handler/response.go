// Package handler holds the HTTP layer: request decoding, calls into the
// service layer, and the mapping from taxonomy errors to status codes.
// Handlers never contain business rules; a handler that grows an if about
// hit points belongs in the service package.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goalraiders/goalraiders/internal/apperror"
)

// ErrorResponse is the error shape every endpoint returns. The Error field
// is a machine-readable tag, Message is for humans.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON sends data with the given status. Headers go out on the first
// body write, so status must be set before encoding.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError translates a service-layer error into an HTTP response.
// The service layer speaks the error taxonomy, not status codes; this is
// the only place the two meet.
//
// Anything outside the taxonomy is a 500 with a generic message. The raw
// error text stays in the logs; it may carry SQL or file paths.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrInvalidInput):
			status = http.StatusBadRequest
			errorType = "invalid_input"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}

// decodeJSON parses a request body into dst, rejecting unknown fields so
// client typos surface as 400s instead of silently dropped data.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.InvalidInput("body", "invalid JSON request body")
	}
	return nil
}
