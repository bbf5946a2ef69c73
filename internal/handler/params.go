package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/goalraiders/goalraiders/internal/apperror"
	"github.com/goalraiders/goalraiders/internal/auth"
)

// subject extracts the authenticated identity from the request context. The
// auth middleware guarantees it is present on protected routes; a miss here
// means a route was mounted outside RequireAuth by mistake.
func subject(r *http.Request) (string, error) {
	sub, ok := auth.SubjectFromContext(r.Context())
	if !ok {
		return "", apperror.Unauthorized("authentication required")
	}
	return sub, nil
}

// pathID parses the {id} URL parameter as an int64.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.InvalidInput("id", "id must be a positive integer")
	}
	return id, nil
}

// listParams reads limit/offset query parameters, tolerating absence.
// Out-of-range values are clamped by the service layer.
func listParams(r *http.Request) (limit, offset int) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			offset = n
		}
	}
	return limit, offset
}
