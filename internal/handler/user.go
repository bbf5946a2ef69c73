package handler

import (
	"log/slog"
	"net/http"

	"github.com/goalraiders/goalraiders/internal/service"
)

// UserHandler serves the authenticated user's profile and experience.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleMe returns the acting user's record, provisioning it on first
// contact.
//
// HTTP: GET /api/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sub, err := subject(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.GetOrCreate(r.Context(), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Username  string `json:"username"`
	CurrentHP *int   `json:"currentHp"`
	MaxHP     *int   `json:"maxHp"`
}

// HandleUpdateMe updates the acting user's profile fields. Level and
// experience are not editable; they only move through the engines.
//
// HTTP: PUT /api/users/me
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	sub, err := subject(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), sub, req.Username, req.CurrentHP, req.MaxHP)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type addExperienceRequest struct {
	Amount int `json:"amount"`
}

// HandleAddExperience grants the acting user experience and applies any
// level-ups.
//
// HTTP: POST /api/users/me/experience
func (h *UserHandler) HandleAddExperience(w http.ResponseWriter, r *http.Request) {
	sub, err := subject(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req addExperienceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.AddExperience(r.Context(), sub, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
