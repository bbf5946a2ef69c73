package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/goalraiders/goalraiders/internal/service"
)

// GoalHandler serves goal CRUD and the hit-point operations.
type GoalHandler struct {
	goals  *service.GoalService
	logger *slog.Logger
}

// NewGoalHandler creates a GoalHandler.
func NewGoalHandler(goals *service.GoalService, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{goals: goals, logger: logger}
}

type goalRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	ParentID    *int64     `json:"parentGoalId"`
	DueDate     *time.Time `json:"dueDate"`
	MaxHP       int        `json:"maxHp"`
}

// HandleList returns the acting user's goals.
//
// HTTP: GET /api/goals?limit=20&offset=0
func (h *GoalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sub, err := subject(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit, offset := listParams(r)
	goals, err := h.goals.List(r.Context(), sub, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// HandleCreate creates a new goal.
//
// HTTP: POST /api/goals
func (h *GoalHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sub, err := subject(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	goal, err := h.goals.Create(r.Context(), sub, service.CreateGoalInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		ParentID:    req.ParentID,
		DueDate:     req.DueDate,
		MaxHP:       req.MaxHP,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

// HandleGet returns a single goal.
//
// HTTP: GET /api/goals/{id}
func (h *GoalHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sub, err := subject(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	goal, err := h.goals.Get(r.Context(), sub, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// HandleUpdate replaces a goal's editable fields.
//
// HTTP: PUT /api/goals/{id}
func (h *GoalHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	sub, err := subject(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	goal, err := h.goals.Update(r.Context(), sub, id, service.UpdateGoalInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		ParentID:    req.ParentID,
		DueDate:     req.DueDate,
		MaxHP:       req.MaxHP,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// HandleDelete removes a goal, its descendant goals, and their tasks.
//
// HTTP: DELETE /api/goals/{id}
func (h *GoalHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sub, err := subject(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.goals.Delete(r.Context(), sub, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type damageRequest struct {
	Difficulty string `json:"difficulty"`
}

// HandleDamage applies table-driven damage to a goal.
//
// HTTP: POST /api/goals/{id}/damage
func (h *GoalHandler) HandleDamage(w http.ResponseWriter, r *http.Request) {
	sub, err := subject(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req damageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	goal, err := h.goals.ApplyDamage(r.Context(), sub, id, req.Difficulty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// HandleDefeat drops a goal to zero HP and marks it defeated.
//
// HTTP: POST /api/goals/{id}/defeat
func (h *GoalHandler) HandleDefeat(w http.ResponseWriter, r *http.Request) {
	sub, err := subject(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	goal, err := h.goals.Defeat(r.Context(), sub, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// HandleRevive restores a goal to full HP and clears the defeated flag.
//
// HTTP: POST /api/goals/{id}/revive
func (h *GoalHandler) HandleRevive(w http.ResponseWriter, r *http.Request) {
	sub, err := subject(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	goal, err := h.goals.Revive(r.Context(), sub, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}
