package handler

import (
	"log/slog"
	"net/http"

	"github.com/goalraiders/goalraiders/internal/service"
)

// TaskHandler serves task CRUD and the completion operation.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

type taskRequest struct {
	Title          string `json:"title"`
	GoalID         *int64 `json:"goalId"`
	ParentID       *int64 `json:"parentTaskId"`
	Difficulty     string `json:"difficulty"`
	RecurrenceDays int    `json:"recurrenceDays"`
}

// HandleList returns the acting user's tasks.
//
// HTTP: GET /api/tasks?limit=20&offset=0
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sub, err := subject(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit, offset := listParams(r)
	tasks, err := h.tasks.List(r.Context(), sub, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// HandleCreate creates a new task.
//
// HTTP: POST /api/tasks
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sub, err := subject(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), sub, service.CreateTaskInput{
		Title:          req.Title,
		GoalID:         req.GoalID,
		ParentID:       req.ParentID,
		Difficulty:     req.Difficulty,
		RecurrenceDays: req.RecurrenceDays,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// HandleGet returns a single task.
//
// HTTP: GET /api/tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

	task, err := h.tasks.Get(r.Context(), sub, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// HandleUpdate replaces a task's editable fields. Completion state only
// moves through HandleComplete.
//
// HTTP: PUT /api/tasks/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), sub, id, service.UpdateTaskInput{
		Title:          req.Title,
		GoalID:         req.GoalID,
		ParentID:       req.ParentID,
		Difficulty:     req.Difficulty,
		RecurrenceDays: req.RecurrenceDays,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// HandleDelete removes a single task.
//
// HTTP: DELETE /api/tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.tasks.Delete(r.Context(), sub, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleComplete toggles the task's completion state machine: pending tasks
// complete (and strike their goal), completed recurring tasks reset once
// their window has elapsed.
//
// HTTP: POST /api/tasks/{id}/complete
func (h *TaskHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
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

	task, err := h.tasks.Complete(r.Context(), sub, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
