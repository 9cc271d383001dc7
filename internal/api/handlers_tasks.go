package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
	"github.com/pvaldez/taskstack/internal/platform/requestctx"
	"github.com/pvaldez/taskstack/internal/task"
)

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	Recurrence  string     `json:"recurrence"`
	DueAt       *time.Time `json:"due_at"`
}

// optionalTime distinguishes an absent JSON field from an explicit null.
// An explicit null on due_at clears the due date; absence leaves it alone.
type optionalTime struct {
	set   bool
	value *time.Time
}

func (o *optionalTime) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.value = nil
		return nil
	}
	var value time.Time
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	o.value = &value
	return nil
}

type updateTaskRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Category    *string      `json:"category"`
	Priority    *string      `json:"priority"`
	Recurrence  *string      `json:"recurrence"`
	DueAt       optionalTime `json:"due_at"`
	Completed   *bool        `json:"completed"`
}

type taskResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Priority    string            `json:"priority"`
	Recurrence  string            `json:"recurrence"`
	DueAt       *time.Time        `json:"due_at"`
	Completed   bool              `json:"completed"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Subtasks    []subtaskResponse `json:"subtasks"`
}

func toTaskResponse(t task.Task) taskResponse {
	response := taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Priority:    t.Priority,
		Recurrence:  t.Recurrence,
		DueAt:       t.DueAt,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Subtasks:    make([]subtaskResponse, 0, len(t.Subtasks)),
	}
	for _, st := range t.Subtasks {
		response.Subtasks = append(response.Subtasks, toSubtaskResponse(st))
	}
	return response
}

func toTaskResponses(tasks []task.Task) []taskResponse {
	responses := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, toTaskResponse(t))
	}
	return responses
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ownerID := requestctx.UserIDFromContext(r.Context())
	created, err := s.tasks.CreateTask(r.Context(), ownerID, task.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Recurrence:  req.Recurrence,
		DueAt:       req.DueAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(created))
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var filter task.ListFilter
	if raw := r.URL.Query().Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, apperrors.New(apperrors.CodeInvalidBody, "completed must be true or false"))
			return
		}
		filter.Completed = &completed
	}

	ownerID := requestctx.UserIDFromContext(r.Context())
	tasks, err := s.tasks.ListTasks(r.Context(), ownerID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ownerID := requestctx.UserIDFromContext(r.Context())
	found, err := s.tasks.GetTask(r.Context(), ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(found))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	patch := task.Patch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Recurrence:  req.Recurrence,
		Completed:   req.Completed,
	}
	if req.DueAt.set {
		if req.DueAt.value == nil {
			patch.ClearDueAt = true
		} else {
			patch.DueAt = req.DueAt.value
		}
	}

	ownerID := requestctx.UserIDFromContext(r.Context())
	updated, err := s.tasks.UpdateTask(r.Context(), ownerID, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(updated))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	ownerID := requestctx.UserIDFromContext(r.Context())
	if err := s.tasks.DeleteTask(r.Context(), ownerID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSharedTasks(w http.ResponseWriter, r *http.Request) {
	userID := requestctx.UserIDFromContext(r.Context())
	tasks, err := s.tasks.ListSharedTasks(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}
