package api

import (
	"net/http"
	"time"

	"github.com/pvaldez/taskstack/internal/platform/requestctx"
	"github.com/pvaldez/taskstack/internal/task"
)

type createSubtaskRequest struct {
	Title string `json:"title"`
}

type updateSubtaskRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

type subtaskResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

func toSubtaskResponse(st task.Subtask) subtaskResponse {
	return subtaskResponse{
		ID:        st.ID,
		Title:     st.Title,
		Completed: st.Completed,
		CreatedAt: st.CreatedAt,
	}
}

func (s *Server) handleCreateSubtask(w http.ResponseWriter, r *http.Request) {
	var req createSubtaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ownerID := requestctx.UserIDFromContext(r.Context())
	created, err := s.tasks.CreateSubtask(r.Context(), ownerID, r.PathValue("id"), req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubtaskResponse(created))
}

func (s *Server) handleListSubtasks(w http.ResponseWriter, r *http.Request) {
	ownerID := requestctx.UserIDFromContext(r.Context())
	subtasks, err := s.tasks.ListSubtasks(r.Context(), ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	responses := make([]subtaskResponse, 0, len(subtasks))
	for _, st := range subtasks {
		responses = append(responses, toSubtaskResponse(st))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) handleUpdateSubtask(w http.ResponseWriter, r *http.Request) {
	var req updateSubtaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ownerID := requestctx.UserIDFromContext(r.Context())
	updated, err := s.tasks.UpdateSubtask(r.Context(), ownerID, r.PathValue("id"), r.PathValue("sid"), task.SubtaskPatch{
		Title:     req.Title,
		Completed: req.Completed,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubtaskResponse(updated))
}

func (s *Server) handleDeleteSubtask(w http.ResponseWriter, r *http.Request) {
	ownerID := requestctx.UserIDFromContext(r.Context())
	if err := s.tasks.DeleteSubtask(r.Context(), ownerID, r.PathValue("id"), r.PathValue("sid")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
