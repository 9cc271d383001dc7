package api

import (
	"net/http"
	"time"

	"github.com/pvaldez/taskstack/internal/platform/requestctx"
	"github.com/pvaldez/taskstack/internal/task"
)

type createShareRequest struct {
	Username   string `json:"username"`
	Permission string `json:"permission"`
}

type updateShareRequest struct {
	Permission string `json:"permission"`
}

type shareResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Permission string    `json:"permission"`
	CreatedAt  time.Time `json:"created_at"`
}

func toShareResponse(view task.ShareView) shareResponse {
	return shareResponse{
		ID:         view.ShareID,
		Username:   view.Username,
		Permission: view.Permission,
		CreatedAt:  view.CreatedAt,
	}
}

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	var req createShareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Permission == "" {
		req.Permission = task.PermissionView
	}

	ownerID := requestctx.UserIDFromContext(r.Context())
	view, err := s.tasks.ShareTask(r.Context(), ownerID, r.PathValue("id"), req.Username, req.Permission)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShareResponse(view))
}

func (s *Server) handleListShares(w http.ResponseWriter, r *http.Request) {
	ownerID := requestctx.UserIDFromContext(r.Context())
	views, err := s.tasks.ListShares(r.Context(), ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	responses := make([]shareResponse, 0, len(views))
	for _, view := range views {
		responses = append(responses, toShareResponse(view))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) handleUpdateShare(w http.ResponseWriter, r *http.Request) {
	var req updateShareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ownerID := requestctx.UserIDFromContext(r.Context())
	if err := s.tasks.UpdateSharePermission(r.Context(), ownerID, r.PathValue("id"), r.PathValue("username"), req.Permission); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteShare(w http.ResponseWriter, r *http.Request) {
	ownerID := requestctx.UserIDFromContext(r.Context())
	if err := s.tasks.RemoveShare(r.Context(), ownerID, r.PathValue("id"), r.PathValue("username")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
