package api

import (
	"net/http"

	"github.com/pvaldez/taskstack/internal/platform/requestctx"
)

type dueNotificationsResponse struct {
	Due       []taskResponse `json:"due"`
	Overdue   []taskResponse `json:"overdue"`
	DueInHour []taskResponse `json:"due_in_1_hour"`
	DueInDay  []taskResponse `json:"due_in_1_day"`
}

func (s *Server) handleDueNotifications(w http.ResponseWriter, r *http.Request) {
	userID := requestctx.UserIDFromContext(r.Context())
	now := s.clock().UTC()

	due, err := s.notify.Due(r.Context(), userID, now)
	if err != nil {
		writeError(w, err)
		return
	}
	digest, err := s.notify.DigestAt(r.Context(), userID, now)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dueNotificationsResponse{
		Due:       toTaskResponses(due),
		Overdue:   toTaskResponses(digest.Overdue),
		DueInHour: toTaskResponses(digest.DueInHour),
		DueInDay:  toTaskResponses(digest.DueInDay),
	})
}
