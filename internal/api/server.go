// Package api exposes the JSON HTTP surface: auth lifecycle, tasks,
// subtasks, sharing, and due-notification views.
package api

import (
	"net/http"
	"time"

	"github.com/pvaldez/taskstack/internal/auth"
	"github.com/pvaldez/taskstack/internal/notify"
	"github.com/pvaldez/taskstack/internal/task"
)

// Server holds the services behind the HTTP handlers.
type Server struct {
	auth   *auth.Service
	tasks  *task.Service
	notify *notify.Engine
	clock  func() time.Time
}

// NewServer constructs the API surface over the domain services.
func NewServer(authService *auth.Service, taskService *task.Service, notifyEngine *notify.Engine, clock func() time.Time) *Server {
	if clock == nil {
		clock = time.Now
	}
	return &Server{
		auth:   authService,
		tasks:  taskService,
		notify: notifyEngine,
		clock:  clock,
	}
}

// Routes registers every API endpoint on the mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/user", s.requireAuth(s.handleCurrentUser))
	mux.HandleFunc("PUT /api/user/password", s.requireAuth(s.handleChangePassword))

	mux.HandleFunc("POST /api/tasks", s.requireAuth(s.handleCreateTask))
	mux.HandleFunc("GET /api/tasks", s.requireAuth(s.handleListTasks))
	mux.HandleFunc("GET /api/tasks/shared", s.requireAuth(s.handleListSharedTasks))
	mux.HandleFunc("GET /api/tasks/{id}", s.requireAuth(s.handleGetTask))
	mux.HandleFunc("PUT /api/tasks/{id}", s.requireAuth(s.handleUpdateTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", s.requireAuth(s.handleDeleteTask))

	mux.HandleFunc("POST /api/tasks/{id}/subtasks", s.requireAuth(s.handleCreateSubtask))
	mux.HandleFunc("GET /api/tasks/{id}/subtasks", s.requireAuth(s.handleListSubtasks))
	mux.HandleFunc("PUT /api/tasks/{id}/subtasks/{sid}", s.requireAuth(s.handleUpdateSubtask))
	mux.HandleFunc("DELETE /api/tasks/{id}/subtasks/{sid}", s.requireAuth(s.handleDeleteSubtask))

	mux.HandleFunc("POST /api/tasks/{id}/shares", s.requireAuth(s.handleCreateShare))
	mux.HandleFunc("GET /api/tasks/{id}/shares", s.requireAuth(s.handleListShares))
	mux.HandleFunc("PUT /api/tasks/{id}/shares/{username}", s.requireAuth(s.handleUpdateShare))
	mux.HandleFunc("DELETE /api/tasks/{id}/shares/{username}", s.requireAuth(s.handleDeleteShare))

	mux.HandleFunc("GET /api/notifications/due", s.requireAuth(s.handleDueNotifications))
}
