// Package notify derives due-date notifications from task state at query
// time. Nothing is stored: every call recomputes the view from the tasks
// and the supplied clock value.
package notify

import (
	"context"
	"time"

	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
	"github.com/pvaldez/taskstack/internal/task"
)

// TaskSource lists a user's tasks for notification derivation.
type TaskSource interface {
	ListTasks(ctx context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error)
}

// Digest groups a user's upcoming and overdue tasks into the windows the
// client renders: already overdue, due within the hour, due within the day.
// Buckets are disjoint; completed tasks never appear.
type Digest struct {
	Overdue   []task.Task
	DueInHour []task.Task
	DueInDay  []task.Task
}

// Engine computes due-notification views.
type Engine struct {
	tasks TaskSource
}

// NewEngine constructs a notification engine over the given task source.
func NewEngine(tasks TaskSource) *Engine {
	return &Engine{tasks: tasks}
}

// Due returns the user's due tasks at the supplied instant: incomplete
// tasks whose due date is at or before now. The clock is always passed in,
// never read implicitly, so results are deterministic.
func (e *Engine) Due(ctx context.Context, ownerID string, now time.Time) ([]task.Task, error) {
	all, err := e.list(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	due := make([]task.Task, 0)
	for _, t := range all {
		if t.IsDue(now) {
			due = append(due, t)
		}
	}
	return due, nil
}

// DigestAt buckets the user's incomplete tasks by proximity to their due
// dates at the supplied instant.
func (e *Engine) DigestAt(ctx context.Context, ownerID string, now time.Time) (Digest, error) {
	all, err := e.list(ctx, ownerID)
	if err != nil {
		return Digest{}, err
	}

	digest := Digest{
		Overdue:   make([]task.Task, 0),
		DueInHour: make([]task.Task, 0),
		DueInDay:  make([]task.Task, 0),
	}
	for _, t := range all {
		if t.DueAt == nil || t.Completed {
			continue
		}
		switch remaining := t.DueAt.Sub(now); {
		case remaining <= 0:
			digest.Overdue = append(digest.Overdue, t)
		case remaining <= time.Hour:
			digest.DueInHour = append(digest.DueInHour, t)
		case remaining <= 24*time.Hour:
			digest.DueInDay = append(digest.DueInDay, t)
		}
	}
	return digest, nil
}

func (e *Engine) list(ctx context.Context, ownerID string) ([]task.Task, error) {
	incomplete := false
	all, err := e.tasks.ListTasks(ctx, ownerID, task.ListFilter{Completed: &incomplete})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list tasks for notifications", err)
	}
	return all, nil
}
