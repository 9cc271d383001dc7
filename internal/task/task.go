// Package task owns task, subtask, and sharing domain logic. Every
// operation is scoped to the authenticated owner; ownership mismatches are
// indistinguishable from missing records.
package task

import (
	"strings"
	"time"

	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
)

const (
	// MaxTitleLength bounds task and subtask titles.
	MaxTitleLength = 255
	// MaxDescriptionLength bounds task descriptions.
	MaxDescriptionLength = 1000
)

var (
	// ErrNotFound covers both missing records and records owned by someone
	// else, so responses never reveal which it was.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "task not found")
	// ErrEmptyTitle indicates a missing title.
	ErrEmptyTitle = apperrors.New(apperrors.CodeTaskEmptyTitle, "title is required")
	// ErrTitleTooLong indicates a title over MaxTitleLength characters.
	ErrTitleTooLong = apperrors.New(apperrors.CodeTaskTitleTooLong, "title is too long")
	// ErrDescriptionTooLong indicates a description over MaxDescriptionLength characters.
	ErrDescriptionTooLong = apperrors.New(apperrors.CodeTaskDescriptionTooLong, "description is too long")
	// ErrInvalidPriority indicates an unknown priority value.
	ErrInvalidPriority = apperrors.New(apperrors.CodeTaskInvalidPriority, "priority must be low, medium, or high")
	// ErrInvalidRecurrence indicates an unknown recurrence value.
	ErrInvalidRecurrence = apperrors.New(apperrors.CodeTaskInvalidRecurrence, "recurrence must be daily, weekly, or monthly")
)

// Task is a user-owned unit of work. No task exists without an owner.
type Task struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Category    string
	Priority    string
	Recurrence  string
	DueAt       *time.Time
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Subtasks    []Subtask
}

// Subtask is a step inside a task. It lives and dies with its parent.
type Subtask struct {
	ID        string
	TaskID    string
	Title     string
	Completed bool
	CreatedAt time.Time
}

// ListFilter narrows task listings. A nil Completed returns everything.
type ListFilter struct {
	Completed *bool
}

// Patch describes a partial task update. Only non-nil fields change;
// ClearDueAt removes the due date, which a nil DueAt alone cannot express.
type Patch struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *string
	Recurrence  *string
	DueAt       *time.Time
	ClearDueAt  bool
	Completed   *bool
}

// SubtaskPatch describes a partial subtask update.
type SubtaskPatch struct {
	Title     *string
	Completed *bool
}

// IsDue reports whether the task counts as due at the given instant:
// an incomplete task whose due date has passed.
func (t Task) IsDue(now time.Time) bool {
	return t.DueAt != nil && !t.DueAt.After(now) && !t.Completed
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func validatePriority(priority string) error {
	switch priority {
	case "", "low", "medium", "high":
		return nil
	default:
		return ErrInvalidPriority
	}
}

func validateRecurrence(recurrence string) error {
	switch recurrence {
	case "", "daily", "weekly", "monthly":
		return nil
	default:
		return ErrInvalidRecurrence
	}
}
