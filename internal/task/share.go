package task

import (
	"time"

	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
)

// Share permission levels. Levels above view are stored and reported but do
// not widen write access: task mutation stays owner-only.
const (
	PermissionView  = "view"
	PermissionEdit  = "edit"
	PermissionAdmin = "admin"
)

var (
	// ErrInvalidPermission indicates an unknown share permission level.
	ErrInvalidPermission = apperrors.New(apperrors.CodeShareInvalidPermission, "permission must be view, edit, or admin")
	// ErrSelfShare indicates an attempt to share a task with its owner.
	ErrSelfShare = apperrors.New(apperrors.CodeShareSelfShare, "cannot share a task with yourself")
	// ErrDuplicateShare indicates the task is already shared with that user.
	ErrDuplicateShare = apperrors.New(apperrors.CodeShareDuplicate, "task is already shared with that user")
	// ErrShareUnknownUser indicates the share target username does not exist.
	ErrShareUnknownUser = apperrors.New(apperrors.CodeShareUnknownUser, "user not found")
)

// Share grants one user read access to another user's task.
type Share struct {
	ID         string
	TaskID     string
	OwnerID    string
	UserID     string
	Permission string
	CreatedAt  time.Time
}

// ShareView is the owner-facing description of one share grant.
type ShareView struct {
	ShareID    string
	Username   string
	Permission string
	CreatedAt  time.Time
}

func validatePermission(permission string) error {
	switch permission {
	case PermissionView, PermissionEdit, PermissionAdmin:
		return nil
	default:
		return ErrInvalidPermission
	}
}
