package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pvaldez/taskstack/internal/auth/user"
	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
	"github.com/pvaldez/taskstack/internal/platform/id"
)

// Store is the persistence boundary for tasks, subtasks, and shares.
//
// Owner-scoped reads take the owner id so the store never returns another
// user's record; the service cannot leak what it never sees. Mutations on a
// single record are serialized by the store.
type Store interface {
	CreateTask(ctx context.Context, t Task) error
	GetTask(ctx context.Context, ownerID, taskID string) (Task, error)
	ListTasks(ctx context.Context, ownerID string, filter ListFilter) ([]Task, error)
	// UpdateTask applies only the fields present in patch, as one statement,
	// and reports ErrNotFound when the task is missing or owned by someone else.
	UpdateTask(ctx context.Context, ownerID, taskID string, patch Patch, updatedAt time.Time) (Task, error)
	// DeleteTask removes the task and its subtasks in one transaction.
	DeleteTask(ctx context.Context, ownerID, taskID string) error

	CreateSubtask(ctx context.Context, st Subtask) error
	ListSubtasks(ctx context.Context, taskID string) ([]Subtask, error)
	UpdateSubtask(ctx context.Context, taskID, subtaskID string, patch SubtaskPatch) (Subtask, error)
	DeleteSubtask(ctx context.Context, taskID, subtaskID string) error

	CreateShare(ctx context.Context, share Share) error
	GetShare(ctx context.Context, taskID, userID string) (Share, error)
	ListSharesByTask(ctx context.Context, taskID string) ([]Share, error)
	UpdateSharePermission(ctx context.Context, taskID, userID, permission string) error
	DeleteShare(ctx context.Context, taskID, userID string) error
	ListTasksSharedWithUser(ctx context.Context, userID string) ([]Task, error)
}

// Directory resolves account identities for share management.
type Directory interface {
	GetUserByID(ctx context.Context, userID string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
}

// CreateTaskInput carries new-task request data.
type CreateTaskInput struct {
	Title       string
	Description string
	Category    string
	Priority    string
	Recurrence  string
	DueAt       *time.Time
}

// Service orchestrates owner-scoped task operations.
type Service struct {
	store Store
	users Directory
	clock func() time.Time
	newID func() (string, error)
}

// NewService constructs task domain use-cases.
func NewService(store Store, users Directory, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store: store,
		users: users,
		clock: clock,
		newID: newID,
	}
}

// CreateTask validates input and stores a new task for the owner.
func (s *Service) CreateTask(ctx context.Context, ownerID string, input CreateTaskInput) (Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateTitle(input.Title); err != nil {
		return Task{}, err
	}
	if err := validateDescription(input.Description); err != nil {
		return Task{}, err
	}
	if err := validatePriority(input.Priority); err != nil {
		return Task{}, err
	}
	if err := validateRecurrence(input.Recurrence); err != nil {
		return Task{}, err
	}

	taskID, err := s.newID()
	if err != nil {
		return Task{}, apperrors.Wrap(apperrors.CodeInternal, "generate task id", err)
	}

	now := s.clock().UTC()
	created := Task{
		ID:          taskID,
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Priority:    input.Priority,
		Recurrence:  input.Recurrence,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.DueAt != nil {
		due := input.DueAt.UTC()
		created.DueAt = &due
	}

	if err := s.store.CreateTask(ctx, created); err != nil {
		return Task{}, apperrors.Wrap(apperrors.CodeInternal, "store task", err)
	}
	return created, nil
}

// GetTask returns one of the owner's tasks with subtasks attached.
func (s *Service) GetTask(ctx context.Context, ownerID, taskID string) (Task, error) {
	found, err := s.store.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return Task{}, translateStoreErr(err, "load task")
	}
	return found, nil
}

// ListTasks returns the owner's tasks ordered by creation time ascending.
func (s *Service) ListTasks(ctx context.Context, ownerID string, filter ListFilter) ([]Task, error) {
	tasks, err := s.store.ListTasks(ctx, ownerID, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list tasks", err)
	}
	return tasks, nil
}

// UpdateTask applies a partial update to one of the owner's tasks. Fields
// absent from the patch keep their current value even under concurrent
// patches to the same task.
func (s *Service) UpdateTask(ctx context.Context, ownerID, taskID string, patch Patch) (Task, error) {
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if err := validateTitle(trimmed); err != nil {
			return Task{}, err
		}
		patch.Title = &trimmed
	}
	if patch.Description != nil {
		if err := validateDescription(*patch.Description); err != nil {
			return Task{}, err
		}
	}
	if patch.Priority != nil {
		if err := validatePriority(*patch.Priority); err != nil {
			return Task{}, err
		}
	}
	if patch.Recurrence != nil {
		if err := validateRecurrence(*patch.Recurrence); err != nil {
			return Task{}, err
		}
	}
	if patch.DueAt != nil {
		due := patch.DueAt.UTC()
		patch.DueAt = &due
	}

	updated, err := s.store.UpdateTask(ctx, ownerID, taskID, patch, s.clock().UTC())
	if err != nil {
		return Task{}, translateStoreErr(err, "update task")
	}
	return updated, nil
}

// DeleteTask removes one of the owner's tasks and all of its subtasks.
func (s *Service) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	if err := s.store.DeleteTask(ctx, ownerID, taskID); err != nil {
		return translateStoreErr(err, "delete task")
	}
	return nil
}

// CreateSubtask adds a subtask under one of the owner's tasks.
func (s *Service) CreateSubtask(ctx context.Context, ownerID, taskID, title string) (Subtask, error) {
	if _, err := s.store.GetTask(ctx, ownerID, taskID); err != nil {
		return Subtask{}, translateStoreErr(err, "load parent task")
	}

	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return Subtask{}, err
	}

	subtaskID, err := s.newID()
	if err != nil {
		return Subtask{}, apperrors.Wrap(apperrors.CodeInternal, "generate subtask id", err)
	}
	created := Subtask{
		ID:        subtaskID,
		TaskID:    taskID,
		Title:     title,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.store.CreateSubtask(ctx, created); err != nil {
		return Subtask{}, apperrors.Wrap(apperrors.CodeInternal, "store subtask", err)
	}
	return created, nil
}

// ListSubtasks returns the subtasks of one of the owner's tasks.
func (s *Service) ListSubtasks(ctx context.Context, ownerID, taskID string) ([]Subtask, error) {
	if _, err := s.store.GetTask(ctx, ownerID, taskID); err != nil {
		return nil, translateStoreErr(err, "load parent task")
	}
	subtasks, err := s.store.ListSubtasks(ctx, taskID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list subtasks", err)
	}
	return subtasks, nil
}

// UpdateSubtask applies a partial update to a subtask after confirming the
// parent task belongs to the caller.
func (s *Service) UpdateSubtask(ctx context.Context, ownerID, taskID, subtaskID string, patch SubtaskPatch) (Subtask, error) {
	if _, err := s.store.GetTask(ctx, ownerID, taskID); err != nil {
		return Subtask{}, translateStoreErr(err, "load parent task")
	}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if err := validateTitle(trimmed); err != nil {
			return Subtask{}, err
		}
		patch.Title = &trimmed
	}
	updated, err := s.store.UpdateSubtask(ctx, taskID, subtaskID, patch)
	if err != nil {
		return Subtask{}, translateStoreErr(err, "update subtask")
	}
	return updated, nil
}

// DeleteSubtask removes a subtask after confirming the parent task belongs
// to the caller.
func (s *Service) DeleteSubtask(ctx context.Context, ownerID, taskID, subtaskID string) error {
	if _, err := s.store.GetTask(ctx, ownerID, taskID); err != nil {
		return translateStoreErr(err, "load parent task")
	}
	if err := s.store.DeleteSubtask(ctx, taskID, subtaskID); err != nil {
		return translateStoreErr(err, "delete subtask")
	}
	return nil
}

// ShareTask grants another user read access to one of the owner's tasks.
func (s *Service) ShareTask(ctx context.Context, ownerID, taskID, username, permission string) (ShareView, error) {
	if err := validatePermission(permission); err != nil {
		return ShareView{}, err
	}
	if _, err := s.store.GetTask(ctx, ownerID, taskID); err != nil {
		return ShareView{}, translateStoreErr(err, "load task")
	}

	target, err := s.users.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return ShareView{}, ErrShareUnknownUser
		}
		return ShareView{}, apperrors.Wrap(apperrors.CodeInternal, "resolve share target", err)
	}
	if target.ID == ownerID {
		return ShareView{}, ErrSelfShare
	}

	shareID, err := s.newID()
	if err != nil {
		return ShareView{}, apperrors.Wrap(apperrors.CodeInternal, "generate share id", err)
	}
	share := Share{
		ID:         shareID,
		TaskID:     taskID,
		OwnerID:    ownerID,
		UserID:     target.ID,
		Permission: permission,
		CreatedAt:  s.clock().UTC(),
	}
	if err := s.store.CreateShare(ctx, share); err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeConflict {
			return ShareView{}, ErrDuplicateShare
		}
		return ShareView{}, apperrors.Wrap(apperrors.CodeInternal, "store share", err)
	}
	return ShareView{
		ShareID:    share.ID,
		Username:   target.Username,
		Permission: share.Permission,
		CreatedAt:  share.CreatedAt,
	}, nil
}

// ListShares returns the share grants on one of the owner's tasks.
func (s *Service) ListShares(ctx context.Context, ownerID, taskID string) ([]ShareView, error) {
	if _, err := s.store.GetTask(ctx, ownerID, taskID); err != nil {
		return nil, translateStoreErr(err, "load task")
	}
	shares, err := s.store.ListSharesByTask(ctx, taskID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list shares", err)
	}

	views := make([]ShareView, 0, len(shares))
	for _, share := range shares {
		target, err := s.users.GetUserByID(ctx, share.UserID)
		if err != nil {
			// A deleted account leaves a dangling grant; skip it instead of
			// failing the whole listing.
			if apperrors.CodeOf(err) == apperrors.CodeNotFound {
				continue
			}
			return nil, apperrors.Wrap(apperrors.CodeInternal, "resolve share user", err)
		}
		views = append(views, ShareView{
			ShareID:    share.ID,
			Username:   target.Username,
			Permission: share.Permission,
			CreatedAt:  share.CreatedAt,
		})
	}
	return views, nil
}

// UpdateSharePermission changes the stored permission level of a grant.
func (s *Service) UpdateSharePermission(ctx context.Context, ownerID, taskID, username, permission string) error {
	if err := validatePermission(permission); err != nil {
		return err
	}
	target, err := s.resolveShareTarget(ctx, ownerID, taskID, username)
	if err != nil {
		return err
	}
	if err := s.store.UpdateSharePermission(ctx, taskID, target.ID, permission); err != nil {
		return translateStoreErr(err, "update share")
	}
	return nil
}

// RemoveShare revokes a grant on one of the owner's tasks.
func (s *Service) RemoveShare(ctx context.Context, ownerID, taskID, username string) error {
	target, err := s.resolveShareTarget(ctx, ownerID, taskID, username)
	if err != nil {
		return err
	}
	if err := s.store.DeleteShare(ctx, taskID, target.ID); err != nil {
		return translateStoreErr(err, "delete share")
	}
	return nil
}

// ListSharedTasks returns tasks other users have shared with userID.
func (s *Service) ListSharedTasks(ctx context.Context, userID string) ([]Task, error) {
	tasks, err := s.store.ListTasksSharedWithUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list shared tasks", err)
	}
	return tasks, nil
}

func (s *Service) resolveShareTarget(ctx context.Context, ownerID, taskID, username string) (user.User, error) {
	if _, err := s.store.GetTask(ctx, ownerID, taskID); err != nil {
		return user.User{}, translateStoreErr(err, "load task")
	}
	target, err := s.users.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return user.User{}, ErrShareUnknownUser
		}
		return user.User{}, apperrors.Wrap(apperrors.CodeInternal, "resolve share target", err)
	}
	return target, nil
}

func translateStoreErr(err error, op string) error {
	if errors.Is(err, ErrNotFound) || apperrors.CodeOf(err) == apperrors.CodeNotFound {
		return ErrNotFound
	}
	return apperrors.Wrap(apperrors.CodeInternal, op, err)
}
