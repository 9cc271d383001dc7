package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
	"github.com/pvaldez/taskstack/internal/task"
)

// CreateShare persists a share grant. A second grant for the same task and
// user surfaces as a conflict.
func (s *Store) CreateShare(ctx context.Context, share task.Share) error {
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO task_shares (id, task_id, owner_id, user_id, permission, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		share.ID,
		share.TaskID,
		share.OwnerID,
		share.UserID,
		share.Permission,
		toMillis(share.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.CodeConflict, "task already shared with user")
		}
		return fmt.Errorf("insert share: %w", err)
	}
	return nil
}

// GetShare loads the grant a user holds on a task.
func (s *Store) GetShare(ctx context.Context, taskID, userID string) (task.Share, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, task_id, owner_id, user_id, permission, created_at
FROM task_shares WHERE task_id = ? AND user_id = ?`, taskID, userID)
	return scanShareRow(row)
}

// ListSharesByTask returns every grant on a task ordered by creation time.
func (s *Store) ListSharesByTask(ctx context.Context, taskID string) ([]task.Share, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, task_id, owner_id, user_id, permission, created_at
FROM task_shares WHERE task_id = ?
ORDER BY created_at ASC, id ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	var shares []task.Share
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shares: %w", err)
	}
	return shares, nil
}

// UpdateSharePermission changes the permission level of an existing grant.
func (s *Store) UpdateSharePermission(ctx context.Context, taskID, userID, permission string) error {
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE task_shares SET permission = ? WHERE task_id = ? AND user_id = ?`,
		permission,
		taskID,
		userID,
	)
	if err != nil {
		return fmt.Errorf("update share: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update share rows: %w", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "share not found")
	}
	return nil
}

// DeleteShare removes a grant from a task.
func (s *Store) DeleteShare(ctx context.Context, taskID, userID string) error {
	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM task_shares WHERE task_id = ? AND user_id = ?`, taskID, userID)
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete share rows: %w", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "share not found")
	}
	return nil
}

// ListTasksSharedWithUser returns the tasks other users have shared with
// userID, ordered by grant time, with subtasks attached.
func (s *Store) ListTasksSharedWithUser(ctx context.Context, userID string) ([]task.Task, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT t.id, t.owner_id, t.title, t.description, t.category, t.priority, t.recurrence, t.due_at, t.completed, t.created_at, t.updated_at
FROM tasks t
JOIN task_shares ts ON ts.task_id = t.id
WHERE ts.user_id = ?
ORDER BY ts.created_at ASC, t.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list shared tasks: %w", err)
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachSubtasks(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func scanShareRow(row *sql.Row) (task.Share, error) {
	share, err := scanShare(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Share{}, apperrors.New(apperrors.CodeNotFound, "share not found")
		}
		return task.Share{}, fmt.Errorf("scan share: %w", err)
	}
	return share, nil
}

func scanShare(scanner rowScanner) (task.Share, error) {
	var (
		share     task.Share
		createdAt int64
	)
	err := scanner.Scan(
		&share.ID,
		&share.TaskID,
		&share.OwnerID,
		&share.UserID,
		&share.Permission,
		&createdAt,
	)
	if err != nil {
		return task.Share{}, err
	}
	share.CreatedAt = fromMillis(createdAt)
	return share, nil
}
