package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
	"github.com/pvaldez/taskstack/internal/task"
)

// CreateSubtask persists a new subtask under its parent task.
func (s *Store) CreateSubtask(ctx context.Context, st task.Subtask) error {
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO subtasks (id, task_id, title, completed, created_at)
VALUES (?, ?, ?, ?, ?)`,
		st.ID,
		st.TaskID,
		st.Title,
		boolToInt(st.Completed),
		toMillis(st.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.CodeConflict, "subtask already exists")
		}
		return fmt.Errorf("insert subtask: %w", err)
	}
	return nil
}

// ListSubtasks returns a task's subtasks ordered by creation time ascending.
func (s *Store) ListSubtasks(ctx context.Context, taskID string) ([]task.Subtask, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, task_id, title, completed, created_at
FROM subtasks WHERE task_id = ?
ORDER BY created_at ASC, id ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()

	var subtasks []task.Subtask
	for rows.Next() {
		st, err := scanSubtask(rows)
		if err != nil {
			return nil, err
		}
		subtasks = append(subtasks, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subtasks: %w", err)
	}
	return subtasks, nil
}

// UpdateSubtask applies the present patch fields and returns the updated
// record. Subtasks under a different task are reported as not found.
func (s *Store) UpdateSubtask(ctx context.Context, taskID, subtaskID string, patch task.SubtaskPatch) (task.Subtask, error) {
	var (
		assignments []string
		args        []any
	)
	if patch.Title != nil {
		assignments = append(assignments, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Completed != nil {
		assignments = append(assignments, "completed = ?")
		args = append(args, boolToInt(*patch.Completed))
	}

	if len(assignments) > 0 {
		query := "UPDATE subtasks SET " + strings.Join(assignments, ", ") + " WHERE id = ? AND task_id = ?"
		args = append(args, subtaskID, taskID)

		result, err := s.sqlDB.ExecContext(ctx, query, args...)
		if err != nil {
			return task.Subtask{}, fmt.Errorf("update subtask: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return task.Subtask{}, fmt.Errorf("update subtask rows: %w", err)
		}
		if affected == 0 {
			return task.Subtask{}, apperrors.New(apperrors.CodeNotFound, "subtask not found")
		}
	}

	return s.getSubtask(ctx, taskID, subtaskID)
}

// DeleteSubtask removes a subtask from its parent task.
func (s *Store) DeleteSubtask(ctx context.Context, taskID, subtaskID string) error {
	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM subtasks WHERE id = ? AND task_id = ?`, subtaskID, taskID)
	if err != nil {
		return fmt.Errorf("delete subtask: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete subtask rows: %w", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "subtask not found")
	}
	return nil
}

func (s *Store) getSubtask(ctx context.Context, taskID, subtaskID string) (task.Subtask, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, task_id, title, completed, created_at
FROM subtasks WHERE id = ? AND task_id = ?`, subtaskID, taskID)

	st, err := scanSubtask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Subtask{}, apperrors.New(apperrors.CodeNotFound, "subtask not found")
		}
		return task.Subtask{}, fmt.Errorf("scan subtask: %w", err)
	}
	return st, nil
}

func scanSubtask(scanner rowScanner) (task.Subtask, error) {
	var (
		st        task.Subtask
		completed int
		createdAt int64
	)
	err := scanner.Scan(
		&st.ID,
		&st.TaskID,
		&st.Title,
		&completed,
		&createdAt,
	)
	if err != nil {
		return task.Subtask{}, err
	}
	st.Completed = completed != 0
	st.CreatedAt = fromMillis(createdAt)
	return st, nil
}
