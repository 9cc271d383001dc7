package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
	"github.com/pvaldez/taskstack/internal/task"
)

// CreateTask persists a new task record.
func (s *Store) CreateTask(ctx context.Context, t task.Task) error {
	var dueAt any
	if t.DueAt != nil {
		dueAt = toMillis(*t.DueAt)
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO tasks (id, owner_id, title, description, category, priority, recurrence, due_at, completed, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.OwnerID,
		t.Title,
		t.Description,
		t.Category,
		t.Priority,
		t.Recurrence,
		dueAt,
		boolToInt(t.Completed),
		toMillis(t.CreatedAt),
		toMillis(t.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.CodeConflict, "task already exists")
		}
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask loads one of the owner's tasks with its subtasks attached. Tasks
// owned by someone else are reported as not found.
func (s *Store) GetTask(ctx context.Context, ownerID, taskID string) (task.Task, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, owner_id, title, description, category, priority, recurrence, due_at, completed, created_at, updated_at
FROM tasks WHERE id = ? AND owner_id = ?`, taskID, ownerID)

	found, err := scanTaskRow(row)
	if err != nil {
		return task.Task{}, err
	}
	subtasks, err := s.ListSubtasks(ctx, found.ID)
	if err != nil {
		return task.Task{}, err
	}
	found.Subtasks = subtasks
	return found, nil
}

// ListTasks returns the owner's tasks ordered by creation time ascending,
// with subtasks attached.
func (s *Store) ListTasks(ctx context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error) {
	query := `
SELECT id, owner_id, title, description, category, priority, recurrence, due_at, completed, created_at, updated_at
FROM tasks WHERE owner_id = ?`
	args := []any{ownerID}
	if filter.Completed != nil {
		query += " AND completed = ?"
		args = append(args, boolToInt(*filter.Completed))
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
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

// UpdateTask applies the present patch fields as a single statement and
// returns the updated record. Missing tasks and ownership mismatches are
// both reported as not found.
func (s *Store) UpdateTask(ctx context.Context, ownerID, taskID string, patch task.Patch, updatedAt time.Time) (task.Task, error) {
	assignments := []string{"updated_at = ?"}
	args := []any{toMillis(updatedAt)}

	if patch.Title != nil {
		assignments = append(assignments, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		assignments = append(assignments, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Category != nil {
		assignments = append(assignments, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Priority != nil {
		assignments = append(assignments, "priority = ?")
		args = append(args, *patch.Priority)
	}
	if patch.Recurrence != nil {
		assignments = append(assignments, "recurrence = ?")
		args = append(args, *patch.Recurrence)
	}
	if patch.ClearDueAt {
		assignments = append(assignments, "due_at = NULL")
	} else if patch.DueAt != nil {
		assignments = append(assignments, "due_at = ?")
		args = append(args, toMillis(*patch.DueAt))
	}
	if patch.Completed != nil {
		assignments = append(assignments, "completed = ?")
		args = append(args, boolToInt(*patch.Completed))
	}

	query := "UPDATE tasks SET " + strings.Join(assignments, ", ") + " WHERE id = ? AND owner_id = ?"
	args = append(args, taskID, ownerID)

	result, err := s.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return task.Task{}, fmt.Errorf("update task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return task.Task{}, fmt.Errorf("update task rows: %w", err)
	}
	if affected == 0 {
		return task.Task{}, apperrors.New(apperrors.CodeNotFound, "task not found")
	}
	return s.GetTask(ctx, ownerID, taskID)
}

// DeleteTask removes the task and its subtasks in one transaction.
func (s *Store) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete task: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
DELETE FROM subtasks WHERE task_id IN (SELECT id FROM tasks WHERE id = ? AND owner_id = ?)`, taskID, ownerID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete subtasks: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
DELETE FROM tasks WHERE id = ? AND owner_id = ?`, taskID, ownerID)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete task rows: %w", err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return apperrors.New(apperrors.CodeNotFound, "task not found")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete task: %w", err)
	}
	return nil
}

func (s *Store) attachSubtasks(ctx context.Context, tasks []task.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	placeholders := make([]string, len(tasks))
	args := make([]any, len(tasks))
	for i, t := range tasks {
		placeholders[i] = "?"
		args[i] = t.ID
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, task_id, title, completed, created_at
FROM subtasks WHERE task_id IN (`+strings.Join(placeholders, ", ")+`)
ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		return fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()

	byTask := make(map[string][]task.Subtask)
	for rows.Next() {
		st, err := scanSubtask(rows)
		if err != nil {
			return err
		}
		byTask[st.TaskID] = append(byTask[st.TaskID], st)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate subtasks: %w", err)
	}

	for i := range tasks {
		tasks[i].Subtasks = byTask[tasks[i].ID]
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(scanner rowScanner) (task.Task, error) {
	var (
		t         task.Task
		dueAt     sql.NullInt64
		completed int
		createdAt int64
		updatedAt int64
	)
	err := scanner.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&t.Category,
		&t.Priority,
		&t.Recurrence,
		&dueAt,
		&completed,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return task.Task{}, err
	}
	if dueAt.Valid {
		value := fromMillis(dueAt.Int64)
		t.DueAt = &value
	}
	t.Completed = completed != 0
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return t, nil
}

func scanTaskRow(row *sql.Row) (task.Task, error) {
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Task{}, apperrors.New(apperrors.CodeNotFound, "task not found")
		}
		return task.Task{}, fmt.Errorf("scan task: %w", err)
	}
	return t, nil
}

func collectTasks(rows *sql.Rows) ([]task.Task, error) {
	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
