package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pvaldez/taskstack/internal/auth"
	"github.com/pvaldez/taskstack/internal/auth/user"
	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
	"github.com/pvaldez/taskstack/internal/task"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestCreateGetUserRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 4, 10, 30, 0, 0, time.UTC)
	input := user.User{
		ID:           "user-1",
		Username:     "ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$hash",
		ShareCode:    "K7M2P9QX",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(context.Background(), input); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := store.GetUserByUsername(context.Background(), "ada")
	if err != nil {
		t.Fatalf("get user by username: %v", err)
	}
	if got.ID != input.ID {
		t.Fatalf("id = %q, want %q", got.ID, input.ID)
	}
	if got.Email != input.Email {
		t.Fatalf("email = %q, want %q", got.Email, input.Email)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, now)
	}

	byID, err := store.GetUserByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get user by id: %v", err)
	}
	if byID.Username != "ada" {
		t.Fatalf("username = %q, want %q", byID.Username, "ada")
	}
}

func TestCreateUserReportsDuplicateIdentity(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Now().UTC()
	first := user.User{
		ID: "user-1", Username: "ada", Email: "ada@example.com",
		PasswordHash: "h", ShareCode: "K7M2P9QX", CreatedAt: now, UpdatedAt: now,
	}
	if err := store.CreateUser(context.Background(), first); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := user.User{
		ID: "user-2", Username: "ada", Email: "other@example.com",
		PasswordHash: "h", ShareCode: "X9Q2M7PK", CreatedAt: now, UpdatedAt: now,
	}
	err := store.CreateUser(context.Background(), dup)
	if apperrors.CodeOf(err) != apperrors.CodeDuplicateIdentity {
		t.Fatalf("error code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeDuplicateIdentity)
	}
}

func TestGetUserMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	_, err := store.GetUserByID(context.Background(), "missing")
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestUpdatePasswordHash(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 4, 10, 30, 0, 0, time.UTC)
	seedUser(t, store, "user-1", "ada")

	later := now.Add(time.Hour)
	if err := store.UpdatePasswordHash(context.Background(), "user-1", "newhash", later); err != nil {
		t.Fatalf("update password hash: %v", err)
	}

	got, err := store.GetUserByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.PasswordHash != "newhash" {
		t.Fatalf("password_hash = %q, want %q", got.PasswordHash, "newhash")
	}
	if !got.UpdatedAt.Equal(later) {
		t.Fatalf("updated_at = %v, want %v", got.UpdatedAt, later)
	}

	err = store.UpdatePasswordHash(context.Background(), "missing", "h", later)
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestMarkSessionRefreshedIsSingleUse(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedUser(t, store, "user-1", "ada")
	now := time.Now().UTC()
	session := auth.Session{
		TokenID:   "tok-1",
		UserID:    "user-1",
		FamilyID:  "fam-1",
		Status:    auth.SessionActive,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := store.PutSession(context.Background(), session); err != nil {
		t.Fatalf("put session: %v", err)
	}

	rotated, err := store.MarkSessionRefreshed(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("mark refreshed: %v", err)
	}
	if !rotated {
		t.Fatal("first rotation should win")
	}

	rotated, err = store.MarkSessionRefreshed(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("mark refreshed again: %v", err)
	}
	if rotated {
		t.Fatal("second rotation should lose")
	}

	got, err := store.GetSession(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Status != auth.SessionRefreshed {
		t.Fatalf("status = %q, want %q", got.Status, auth.SessionRefreshed)
	}
}

func TestRevokeSessionFamily(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedUser(t, store, "user-1", "ada")
	now := time.Now().UTC()
	for _, tokenID := range []string{"tok-1", "tok-2"} {
		session := auth.Session{
			TokenID: tokenID, UserID: "user-1", FamilyID: "fam-1",
			Status: auth.SessionActive, IssuedAt: now, ExpiresAt: now.Add(time.Hour),
		}
		if err := store.PutSession(context.Background(), session); err != nil {
			t.Fatalf("put session %s: %v", tokenID, err)
		}
	}
	other := auth.Session{
		TokenID: "tok-3", UserID: "user-1", FamilyID: "fam-2",
		Status: auth.SessionActive, IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	if err := store.PutSession(context.Background(), other); err != nil {
		t.Fatalf("put session: %v", err)
	}

	if err := store.RevokeSessionFamily(context.Background(), "fam-1"); err != nil {
		t.Fatalf("revoke family: %v", err)
	}

	for _, tokenID := range []string{"tok-1", "tok-2"} {
		got, err := store.GetSession(context.Background(), tokenID)
		if err != nil {
			t.Fatalf("get session %s: %v", tokenID, err)
		}
		if got.Status != auth.SessionRevoked {
			t.Fatalf("session %s status = %q, want revoked", tokenID, got.Status)
		}
	}
	got, err := store.GetSession(context.Background(), "tok-3")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Status != auth.SessionActive {
		t.Fatalf("unrelated family status = %q, want active", got.Status)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedUser(t, store, "user-1", "ada")
	now := time.Now().UTC()
	expired := auth.Session{
		TokenID: "tok-old", UserID: "user-1", FamilyID: "fam-1",
		Status: auth.SessionActive, IssuedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}
	live := auth.Session{
		TokenID: "tok-new", UserID: "user-1", FamilyID: "fam-1",
		Status: auth.SessionActive, IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	for _, session := range []auth.Session{expired, live} {
		if err := store.PutSession(context.Background(), session); err != nil {
			t.Fatalf("put session: %v", err)
		}
	}

	if err := store.DeleteExpiredSessions(context.Background(), now); err != nil {
		t.Fatalf("delete expired: %v", err)
	}

	if _, err := store.GetSession(context.Background(), "tok-old"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expired session error = %v, want not found", err)
	}
	if _, err := store.GetSession(context.Background(), "tok-new"); err != nil {
		t.Fatalf("live session should survive: %v", err)
	}
}

func TestTaskCRUDScopedToOwner(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedUser(t, store, "owner-1", "ada")
	seedUser(t, store, "owner-2", "grace")
	now := time.Date(2026, time.March, 4, 10, 30, 0, 0, time.UTC)
	due := now.Add(24 * time.Hour)
	input := task.Task{
		ID:          "task-1",
		OwnerID:     "owner-1",
		Title:       "Write report",
		Description: "Quarterly numbers",
		Category:    "work",
		Priority:    "high",
		DueAt:       &due,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.CreateTask(context.Background(), input); err != nil {
		t.Fatalf("create task: %v", err)
	}

	got, err := store.GetTask(context.Background(), "owner-1", "task-1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != input.Title {
		t.Fatalf("title = %q, want %q", got.Title, input.Title)
	}
	if got.DueAt == nil || !got.DueAt.Equal(due) {
		t.Fatalf("due_at = %v, want %v", got.DueAt, due)
	}

	if _, err := store.GetTask(context.Background(), "owner-2", "task-1"); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("cross-owner get error = %v, want not found", err)
	}
	if err := store.DeleteTask(context.Background(), "owner-2", "task-1"); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("cross-owner delete error = %v, want not found", err)
	}

	if err := store.DeleteTask(context.Background(), "owner-1", "task-1"); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if _, err := store.GetTask(context.Background(), "owner-1", "task-1"); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("deleted task error = %v, want not found", err)
	}
}

func TestUpdateTaskAppliesOnlyPatchFields(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedUser(t, store, "owner-1", "ada")
	now := time.Date(2026, time.March, 4, 10, 30, 0, 0, time.UTC)
	due := now.Add(24 * time.Hour)
	input := task.Task{
		ID: "task-1", OwnerID: "owner-1", Title: "Original",
		Description: "Keep me", Priority: "low", DueAt: &due,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := store.CreateTask(context.Background(), input); err != nil {
		t.Fatalf("create task: %v", err)
	}

	title := "Renamed"
	completed := true
	later := now.Add(time.Hour)
	got, err := store.UpdateTask(context.Background(), "owner-1", "task-1", task.Patch{
		Title:     &title,
		Completed: &completed,
	}, later)
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if got.Title != "Renamed" {
		t.Fatalf("title = %q, want %q", got.Title, "Renamed")
	}
	if !got.Completed {
		t.Fatal("completed should be true")
	}
	if got.Description != "Keep me" {
		t.Fatalf("description = %q, want untouched", got.Description)
	}
	if got.DueAt == nil || !got.DueAt.Equal(due) {
		t.Fatalf("due_at = %v, want untouched %v", got.DueAt, due)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Fatalf("updated_at = %v, want %v", got.UpdatedAt, later)
	}

	cleared, err := store.UpdateTask(context.Background(), "owner-1", "task-1", task.Patch{
		ClearDueAt: true,
	}, later.Add(time.Minute))
	if err != nil {
		t.Fatalf("clear due date: %v", err)
	}
	if cleared.DueAt != nil {
		t.Fatalf("due_at = %v, want nil", cleared.DueAt)
	}
}

func TestListTasksOrderAndFilter(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedUser(t, store, "owner-1", "ada")
	base := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	for i, spec := range []struct {
		id        string
		completed bool
	}{
		{"task-a", false},
		{"task-b", true},
		{"task-c", false},
	} {
		input := task.Task{
			ID: spec.id, OwnerID: "owner-1", Title: spec.id,
			Completed: spec.completed,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreateTask(context.Background(), input); err != nil {
			t.Fatalf("create task %s: %v", spec.id, err)
		}
	}

	all, err := store.ListTasks(context.Background(), "owner-1", task.ListFilter{})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].ID != "task-a" || all[2].ID != "task-c" {
		t.Fatalf("order = %q %q %q, want creation order", all[0].ID, all[1].ID, all[2].ID)
	}

	open := false
	pending, err := store.ListTasks(context.Background(), "owner-1", task.ListFilter{Completed: &open})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending len = %d, want 2", len(pending))
	}
}

func TestSubtasksFollowParentTask(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedUser(t, store, "owner-1", "ada")
	now := time.Now().UTC().Truncate(time.Millisecond)
	parent := task.Task{
		ID: "task-1", OwnerID: "owner-1", Title: "Parent",
		CreatedAt: now, UpdatedAt: now,
	}
	if err := store.CreateTask(context.Background(), parent); err != nil {
		t.Fatalf("create task: %v", err)
	}
	st := task.Subtask{ID: "sub-1", TaskID: "task-1", Title: "Step one", CreatedAt: now}
	if err := store.CreateSubtask(context.Background(), st); err != nil {
		t.Fatalf("create subtask: %v", err)
	}

	got, err := store.GetTask(context.Background(), "owner-1", "task-1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if len(got.Subtasks) != 1 || got.Subtasks[0].ID != "sub-1" {
		t.Fatalf("subtasks = %+v, want sub-1 attached", got.Subtasks)
	}

	completed := true
	updated, err := store.UpdateSubtask(context.Background(), "task-1", "sub-1", task.SubtaskPatch{
		Completed: &completed,
	})
	if err != nil {
		t.Fatalf("update subtask: %v", err)
	}
	if !updated.Completed {
		t.Fatal("completed should be true")
	}

	if err := store.DeleteTask(context.Background(), "owner-1", "task-1"); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	subtasks, err := store.ListSubtasks(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("list subtasks: %v", err)
	}
	if len(subtasks) != 0 {
		t.Fatalf("subtasks len = %d, want 0 after parent delete", len(subtasks))
	}
}

func TestShareGrantLifecycle(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedUser(t, store, "owner-1", "ada")
	seedUser(t, store, "user-2", "grace")
	now := time.Now().UTC().Truncate(time.Millisecond)
	parent := task.Task{
		ID: "task-1", OwnerID: "owner-1", Title: "Shared work",
		CreatedAt: now, UpdatedAt: now,
	}
	if err := store.CreateTask(context.Background(), parent); err != nil {
		t.Fatalf("create task: %v", err)
	}

	share := task.Share{
		ID: "share-1", TaskID: "task-1", OwnerID: "owner-1",
		UserID: "user-2", Permission: task.PermissionView, CreatedAt: now,
	}
	if err := store.CreateShare(context.Background(), share); err != nil {
		t.Fatalf("create share: %v", err)
	}

	dup := share
	dup.ID = "share-2"
	if err := store.CreateShare(context.Background(), dup); apperrors.CodeOf(err) != apperrors.CodeConflict {
		t.Fatalf("duplicate share error = %v, want conflict", err)
	}

	shared, err := store.ListTasksSharedWithUser(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("list shared tasks: %v", err)
	}
	if len(shared) != 1 || shared[0].ID != "task-1" {
		t.Fatalf("shared = %+v, want task-1", shared)
	}

	if err := store.UpdateSharePermission(context.Background(), "task-1", "user-2", task.PermissionEdit); err != nil {
		t.Fatalf("update share: %v", err)
	}
	got, err := store.GetShare(context.Background(), "task-1", "user-2")
	if err != nil {
		t.Fatalf("get share: %v", err)
	}
	if got.Permission != task.PermissionEdit {
		t.Fatalf("permission = %q, want %q", got.Permission, task.PermissionEdit)
	}

	if err := store.DeleteShare(context.Background(), "task-1", "user-2"); err != nil {
		t.Fatalf("delete share: %v", err)
	}
	shared, err = store.ListTasksSharedWithUser(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("list shared tasks: %v", err)
	}
	if len(shared) != 0 {
		t.Fatalf("shared len = %d, want 0 after revoke", len(shared))
	}
}

func seedUser(t *testing.T, store *Store, id, username string) {
	t.Helper()

	now := time.Now().UTC()
	code, err := user.NewShareCode()
	if err != nil {
		t.Fatalf("new share code: %v", err)
	}
	input := user.User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		ShareCode:    code,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(context.Background(), input); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "taskstack.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
