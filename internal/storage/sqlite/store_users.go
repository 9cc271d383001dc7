package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pvaldez/taskstack/internal/auth/user"
	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
)

// CreateUser persists a new account record. Username, email, and share code
// collisions surface as a duplicate identity error.
func (s *Store) CreateUser(ctx context.Context, u user.User) error {
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO users (id, username, email, password_hash, share_code, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.ShareCode,
		toMillis(u.CreatedAt),
		toMillis(u.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.CodeDuplicateIdentity, "username or email already registered")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID loads an account by its id.
func (s *Store) GetUserByID(ctx context.Context, userID string) (user.User, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, username, email, password_hash, share_code, created_at, updated_at
FROM users WHERE id = ?`, userID)
	return scanUserRow(row)
}

// GetUserByUsername loads an account by its lowercase username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, username, email, password_hash, share_code, created_at, updated_at
FROM users WHERE username = ?`, username)
	return scanUserRow(row)
}

// UpdatePasswordHash replaces an account's password hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error {
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash,
		toMillis(updatedAt),
		userID,
	)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password hash rows: %w", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return nil
}

func scanUserRow(row *sql.Row) (user.User, error) {
	var (
		u         user.User
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.ShareCode,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return user.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}
