package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pvaldez/taskstack/internal/auth"
	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
)

// PutSession persists a refresh session record.
func (s *Store) PutSession(ctx context.Context, session auth.Session) error {
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO auth_sessions (token_id, user_id, family_id, status, issued_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		session.TokenID,
		session.UserID,
		session.FamilyID,
		string(session.Status),
		toMillis(session.IssuedAt),
		toMillis(session.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.CodeConflict, "session already exists")
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession loads a refresh session by its token id.
func (s *Store) GetSession(ctx context.Context, tokenID string) (auth.Session, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT token_id, user_id, family_id, status, issued_at, expires_at
FROM auth_sessions WHERE token_id = ?`, tokenID)

	var (
		session   auth.Session
		status    string
		issuedAt  int64
		expiresAt int64
	)
	err := row.Scan(
		&session.TokenID,
		&session.UserID,
		&session.FamilyID,
		&status,
		&issuedAt,
		&expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Session{}, apperrors.New(apperrors.CodeNotFound, "session not found")
		}
		return auth.Session{}, fmt.Errorf("scan session: %w", err)
	}
	session.Status = auth.SessionStatus(status)
	session.IssuedAt = fromMillis(issuedAt)
	session.ExpiresAt = fromMillis(expiresAt)
	return session, nil
}

// MarkSessionRefreshed transitions an active session to refreshed. The status
// guard in the WHERE clause makes the transition atomic; the affected-row
// count tells the caller whether this call won.
func (s *Store) MarkSessionRefreshed(ctx context.Context, tokenID string) (bool, error) {
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE auth_sessions SET status = ? WHERE token_id = ? AND status = ?`,
		string(auth.SessionRefreshed),
		tokenID,
		string(auth.SessionActive),
	)
	if err != nil {
		return false, fmt.Errorf("mark session refreshed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark session refreshed rows: %w", err)
	}
	return affected == 1, nil
}

// RevokeSession marks a session revoked regardless of its current status.
func (s *Store) RevokeSession(ctx context.Context, tokenID string) error {
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE auth_sessions SET status = ? WHERE token_id = ?`,
		string(auth.SessionRevoked),
		tokenID,
	)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke session rows: %w", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "session not found")
	}
	return nil
}

// RevokeSessionFamily marks every session in a refresh family revoked.
func (s *Store) RevokeSessionFamily(ctx context.Context, familyID string) error {
	_, err := s.sqlDB.ExecContext(ctx, `
UPDATE auth_sessions SET status = ? WHERE family_id = ?`,
		string(auth.SessionRevoked),
		familyID,
	)
	if err != nil {
		return fmt.Errorf("revoke session family: %w", err)
	}
	return nil
}

// RevokeUserSessions marks every session a user holds revoked.
func (s *Store) RevokeUserSessions(ctx context.Context, userID string) error {
	_, err := s.sqlDB.ExecContext(ctx, `
UPDATE auth_sessions SET status = ? WHERE user_id = ?`,
		string(auth.SessionRevoked),
		userID,
	)
	if err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions whose expiry has passed.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM auth_sessions WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}
