// Package auth implements credential verification and the token lifecycle:
// registration, login, refresh rotation, revocation, and access checks.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pvaldez/taskstack/internal/auth/password"
	"github.com/pvaldez/taskstack/internal/auth/token"
	"github.com/pvaldez/taskstack/internal/auth/user"
	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")
	// ErrDuplicateIdentity indicates the username or email is already taken.
	ErrDuplicateIdentity = apperrors.New(apperrors.CodeDuplicateIdentity, "username or email already registered")
	// ErrInvalidCredentials is returned for unknown users and wrong
	// passwords alike, so responses carry no enumeration signal.
	ErrInvalidCredentials = apperrors.New(apperrors.CodeInvalidCredentials, "invalid username or password")
	// ErrTokenReused indicates an already-rotated refresh token was
	// presented again, a signal of possible theft.
	ErrTokenReused = apperrors.New(apperrors.CodeTokenReused, "refresh token already used")
	// ErrTooManyAttempts indicates the login throttle rejected the attempt.
	ErrTooManyAttempts = apperrors.New(apperrors.CodeTooManyAttempts, "too many login attempts")
)

// UserStore persists account identity records.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) error
	GetUserByID(ctx context.Context, userID string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error
}

// SessionStore persists refresh token lifecycle state.
type SessionStore interface {
	PutSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, tokenID string) (Session, error)
	// MarkSessionRefreshed transitions an active session to refreshed and
	// reports whether this call performed the transition. The check and the
	// write are one atomic statement so concurrent refreshes of the same
	// token cannot both succeed.
	MarkSessionRefreshed(ctx context.Context, tokenID string) (bool, error)
	RevokeSession(ctx context.Context, tokenID string) error
	RevokeSessionFamily(ctx context.Context, familyID string) error
	RevokeUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}

// TokenPair is the credential pair returned by login and refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RegisterInput carries registration request data.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Service orchestrates credential and token lifecycle behavior.
type Service struct {
	users    UserStore
	sessions SessionStore
	hasher   *password.Hasher
	signer   *token.Signer
	limiter  *LoginLimiter
	clock    func() time.Time
}

// NewService constructs the auth service. The limiter is optional; a nil
// limiter disables login throttling.
func NewService(users UserStore, sessions SessionStore, hasher *password.Hasher, signer *token.Signer, limiter *LoginLimiter, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		signer:   signer,
		limiter:  limiter,
		clock:    clock,
	}
}

// Register creates a new account. The plaintext password is hashed before
// it reaches any store and is never logged.
func (s *Service) Register(ctx context.Context, input RegisterInput) (user.User, error) {
	if err := user.ValidatePassword(input.Password); err != nil {
		return user.User{}, err
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return user.User{}, apperrors.Wrap(apperrors.CodeInternal, "hash password", err)
	}

	created, err := user.CreateUser(user.CreateUserInput{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
	}, s.clock, nil)
	if err != nil {
		return user.User{}, err
	}

	if err := s.users.CreateUser(ctx, created); err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			return user.User{}, err
		}
		return user.User{}, apperrors.Wrap(apperrors.CodeInternal, "store user", err)
	}
	return created, nil
}

// Login verifies credentials and issues a fresh token pair, opening a new
// refresh token family.
func (s *Service) Login(ctx context.Context, username, plaintext string) (TokenPair, user.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if s.limiter != nil && !s.limiter.Allow(username) {
		return TokenPair{}, user.User{}, ErrTooManyAttempts
	}

	account, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, user.User{}, ErrInvalidCredentials
		}
		return TokenPair{}, user.User{}, apperrors.Wrap(apperrors.CodeInternal, "load user", err)
	}
	if !s.hasher.Verify(plaintext, account.PasswordHash) {
		return TokenPair{}, user.User{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, account.ID, "")
	if err != nil {
		return TokenPair{}, user.User{}, err
	}
	return pair, account, nil
}

// Refresh rotates a refresh token: the presented token is retired in the
// same atomic step that authorizes issuing its replacement.
//
// Presenting an already-rotated token reports reuse and revokes the whole
// token family, invalidating whichever copy the legitimate holder kept.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (TokenPair, error) {
	claims, err := s.signer.VerifyRefresh(rawRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	session, err := s.sessions.GetSession(ctx, claims.TokenID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, token.ErrTokenInvalid
		}
		return TokenPair{}, apperrors.Wrap(apperrors.CodeInternal, "load session", err)
	}

	switch session.Status {
	case SessionRevoked:
		return TokenPair{}, token.ErrTokenInvalid
	case SessionRefreshed:
		return TokenPair{}, s.flagReuse(ctx, session)
	}

	rotated, err := s.sessions.MarkSessionRefreshed(ctx, claims.TokenID)
	if err != nil {
		return TokenPair{}, apperrors.Wrap(apperrors.CodeInternal, "rotate session", err)
	}
	if !rotated {
		// Lost the race to a concurrent refresh of the same token.
		return TokenPair{}, s.flagReuse(ctx, session)
	}

	return s.issuePair(ctx, session.UserID, session.FamilyID)
}

// flagReuse applies the defensive policy for refresh token reuse: the whole
// family is revoked and the caller gets a distinct reuse error.
func (s *Service) flagReuse(ctx context.Context, session Session) error {
	if err := s.sessions.RevokeSessionFamily(ctx, session.FamilyID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "revoke session family", err)
	}
	return ErrTokenReused
}

// Logout revokes the presented refresh token. It is idempotent: revoking a
// revoked, expired, or unknown token succeeds without effect.
func (s *Service) Logout(ctx context.Context, rawRefresh string) error {
	claims, err := s.signer.VerifyRefresh(rawRefresh)
	if err != nil {
		return nil
	}
	if err := s.sessions.RevokeSession(ctx, claims.TokenID); err != nil && !errors.Is(err, ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeInternal, "revoke session", err)
	}
	return nil
}

// VerifyAccess validates an access token and returns the embedded user id.
// It is a pure signature-and-expiry check; no store is consulted.
func (s *Service) VerifyAccess(raw string) (string, error) {
	claims, err := s.signer.VerifyAccess(raw)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// CurrentUser loads the account behind an authenticated user id.
func (s *Service) CurrentUser(ctx context.Context, userID string) (user.User, error) {
	account, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return user.User{}, ErrNotFound
		}
		return user.User{}, apperrors.Wrap(apperrors.CodeInternal, "load user", err)
	}
	return account, nil
}

// ChangePassword rotates the password hash after verifying the current
// password, then revokes every refresh session the user holds.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	account, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidCredentials
		}
		return apperrors.Wrap(apperrors.CodeInternal, "load user", err)
	}
	if !s.hasher.Verify(current, account.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := user.ValidatePassword(next); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "hash password", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash, s.clock().UTC()); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "update password", err)
	}
	if err := s.sessions.RevokeUserSessions(ctx, userID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "revoke user sessions", err)
	}
	return nil
}

// PurgeExpiredSessions deletes refresh sessions past their expiry.
func (s *Service) PurgeExpiredSessions(ctx context.Context) error {
	return s.sessions.DeleteExpiredSessions(ctx, s.clock().UTC())
}

func (s *Service) issuePair(ctx context.Context, userID, familyID string) (TokenPair, error) {
	access, accessClaims, err := s.signer.IssueAccess(userID)
	if err != nil {
		return TokenPair{}, apperrors.Wrap(apperrors.CodeInternal, "issue access token", err)
	}
	refresh, refreshClaims, err := s.signer.IssueRefresh(userID, familyID)
	if err != nil {
		return TokenPair{}, apperrors.Wrap(apperrors.CodeInternal, "issue refresh token", err)
	}

	if err := s.sessions.PutSession(ctx, Session{
		TokenID:   refreshClaims.TokenID,
		UserID:    userID,
		FamilyID:  refreshClaims.FamilyID,
		Status:    SessionActive,
		IssuedAt:  refreshClaims.IssuedAt,
		ExpiresAt: refreshClaims.ExpiresAt,
	}); err != nil {
		return TokenPair{}, apperrors.Wrap(apperrors.CodeInternal, "store session", err)
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.ExpiresAt,
		RefreshExpiresAt: refreshClaims.ExpiresAt,
	}, nil
}
