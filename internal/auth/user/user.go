// Package user provides account identity management.
package user

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
	"github.com/pvaldez/taskstack/internal/platform/id"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

var (
	// ErrEmptyUsername indicates a missing username.
	ErrEmptyUsername = apperrors.New(apperrors.CodeUserEmptyUsername, "username is required")
	// ErrInvalidUsername indicates a username that does not match the required format.
	ErrInvalidUsername = apperrors.New(apperrors.CodeUserInvalidUsername, "username must be 3-32 lowercase alphanumeric, dot, dash, or underscore characters")
	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = apperrors.New(apperrors.CodeUserInvalidEmail, "email address is invalid")
	// ErrWeakPassword indicates a password below the minimum length.
	ErrWeakPassword = apperrors.New(apperrors.CodeUserWeakPassword, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))

	usernamePattern = regexp.MustCompile(`^[a-z0-9_.\-]{3,32}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// shareCodeAlphabet excludes visually similar characters (0, O, 1, I, L).
const shareCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// shareCodeLength is the length of generated share codes.
const shareCodeLength = 8

// User represents an account identity record.
//
// Identity fields are immutable once created; only the password hash
// changes, and only through the explicit change-password flow.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	ShareCode    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUserInput describes the metadata needed to create a user.
// PasswordHash must already be hashed; this package never sees plaintext.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
}

// ValidateUsername enforces canonical username constraints.
func ValidateUsername(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyUsername
	}
	if !usernamePattern.MatchString(s) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateEmail enforces a minimal well-formedness check on email addresses.
func ValidateEmail(s string) error {
	if !emailPattern.MatchString(s) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the minimum plaintext password length.
// It is the only password check performed before hashing.
func ValidatePassword(plaintext string) error {
	if len(plaintext) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// CreateUser creates a durable user identity from validated input.
//
// This is the canonical point where untrusted registration data becomes a
// stable identity referenced by tasks, shares, and sessions.
func CreateUser(input CreateUserInput, now func() time.Time, idGenerator func() (string, error)) (User, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateUserInput(input)
	if err != nil {
		return User{}, err
	}

	userID, err := idGenerator()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}
	shareCode, err := NewShareCode()
	if err != nil {
		return User{}, fmt.Errorf("generate share code: %w", err)
	}

	createdAt := now().UTC()
	return User{
		ID:           userID,
		Username:     normalized.Username,
		Email:        normalized.Email,
		PasswordHash: normalized.PasswordHash,
		ShareCode:    shareCode,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// NormalizeCreateUserInput trims and validates user input metadata.
func NormalizeCreateUserInput(input CreateUserInput) (CreateUserInput, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := ValidateUsername(input.Username); err != nil {
		return CreateUserInput{}, err
	}
	if err := ValidateEmail(input.Email); err != nil {
		return CreateUserInput{}, err
	}
	if strings.TrimSpace(input.PasswordHash) == "" {
		return CreateUserInput{}, fmt.Errorf("password hash is required")
	}
	return input, nil
}

// NewShareCode generates a short human-readable code users hand to each
// other when sharing tasks.
func NewShareCode() (string, error) {
	code := make([]byte, shareCodeLength)
	max := big.NewInt(int64(len(shareCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate share code: %w", err)
		}
		code[i] = shareCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
