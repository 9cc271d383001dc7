package auth

import "time"

// SessionStatus tracks the lifecycle of one refresh token record.
type SessionStatus string

const (
	// SessionActive marks a refresh token that can still be redeemed.
	SessionActive SessionStatus = "active"
	// SessionRefreshed marks a token consumed by rotation. Presenting it
	// again is treated as reuse.
	SessionRefreshed SessionStatus = "refreshed"
	// SessionRevoked marks a token invalidated by logout or a defensive
	// family revocation. Revocation is terminal.
	SessionRevoked SessionStatus = "revoked"
)

// Session is the persisted state of one refresh token. Access tokens are
// never persisted; only refresh tokens carry revocable state.
type Session struct {
	TokenID   string
	UserID    string
	FamilyID  string
	Status    SessionStatus
	IssuedAt  time.Time
	ExpiresAt time.Time
}
