// Package token issues and verifies the signed credentials used by the API.
//
// Access tokens are short-lived and stateless: verification is purely
// signature plus expiry, never a store lookup. Refresh tokens are signed the
// same way but their jti is persisted so they can be rotated and revoked.
package token

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
	"github.com/pvaldez/taskstack/internal/platform/id"
)

const (
	// UseAccess marks a token accepted by the authorization guard.
	UseAccess = "access"
	// UseRefresh marks a token accepted only by refresh and logout.
	UseRefresh = "refresh"
)

var (
	// ErrTokenInvalid indicates a token that fails signature or claim checks.
	ErrTokenInvalid = apperrors.New(apperrors.CodeTokenInvalid, "token is invalid")
	// ErrTokenExpired indicates a structurally valid token past its expiry.
	ErrTokenExpired = apperrors.New(apperrors.CodeTokenExpired, "token is expired")
)

// Config defines how tokens are signed and verified.
type Config struct {
	Issuer     string
	Audience   string
	Key        ed25519.PrivateKey
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// Claims captures the validated contents of a token.
type Claims struct {
	UserID    string
	TokenID   string
	FamilyID  string
	Use       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// signedClaims is the internal claims type used for JWT encoding.
type signedClaims struct {
	jwt.RegisteredClaims
	TokenUse string `json:"token_use"`
	FamilyID string `json:"fam,omitempty"`
}

// Signer issues and verifies EdDSA-signed tokens.
type Signer struct {
	cfg Config
}

// NewSigner validates config and returns a token signer.
func NewSigner(cfg Config) (*Signer, error) {
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("token issuer is required")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, errors.New("token audience is required")
	}
	if len(cfg.Key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("signing key must be %d bytes", ed25519.PrivateKeySize)
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Signer{cfg: cfg}, nil
}

// IssueAccess mints a short-lived access token for the given user.
func (s *Signer) IssueAccess(userID string) (string, Claims, error) {
	return s.issue(userID, UseAccess, "", s.cfg.AccessTTL)
}

// IssueRefresh mints a refresh token bound to a rotation family. An empty
// familyID starts a new family.
func (s *Signer) IssueRefresh(userID, familyID string) (string, Claims, error) {
	if familyID == "" {
		generated, err := id.NewID()
		if err != nil {
			return "", Claims{}, fmt.Errorf("generate token family id: %w", err)
		}
		familyID = generated
	}
	return s.issue(userID, UseRefresh, familyID, s.cfg.RefreshTTL)
}

func (s *Signer) issue(userID, use, familyID string, ttl time.Duration) (string, Claims, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", Claims{}, errors.New("user id is required")
	}
	tokenID, err := id.NewID()
	if err != nil {
		return "", Claims{}, fmt.Errorf("generate token id: %w", err)
	}

	now := s.cfg.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := signedClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			Subject:   userID,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenUse: use,
		FamilyID: familyID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.cfg.Key)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, Claims{
		UserID:    userID,
		TokenID:   tokenID,
		FamilyID:  familyID,
		Use:       use,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// VerifyAccess verifies an access token by signature and expiry only.
func (s *Signer) VerifyAccess(raw string) (Claims, error) {
	return s.verify(raw, UseAccess)
}

// VerifyRefresh verifies a refresh token's signature and expiry. Rotation
// state lives in storage and is checked by the auth service, not here.
func (s *Signer) VerifyRefresh(raw string) (Claims, error) {
	return s.verify(raw, UseRefresh)
}

func (s *Signer) verify(raw, wantUse string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrTokenInvalid
	}

	var parsed signedClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(token *jwt.Token) (any, error) {
		return s.cfg.Key.Public(), nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer != s.cfg.Issuer {
		return Claims{}, ErrTokenInvalid
	}
	if !audienceContains(parsed.Audience, s.cfg.Audience) {
		return Claims{}, ErrTokenInvalid
	}
	if parsed.TokenUse != wantUse {
		return Claims{}, ErrTokenInvalid
	}
	if parsed.Subject == "" || parsed.ID == "" {
		return Claims{}, ErrTokenInvalid
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, ErrTokenInvalid
	}

	now := s.cfg.Now().UTC()
	expiresAt := parsed.ExpiresAt.Time.UTC()
	if !expiresAt.After(now) {
		return Claims{}, ErrTokenExpired
	}

	claims := Claims{
		UserID:    parsed.Subject,
		TokenID:   parsed.ID,
		FamilyID:  parsed.FamilyID,
		Use:       parsed.TokenUse,
		ExpiresAt: expiresAt,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// mapJWTError translates jwt library errors to domain errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.Wrap(apperrors.CodeTokenInvalid, "token signature is invalid", err)
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.Wrap(apperrors.CodeTokenInvalid, "token alg is invalid", err)
	}
	return apperrors.Wrap(apperrors.CodeTokenInvalid, "token is malformed", err)
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

// ParseSigningKey decodes a base64-encoded Ed25519 private key or seed.
func ParseSigningKey(encoded string) (ed25519.PrivateKey, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, errors.New("signing key is required")
	}
	decoded, err := decodeBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode signing key: %w", err)
	}
	switch len(decoded) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(decoded), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(decoded), nil
	default:
		return nil, fmt.Errorf("signing key must be %d or %d bytes", ed25519.SeedSize, ed25519.PrivateKeySize)
	}
}

func decodeBase64(value string) ([]byte, error) {
	if decoded, err := base64.RawStdEncoding.DecodeString(value); err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
