package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/boffin-lk/institute-service/internal/models"
)

const sessionTokenIssuer = "institute-service"

type sessionTokenClaims struct {
	UserID uint            `json:"uid"`
	Role   models.UserRole `json:"role"`
	Email  string          `json:"email"`
	Name   string          `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SessionTokens signs and verifies the HS256 session cookie value. The jti is
// the Session row's token, so a deleted row revokes the cookie.
type SessionTokens struct {
	secret []byte
	maxAge time.Duration
}

func NewSessionTokens(secret string, maxAge time.Duration) *SessionTokens {
	return &SessionTokens{secret: []byte(secret), maxAge: maxAge}
}

func (t *SessionTokens) MaxAge() time.Duration { return t.maxAge }

// Issue signs a token for user bound to sessionID, valid from now for maxAge.
func (t *SessionTokens) Issue(user *models.User, sessionID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(t.maxAge)
	claims := sessionTokenClaims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		Name:   user.FullName(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    sessionTokenIssuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, issuer and expiry.
func (t *SessionTokens) Parse(token string) (*SessionClaims, error) {
	return t.parse(token, jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})))
}

// ParseIgnoringExpiry verifies the signature only. Sign-out uses it so an
// expired cookie still removes its session row.
func (t *SessionTokens) ParseIgnoringExpiry(token string) (*SessionClaims, error) {
	return t.parse(token, jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	))
}

func (t *SessionTokens) parse(token string, parser *jwt.Parser) (*SessionClaims, error) {
	var claims sessionTokenClaims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !parsed.Valid || claims.ID == "" || claims.UserID == 0 {
		return nil, ErrInvalidSession
	}
	if claims.Issuer != sessionTokenIssuer {
		return nil, fmt.Errorf("%w: unexpected issuer", ErrInvalidSession)
	}

	out := &SessionClaims{
		UserID:    claims.UserID,
		Role:      claims.Role,
		Email:     claims.Email,
		Name:      claims.Name,
		SessionID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// IsInvalidSession reports a token or session that cannot authenticate.
func IsInvalidSession(err error) bool {
	return errors.Is(err, ErrInvalidSession)
}
