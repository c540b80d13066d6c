// Package auth issues and verifies access tokens and tracks revocations.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "passcheck/pkg/domain-errors"
)

const issuer = "passcheck"

// Claims are the access token claims.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenMaker signs and parses HS256 access tokens.
type TokenMaker struct {
	signingKey []byte
	ttl        time.Duration
}

func NewTokenMaker(signingKey string, ttl time.Duration) *TokenMaker {
	return &TokenMaker{
		signingKey: []byte(signingKey),
		ttl:        ttl,
	}
}

// Generate issues a token for the user. The jti identifies the token on the
// revocation list.
func (m *TokenMaker) Generate(userID, role string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign token")
	}
	return signed, nil
}

// Validate parses and verifies a token, returning its claims.
func (m *TokenMaker) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return m.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// TTL is the lifetime tokens are issued with.
func (m *TokenMaker) TTL() time.Duration {
	return m.ttl
}
