// Package jwtmw issues and verifies signed session tokens and provides the Gin
// middleware that guards protected routes.
package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"voces_backend/internal/feature/auth/domain/entity"
)

// DefaultExpiration is the lifetime of a session token.
const DefaultExpiration = 7 * 24 * time.Hour

var (
	// ErrSecretNotConfigured is returned when the signing secret is empty.
	ErrSecretNotConfigured = errors.New("jwt secret not configured")

	// ErrInvalidToken is returned when a token fails signature, expiry or claim checks.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the payload of a session token. The subject is the user ID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Generator signs and verifies HS256 session tokens.
type Generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator creates a new JWT generator with the provided secret and expiration duration.
// An empty secret is accepted here; every Issue/Parse call then fails with ErrSecretNotConfigured.
func NewGenerator(secret string, expiration time.Duration) *Generator {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	return &Generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// Issue creates a signed token carrying the user ID and role.
func (g *Generator) Issue(c entity.SessionClaims) (entity.SessionToken, error) {
	if len(g.secret) == 0 {
		return "", ErrSecretNotConfigured
	}

	now := g.now()
	claims := Claims{
		Role: string(c.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return entity.SessionToken(signed), nil
}

// Parse verifies the signature and expiry of tokenStr and returns its claims.
func (g *Generator) Parse(tokenStr string) (entity.SessionClaims, error) {
	if len(g.secret) == 0 {
		return entity.SessionClaims{}, ErrSecretNotConfigured
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		// Only HMAC is allowed
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return g.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(g.now))
	if err != nil {
		return entity.SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return entity.SessionClaims{}, ErrInvalidToken
	}

	return entity.SessionClaims{
		UserID: claims.Subject,
		Role:   entity.Role(claims.Role),
	}, nil
}
