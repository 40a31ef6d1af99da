// Package token issues opaque single-use tokens for email verification and
// password reset.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"voces_backend/internal/feature/auth/domain/entity"
)

const (
	// DefaultTTL is the lifetime of verification and reset tokens.
	DefaultTTL = time.Hour

	tokenBytes = 32
)

// Generator creates hex-encoded random tokens with an expiry.
type Generator struct {
	ttl    time.Duration
	now    func() time.Time
	random io.Reader
}

// NewGenerator creates a Generator. A non-positive ttl uses DefaultTTL.
func NewGenerator(ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Generator{
		ttl:    ttl,
		now:    time.Now,
		random: rand.Reader,
	}
}

// Issue returns a fresh token expiring ttl from now.
func (g *Generator) Issue() (entity.EphemeralToken, error) {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return entity.EphemeralToken{}, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return entity.EphemeralToken{
		Value:     hex.EncodeToString(buf),
		ExpiresAt: g.now().UTC().Add(g.ttl),
	}, nil
}
