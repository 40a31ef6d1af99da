package entity

import "time"

// EphemeralToken is a random single-use token tracked by the server
// (email verification, password reset). It carries no payload.
type EphemeralToken struct {
	Value     string
	ExpiresAt time.Time
}

// SessionToken is a signed, self-contained bearer token. It is never persisted.
type SessionToken string

// String returns the encoded token.
func (t SessionToken) String() string {
	return string(t)
}

// SessionClaims is the identity carried inside a session token.
type SessionClaims struct {
	UserID string
	Role   Role
}
