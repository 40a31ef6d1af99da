// Package password provides one-way hashing of user secrets.
package password

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for stored passwords. It is also the
// lowest cost the hasher accepts.
const DefaultCost = 10

// maxInputBytes is the longest input bcrypt accepts.
const maxInputBytes = 72

// BcryptHasher hashes passwords with bcrypt. Comparison is delegated to
// bcrypt.CompareHashAndPassword, which runs in constant time.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the given cost. Costs below DefaultCost are
// raised to DefaultCost; costs above bcrypt.MaxCost fall back to DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < DefaultCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt digest of plaintext.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(secret(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash.
func (h *BcryptHasher) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), secret(plaintext)) == nil
}

// secret は bcrypt に渡すバイト列を返します。
// 72バイトを超える入力は SHA-256 (base64) に縮めてから渡し、全バイトを照合対象にします。
func secret(plaintext string) []byte {
	if len(plaintext) <= maxInputBytes {
		return []byte(plaintext)
	}
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
