package token

import (
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestNewGenerator_DefaultTTL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultTTL, NewGenerator(0).ttl)
	assert.Equal(t, DefaultTTL, NewGenerator(-time.Minute).ttl)
	assert.Equal(t, 5*time.Minute, NewGenerator(5*time.Minute).ttl)
}

func TestGenerator_Issue(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	g := NewGenerator(time.Hour)
	g.now = func() time.Time { return fixed }

	tok, err := g.Issue()
	require.NoError(t, err)

	raw, err := hex.DecodeString(tok.Value)
	require.NoError(t, err, "token should be hex encoded")
	assert.Len(t, raw, tokenBytes)
	assert.Equal(t, fixed.Add(time.Hour), tok.ExpiresAt)
}

func TestGenerator_Issue_Unique(t *testing.T) {
	t.Parallel()

	g := NewGenerator(time.Hour)
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := g.Issue()
		require.NoError(t, err)
		_, dup := seen[tok.Value]
		assert.False(t, dup, "duplicate token issued")
		seen[tok.Value] = struct{}{}
	}
}

func TestGenerator_Issue_RandomFailure(t *testing.T) {
	t.Parallel()

	g := NewGenerator(time.Hour)
	g.random = failingReader{}

	_, err := g.Issue()
	assert.Error(t, err)
}
