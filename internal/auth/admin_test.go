package auth

import (
	"context"
	"testing"

	"github.com/runreward/runreward/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordGate(t *testing.T) {
	ctx := context.Background()

	t.Run("plain password is hashed", func(t *testing.T) {
		g := NewPasswordGate("", "runreward2024")
		assert.NotEqual(t, "runreward2024", g.hash)

		ok, err := g.Authorize(ctx, "runreward2024")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = g.Authorize(ctx, "wrong")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hash wins over plain", func(t *testing.T) {
		g := NewPasswordGate(cryptox.HashPassword("from-hash"), "from-plain")

		ok, err := g.Authorize(ctx, "from-hash")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = g.Authorize(ctx, "from-plain")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("nothing configured denies", func(t *testing.T) {
		ok, err := NewPasswordGate("", "").Authorize(ctx, "")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed hash errors", func(t *testing.T) {
		_, err := NewPasswordGate("bogus", "").Authorize(ctx, "x")
		require.ErrorIs(t, err, cryptox.ErrMalformedHash)
	})
}
