package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/agrisupport/internal/auth"
)

func TestPasswordHashing(t *testing.T) {
	t.Run("hash and compare round trip", func(t *testing.T) {
		hash, err := auth.HashPassword("s3cret-pass", bcrypt.MinCost)
		require.NoError(t, err)
		assert.NotEqual(t, "s3cret-pass", hash)
		assert.NoError(t, auth.ComparePassword(hash, "s3cret-pass"))
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		hash, err := auth.HashPassword("s3cret-pass", bcrypt.MinCost)
		require.NoError(t, err)
		assert.Error(t, auth.ComparePassword(hash, "not-the-password"))
	})

	t.Run("out of range cost falls back to default", func(t *testing.T) {
		hash, err := auth.HashPassword("s3cret-pass", 99)
		require.NoError(t, err)
		assert.NoError(t, auth.ComparePassword(hash, "s3cret-pass"))
	})
}
