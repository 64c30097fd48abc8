package auth_test

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/agrisupport/internal/auth"
)

const testSecret = "test-signing-key"

func signClaims(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestTokenManager(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, 24*time.Hour)

	t.Run("issue and validate round trip", func(t *testing.T) {
		token, exp, err := tm.Issue("identity-123")
		require.NoError(t, err)
		require.NotEmpty(t, token)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp, time.Minute)

		id, err := tm.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "identity-123", id)
	})

	t.Run("still valid just inside the horizon", func(t *testing.T) {
		token := signClaims(t, testSecret, jwt.RegisteredClaims{
			Subject:   "identity-123",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-23*time.Hour - 59*time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		})

		id, err := tm.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "identity-123", id)
	})

	t.Run("expired just past the horizon", func(t *testing.T) {
		token := signClaims(t, testSecret, jwt.RegisteredClaims{
			Subject:   "identity-123",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-24*time.Hour - time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		})

		_, err := tm.Validate(token)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("garbage token is malformed", func(t *testing.T) {
		_, err := tm.Validate("not.a.token")
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})

	t.Run("wrong secret is malformed", func(t *testing.T) {
		token := signClaims(t, "some-other-secret", jwt.RegisteredClaims{
			Subject:   "identity-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		_, err := tm.Validate(token)
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})

	t.Run("missing subject is malformed", func(t *testing.T) {
		token := signClaims(t, testSecret, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		_, err := tm.Validate(token)
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})

	t.Run("unexpected signing method rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "identity-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tm.Validate(signed)
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})
}
