package auth_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/agrisupport/internal/auth"
)

func TestGenerateCode(t *testing.T) {
	digits := regexp.MustCompile(`^[0-9]{7}$`)

	t.Run("fixed length decimal digits", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			code := auth.GenerateCode()
			require.Len(t, code, auth.CodeLength)
			assert.Regexp(t, digits, code)
		}
	})

	t.Run("codes vary", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 20; i++ {
			seen[auth.GenerateCode()] = struct{}{}
		}
		// 20 identical draws from a 10^7 space means a broken source.
		assert.Greater(t, len(seen), 1)
	})
}
