package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken(secret, "ops-1", "Night shift", []string{"requests:create"}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "ops-1", claims.Subject)
	assert.Equal(t, "Night shift", claims.Name)
	assert.True(t, claims.HasScope("requests:create"))
	assert.False(t, claims.HasScope("ledger:write"))
}

func TestValidateToken_Rejects(t *testing.T) {
	secret := []byte("test-secret")

	t.Run("wrong secret", func(t *testing.T) {
		token, err := GenerateToken(secret, "ops-1", "", nil, time.Hour)
		require.NoError(t, err)
		_, err = ValidateToken([]byte("other"), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := GenerateToken(secret, "ops-1", "", nil, -time.Minute)
		require.NoError(t, err)
		_, err = ValidateToken(secret, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ValidateToken(secret, "not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := GenerateToken(nil, "ops-1", "", nil, time.Hour)
		assert.ErrorIs(t, err, ErrEmptySecret)
	})
}

func TestHasScope_Wildcard(t *testing.T) {
	c := &Claims{Scopes: []string{"*"}}
	assert.True(t, c.HasScope("ledger:write"))
}
