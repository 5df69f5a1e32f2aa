package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lmorales/tienda/pkg/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := auth.GenerateToken(42, "admin")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	require.EqualValues(t, 42, claims.UserID)
	require.Equal(t, "admin", claims.Role)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := auth.ValidateToken("not.a.jwt")
	require.Error(t, err)
}

func TestNewGuestTokenIsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		tok := auth.NewGuestToken()
		require.Len(t, tok, 32)
		_, dup := seen[tok]
		require.False(t, dup, "guest tokens must not repeat")
		seen[tok] = struct{}{}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	require.NotEqual(t, "secret123", hash)

	require.True(t, auth.CheckPassword(hash, "secret123"))
	require.False(t, auth.CheckPassword(hash, "wrong"))
}
