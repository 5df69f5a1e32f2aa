package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lmorales/tienda/app/repositories"
	"github.com/lmorales/tienda/app/services"
	"github.com/lmorales/tienda/pkg/auth"
)

func newAuthService(t *testing.T) *services.AuthService {
	t.Helper()
	db := newTestDB(t)
	return services.NewAuthService(repositories.NewUserRepository(db))
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)

	created, err := svc.Register("Ana", "ana@example.com", "secret123")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "user", created.Role)
	require.NotEqual(t, "secret123", created.Password, "password must be stored hashed")

	user, token, err := svc.Login("ana@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, created.ID, claims.UserID)
	require.Equal(t, "user", claims.Role)
}

func TestAuth_LoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register("Ana", "ana@example.com", "secret123")
	require.NoError(t, err)

	_, _, err = svc.Login("ana@example.com", "wrong")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@example.com", "secret123")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuth_RegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register("Ana", "ana@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Register("Other", "ana@example.com", "different")
	require.Error(t, err)
}
