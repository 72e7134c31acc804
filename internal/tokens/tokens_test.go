package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	exp := time.Now().Add(15 * time.Minute)

	token, err := NewAccessToken(secret, 42, "admin", exp)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := AccessClaimsFromToken(token, secret)
	require.NoError(t, err)

	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, TypeAccess, claims.TokenType)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := NewAccessToken([]byte("secret-a"), 1, "user", time.Now().Add(time.Minute))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(token, []byte("secret-b"))
	assert.Error(t, err)
}

func TestAccessTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := NewAccessToken(secret, 1, "user", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(token, secret)
	assert.Error(t, err)
}

func TestAccessTokenGarbage(t *testing.T) {
	_, err := AccessClaimsFromToken("not-a-jwt", []byte("test-secret"))
	assert.Error(t, err)
}
