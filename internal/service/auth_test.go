package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmstore/backend/internal/models"
	"github.com/lmstore/backend/internal/tokens"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	return &AuthService{
		Repo:      newTestRepo(t),
		JWTSecret: []byte("test-jwt-secret"),
	}
}

func TestValidatePassword(t *testing.T) {
	svc := newTestAuthService(t)

	tests := []struct {
		name       string
		password   string
		violations int
	}{
		{name: "acceptable", password: "Password1", violations: 0},
		{name: "too short", password: "Pa1", violations: 1},
		{name: "no uppercase", password: "password1", violations: 1},
		{name: "no lowercase", password: "PASSWORD1", violations: 1},
		{name: "no digit", password: "Passwords", violations: 1},
		{name: "empty", password: "", violations: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, svc.ValidatePassword(tt.password), tt.violations)
		})
	}
}

func TestRegister(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "Password1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "user", user.Role)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "Password1", user.PasswordHash)

	_, err = svc.Register(ctx, "alice", "Password1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "bob", "weak")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Password1")
	require.NoError(t, err)

	result, err := svc.Login(ctx, "alice", "Password1", "test-device")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	claims, err := tokens.AccessClaimsFromToken(result.AccessToken, svc.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, tokens.TypeAccess, claims.TokenType)
	assert.WithinDuration(t, time.Now().Add(AccessTokenTTL), claims.ExpiresAt.Time, 5*time.Second)

	_, err = svc.Login(ctx, "alice", "wrong-password", "test-device")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(ctx, "nobody", "Password1", "test-device")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveUser(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "Password1")
	require.NoError(t, err)

	result, err := svc.Login(ctx, "alice", "Password1", "")
	require.NoError(t, err)

	user, err := svc.ResolveUser(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.ResolveUser(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefreshRotationSingleUse(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Password1")
	require.NoError(t, err)

	login, err := svc.Login(ctx, "alice", "Password1", "")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, login.RefreshToken, "")
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// The consumed token never validates again.
	_, err = svc.VerifyRefreshToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Replaying the consumed token fails; exactly one rotation succeeds.
	_, err = svc.Refresh(ctx, login.RefreshToken, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// The fresh token works.
	userID, err := svc.VerifyRefreshToken(ctx, rotated.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, rotated.User.ID, userID)
}

func TestVerifyRefreshTokenExpired(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	user := createTestUser(t, svc.Repo, "alice", "user")

	record := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: HashToken("stale-token"),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, svc.Repo.CreateRefreshToken(ctx, &record))

	_, err := svc.VerifyRefreshToken(ctx, "stale-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRevokeRefreshTokenIdempotent(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Password1")
	require.NoError(t, err)

	login, err := svc.Login(ctx, "alice", "Password1", "")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeRefreshToken(ctx, login.RefreshToken))

	_, err = svc.VerifyRefreshToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Revoking an already-revoked token is a no-op, not an error.
	require.NoError(t, svc.RevokeRefreshToken(ctx, login.RefreshToken))
	require.NoError(t, svc.RevokeRefreshToken(ctx, ""))
}

func TestLoginSupportsMultipleDevices(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Password1")
	require.NoError(t, err)

	first, err := svc.Login(ctx, "alice", "Password1", "phone")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "alice", "Password1", "laptop")
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	_, err = svc.VerifyRefreshToken(ctx, second.RefreshToken)
	require.NoError(t, err)

	// Revoking one device leaves the other valid.
	require.NoError(t, svc.RevokeRefreshToken(ctx, first.RefreshToken))
	_, err = svc.VerifyRefreshToken(ctx, second.RefreshToken)
	require.NoError(t, err)
}
