package authgrpc

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	store := NewMemStore()
	store.AddUser("1", "alice", "Alice", HashToken("hunter2"))
	return NewService("a-very-long-test-secret-that-is-256-bits", store, nil, zerolog.Nop())
}

func TestAuthenticateSuccess(t *testing.T) {
	svc := newTestService()
	pair, err := svc.Authenticate(context.Background(), &LoginRequest{Username: "alice", Password: "hunter2"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	playerID, nickname, err := svc.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int64(1), playerID)
	require.Equal(t, "Alice", nickname)
}

func TestAuthenticateBadPassword(t *testing.T) {
	svc := newTestService()
	_, err := svc.Authenticate(context.Background(), &LoginRequest{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc := newTestService()
	pair, err := svc.Authenticate(context.Background(), &LoginRequest{Username: "alice", Password: "hunter2"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), &RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, pair.AccessToken, rotated.AccessToken)

	// the old refresh token must now be rejected (rotation-on-use)
	_, err = svc.Refresh(context.Background(), &RefreshRequest{RefreshToken: pair.RefreshToken})
	require.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newTestService()
	pair, err := svc.Authenticate(context.Background(), &LoginRequest{Username: "alice", Password: "hunter2"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), &RefreshRequest{RefreshToken: pair.AccessToken})
	require.ErrorIs(t, err, ErrWrongTokenType)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := newTestService()
	pair, err := svc.Authenticate(context.Background(), &LoginRequest{Username: "alice", Password: "hunter2"})
	require.NoError(t, err)

	ack, err := svc.Logout(context.Background(), &LogoutRequest{AccessToken: pair.AccessToken})
	require.NoError(t, err)
	require.True(t, ack.Success)

	_, err = svc.Refresh(context.Background(), &RefreshRequest{RefreshToken: pair.RefreshToken})
	require.ErrorIs(t, err, ErrTokenRevoked)
}
