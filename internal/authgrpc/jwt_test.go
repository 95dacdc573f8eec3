package authgrpc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignerMintVerifyRoundTrip(t *testing.T) {
	s := newSigner("a-very-long-test-secret-that-is-256-bits")
	tok, err := s.mint("42", "jti-1", "alice", "Alice", "player", AccessTokenTTL, audienceAccess)
	require.NoError(t, err)

	claims, err := s.verify(tok, audienceAccess)
	require.NoError(t, err)
	require.Equal(t, "42", claims.Subject)
	require.Equal(t, "jti-1", claims.ID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "Alice", claims.Nickname)
}

func TestSignerRejectsWrongAudience(t *testing.T) {
	s := newSigner("a-very-long-test-secret-that-is-256-bits")
	tok, err := s.mint("42", "jti-1", "alice", "Alice", "player", RefreshTokenTTL, audienceRefresh)
	require.NoError(t, err)

	_, err = s.verify(tok, audienceAccess)
	require.ErrorIs(t, err, ErrWrongTokenType)
}

func TestSignerRejectsExpiredToken(t *testing.T) {
	s := newSigner("a-very-long-test-secret-that-is-256-bits")
	tok, err := s.mint("42", "jti-1", "alice", "Alice", "player", -time.Minute, audienceAccess)
	require.NoError(t, err)

	_, err = s.verify(tok, audienceAccess)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignerRejectsTamperedSecret(t *testing.T) {
	s := newSigner("a-very-long-test-secret-that-is-256-bits")
	tok, err := s.mint("42", "jti-1", "alice", "Alice", "player", AccessTokenTTL, audienceAccess)
	require.NoError(t, err)

	other := newSigner("a-completely-different-test-secret-val")
	_, err = other.verify(tok, audienceAccess)
	require.ErrorIs(t, err, ErrTokenInvalid)
}
