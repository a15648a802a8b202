package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *JWTManager {
	return &JWTManager{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    240 * time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager()

	tok, exp, err := m.GenerateAccessToken("u-1", "alice@example.com", "alice", "Alice Liddell")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(m.AccessTTL), exp, 5*time.Second)

	claims, err := m.ParseAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "Alice Liddell", claims.FullName)
	assert.Equal(t, "u-1", claims.Subject)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := testManager()

	tok, exp, err := m.GenerateRefreshToken("u-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(m.RefreshTTL), exp, 5*time.Second)

	claims, err := m.ParseRefreshToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	m := testManager()

	access, _, err := m.GenerateAccessToken("u-1", "a@b.c", "alice", "Alice")
	require.NoError(t, err)
	refresh, _, err := m.GenerateRefreshToken("u-1")
	require.NoError(t, err)

	_, err = m.ParseRefreshToken(access)
	assert.Error(t, err)
	_, err = m.ParseAccessToken(refresh)
	assert.Error(t, err)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	m := testManager()
	other := &JWTManager{
		AccessSecret:  []byte("some-other-secret"),
		RefreshSecret: []byte("another-other-secret"),
		AccessTTL:     m.AccessTTL,
		RefreshTTL:    m.RefreshTTL,
	}

	tok, _, err := other.GenerateAccessToken("u-1", "a@b.c", "alice", "Alice")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(tok)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := testManager()
	m.AccessTTL = -time.Minute

	tok, _, err := m.GenerateAccessToken("u-1", "a@b.c", "alice", "Alice")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(tok)
	assert.Error(t, err)
}
