package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.GenerateToken("user-1", "alice")
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	token, err := NewManager("one", time.Hour).GenerateToken("user-1", "alice")
	require.NoError(t, err)

	_, err = NewManager("two", time.Hour).VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_Expired(t *testing.T) {
	m := NewManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.GenerateToken("user-1", "alice")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	exp, err := m.ExpiresAt(token)
	require.NoError(t, err)
	assert.True(t, exp.Before(time.Now()))
}

func TestManager_Garbage(t *testing.T) {
	m := NewManager("secret", time.Hour)
	_, err := m.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ExpiresAt("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
