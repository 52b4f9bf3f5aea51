package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", 15*time.Minute, 72*time.Hour)

	token, issued, err := m.GenerateAccessToken("665f1c2b9d1e8a0012345678", "ada@example.com", "ada")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "665f1c2b9d1e8a0012345678", claims.UserID)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, issued.ID, claims.ID)
	assert.NotEmpty(t, claims.ID)
}

func TestRefreshTokenIsNotAccessToken(t *testing.T) {
	m := NewManager("test-secret", 15*time.Minute, 72*time.Hour)

	token, _, err := m.GenerateRefreshToken("665f1c2b9d1e8a0012345678")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidTokenType)

	claims, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
}

func TestValidateTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	issuer := NewManager("secret-a", time.Minute, time.Hour)
	other := NewManager("secret-b", time.Minute, time.Hour)

	token, _, err := issuer.GenerateAccessToken("u1", "", "")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	expired := NewManager("secret-a", time.Minute, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := expired.GenerateAccessToken("u1", "", "")
	require.NoError(t, err)

	_, err = issuer.ValidateToken(stale)
	assert.Error(t, err)
}
