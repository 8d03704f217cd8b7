package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

func TestManager_GenerateAndParse(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)

	pair, err := m.GenerateToken(7, "yk_007", "王药师")
	require.NoError(t, err)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	claims, err := m.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.OperatorID)
	assert.Equal(t, "yk_007", claims.Username)
	assert.Equal(t, "王药师", claims.Name)

	refreshed, err := m.RefreshAccessToken(pair.RefreshToken)
	require.NoError(t, err)
	claims, err = m.ParseToken(refreshed)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.OperatorID)
}

func TestManager_ParseInvalid(t *testing.T) {
	m := NewManager("test-secret", time.Hour, time.Hour)

	_, err := m.ParseToken("not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	other := NewManager("other-secret", time.Hour, time.Hour)
	pair, err := other.GenerateToken(1, "a", "b")
	require.NoError(t, err)
	_, err = m.ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "签名密钥不同")
}

func TestManager_ParseExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, time.Hour)

	pair, err := m.GenerateToken(1, "a", "b")
	require.NoError(t, err)

	_, err = m.ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}
