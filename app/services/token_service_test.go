package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, ttl time.Duration) TokenService {
	t.Helper()
	svc, err := NewTokenService(ttl, "ixian-server", "ixian-clients", "test-secret-key-32-bytes-minimum!")
	require.NoError(t, err)
	return svc
}

func TestTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(time.Hour, "ixian-server", "ixian-clients", "")
	require.Error(t, err)
}

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	token, err := svc.GenerateDeviceToken("device-abc-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "device-abc-123", claims.DeviceID)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt, time.Minute)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestTokenServiceUniqueTokenIDs(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	first, err := svc.GenerateDeviceToken("device-abc-123")
	require.NoError(t, err)
	second, err := svc.GenerateDeviceToken("device-abc-123")
	require.NoError(t, err)

	c1, err := svc.ValidateToken(first)
	require.NoError(t, err)
	c2, err := svc.ValidateToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, c1.TokenID, c2.TokenID)
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute)

	token, err := svc.GenerateDeviceToken("device-abc-123")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenExpired))
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	for _, tc := range []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a jwt", "definitely-not-a-jwt"},
		{"truncated", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tc.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTokenInvalid))
		})
	}
}

func TestTokenServiceRejectsForeignSignature(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	other, err := NewTokenService(time.Hour, "ixian-server", "ixian-clients", "a-completely-different-secret-key")
	require.NoError(t, err)

	token, err := other.GenerateDeviceToken("device-abc-123")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenInvalid))
}

func TestTokenServiceRejectsWrongAudience(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	other, err := NewTokenService(time.Hour, "ixian-server", "someone-else", "test-secret-key-32-bytes-minimum!")
	require.NoError(t, err)

	token, err := other.GenerateDeviceToken("device-abc-123")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenInvalid))
}
