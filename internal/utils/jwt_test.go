package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyas/kumbhmela-leads/config"
	"github.com/shreyas/kumbhmela-leads/internal/models"
)

func newTestJWT(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(config.JWTConfig{Secret: "test-secret", Issuer: "kumbhmela-leads", AccessTokenExpiry: 15, RefreshTokenExpiry: 1})
	require.NoError(t, err)
	return svc
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestJWT(t)
	member := &models.TeamMember{ID: "m1", Email: "a@b.in", Name: "Asha", Role: models.RoleManager}

	token, err := svc.GenerateAccessToken(member, "s1")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "m1", claims.Subject)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, models.RoleManager, claims.Role)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	svc := newTestJWT(t)

	refresh, err := svc.GenerateRefreshToken("m1", "s1")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.ID)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := newTestJWT(t)
	member := &models.TeamMember{ID: "m1", Role: models.RoleAdmin}

	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := svc.GenerateAccessToken(member, "s1")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestWrongSecretRejected(t *testing.T) {
	svc := newTestJWT(t)
	other, err := NewJWTService(config.JWTConfig{Secret: "other", Issuer: "kumbhmela-leads"})
	require.NoError(t, err)

	token, err := other.GenerateAccessToken(&models.TeamMember{ID: "m1"}, "s1")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestEmptySecret(t *testing.T) {
	_, err := NewJWTService(config.JWTConfig{})
	assert.Error(t, err)
}

func TestHashTokenStable(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}
