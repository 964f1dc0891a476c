package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/config"
	"github.com/shreyas/kumbhmela-leads/internal/cache"
	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/utils"
)

type authFixture struct {
	members  *memMemberStore
	sessions *memSessionStore
	perms    *memPermissionStore
	svc      *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	jwt, err := utils.NewJWTService(config.JWTConfig{Secret: "test-secret", Issuer: "kumbhmela-leads", AccessTokenExpiry: 15, RefreshTokenExpiry: 1})
	require.NoError(t, err)

	f := &authFixture{members: newMemMemberStore(), sessions: newMemSessionStore(), perms: newMemPermissionStore()}
	// sessions are checked against the wall clock used by the JWT service
	deps := Deps{Log: zap.NewNop(), Now: time.Now}
	permSvc := NewPermissionService(f.perms, deps)
	f.svc = NewAuthService(f.members, f.sessions, permSvc, jwt, deps)
	return f
}

func (f *authFixture) member(t *testing.T, email, role string) *models.TeamMember {
	t.Helper()
	m, err := f.svc.CreateMember(context.Background(), CreateMemberRequest{Email: email, Password: "correct-horse", Name: "Asha", Role: role})
	require.NoError(t, err)
	return m
}

func TestSignInAuthenticateSignOut(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	m := f.member(t, "asha@shreyas.in", models.RoleSalesRep)
	assert.NotEqual(t, "correct-horse", m.PasswordHash)

	member, tokens, err := f.svc.SignIn(ctx, "asha@shreyas.in", "correct-horse", "10.0.0.1", "test")
	require.NoError(t, err)
	assert.Equal(t, m.ID, member.ID)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, 900, tokens.ExpiresIn)

	p, err := f.svc.Authenticate(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, m.ID, p.UserID)
	assert.True(t, models.HasFeature(p.Features, models.FeatureLeadsWrite))
	assert.False(t, models.HasFeature(p.Features, models.FeatureOrdersApprove))

	session, err := f.svc.Session(ctx, *p)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, session.RefreshTokenHash)
	assert.Equal(t, utils.HashToken(tokens.RefreshToken), session.RefreshTokenHash)

	require.NoError(t, f.svc.SignOut(ctx, *p))
	_, err = f.svc.Authenticate(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrSessionInvalid)
	_, err = f.svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSignInFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	m := f.member(t, "asha@shreyas.in", models.RoleSalesRep)

	_, _, err := f.svc.SignIn(ctx, "asha@shreyas.in", "wrong", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = f.svc.SignIn(ctx, "nobody@shreyas.in", "correct-horse", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	f.members.setActive(m.ID, false)
	_, _, err = f.svc.SignIn(ctx, "asha@shreyas.in", "correct-horse", "", "")
	assert.ErrorIs(t, err, ErrInactiveAccount)
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.member(t, "asha@shreyas.in", models.RoleManager)

	_, tokens, err := f.svc.SignIn(ctx, "asha@shreyas.in", "correct-horse", "", "")
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.RefreshToken, refreshed.RefreshToken)

	p, err := f.svc.Authenticate(ctx, refreshed.AccessToken)
	require.NoError(t, err)
	assert.True(t, models.HasFeature(p.Features, models.FeatureOrdersApprove))

	// an access token is not accepted as a refresh token
	_, err = f.svc.Refresh(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestCreateMemberValidation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.member(t, "asha@shreyas.in", models.RoleAdmin)

	_, err := f.svc.CreateMember(ctx, CreateMemberRequest{Email: "ASHA@shreyas.in", Password: "correct-horse", Name: "Dup", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateMember(ctx, CreateMemberRequest{Email: "x@shreyas.in", Password: "correct-horse", Name: "X", Role: "intern"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateMember(ctx, CreateMemberRequest{Email: "y@shreyas.in", Password: "short", Name: "Y", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.EnsureAdmin(ctx, "admin@shreyas.in", "bootstrap-pass", "Admin"))
	require.NoError(t, f.svc.EnsureAdmin(ctx, "admin@shreyas.in", "bootstrap-pass", "Admin"))
	all, _ := f.members.List(ctx, false)
	assert.Len(t, all, 1)
	assert.Equal(t, models.RoleAdmin, all[0].Role)
}

func TestFeaturesForRoleStoredAndCached(t *testing.T) {
	perms := newMemPermissionStore()
	queries := cache.NewQueryCache(cache.NewMemory(), time.Minute, 0, zap.NewNop())
	deps := testDeps(nil)
	deps.Queries = queries
	svc := NewPermissionService(perms, deps)
	ctx := context.Background()

	features, err := svc.FeaturesForRole(ctx, models.RoleOperation)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFeatures(models.RoleOperation), features)

	_, err = svc.FeaturesForRole(ctx, models.RoleOperation)
	require.NoError(t, err)
	assert.Equal(t, 1, perms.reads)

	_, err = svc.SetFeatures(ctx, rep, models.RoleOperation, []string{"inventory:*"})
	require.NoError(t, err)
	assert.True(t, svc.HasFeature(ctx, models.RoleOperation, models.FeatureInventoryWrite))
	assert.False(t, svc.HasFeature(ctx, models.RoleOperation, models.FeatureLeadsRead))
	assert.Equal(t, 2, perms.reads)

	_, err = svc.SetFeatures(ctx, rep, "intern", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
