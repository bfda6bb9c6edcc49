// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/brasil-no-mundo/internal/config"
	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/store"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessTokenExpire:  time.Hour,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "test-issuer",
		Audience:           "test-audience",
	}
}

func newTestService(t *testing.T) (*Service, *store.Store, *JWTManager) {
	t.Helper()

	jwtManager, err := NewJWTManager(testJWTConfig())
	require.NoError(t, err)

	st := store.New()
	return NewService(NewMemoryRepository(), jwtManager, st, nil), st, jwtManager
}

func register(t *testing.T, svc *Service, email string) *Session {
	t.Helper()

	session, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Mariana Silva",
		Email:    email,
		Password: "saudade123",
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	return session
}

func TestRegister_CreatesFreeUser(t *testing.T) {
	svc, st, _ := newTestService(t)

	session := register(t, svc, "Mariana@Example.com")

	assert.Equal(t, domain.RoleUser, session.User.Role)
	assert.Equal(t, domain.TierFree, session.User.Tier)
	assert.Equal(t, "mariana@example.com", session.User.Email)
	assert.Contains(t, session.User.Avatar, "Mariana%20Silva")
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, 1, st.UserCount())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, st, _ := newTestService(t)
	register(t, svc, "dup@example.com")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Other",
		Email:    "DUP@example.com",
		Password: "another123",
	}, "", "")

	require.ErrorIs(t, err, ErrEmailExists)
	assert.Equal(t, 1, st.UserCount())
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "joao@example.com")
	ctx := context.Background()

	session, err := svc.Login(ctx, LoginRequest{
		Email:    "joao@example.com",
		Password: "saudade123",
	}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "joao@example.com", session.User.Email)

	_, err = svc.Login(ctx, LoginRequest{
		Email:    "joao@example.com",
		Password: "wrong-password",
	}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{
		Email:    "nobody@example.com",
		Password: "saudade123",
	}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyAccessToken_ResolvesCurrentRoleAndTier(t *testing.T) {
	svc, st, _ := newTestService(t)
	session := register(t, svc, "ana@example.com")

	_, err := st.UpdateUser(session.User.ID, func(u *domain.User) error {
		u.Role = domain.RoleAdmin
		u.Tier = domain.TierPro
		return nil
	})
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(context.Background(), session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, domain.TierPro, claims.Tier)
	assert.Equal(t, "Mariana Silva", claims.Name)
}

func TestVerifyAccessToken_Invalid(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := register(t, svc, "ana@example.com")
	ctx := context.Background()

	_, err := svc.VerifyAccessToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	_, err = svc.VerifyAccessToken(ctx, session.AccessToken+"x")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	other, _, _ := newTestService(t)
	_, err = other.VerifyAccessToken(ctx, session.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	svc, _, jwtManager := newTestService(t)
	session := register(t, svc, "ana@example.com")

	jwtManager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := jwtManager.CreateAccessToken(session.User)
	require.NoError(t, err)
	jwtManager.now = time.Now

	_, err = svc.VerifyAccessToken(context.Background(), token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestRefresh_RotatesAndDetectsReuse(t *testing.T) {
	svc, _, _ := newTestService(t)
	first := register(t, svc, "ana@example.com")
	ctx := context.Background()

	second, err := svc.Refresh(ctx, first.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken, "", "")
	require.ErrorIs(t, err, ErrTokenReuse)

	_, err = svc.Refresh(ctx, second.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestRefresh_UnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Refresh(context.Background(), "unknown", "", "")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := register(t, svc, "ana@example.com")
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx, session.RefreshToken))
	require.NoError(t, svc.Logout(ctx, "unknown"))
	require.NoError(t, svc.Logout(ctx, ""))

	_, err := svc.Refresh(ctx, session.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestLogoutAll_InvalidatesAccessTokens(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := register(t, svc, "ana@example.com")
	ctx := context.Background()

	require.NoError(t, svc.LogoutAll(ctx, session.User.ID))

	_, err := svc.VerifyAccessToken(ctx, session.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	sessions, err := svc.GetActiveSessions(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := register(t, svc, "ana@example.com")
	ctx := context.Background()

	err := svc.ChangePassword(ctx, session.User.ID, "wrong", "novasenha123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, session.User.ID, "saudade123", "novasenha123"))

	_, err = svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "novasenha123"}, "", "")
	assert.NoError(t, err)
}

func TestRevokeSession_OtherUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ana := register(t, svc, "ana@example.com")
	joao := register(t, svc, "joao@example.com")
	ctx := context.Background()

	sessions, err := svc.GetActiveSessions(ctx, ana.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	err = svc.RevokeSession(ctx, joao.User.ID, sessions[0].ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	require.NoError(t, svc.RevokeSession(ctx, ana.User.ID, sessions[0].ID))
}

func TestPruneExpired(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &RefreshToken{
		ID:        "old",
		TokenHash: "h1",
		ExpiresAt: time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, repo.Create(ctx, &RefreshToken{
		ID:        "fresh",
		TokenHash: "h2",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	n, err := repo.DeleteExpired(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindByHash(ctx, "h1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
