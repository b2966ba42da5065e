package application

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

func newTestAuthService(t *testing.T, repo *fakeRepo, ttl time.Duration) *AuthService {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	tokens, err := helpers.NewTokenManager("test-secret", ttl)
	require.NoError(t, err)
	users := NewUserService(repo, logger, bcrypt.MinCost)
	return NewAuthService(users, tokens, logger)
}

func TestRegister_IssuesToken(t *testing.T) {
	svc := newTestAuthService(t, newFakeRepo(), time.Hour)

	res, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.True(t, res.ExpiresAt.After(time.Now()))

	claims, err := svc.Tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, "jane.doe@example.com", claims.Email)
}

func TestLogin_IssuesToken(t *testing.T) {
	svc := newTestAuthService(t, newFakeRepo(), time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	res, err := svc.Login(ctx, "jane.doe@example.com", "Xk9!mQr2#z")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Login(ctx, "jane.doe@example.com", "wrong")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestRefreshToken_IssuesFreshToken(t *testing.T) {
	svc := newTestAuthService(t, newFakeRepo(), time.Hour)
	ctx := context.Background()

	reg, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	// iat has second granularity; wait for a tick so the reissued token differs.
	time.Sleep(1100 * time.Millisecond)

	res, err := svc.RefreshToken(ctx, reg.Token)
	require.NoError(t, err)
	assert.NotEqual(t, reg.Token, res.Token)
	assert.True(t, res.ExpiresAt.After(reg.ExpiresAt))
	assert.Equal(t, reg.User.ID, res.User.ID)
}

func TestRefreshToken_ExpiredCannotRefresh(t *testing.T) {
	repo := newFakeRepo()
	short := newTestAuthService(t, repo, time.Millisecond)
	ctx := context.Background()

	reg, err := short.Register(ctx, validInput())
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	_, err = short.RefreshToken(ctx, reg.Token)
	assert.ErrorIs(t, err, helpers.ErrTokenExpired)
}

func TestRefreshToken_DeactivatedUser(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestAuthService(t, repo, time.Hour)
	ctx := context.Background()

	reg, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, svc.Users.DeleteUser(ctx, reg.User.ID))

	// The token still verifies, but the account check rejects the refresh.
	_, err = svc.RefreshToken(ctx, reg.Token)
	assert.ErrorIs(t, err, apperr.ErrAccountDeactivated)
}

func TestRefreshToken_Tampered(t *testing.T) {
	svc := newTestAuthService(t, newFakeRepo(), time.Hour)
	ctx := context.Background()

	reg, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.RefreshToken(ctx, reg.Token+"x")
	assert.ErrorIs(t, err, helpers.ErrTokenSignatureInvalid)
}

func TestGetTokenInfo_DecodesWithoutVerification(t *testing.T) {
	svc := newTestAuthService(t, newFakeRepo(), time.Hour)
	ctx := context.Background()

	reg, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	info, err := svc.GetTokenInfo(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, info.UserID)
	assert.Equal(t, "jane.doe@example.com", info.Email)
	assert.WithinDuration(t, reg.ExpiresAt, info.ExpiresAt, time.Second)

	// Garbage still fails to decode.
	_, err = svc.GetTokenInfo("not-a-token")
	assert.Error(t, err)
}

func TestAuthChangePassword_StrengthGate(t *testing.T) {
	svc := newTestAuthService(t, newFakeRepo(), time.Hour)
	ctx := context.Background()

	reg, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, reg.User.ID, "Xk9!mQr2#z", "weak")
	assert.ErrorIs(t, err, apperr.ErrWeakPassword)

	err = svc.ChangePassword(ctx, reg.User.ID, "Xk9!mQr2#z", "Nw8!pQr3#y")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "jane.doe@example.com", "Nw8!pQr3#y")
	assert.NoError(t, err)
}

func TestValidatePasswordStrength(t *testing.T) {
	svc := newTestAuthService(t, newFakeRepo(), time.Hour)

	res := svc.ValidatePasswordStrength("Xk9!mQr2#z")
	assert.True(t, res.Valid)
	assert.Equal(t, 5, res.Score)

	res = svc.ValidatePasswordStrength("password")
	assert.False(t, res.Valid)
}
