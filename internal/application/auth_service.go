package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/internal/domain/entity"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

// AuthService orchestrates login, registration, token lifecycle, and password
// operations by combining the user service with the token manager.
type AuthService struct {
	Users  *UserService
	Tokens *helpers.TokenManager
	Logger *logrus.Logger
}

func NewAuthService(users *UserService, tokens *helpers.TokenManager, logger *logrus.Logger) *AuthService {
	return &AuthService{Users: users, Tokens: tokens, Logger: logger}
}

// AuthResult is the session payload returned by login, register, and refresh.
type AuthResult struct {
	User      *entity.UserResponse `json:"user"`
	Token     string               `json:"token"`
	ExpiresAt time.Time            `json:"expires_at"`
	TokenType string               `json:"token_type"`
}

// TokenInfo is the unverified introspection of a token. Informational only.
type TokenInfo struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *AuthService) issueFor(u *entity.UserResponse) (*AuthResult, error) {
	token, exp, err := s.Tokens.Generate(u.ID, u.Email)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("token generation failed")
		return nil, err
	}
	return &AuthResult{User: u, Token: token, ExpiresAt: exp, TokenType: "Bearer"}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.Users.AuthenticateUser(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issueFor(u)
}

// Register creates the account and issues a session token directly;
// registration implies an authenticated session.
func (s *AuthService) Register(ctx context.Context, in CreateUserInput) (*AuthResult, error) {
	u, err := s.Users.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.issueFor(u)
}

// RefreshToken verifies the presented token, re-checks that the user is still
// active, then issues a brand-new token with a fresh TTL. An expired token
// cannot be refreshed. The active check runs after verification and before
// reissue, so a user deactivated in between is rejected.
func (s *AuthService) RefreshToken(ctx context.Context, token string) (*AuthResult, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrAccountDeactivated
		}
		return nil, err
	}
	return s.issueFor(u)
}

// GetTokenInfo decodes a token without signature verification. Never use the
// result to authorize anything.
func (s *AuthService) GetTokenInfo(token string) (*TokenInfo, error) {
	claims, err := s.Tokens.ParseUnverified(token)
	if err != nil {
		return nil, err
	}
	info := &TokenInfo{UserID: claims.UserID, Email: claims.Email}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// Logout is advisory: the token stays valid until expiry because no
// server-side revocation store exists.
func (s *AuthService) Logout(userID string) {
	s.Logger.WithField("user_id", userID).Info("user logged out")
}

// ChangePassword requires the caller's own identity, verifies the current
// password, and enforces the strength policy on the new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if res := helpers.EvaluatePassword(newPassword); !res.Valid {
		return apperr.ErrWeakPassword
	}
	return s.Users.ChangePassword(ctx, userID, currentPassword, newPassword)
}

func (s *AuthService) ValidatePasswordStrength(password string) helpers.StrengthResult {
	return helpers.EvaluatePassword(password)
}
