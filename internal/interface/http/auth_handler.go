package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-service/config"
	"github.com/oksasatya/user-account-service/internal/application"
	"github.com/oksasatya/user-account-service/internal/domain/entity"
	"github.com/oksasatya/user-account-service/internal/interface/middleware"
	"github.com/oksasatya/user-account-service/pkg/helpers"
	"github.com/oksasatya/user-account-service/pkg/mailer"
	"github.com/oksasatya/user-account-service/pkg/response"
	"github.com/oksasatya/user-account-service/pkg/validation"
)

type AuthHandler struct {
	Auth    *application.AuthService
	Users   *application.UserService
	RDB     *redis.Client
	Pub     *helpers.RabbitPublisher
	Cfg     *config.Config
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(auth *application.AuthService, users *application.UserService, rdb *redis.Client, pub *helpers.RabbitPublisher, cfg *config.Config, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		Auth:    auth,
		Users:   users,
		RDB:     rdb,
		Pub:     pub,
		Cfg:     cfg,
		Logger:  logger,
		Cookies: helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
	}
}

// Redis key helpers
func keyVerifyToken(t string) string { return "email:verify:token:" + t }
func keyResetToken(t string) string  { return "pwd:reset:token:" + t }

// authLog returns an entry carrying the resolved client IP for auth events.
func (h *AuthHandler) authLog(c *gin.Context) *logrus.Entry {
	return h.Logger.WithField("client_ip", c.GetString(middleware.CtxRealIPKey))
}

func genToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,pwd"`
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	DateOfBirth string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Gender      string `json:"gender" binding:"omitempty,gender"`
	Phone       string `json:"phone" binding:"omitempty,phone"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	Token string `json:"token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,pwd"`
}

type passwordStrengthRequest struct {
	Password string `json:"password" binding:"required"`
}

func (r *registerRequest) toInput() (application.CreateUserInput, error) {
	in := application.CreateUserInput{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
	if r.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", r.DateOfBirth)
		if err != nil {
			return in, err
		}
		in.DateOfBirth = &dob
	}
	if r.Gender != "" {
		g := entity.Gender(r.Gender)
		in.Gender = &g
	}
	if r.Phone != "" {
		in.Phone = &r.Phone
	}
	return in, nil
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	in, err := req.toInput()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", map[string]string{"date_of_birth": "must be a valid date"})
		return
	}
	res, err := h.Auth.Register(c.Request.Context(), in)
	if err != nil {
		status, msg := statusFor(err)
		response.Error(c, status, msg, nil)
		return
	}
	h.authLog(c).WithField("user_id", res.User.ID).Info("registered")
	h.Cookies.SetAccessToken(c, res.Token, res.ExpiresAt)
	response.Success(c, http.StatusCreated, res, "registration successful", nil)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.authLog(c).WithField("email", req.Email).Warn("login rejected")
		status, msg := statusFor(err)
		response.Error(c, status, msg, nil)
		return
	}
	h.authLog(c).WithField("user_id", res.User.ID).Info("login")
	h.Cookies.SetAccessToken(c, res.Token, res.ExpiresAt)
	response.Success(c, http.StatusOK, res, "login successful", nil)
}

// Refresh POST /api/auth/refresh
// Accepts the token from the JSON body or falls back to the access cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	token := req.Token
	if token == "" {
		token, _ = c.Cookie("access_token")
	}
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "missing token", nil)
		return
	}
	res, err := h.Auth.RefreshToken(c.Request.Context(), token)
	if err != nil {
		status, msg := statusFor(err)
		response.Error(c, status, msg, nil)
		return
	}
	h.Cookies.SetAccessToken(c, res.Token, res.ExpiresAt)
	response.Success(c, http.StatusOK, res, "token refreshed", nil)
}

// Logout POST /api/auth/logout (auth required)
// Advisory only: clears the cookie, the token itself expires on its own.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Auth.Logout(c.GetString(middleware.CtxUserIDKey))
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// TokenInfo GET /api/auth/token/info (auth required)
func (h *AuthHandler) TokenInfo(c *gin.Context) {
	token := ""
	if auth := c.GetHeader("Authorization"); len(auth) > 7 {
		token = auth[7:]
	}
	if token == "" {
		token, _ = c.Cookie("access_token")
	}
	info, err := h.Auth.GetTokenInfo(token)
	if err != nil {
		status, msg := statusFor(err)
		response.Error(c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, info, "token info", nil)
}

// ChangePassword POST /api/auth/password/change (auth required)
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Auth.ChangePassword(c.Request.Context(), uid, req.CurrentPassword, req.NewPassword); err != nil {
		status, msg := statusFor(err)
		response.Error(c, status, msg, nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"changed": true}, "password changed", nil)
}

// PasswordStrength POST /api/auth/password/strength
func (h *AuthHandler) PasswordStrength(c *gin.Context) {
	var req passwordStrengthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	response.Success(c, http.StatusOK, h.Auth.ValidatePasswordStrength(req.Password), "password strength", nil)
}

func (h *AuthHandler) enqueueEmail(c *gin.Context, job mailer.EmailJob) {
	if h.Pub == nil || !h.Cfg.MailSendEnabled {
		return
	}
	if err := h.Pub.PublishJSON(c.Request.Context(), job); err != nil {
		h.Logger.WithError(err).WithField("to", job.To).Warn("enqueue email failed")
	}
}

// VerifyInit POST /api/auth/verify/init (auth required)
// Issues a verification token and queues the verification email. Idempotent
// when the account is already verified.
func (h *AuthHandler) VerifyInit(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)

	verified, err := h.Users.IsVerified(c.Request.Context(), uid)
	if err != nil {
		status, msg := statusFor(err)
		response.Error(c, status, msg, nil)
		return
	}
	if verified {
		response.Success[any](c, http.StatusOK, gin.H{"already_verified": true}, "already verified", nil)
		return
	}

	tok, err := genToken(32)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "token generation failed", nil)
		return
	}
	if err := h.RDB.Set(c.Request.Context(), keyVerifyToken(tok), uid, 24*time.Hour).Err(); err != nil {
		h.Logger.WithError(err).Error("store verify token failed")
		response.Error(c, http.StatusInternalServerError, "verification unavailable", nil)
		return
	}
	link := h.Cfg.VerifyEmailURL + "?token=" + tok

	if u, err := h.Users.GetUser(c.Request.Context(), uid); err == nil {
		h.enqueueEmail(c, mailer.EmailJob{
			To:       u.Email,
			Template: mailer.TemplateVerifyEmail,
			Data: map[string]any{
				"Name":      u.FullName,
				"Email":     u.Email,
				"Link":      link,
				"ExpiresIn": "24 hours",
			},
		})
	}

	response.Success[any](c, http.StatusOK, gin.H{"verify_link": link}, "verification link", nil)
}

// VerifyConfirm POST /api/auth/verify/confirm {token}
func (h *AuthHandler) VerifyConfirm(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid, err := h.RDB.Get(c.Request.Context(), keyVerifyToken(req.Token)).Result()
	if err != nil || uid == "" {
		response.Error(c, http.StatusBadRequest, "invalid or expired token", nil)
		return
	}
	if err := h.Users.VerifyEmail(c.Request.Context(), uid); err != nil {
		status, msg := statusFor(err)
		response.Error(c, status, msg, nil)
		return
	}
	h.RDB.Del(c.Request.Context(), keyVerifyToken(req.Token))
	response.Success[any](c, http.StatusOK, gin.H{"verified": true}, "email verified", nil)
}

// ResetInit POST /api/auth/reset/init {email}
// Always returns OK to avoid account enumeration.
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Users.GetUserByEmail(c.Request.Context(), req.Email)
	if err == nil {
		tok, terr := genToken(32)
		if terr != nil {
			response.Error(c, http.StatusInternalServerError, "token generation failed", nil)
			return
		}
		if rerr := h.RDB.Set(c.Request.Context(), keyResetToken(tok), u.ID, 30*time.Minute).Err(); rerr == nil {
			link := h.Cfg.ResetPasswordURL + "?token=" + tok
			h.enqueueEmail(c, mailer.EmailJob{
				To:       u.Email,
				Template: mailer.TemplateResetPassword,
				Data: map[string]any{
					"Name":      u.FullName,
					"Email":     u.Email,
					"Link":      link,
					"ExpiresIn": "30 minutes",
				},
			})
		}
	} else {
		h.authLog(c).WithField("email", req.Email).Info("password reset requested for unknown email")
	}

	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "if the email exists, a reset link has been sent", nil)
}

// ResetConfirm POST /api/auth/reset/confirm {token, new_password}
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,pwd"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if res := h.Auth.ValidatePasswordStrength(req.NewPassword); !res.Valid {
		response.Error(c, http.StatusBadRequest, "password does not meet strength requirements", res.Suggestions)
		return
	}
	uid, err := h.RDB.Get(c.Request.Context(), keyResetToken(req.Token)).Result()
	if err != nil || uid == "" {
		response.Error(c, http.StatusBadRequest, "invalid or expired token", nil)
		return
	}
	if err := h.Users.ResetPassword(c.Request.Context(), uid, req.NewPassword); err != nil {
		status, msg := statusFor(err)
		response.Error(c, status, msg, nil)
		return
	}
	h.RDB.Del(c.Request.Context(), keyResetToken(req.Token))
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}
