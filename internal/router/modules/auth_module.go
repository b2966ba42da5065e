package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/user-account-service/internal/interface/http"
	"github.com/oksasatya/user-account-service/internal/interface/middleware"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

// AuthModule wires authentication and token lifecycle routes.
// Public: register, login, refresh, password strength, verify/reset confirm.
// Protected: logout, token info, password change, verify init.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Tokens  *helpers.TokenManager
}

func NewAuthModule(h *handlers.AuthHandler, tm *helpers.TokenManager) *AuthModule {
	return &AuthModule{Handler: h, Tokens: tm}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/register", m.Handler.Register)
	rg.POST("/auth/login", m.Handler.Login)
	rg.POST("/auth/refresh", m.Handler.Refresh)
	rg.POST("/auth/password/strength", m.Handler.PasswordStrength)
	rg.POST("/auth/verify/confirm", m.Handler.VerifyConfirm)
	rg.POST("/auth/reset/init", m.Handler.ResetInit)
	rg.POST("/auth/reset/confirm", m.Handler.ResetConfirm)

	auth := rg.Group("/")
	auth.Use(middleware.RequireAuth(m.Tokens))
	{
		auth.POST("/auth/logout", m.Handler.Logout)
		auth.GET("/auth/token/info", m.Handler.TokenInfo)
		auth.POST("/auth/password/change", m.Handler.ChangePassword)
		auth.POST("/auth/verify/init", m.Handler.VerifyInit)
	}
}
