package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/user-account-service/internal/interface/http"
	"github.com/oksasatya/user-account-service/internal/interface/middleware"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

// UserModule wires profile and account management routes. Every route needs a
// valid token; routes addressing a specific account additionally require the
// caller to own it.
type UserModule struct {
	Handler *handlers.UserHandler
	Tokens  *helpers.TokenManager
}

func NewUserModule(h *handlers.UserHandler, tm *helpers.TokenManager) *UserModule {
	return &UserModule{Handler: h, Tokens: tm}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.RequireAuth(m.Tokens))
	{
		auth.GET("/users/me", m.Handler.Me)
		auth.GET("/users", m.Handler.List)
		auth.GET("/users/stats", m.Handler.Stats)

		owned := auth.Group("/")
		owned.Use(middleware.RequireOwnership("id"))
		{
			owned.GET("/users/:id", m.Handler.Get)
			owned.PUT("/users/:id", m.Handler.Update)
			owned.DELETE("/users/:id", m.Handler.Delete)
		}
	}
}
