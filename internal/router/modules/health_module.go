package modules

import (
	"expvar"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-account-service/pkg/response"
)

// HealthModule exposes a liveness endpoint and expvar process metrics.
type HealthModule struct {
	AppName string
}

func NewHealthModule(appName string) *HealthModule {
	return &HealthModule{AppName: appName}
}

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", func(c *gin.Context) {
		response.Success[any](c, http.StatusOK, gin.H{"app": m.AppName, "status": "ok"}, "healthy", nil)
	})
	rg.GET("/debug/vars", gin.WrapH(expvar.Handler()))
}
