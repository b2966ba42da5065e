package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-account-service/pkg/helpers"
	"github.com/oksasatya/user-account-service/pkg/response"
)

const (
	CtxUserIDKey    = "userID"
	CtxUserEmailKey = "userEmail"
)

// Machine-readable rejection codes surfaced to clients.
const (
	CodeNoToken        = "NO_TOKEN"
	CodeTokenExpired   = "TOKEN_EXPIRED"
	CodeTokenNotActive = "TOKEN_NOT_ACTIVE"
	CodeInvalidToken   = "INVALID_TOKEN"
	CodeForbidden      = "FORBIDDEN"
)

// bearerToken extracts the token from the Authorization header, falling back
// to the access_token cookie.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1]
		}
		return ""
	}
	if token, err := c.Cookie("access_token"); err == nil {
		return token
	}
	return ""
}

func rejectToken(c *gin.Context, err error) {
	switch {
	case errors.Is(err, helpers.ErrTokenExpired):
		response.AbortError(c, http.StatusUnauthorized, "access token expired", CodeTokenExpired)
	case errors.Is(err, helpers.ErrTokenNotYetValid):
		response.AbortError(c, http.StatusUnauthorized, "access token not yet valid", CodeTokenNotActive)
	default:
		response.AbortError(c, http.StatusUnauthorized, "invalid access token", CodeInvalidToken)
	}
}

// RequireAuth validates the bearer token and attaches the verified identity
// to the request context. Stateless: no database lookup happens here.
func RequireAuth(tm *helpers.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.AbortError(c, http.StatusUnauthorized, "missing access token", CodeNoToken)
			return
		}
		claims, err := tm.Parse(token)
		if err != nil {
			rejectToken(c, err)
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUserEmailKey, claims.Email)
		c.Next()
	}
}

// OptionalAuth treats an absent token as anonymous and continues without an
// identity. A token that is present but invalid is still rejected.
func OptionalAuth(tm *helpers.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		claims, err := tm.Parse(token)
		if err != nil {
			rejectToken(c, err)
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUserEmailKey, claims.Email)
		c.Next()
	}
}

// RequireOwnership allows the request through only when the authenticated
// identity matches the resource owner id in the named path parameter.
// Composable after RequireAuth; a mismatch is 403 regardless of token state.
func RequireOwnership(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString(CtxUserIDKey)
		if uid == "" {
			response.AbortError(c, http.StatusUnauthorized, "missing access token", CodeNoToken)
			return
		}
		if c.Param(param) != uid {
			response.AbortError(c, http.StatusForbidden, "you may only act on your own account", CodeForbidden)
			return
		}
		c.Next()
	}
}
