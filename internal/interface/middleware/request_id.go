package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CtxRequestIDKey holds the per-request correlation id; the response envelope
// echoes it back.
const CtxRequestIDKey = "request_id"

// RequestIDMiddleware attaches a correlation id to every request. An inbound
// X-Request-ID from an upstream proxy is reused when it parses as a UUID;
// otherwise a fresh one is generated. The id is echoed in the response header.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(CtxRequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
