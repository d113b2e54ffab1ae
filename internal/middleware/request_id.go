package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/uniconnect/backend/internal/logger"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds client-supplied ids before they reach the logs
const maxRequestIDLen = 128

// RequestIDMiddleware tags each request with an id. A client-supplied
// X-Request-ID is reused when it is short enough; otherwise a UUID is minted.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}

		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger returns the global logger tagged with the request id
func RequestLogger(c *gin.Context) *zap.Logger {
	return logger.Log.With(logger.WithRequestID(c.GetString("request_id")))
}
