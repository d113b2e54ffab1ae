package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/models"
	"github.com/uniconnect/backend/internal/util"
	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to its user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller under util.ContextUserKey and util.ContextUserIDKey
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			util.RespondUnauthorized(c, "Not authorized, no token")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil || user == nil {
			logger.Log.Debug("Token rejected", logger.WithIP(c.ClientIP()), zap.Error(err))
			util.RespondUnauthorized(c, "Not authorized, token failed")
			return
		}

		c.Set(util.ContextUserKey, user)
		c.Set(util.ContextUserIDKey, user.ID)
		c.Next()
	}
}
