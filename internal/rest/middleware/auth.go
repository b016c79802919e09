package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vendora/vendora/internal/auth"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/types"
)

// AuthenticateMiddleware verifies the bearer JWT in the Authorization header
// and puts the caller's user id and email in the request context
func AuthenticateMiddleware(provider auth.Provider, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			abortUnauthenticated(c, "Missing authorization header")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			abortUnauthenticated(c, "Invalid authorization header format")
			return
		}

		claims, err := provider.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Debugw("failed to validate token", "error", err)
			abortUnauthenticated(c, "Invalid token")
			return
		}

		ctx := types.SetUserID(c.Request.Context(), claims.UserID)
		ctx = types.SetUserEmail(ctx, claims.Email)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, hint string) {
	_ = c.Error(ierr.NewError("unauthenticated").
		WithHint(hint).
		Mark(ierr.ErrUnauthenticated))
	c.Abort()
}
