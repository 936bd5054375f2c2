package middlewares

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sweetshop/api/internal/config"
	"github.com/sweetshop/api/internal/domain/user"
	"github.com/sweetshop/api/internal/service"
)

// RoleGuard decides whether the authenticated identity may proceed. The
// decision is made against stored state, not token claims, so role changes
// take effect without waiting for tokens to expire.
type RoleGuard interface {
	Require(ctx context.Context, identity string, required user.Role) error
}

func (m *AuthMiddleware) RequireRole(guard RoleGuard, required user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := UsernameFromContext(c)

		if !ok || username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing identity context",
				},
			})
			return
		}

		cctx, cancel := config.WithTimeout(2 * time.Second)
		defer cancel()

		err := guard.Require(cctx, username, required)

		if err == nil {
			c.Next()
			return
		}

		switch {
		case errors.Is(err, service.ErrForbidden):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Admin role required",
				},
			})
		case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, user.ErrInvalidCredentials):
			// Token subject no longer resolves to an account.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Unknown identity",
				},
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "internal_error",
					"message": "Could not verify permissions",
				},
			})
		}
	}
}
