package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/apperr"
)

// RequireAdmin is the second gate on /admin routes, after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := access.Authorize(CallerFromContext(c), access.ActionAdminAccess, access.Resource{}).Err()
		switch apperr.KindOf(err) {
		case "":
			c.Next()
		case apperr.KindUnauthorized:
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
		default:
			abortWithError(c, http.StatusForbidden, "forbidden", "Admin role required")
		}
	}
}
