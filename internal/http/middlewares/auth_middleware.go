package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/actorctx"
	"github.com/geocoder89/devdeck/internal/auth"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller on both the gin context and the request context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token")
			return
		}

		caller := claims.Caller()
		if !caller.Authenticated() {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token")
			return
		}

		c.Set(CtxCaller, caller)
		c.Request = c.Request.WithContext(actorctx.WithCaller(c.Request.Context(), caller))

		c.Next()
	}
}

// CallerFromContext returns the authenticated caller, or Anonymous.
func CallerFromContext(c *gin.Context) access.Caller {
	v, ok := c.Get(CtxCaller)
	if !ok {
		return access.Anonymous()
	}
	caller, ok := v.(access.Caller)
	if !ok {
		return access.Anonymous()
	}
	return caller
}

func UserIDFromContext(c *gin.Context) (int64, bool) {
	caller := CallerFromContext(c)
	return caller.UserID, caller.Authenticated()
}
