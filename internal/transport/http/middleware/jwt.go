package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"courseassist/internal/pkg/jwtutil"
	"courseassist/internal/transport/http/response"
)

const (
	ContextUsernameKey = "username"
	ContextRoleKey     = "role"
)

// AuthJWT requires a Bearer token signed with secret and carrying role.
func AuthJWT(secret, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.KindUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, http.StatusUnauthorized, response.KindUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.KindUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}
		if role != "" && claims.Role != role {
			response.Error(c, http.StatusForbidden, response.KindUnauthorized, "insufficient role")
			c.Abort()
			return
		}

		c.Set(ContextUsernameKey, claims.Username)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// Optional returns mw when enabled and a pass-through handler otherwise.
func Optional(enabled bool, mw gin.HandlerFunc) gin.HandlerFunc {
	if enabled {
		return mw
	}
	return func(c *gin.Context) { c.Next() }
}
