package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin must run after RequireAuth. The admin flag comes from the
// stored user, not from the token.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)

		if !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
			return
		}
		if !u.IsAdmin {
			abortWithError(c, http.StatusForbidden, "forbidden", "Admin privileges required")
			return
		}
		c.Next()
	}
}
