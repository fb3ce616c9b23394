package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole gates backoffice routes on the role claim the auth middleware
// copied out of the access token. A missing or unknown role reads as
// forbidden; role checks never fall through to the handler.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("user_role")
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}
