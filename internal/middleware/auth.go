package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"supportdesk/internal/backend"
)

// AuthMiddleware validates the Authorization header against the backend's
// session endpoint and stores the resolved user id in the context.
func AuthMiddleware(client backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		session, err := client.GetSession(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userID", session.UserID)
		c.Next()
	}
}
