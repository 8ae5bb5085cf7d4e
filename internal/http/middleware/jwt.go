package middleware

import (
	"net/http"
	"strings"

	"cups_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

// SessionKey is the gin context key holding the authenticated session key
const SessionKey = "session_key"

// JWT requires a session token in the Authorization header (Bearer) or the
// token query parameter.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if h := c.GetHeader("Authorization"); h != "" {
			token = strings.TrimPrefix(h, "Bearer ")
			if token == h {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
				return
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		key, err := service.ParseSessionToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(SessionKey, key)
		c.Next()
	}
}

// GetSessionKey returns the key stored by JWT
func GetSessionKey(c *gin.Context) (string, bool) {
	key := c.GetString(SessionKey)
	return key, key != ""
}
