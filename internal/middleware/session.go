package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const sessionKeyContextKey = "sessionKey"

// SessionKey resolves the caller's session key once per request, cookie first and
// then header, and stores it in the gin context. A missing key is not an error here;
// each handler decides what an anonymous caller may do.
func SessionKey(cookieName, header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ""
		if v, err := c.Cookie(cookieName); err == nil {
			key = strings.TrimSpace(v)
		}
		if key == "" {
			key = strings.TrimSpace(c.GetHeader(header))
		}
		c.Set(sessionKeyContextKey, key)
		c.Next()
	}
}

// RequireSessionKey rejects anonymous callers. It must run after SessionKey.
func RequireSessionKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if SessionKeyFrom(c) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session key required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionKeyFrom returns the key resolved by SessionKey, or "" for an anonymous caller.
func SessionKeyFrom(c *gin.Context) string {
	return c.GetString(sessionKeyContextKey)
}
