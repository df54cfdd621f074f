package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/builders-garden/squabble-engine/internal/modules/access"
)

// callerKey is the gin context key holding the authenticated caller id
const callerKey = "caller"

// AuthRequired resolves the caller identity from the bearer token and threads
// it into the request. Operations never rely on ambient identity.
func AuthRequired(codec *access.TokenCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		account, err := codec.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(callerKey, account)
		c.Next()
	}
}

// callerFrom returns the authenticated caller id, 0 if unauthenticated
func callerFrom(c *gin.Context) int64 {
	if v, ok := c.Get(callerKey); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
