package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// identityHeader carries the authenticated caller's user ID. Authentication
// itself happens upstream (API gateway); the value is opaque to this service.
const identityHeader = "X-User-ID"

// callerIDKey is the gin context key the caller ID is stored under.
const callerIDKey = "callerID"

// RequireIdentity returns middleware that rejects requests without an
// authenticated caller identifier.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(identityHeader)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
			return
		}

		c.Set(callerIDKey, id)
		c.Next()
	}
}

// CallerID returns the authenticated caller ID set by RequireIdentity, or
// the raw header value on routes that do not require identity.
func CallerID(c *gin.Context) string {
	if id := c.GetString(callerIDKey); id != "" {
		return id
	}
	return c.GetHeader(identityHeader)
}
