package handler

import (
	"github.com/gin-gonic/gin"

	"unilift/internal/middleware"
)

// callerID returns the authenticated caller ID attached by the identity
// middleware.
func callerID(c *gin.Context) string {
	return middleware.CallerID(c)
}
