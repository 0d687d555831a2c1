package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pydata-london/meetup-ballot/pkg/response"
)

// ContextRequester is the key for the caller name in gin context.
const ContextRequester = "requester"

// TriggerToken returns a middleware that requires "Authorization: Bearer <token>".
// An empty token disables the check.
func TriggerToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		scheme, given, ok := strings.Cut(header, " ")
		if !ok || scheme != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		if who := c.GetHeader("X-Requested-By"); who != "" {
			c.Set(ContextRequester, who)
		}
		c.Next()
	}
}
