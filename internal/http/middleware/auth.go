// README: Firebase ID-token auth for the trip API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tripgenie/internal/infra"
)

const callerKey = "caller"

// Auth rejects requests without a valid "Bearer <token>" Authorization header and stores
// the verified caller on the context.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		caller, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil || caller == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// Caller returns the authenticated caller, or nil when auth is disabled.
func Caller(c *gin.Context) *infra.Caller {
	v, ok := c.Get(callerKey)
	if !ok {
		return nil
	}
	caller, _ := v.(*infra.Caller)
	return caller
}

func CallerUID(c *gin.Context) string {
	if caller := Caller(c); caller != nil {
		return caller.UID
	}
	return ""
}

func CallerRole(c *gin.Context) string {
	return Caller(c).Role()
}
