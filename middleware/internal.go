package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"expense-tracker/api/apperr"
)

// InternalKeyMiddleware guards operational endpoints with the X-API-Key
// header. An empty key leaves them open.
func InternalKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) != 1 {
			RespondError(c, apperr.ErrNoCredential)
			c.Abort()
			return
		}
		c.Next()
	}
}
