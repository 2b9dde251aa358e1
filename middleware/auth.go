package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"expense-tracker/api/auth"
)

const principalKey = "user"

// RequestVerifier authenticates a request.
type RequestVerifier interface {
	Verify(r *http.Request) (auth.Principal, error)
}

// AuthMiddleware verifies the bearer credential and stores the principal in
// both the gin context and the request context.
func AuthMiddleware(verifier RequestVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := verifier.Verify(c.Request)
		if err != nil {
			RespondError(c, err)
			c.Abort()
			return
		}

		c.Set(principalKey, principal)
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// Principal returns the principal stored by AuthMiddleware.
func Principal(c *gin.Context) (auth.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return auth.PrincipalFromContext(c.Request.Context())
	}
	p, ok := v.(auth.Principal)
	return p, ok && p.UserID != ""
}
