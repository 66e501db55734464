package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"railbite/internal/auth"
	"railbite/models"
)

const principalKey = "principal"

// authenticate requires a valid bearer token and stores the caller on both
// the gin context and the request context.
func authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := auth.ParseBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			fail(c, http.StatusUnauthorized, "unauthenticated")
			return
		}
		c.Set(principalKey, *p)
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// requireRoles rejects callers whose role is not listed.
func requireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principal(c)
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		fail(c, http.StatusForbidden, "you are not allowed to perform this action")
	}
}

// principal returns the authenticated caller; zero outside authenticate.
func principal(c *gin.Context) auth.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(auth.Principal); ok {
			return p
		}
	}
	return auth.Principal{}
}
