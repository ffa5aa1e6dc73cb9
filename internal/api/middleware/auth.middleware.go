// internal/api/middleware/auth.middleware.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/latticeobs/queryauth/internal/api/constants"
	"github.com/latticeobs/queryauth/internal/identity"
)

// AuthMiddleware decodes the bearer token on every request into an Identity
// and, when an LDAP group resolver is configured, populates the identity's
// Groups from LDAP rather than the token. If the LDAP lookup returns an
// error, the token's groups are kept.
func AuthMiddleware(decoder *identity.Decoder, groups *identity.GroupResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isPublicEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		id, err := decoder.FromRequest(c.Request)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "authentication required",
			})
			c.Abort()
			return
		}

		if groups != nil {
			if resolved, err := groups.Groups(id.Subject); err == nil {
				id.Groups = resolved
			}
		}

		c.Set(constants.ContextKeyIdentity, id.Subject)
		c.Set(constants.ContextKeyTenantID, id.Tenant)
		c.Set("identity_groups", id.Groups)

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")

		c.Next()
	}
}

// isPublicEndpoint reports whether a path is reachable without a token.
func isPublicEndpoint(path string) bool {
	publicPaths := []string{
		"/health",
		"/ready",
		"/api/openapi.json",
		"/api/openapi.yaml",
		"/swagger/",
		"/metrics",
		// Admin routes authenticate via bcrypt+TOTP and a short-lived admin
		// session token (AdminSessionMiddleware), not the bearer JWT this
		// middleware decodes.
		"/api/v1/admin/",
	}

	for _, publicPath := range publicPaths {
		if strings.HasPrefix(path, publicPath) {
			return true
		}
	}

	return false
}

// RequireTenant ensures tenant context is available before proxying a query.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString(constants.ContextKeyTenantID)
		if tenantID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"status": "error",
				"error":  "tenant context required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
