// internal/api/middleware/admin_session.middleware.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/latticeobs/queryauth/internal/admin"
	"github.com/latticeobs/queryauth/internal/config"
)

// AdminSessionMiddleware gates the constraint-management routes behind the
// short-lived session token issued by AdminAuthHandler once an operator has
// completed password and (if enrolled) TOTP verification.
func AdminSessionMiddleware(cfg config.AdminConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "admin session required"})
			c.Abort()
			return
		}

		username, err := admin.VerifySession(cfg, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "invalid admin session"})
			c.Abort()
			return
		}

		c.Set("admin_username", username)
		c.Next()
	}
}
