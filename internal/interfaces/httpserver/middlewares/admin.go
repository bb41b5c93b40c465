package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/responses"
)

// RequireAdmin ensures the authenticated principal carries the admin role.
// Must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			responses.HandleErrorWithStatus(c, http.StatusUnauthorized, nil, "authentication required")
			return
		}
		if !principal.IsAdmin() {
			responses.HandleErrorWithStatus(c, http.StatusForbidden, nil, "admin access required")
			return
		}
		c.Next()
	}
}
