package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/handlers/adminhandler"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/middlewares"
)

// AdminRoute exposes administrative account management, restricted to
// principals with the ADMIN role.
type AdminRoute struct {
	users       *adminhandler.UsersHandler
	requireAuth gin.HandlerFunc
}

func NewAdminRoute(users *adminhandler.UsersHandler, requireAuth gin.HandlerFunc) *AdminRoute {
	return &AdminRoute{
		users:       users,
		requireAuth: requireAuth,
	}
}

// RegisterRouter registers admin routes.
func (route *AdminRoute) RegisterRouter(router gin.IRouter) {
	adminRouter := router.Group("/admin", route.requireAuth, middlewares.RequireAdmin())
	adminRouter.GET("/users", route.users.ListUsers)
	adminRouter.POST("/users", route.users.CreateUser)
	adminRouter.DELETE("/users/:userId", route.users.DeleteUser)
}
