package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/handlers/authhandler"
)

// AuthRoute handles account and session routes.
type AuthRoute struct {
	handler     *authhandler.AuthHandler
	requireAuth gin.HandlerFunc
}

func NewAuthRoute(handler *authhandler.AuthHandler, requireAuth gin.HandlerFunc) *AuthRoute {
	return &AuthRoute{
		handler:     handler,
		requireAuth: requireAuth,
	}
}

// RegisterRouter registers auth routes.
func (route *AuthRoute) RegisterRouter(router gin.IRouter) {
	router.POST("/auth/register", route.handler.Register)
	router.POST("/auth/login", route.handler.Login)
	router.GET("/auth/me", route.requireAuth, route.handler.Me)
}
