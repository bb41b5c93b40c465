package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dharz/dharz-ai/internal/config"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/routes/auth"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/routes/public"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/routes/v1/admin"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/routes/v1/chat"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/routes/v1/chats"
)

// V1Route aggregates every versioned API route.
type V1Route struct {
	auth        *auth.AuthRoute
	chat        *chat.ChatRoute
	chats       *chats.ChatsRoute
	adminRoute  *admin.AdminRoute
	publicShare *public.PublicShareRoute
}

func NewV1Route(
	authRoute *auth.AuthRoute,
	chatRoute *chat.ChatRoute,
	chatsRoute *chats.ChatsRoute,
	adminRoute *admin.AdminRoute,
	publicShare *public.PublicShareRoute,
) *V1Route {
	return &V1Route{
		auth:        authRoute,
		chat:        chatRoute,
		chats:       chatsRoute,
		adminRoute:  adminRoute,
		publicShare: publicShare,
	}
}

// RegisterRouter registers all v1 routes.
func (v1Route *V1Route) RegisterRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")
	v1Router.GET("/version", GetVersion)
	v1Router.GET("/healthz", GetHealthz)
	v1Router.GET("/readyz", GetReadyz)

	v1Route.auth.RegisterRouter(v1Router)
	v1Route.chat.RegisterRouter(v1Router)
	v1Route.chats.RegisterRouter(v1Router)
	v1Route.adminRoute.RegisterRouter(v1Router)
	v1Route.publicShare.RegisterRouter(v1Router)
}

// GetVersion returns the build version.
func GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": config.Version})
}

// GetHealthz reports liveness for orchestrators.
func GetHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetReadyz reports readiness to accept traffic.
func GetReadyz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
