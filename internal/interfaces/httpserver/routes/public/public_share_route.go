package public

import (
	"github.com/gin-gonic/gin"

	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/handlers/sharehandler"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/middlewares"
)

// publicShareRateLimit caps anonymous share reads per client per minute.
const publicShareRateLimit = 100

// PublicShareRoute serves shared transcripts without authentication.
type PublicShareRoute struct {
	handler *sharehandler.ShareHandler
}

func NewPublicShareRoute(handler *sharehandler.ShareHandler) *PublicShareRoute {
	return &PublicShareRoute{handler: handler}
}

// RegisterRouter registers public share routes. No authentication, but rate
// limited per client.
func (route *PublicShareRoute) RegisterRouter(router gin.IRouter) {
	publicShares := router.Group("/share")
	publicShares.Use(middlewares.RateLimitMiddleware(publicShareRateLimit))
	publicShares.GET("/:slug", route.handler.GetSharedChat)
}
