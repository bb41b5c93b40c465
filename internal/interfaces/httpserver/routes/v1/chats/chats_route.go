package chats

import (
	"github.com/gin-gonic/gin"

	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/handlers/historyhandler"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/handlers/sharehandler"
)

// ChatsRoute exposes chat history and share-link management. Every route
// requires authentication.
type ChatsRoute struct {
	history     *historyhandler.HistoryHandler
	share       *sharehandler.ShareHandler
	requireAuth gin.HandlerFunc
}

func NewChatsRoute(
	history *historyhandler.HistoryHandler,
	share *sharehandler.ShareHandler,
	requireAuth gin.HandlerFunc,
) *ChatsRoute {
	return &ChatsRoute{
		history:     history,
		share:       share,
		requireAuth: requireAuth,
	}
}

// RegisterRouter registers chat history routes.
func (route *ChatsRoute) RegisterRouter(router gin.IRouter) {
	chatsRouter := router.Group("/chats", route.requireAuth)
	chatsRouter.GET("", route.history.ListChats)
	chatsRouter.GET("/:chatId", route.history.GetChat)
	chatsRouter.DELETE("/:chatId", route.history.DeleteChat)
	chatsRouter.POST("/:chatId/share", route.share.CreateShare)
}
