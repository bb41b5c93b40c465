package chat

import (
	"github.com/gin-gonic/gin"

	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/handlers/chathandler"
)

// ChatRoute exposes the streaming chat endpoint. Authentication is optional:
// anonymous callers get a stream without persistence.
type ChatRoute struct {
	handler      *chathandler.ChatHandler
	optionalAuth gin.HandlerFunc
}

func NewChatRoute(handler *chathandler.ChatHandler, optionalAuth gin.HandlerFunc) *ChatRoute {
	return &ChatRoute{
		handler:      handler,
		optionalAuth: optionalAuth,
	}
}

// RegisterRouter registers the chat completion route.
func (route *ChatRoute) RegisterRouter(router gin.IRouter) {
	router.POST("/chat", route.optionalAuth, route.handler.HandleChatTurn)
}
