// Package historyhandler exposes an account's chat history.
package historyhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dharz/dharz-ai/internal/domain/chat"
	"github.com/dharz/dharz-ai/internal/infrastructure/observability"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/middlewares"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/responses"
	chatresponses "github.com/dharz/dharz-ai/internal/interfaces/httpserver/responses/chat"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

// HistoryHandler serves the authenticated chat list and transcript reads.
type HistoryHandler struct {
	chats *chat.Service
}

func NewHistoryHandler(chats *chat.Service) *HistoryHandler {
	return &HistoryHandler{chats: chats}
}

// ListChats returns the caller's chats, most recently active first. Messages
// are not included; clients fetch a transcript on demand.
func (h *HistoryHandler) ListChats(reqCtx *gin.Context) {
	ctx, span := observability.StartSpan(reqCtx.Request.Context(), "dharz-ai", "HistoryHandler.ListChats")
	defer span.End()

	principal, ok := middlewares.PrincipalFromContext(reqCtx)
	if !ok {
		responses.HandleError(reqCtx, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeUnauthorized, "authentication required", nil))
		return
	}

	chats, err := h.chats.ListChats(ctx, principal.UserID)
	if err != nil {
		observability.RecordError(ctx, err)
		responses.HandleError(reqCtx, err)
		return
	}

	reqCtx.JSON(http.StatusOK, chatresponses.NewChatListResponse(chats))
}

// GetChat returns one chat with its full transcript. Chats owned by other
// users surface as NOT_FOUND.
func (h *HistoryHandler) GetChat(reqCtx *gin.Context) {
	ctx, span := observability.StartSpan(reqCtx.Request.Context(), "dharz-ai", "HistoryHandler.GetChat")
	defer span.End()

	principal, ok := middlewares.PrincipalFromContext(reqCtx)
	if !ok {
		responses.HandleError(reqCtx, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeUnauthorized, "authentication required", nil))
		return
	}

	c, err := h.chats.GetOwnedChat(ctx, reqCtx.Param("chatId"), principal.UserID)
	if err != nil {
		observability.RecordError(ctx, err)
		responses.HandleError(reqCtx, err)
		return
	}

	reqCtx.JSON(http.StatusOK, chatresponses.NewChatResponse(c))
}

// DeleteChat removes a chat and its messages.
func (h *HistoryHandler) DeleteChat(reqCtx *gin.Context) {
	ctx, span := observability.StartSpan(reqCtx.Request.Context(), "dharz-ai", "HistoryHandler.DeleteChat")
	defer span.End()

	principal, ok := middlewares.PrincipalFromContext(reqCtx)
	if !ok {
		responses.HandleError(reqCtx, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeUnauthorized, "authentication required", nil))
		return
	}

	if err := h.chats.DeleteChat(ctx, reqCtx.Param("chatId"), principal.UserID); err != nil {
		observability.RecordError(ctx, err)
		responses.HandleError(reqCtx, err)
		return
	}

	reqCtx.Status(http.StatusNoContent)
}
