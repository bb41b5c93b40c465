// Package sharehandler manages public share links for chats.
package sharehandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dharz/dharz-ai/internal/domain/chat"
	"github.com/dharz/dharz-ai/internal/infrastructure/metrics"
	"github.com/dharz/dharz-ai/internal/infrastructure/observability"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/middlewares"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/responses"
	chatresponses "github.com/dharz/dharz-ai/internal/interfaces/httpserver/responses/chat"
	shareresponses "github.com/dharz/dharz-ai/internal/interfaces/httpserver/responses/share"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

// ShareHandler creates share links and serves shared transcripts.
type ShareHandler struct {
	chats *chat.Service
}

func NewShareHandler(chats *chat.Service) *ShareHandler {
	return &ShareHandler{chats: chats}
}

// CreateShare issues a stable public path for a chat. Sharing twice returns
// the same path.
func (h *ShareHandler) CreateShare(reqCtx *gin.Context) {
	ctx, span := observability.StartSpan(reqCtx.Request.Context(), "dharz-ai", "ShareHandler.CreateShare")
	defer span.End()

	principal, ok := middlewares.PrincipalFromContext(reqCtx)
	if !ok {
		responses.HandleError(reqCtx, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeUnauthorized, "authentication required", nil))
		return
	}

	sharePath, err := h.chats.EnsureSharePath(ctx, reqCtx.Param("chatId"), principal.UserID)
	if err != nil {
		metrics.RecordShare("error")
		observability.RecordError(ctx, err)
		responses.HandleError(reqCtx, err)
		return
	}

	metrics.RecordShare("ok")
	reqCtx.JSON(http.StatusOK, shareresponses.ShareResponse{SharePath: sharePath})
}

// GetSharedChat serves a shared transcript to anyone holding the link. The
// response carries no owner identity.
func (h *ShareHandler) GetSharedChat(reqCtx *gin.Context) {
	ctx, span := observability.StartSpan(reqCtx.Request.Context(), "dharz-ai", "ShareHandler.GetSharedChat")
	defer span.End()

	c, err := h.chats.GetSharedChat(ctx, reqCtx.Param("slug"))
	if err != nil {
		metrics.RecordPublicShareRequest("not_found")
		responses.HandleError(reqCtx, err)
		return
	}

	messages := make([]chatresponses.MessageResponse, 0, len(c.Messages))
	for i := range c.Messages {
		messages = append(messages, chatresponses.NewMessageResponse(&c.Messages[i]))
	}

	metrics.RecordPublicShareRequest("ok")
	reqCtx.JSON(http.StatusOK, shareresponses.PublicShareResponse{
		Title:    c.Title,
		Messages: messages,
	})
}
