// Package chathandler orchestrates one chat turn: session resolution,
// attachment inlining, tool-augmented generation, token streaming, and the
// durable recording of both sides of the exchange.
package chathandler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dharz/dharz-ai/internal/domain"
	"github.com/dharz/dharz-ai/internal/domain/chat"
	"github.com/dharz/dharz-ai/internal/infrastructure/imagefetch"
	"github.com/dharz/dharz-ai/internal/infrastructure/inference"
	"github.com/dharz/dharz-ai/internal/infrastructure/logger"
	"github.com/dharz/dharz-ai/internal/infrastructure/metrics"
	"github.com/dharz/dharz-ai/internal/infrastructure/observability"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/middlewares"
	chatrequests "github.com/dharz/dharz-ai/internal/interfaces/httpserver/requests/chat"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/responses"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

const (
	chatIDHeader = "X-Chat-Id"

	// maxToolRounds bounds how many times the model may call tools in one
	// turn before generation is forced to finish with plain text.
	maxToolRounds = 3

	systemPrompt = "You are Dharz AI, a helpful assistant. Answer clearly and concisely. " +
		"When the searchTheWeb tool is available, use it for questions about current events or facts you cannot verify."
)

// CompletionStreamer is the slice of the inference client the handler needs.
type CompletionStreamer interface {
	SetupSSEHeaders(reqCtx *gin.Context)
	StreamChatCompletionToContext(reqCtx *gin.Context, request openai.ChatCompletionRequest, opts ...inference.StreamOption) (*openai.ChatCompletionResponse, error)
}

// ChatHandler handles streamed chat turns.
type ChatHandler struct {
	chats      *chat.Service
	completion CompletionStreamer
	search     SearchClient
	resolver   imagefetch.Resolver
	model      string
}

func NewChatHandler(
	chats *chat.Service,
	completion CompletionStreamer,
	search SearchClient,
	resolver imagefetch.Resolver,
	model string,
) *ChatHandler {
	return &ChatHandler{
		chats:      chats,
		completion: completion,
		search:     search,
		resolver:   resolver,
		model:      model,
	}
}

// HandleChatTurn processes POST /v1/chat. Authenticated callers get their
// chat resolved or created and both turns persisted; anonymous callers get
// the stream and nothing else. The user turn is written before the first
// token goes out, so a failed stream leaves a dangling user turn by design
// of the persistence contract: no rollback.
func (h *ChatHandler) HandleChatTurn(reqCtx *gin.Context) {
	ctx, span := observability.StartSpan(reqCtx.Request.Context(), "dharz-ai", "ChatHandler.HandleChatTurn")
	defer span.End()

	var req chatrequests.ChatRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleError(reqCtx, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid request body", err))
		return
	}

	messages, err := normalizeTurns(ctx, req.Messages)
	if err != nil {
		observability.RecordError(ctx, err)
		responses.HandleError(reqCtx, err)
		return
	}

	principal, authenticated := middlewares.PrincipalFromContext(reqCtx)
	observability.AddSpanAttributes(ctx,
		attribute.Bool("chat.authenticated", authenticated),
		attribute.Bool("chat.web_search", req.WebSearchEnabled),
		attribute.Int("chat.message_count", len(req.Messages)),
	)

	persisted, err := h.persistUserTurn(ctx, req, authenticated, principal)
	if err != nil {
		observability.RecordError(ctx, err)
		responses.HandleError(reqCtx, err)
		return
	}

	if req.ImageRef != "" {
		messages = attachImage(messages, h.resolver.Resolve(ctx, req.ImageRef))
	}

	conversation := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	conversation = append(conversation, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	conversation = append(conversation, messages...)

	tools := buildTools(req.WebSearchEnabled)

	if persisted != nil {
		reqCtx.Header(chatIDHeader, persisted.PublicID)
	}
	h.completion.SetupSSEHeaders(reqCtx)

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()
	start := time.Now()

	final, streamErr := h.runGeneration(ctx, reqCtx, conversation, tools)
	if streamErr != nil {
		// The stream is already open; the error has to travel in-band. The
		// persisted user turn stays put.
		observability.RecordError(ctx, streamErr)
		h.writeStreamError(reqCtx, streamErr)
		return
	}

	metrics.RecordLLMDuration(h.model, time.Since(start).Seconds())
	metrics.RecordTokens(h.model, final.Usage.PromptTokens, final.Usage.CompletionTokens)

	h.persistAssistantTurn(ctx, persisted, final)
	h.writeTrailer(reqCtx, persisted)
}

// persistUserTurn resolves the chat and records the inbound turn. Anonymous
// callers persist nothing and get a nil chat back.
func (h *ChatHandler) persistUserTurn(ctx context.Context, req chatrequests.ChatRequest, authenticated bool, principal domain.Principal) (*chat.Chat, error) {
	if !authenticated {
		return nil, nil
	}

	c, err := h.chats.UpsertChat(ctx, req.ChatID, principal.UserID)
	if err != nil {
		return nil, err
	}
	if req.ChatID == "" {
		metrics.ChatsCreatedTotal.Inc()
	}

	content := newestUserContent(req.Messages)
	var imageRef *string
	if req.ImageRef != "" {
		ref := req.ImageRef
		imageRef = &ref
	}

	if _, err := h.chats.AppendMessage(ctx, c.ID, chat.RoleUser, content, imageRef); err != nil {
		metrics.RecordMessagePersisted(string(chat.RoleUser), "error")
		return nil, err
	}
	metrics.RecordMessagePersisted(string(chat.RoleUser), "ok")

	if err := h.chats.EnsureTitle(ctx, c, content); err != nil {
		log := logger.GetLogger()
		log.Warn().Err(err).Str("chat_id", c.PublicID).Msg("title derivation failed")
	}
	return c, nil
}

// runGeneration streams completion rounds until the model stops calling
// tools or the round budget runs out. A tool failure is terminal.
func (h *ChatHandler) runGeneration(ctx context.Context, reqCtx *gin.Context, conversation []openai.ChatCompletionMessage, tools []openai.Tool) (*openai.ChatCompletionResponse, error) {
	for round := 0; round < maxToolRounds; round++ {
		request := openai.ChatCompletionRequest{
			Model:    h.model,
			Messages: conversation,
			Tools:    tools,
		}
		// Withhold tools on the last round so the model must answer.
		if round == maxToolRounds-1 {
			request.Tools = nil
		}

		resp, err := h.completion.StreamChatCompletionToContext(reqCtx, request)
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeExternal, "provider returned no choices", nil)
		}

		message := resp.Choices[0].Message
		if resp.Choices[0].FinishReason != openai.FinishReasonToolCalls || len(message.ToolCalls) == 0 {
			return resp, nil
		}

		conversation = append(conversation, message)
		for _, call := range message.ToolCalls {
			result, err := executeToolCall(ctx, h.search, call)
			if err != nil {
				return nil, err
			}
			conversation = append(conversation, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
				Content:    result,
			})
		}
	}

	return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeExternal, "tool call budget exhausted", nil)
}

// persistAssistantTurn records the streamed completion. The caller already
// has the full text, so a write failure is logged and counted, never
// surfaced as a failed turn.
func (h *ChatHandler) persistAssistantTurn(ctx context.Context, persisted *chat.Chat, final *openai.ChatCompletionResponse) {
	if persisted == nil {
		return
	}

	content := final.Choices[0].Message.Content
	if _, err := h.chats.AppendMessage(ctx, persisted.ID, chat.RoleAssistant, content, nil); err != nil {
		metrics.RecordMessagePersisted(string(chat.RoleAssistant), "error")
		log := logger.GetLogger()
		log.Error().Err(err).Str("chat_id", persisted.PublicID).Msg("failed to persist assistant turn")
		return
	}
	metrics.RecordMessagePersisted(string(chat.RoleAssistant), "ok")
}

// writeTrailer emits the chat id metadata chunk and the terminal marker.
func (h *ChatHandler) writeTrailer(reqCtx *gin.Context, persisted *chat.Chat) {
	if persisted != nil {
		payload, err := json.Marshal(gin.H{"chatId": persisted.PublicID})
		if err == nil {
			if err := inference.WriteSSEData(reqCtx, string(payload)); err != nil {
				log := logger.GetLogger()
				log.Warn().Err(err).Msg("failed to write chat id metadata chunk")
			}
		}
	}
	if err := inference.WriteSSEDone(reqCtx); err != nil {
		log := logger.GetLogger()
		log.Warn().Err(err).Msg("failed to write stream terminator")
	}
}

// writeStreamError reports a mid-stream failure in-band and closes the
// stream without the [DONE] marker so clients treat the turn as failed.
func (h *ChatHandler) writeStreamError(reqCtx *gin.Context, err error) {
	log := logger.GetLogger()
	log.Error().Err(err).Msg("chat turn failed mid-stream")

	payload, marshalErr := json.Marshal(gin.H{
		"error": gin.H{
			"type":    string(platformerrors.TypeOf(err)),
			"message": "generation failed",
		},
	})
	if marshalErr != nil {
		reqCtx.Status(http.StatusInternalServerError)
		return
	}
	if writeErr := inference.WriteSSEData(reqCtx, string(payload)); writeErr != nil {
		log.Warn().Err(writeErr).Msg("failed to write stream error chunk")
	}
}
