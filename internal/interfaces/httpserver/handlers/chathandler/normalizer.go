package chathandler

import (
	"context"
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dharz/dharz-ai/internal/domain/chat"
	chatrequests "github.com/dharz/dharz-ai/internal/interfaces/httpserver/requests/chat"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

// toolTurnPayload is the decoded body of a tool-role turn: the result of an
// earlier tool call the client is echoing back.
type toolTurnPayload struct {
	ToolCallID string          `json:"toolCallId"`
	Name       string          `json:"name"`
	Result     json.RawMessage `json:"result"`
}

// normalizeTurns converts raw client turns into provider messages. Roles are
// matched exhaustively: user and assistant content passes through, tool turns
// must decode or the whole request fails, and anything else is rejected.
func normalizeTurns(ctx context.Context, turns []chatrequests.TurnPayload) ([]openai.ChatCompletionMessage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		role, err := chat.ParseRole(turn.Role)
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, err.Error(), nil)
		}

		switch role {
		case chat.RoleUser, chat.RoleAssistant:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    string(role),
				Content: turn.Content,
			})
		case chat.RoleTool:
			var payload toolTurnPayload
			if err := json.Unmarshal([]byte(turn.Content), &payload); err != nil {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "malformed tool turn payload", err)
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: payload.ToolCallID,
				Name:       payload.Name,
				Content:    string(payload.Result),
			})
		}
	}
	return messages, nil
}

// attachImage rewrites the newest user turn into a multi-part message whose
// image part carries the resolved reference. Older turns never change.
func attachImage(messages []openai.ChatCompletionMessage, resolvedRef string) []openai.ChatCompletionMessage {
	if resolvedRef == "" {
		return messages
	}

	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != openai.ChatMessageRoleUser {
			continue
		}
		messages[i].MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: messages[i].Content},
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: resolvedRef},
			},
		}
		messages[i].Content = ""
		break
	}
	return messages
}

// newestUserContent returns the text of the latest user turn, used for the
// persisted user message and for title derivation.
func newestUserContent(turns []chatrequests.TurnPayload) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == string(chat.RoleUser) {
			return turns[i].Content
		}
	}
	return ""
}
