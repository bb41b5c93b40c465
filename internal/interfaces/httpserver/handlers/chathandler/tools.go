package chathandler

import (
	"context"
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dharz/dharz-ai/internal/infrastructure/metrics"
	"github.com/dharz/dharz-ai/internal/infrastructure/websearch"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

const searchToolName = "searchTheWeb"

// SearchClient executes web searches on behalf of the model.
type SearchClient interface {
	Search(ctx context.Context, query string) (*websearch.Response, error)
}

// buildTools returns the tool set offered to the model for this turn, or nil
// when the caller left web search off.
func buildTools(enabled bool) []openai.Tool {
	if !enabled {
		return nil
	}
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        searchToolName,
				Description: "Search the web for current information. Use this when the user asks about recent events or facts you are unsure of.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "The search query",
						},
					},
					"required": []string{"query"},
				},
			},
		},
	}
}

// executeToolCall runs one tool invocation requested by the model and returns
// the JSON payload fed back as the tool message. A failed search is terminal
// for the turn; the error propagates instead of returning an empty result.
func executeToolCall(ctx context.Context, search SearchClient, call openai.ToolCall) (string, error) {
	if call.Function.Name != searchToolName {
		metrics.RecordToolCall(call.Function.Name, "unknown")
		return "", platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "unknown tool: "+call.Function.Name, nil)
	}

	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		metrics.RecordToolCall(searchToolName, "invalid_args")
		return "", platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "malformed tool arguments", err)
	}

	res, err := search.Search(ctx, args.Query)
	if err != nil {
		metrics.RecordToolCall(searchToolName, "error")
		return "", err
	}

	payload, err := json.Marshal(res.Results)
	if err != nil {
		metrics.RecordToolCall(searchToolName, "error")
		return "", platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "encode tool result")
	}

	metrics.RecordToolCall(searchToolName, "ok")
	return string(payload), nil
}
