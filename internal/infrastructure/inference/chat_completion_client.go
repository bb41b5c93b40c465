// Package inference wraps the upstream OpenAI-compatible completion API.
package inference

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"github.com/dharz/dharz-ai/internal/infrastructure/logger"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

const (
	channelBufferSize    = 100
	errorBufferSize      = 10
	dataPrefix           = "data: "
	doneMarker           = "[DONE]"
	scannerInitialBuffer = 12 * 1024
	scannerMaxBuffer     = 10 * 1024 * 1024
)

type StreamOption func(*resty.Request)

func WithHeader(key, value string) StreamOption {
	return func(r *resty.Request) {
		if strings.TrimSpace(key) == "" {
			return
		}
		r.SetHeader(key, value)
	}
}

type ChatCompletionClient struct {
	client  *resty.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

type toolCallAccumulator struct {
	ID       string
	Type     string
	Index    int
	Function struct {
		Name      string
		Arguments string
	}
}

type streamChoice struct {
	Delta struct {
		Content   string            `json:"content"`
		ToolCalls []openai.ToolCall `json:"tool_calls,omitempty"`
	} `json:"delta"`
	FinishReason string `json:"finish_reason"`
}

func NewChatCompletionClient(client *resty.Client, baseURL, apiKey string, timeout time.Duration) *ChatCompletionClient {
	return &ChatCompletionClient{
		client:  client,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  apiKey,
		timeout: timeout,
	}
}

// CreateChatCompletion performs a blocking, non-streaming completion.
func (c *ChatCompletionClient) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	var respBody openai.ChatCompletionResponse
	resp, err := c.prepareRequest(ctx).
		SetBody(request).
		SetResult(&respBody).
		Post(c.endpoint("/chat/completions"))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "completion request failed", err)
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, "completion request failed")
	}
	return &respBody, nil
}

// StreamChatCompletionToContext relays the upstream SSE stream onto the gin
// response writer while accumulating the deltas, then returns the assembled
// response. The upstream [DONE] marker is consumed, not relayed: the caller
// may run further rounds (tool calls) on the same response stream and writes
// the terminal marker itself. Tool call fragments are stitched back together
// by index so the caller sees each call's full argument JSON.
func (c *ChatCompletionClient) StreamChatCompletionToContext(reqCtx *gin.Context, request openai.ChatCompletionRequest, opts ...StreamOption) (*openai.ChatCompletionResponse, error) {
	request.Stream = true
	request.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	ctx, cancel := context.WithTimeout(reqCtx.Request.Context(), c.timeout)
	defer cancel()

	dataChan := make(chan string, channelBufferSize)
	errChan := make(chan error, errorBufferSize)

	var wg sync.WaitGroup
	wg.Add(1)
	go c.streamResponseToChannel(ctx, request, dataChan, errChan, &wg, opts)

	var contentBuilder strings.Builder
	toolCalls := make(map[int]*toolCallAccumulator)
	var usage *openai.Usage
	finishReason := openai.FinishReasonStop

	streamingComplete := false
	for !streamingComplete {
		select {
		case line, ok := <-dataChan:
			if !ok {
				streamingComplete = true
				break
			}

			if data, found := strings.CutPrefix(line, dataPrefix); found && data == doneMarker {
				streamingComplete = true
				cancel()
				break
			}

			if err := c.writeSSELine(reqCtx, line); err != nil {
				cancel()
				wg.Wait()
				return nil, platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "unable to write SSE line")
			}

			if data, found := strings.CutPrefix(line, dataPrefix); found {
				choice, chunkUsage := c.processStreamChunk(data)
				if chunkUsage != nil {
					usage = chunkUsage
				}
				if choice != nil {
					if choice.Delta.Content != "" {
						contentBuilder.WriteString(choice.Delta.Content)
					}
					for i := range choice.Delta.ToolCalls {
						c.accumulateToolCall(&choice.Delta.ToolCalls[i], toolCalls)
					}
					if choice.FinishReason != "" {
						finishReason = openai.FinishReason(choice.FinishReason)
					}
				}
			}

		case err, ok := <-errChan:
			if ok && err != nil {
				cancel()
				wg.Wait()
				return nil, platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "streaming error")
			}

		case <-ctx.Done():
			wg.Wait()
			return nil, platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, ctx.Err(), "streaming context cancelled")

		case <-reqCtx.Request.Context().Done():
			cancel()
			wg.Wait()
			return nil, platformerrors.AsError(reqCtx.Request.Context(), platformerrors.LayerInfrastructure, reqCtx.Request.Context().Err(), "client request cancelled")
		}
	}

	cancel()
	wg.Wait()

	response := c.buildCompleteResponse(contentBuilder.String(), toolCalls, finishReason, request.Model, usage)
	return &response, nil
}

// SetupSSEHeaders writes the event-stream headers and flushes them so the
// client starts reading before the first chunk arrives.
func (c *ChatCompletionClient) SetupSSEHeaders(reqCtx *gin.Context) {
	if reqCtx == nil {
		return
	}
	reqCtx.Header("Content-Type", "text/event-stream")
	reqCtx.Header("Cache-Control", "no-cache")
	reqCtx.Header("Connection", "keep-alive")
	reqCtx.Header("Transfer-Encoding", "chunked")
	reqCtx.Writer.WriteHeaderNow()
}

func (c *ChatCompletionClient) prepareRequest(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	req.SetHeader("Content-Type", "application/json")
	if strings.TrimSpace(c.apiKey) != "" {
		req.SetHeader("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	return req
}

func (c *ChatCompletionClient) endpoint(path string) string {
	if c.baseURL == "" {
		return path
	}
	return c.baseURL + path
}

func (c *ChatCompletionClient) errorFromResponse(ctx context.Context, resp *resty.Response, message string) error {
	if resp == nil || resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil)
	}
	defer resp.RawResponse.Body.Close()
	body, err := io.ReadAll(resp.RawResponse.Body)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil)
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: status %d", message, resp.StatusCode()), nil)
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: status %d: %s", message, resp.StatusCode(), trimmed), nil)
}

func (c *ChatCompletionClient) doStreamingRequest(ctx context.Context, request openai.ChatCompletionRequest, opts ...StreamOption) (*resty.Response, error) {
	req := c.prepareRequest(ctx).
		SetBody(request).
		SetDoNotParseResponse(true)

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(req)
	}

	if req.Header.Get("Accept-Encoding") == "" {
		req.SetHeader("Accept-Encoding", "identity")
	}

	resp, err := req.Post(c.endpoint("/chat/completions"))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "streaming request failed", err)
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, "streaming request failed")
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "streaming request failed: empty response body", nil)
	}
	return resp, nil
}

func (c *ChatCompletionClient) streamResponseToChannel(ctx context.Context, request openai.ChatCompletionRequest, dataChan chan<- string, errChan chan<- error, wg *sync.WaitGroup, opts []StreamOption) {
	defer wg.Done()
	defer close(dataChan)

	resp, err := c.doStreamingRequest(ctx, request, opts...)
	if err != nil {
		c.sendAsyncError(errChan, err)
		return
	}

	defer func() {
		if closeErr := resp.RawResponse.Body.Close(); closeErr != nil {
			log := logger.GetLogger()
			log.Error().Err(closeErr).Msg("unable to close response body")
		}
	}()

	scanner := bufio.NewScanner(resp.RawResponse.Body)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			c.sendAsyncError(errChan, ctx.Err())
			return
		default:
		}

		select {
		case dataChan <- scanner.Text():
		case <-ctx.Done():
			c.sendAsyncError(errChan, ctx.Err())
			return
		}
	}

	if err := scanner.Err(); err != nil {
		c.sendAsyncError(errChan, err)
	}
}

// WriteSSEData writes one data event onto the response stream.
func WriteSSEData(reqCtx *gin.Context, payload string) error {
	if reqCtx == nil {
		return platformerrors.NewError(context.Background(), platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation, "nil gin context provided", nil)
	}
	if _, err := reqCtx.Writer.Write([]byte(dataPrefix + payload + "\n\n")); err != nil {
		return err
	}
	reqCtx.Writer.Flush()
	return nil
}

// WriteSSEDone terminates the response stream with the [DONE] marker.
func WriteSSEDone(reqCtx *gin.Context) error {
	return WriteSSEData(reqCtx, doneMarker)
}

func (c *ChatCompletionClient) writeSSELine(reqCtx *gin.Context, line string) error {
	if reqCtx == nil {
		return platformerrors.NewError(context.Background(), platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation, "nil gin context provided", nil)
	}
	if _, err := reqCtx.Writer.Write([]byte(line + "\n")); err != nil {
		return err
	}
	reqCtx.Writer.Flush()
	return nil
}

func (c *ChatCompletionClient) processStreamChunk(data string) (*streamChoice, *openai.Usage) {
	var streamData struct {
		Choices []streamChoice `json:"choices"`
		Usage   *openai.Usage  `json:"usage"`
	}

	if err := json.Unmarshal([]byte(data), &streamData); err != nil {
		log := logger.GetLogger()
		log.Error().Err(err).Str("data", data).Msg("failed to parse stream chunk")
		return nil, nil
	}

	if len(streamData.Choices) == 0 {
		return nil, streamData.Usage
	}
	return &streamData.Choices[0], streamData.Usage
}

func (c *ChatCompletionClient) accumulateToolCall(toolCall *openai.ToolCall, accumulator map[int]*toolCallAccumulator) {
	if toolCall == nil {
		return
	}

	index := 0
	if toolCall.Index != nil {
		index = *toolCall.Index
	}
	if accumulator[index] == nil {
		accumulator[index] = &toolCallAccumulator{
			ID:    toolCall.ID,
			Type:  string(toolCall.Type),
			Index: index,
		}
	}
	if toolCall.ID != "" {
		accumulator[index].ID = toolCall.ID
	}
	if toolCall.Function.Name != "" {
		accumulator[index].Function.Name = toolCall.Function.Name
	}
	if toolCall.Function.Arguments != "" {
		accumulator[index].Function.Arguments += toolCall.Function.Arguments
	}
}

func (c *ChatCompletionClient) buildCompleteResponse(content string, toolCalls map[int]*toolCallAccumulator, finishReason openai.FinishReason, model string, usage *openai.Usage) openai.ChatCompletionResponse {
	message := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: content,
	}

	if len(toolCalls) > 0 {
		indexes := make([]int, 0, len(toolCalls))
		for index := range toolCalls {
			indexes = append(indexes, index)
		}
		sort.Ints(indexes)

		calls := make([]openai.ToolCall, 0, len(toolCalls))
		for _, index := range indexes {
			acc := toolCalls[index]
			if acc == nil || acc.Function.Name == "" {
				continue
			}
			calls = append(calls, openai.ToolCall{
				ID:   acc.ID,
				Type: openai.ToolType(acc.Type),
				Function: openai.FunctionCall{
					Name:      acc.Function.Name,
					Arguments: acc.Function.Arguments,
				},
			})
		}
		if len(calls) > 0 {
			message.ToolCalls = calls
			finishReason = openai.FinishReasonToolCalls
		}
	}

	response := openai.ChatCompletionResponse{
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []openai.ChatCompletionChoice{
			{
				Index:        0,
				Message:      message,
				FinishReason: finishReason,
			},
		},
	}
	if usage != nil {
		response.Usage = *usage
	}
	return response
}

func (c *ChatCompletionClient) sendAsyncError(errChan chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case errChan <- err:
	default:
	}
}
