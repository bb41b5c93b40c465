// Package websearch provides the Tavily-backed search client used by the
// assistant's searchTheWeb tool.
package websearch

import (
	"context"
	"fmt"
	"strings"

	"resty.dev/v3"

	"github.com/dharz/dharz-ai/internal/infrastructure/logger"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

const (
	// maxResults keeps tool payloads small enough to feed back into the
	// model without crowding out the conversation.
	maxResults  = 5
	searchDepth = "basic"
)

// Result is a single search hit surfaced to the model.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Response carries the hits for one query.
type Response struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
}

type tavilyResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

type Client struct {
	client   *resty.Client
	endpoint string
	apiKey   string
}

func NewClient(client *resty.Client, endpoint, apiKey string) *Client {
	return &Client{
		client:   client,
		endpoint: strings.TrimSpace(endpoint),
		apiKey:   apiKey,
	}
}

// Search runs one query against Tavily. Upstream failures surface as
// EXTERNAL errors carrying the upstream status so callers can decide how to
// report them; they are never silently swallowed.
func (c *Client) Search(ctx context.Context, query string) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation, "search query is required", nil)
	}

	var res tavilyResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"api_key":      c.apiKey,
			"query":        query,
			"search_depth": searchDepth,
			"max_results":  maxResults,
		}).
		SetResult(&res).
		Post(c.endpoint)
	if err != nil {
		log := logger.GetLogger()
		log.Error().Err(err).Str("endpoint", c.endpoint).Msg("failed to query search API")
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "failed to query search API", err)
	}
	if resp.IsError() {
		log := logger.GetLogger()
		log.Error().Int("status", resp.StatusCode()).Str("endpoint", c.endpoint).Msg("search API error")
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("search API error (status %d)", resp.StatusCode()), nil)
	}

	out := &Response{Query: query, Results: make([]Result, 0, len(res.Results))}
	for _, item := range res.Results {
		if len(out.Results) >= maxResults {
			break
		}
		out.Results = append(out.Results, Result{
			Title:   item.Title,
			URL:     item.URL,
			Content: item.Content,
		})
	}
	return out, nil
}
