package chathandler

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharz/dharz-ai/internal/infrastructure/websearch"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

type stubSearch struct {
	response *websearch.Response
	err      error
	queries  []string
}

func (s *stubSearch) Search(ctx context.Context, query string) (*websearch.Response, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func searchCall(name, arguments string) openai.ToolCall {
	return openai.ToolCall{
		ID:   "call_1",
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}
}

func TestBuildTools(t *testing.T) {
	assert.Nil(t, buildTools(false))

	tools := buildTools(true)
	require.Len(t, tools, 1)
	assert.Equal(t, openai.ToolTypeFunction, tools[0].Type)
	assert.Equal(t, "searchTheWeb", tools[0].Function.Name)
}

func TestExecuteToolCall_ReturnsSearchResultsAsJSON(t *testing.T) {
	search := &stubSearch{response: &websearch.Response{
		Query: "go 1.25 release date",
		Results: []websearch.Result{
			{Title: "Go 1.25 Release Notes", URL: "https://go.dev/doc/go1.25", Content: "Go 1.25 was released"},
		},
	}}

	result, err := executeToolCall(context.Background(), search, searchCall("searchTheWeb", `{"query":"go 1.25 release date"}`))

	require.NoError(t, err)
	assert.Equal(t, []string{"go 1.25 release date"}, search.queries)
	assert.JSONEq(t, `[{"title":"Go 1.25 Release Notes","url":"https://go.dev/doc/go1.25","content":"Go 1.25 was released"}]`, result)
}

func TestExecuteToolCall_UnknownToolRejected(t *testing.T) {
	search := &stubSearch{}

	_, err := executeToolCall(context.Background(), search, searchCall("deleteAllFiles", `{}`))

	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeValidation, platformerrors.TypeOf(err))
	assert.Empty(t, search.queries)
}

func TestExecuteToolCall_MalformedArgumentsRejected(t *testing.T) {
	search := &stubSearch{}

	_, err := executeToolCall(context.Background(), search, searchCall("searchTheWeb", `{"query":`))

	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeValidation, platformerrors.TypeOf(err))
	assert.Empty(t, search.queries)
}

func TestExecuteToolCall_SearchFailurePropagates(t *testing.T) {
	searchErr := platformerrors.NewError(context.Background(), platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "search API error (status 500)", nil)
	search := &stubSearch{err: searchErr}

	_, err := executeToolCall(context.Background(), search, searchCall("searchTheWeb", `{"query":"anything"}`))

	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeExternal, platformerrors.TypeOf(err))
}
