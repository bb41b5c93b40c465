package sharehandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharz/dharz-ai/internal/domain"
	"github.com/dharz/dharz-ai/internal/domain/chat"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryRepository struct {
	nextID   uint
	chats    map[uint]*chat.Chat
	messages map[uint][]*chat.Message
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{nextID: 1, chats: map[uint]*chat.Chat{}, messages: map[uint][]*chat.Message{}}
}

func (r *memoryRepository) Create(ctx context.Context, c *chat.Chat) error {
	c.ID = r.nextID
	r.nextID++
	stored := *c
	r.chats[c.ID] = &stored
	return nil
}

func (r *memoryRepository) FindByFilter(ctx context.Context, filter chat.ChatFilter) (*chat.Chat, error) {
	for _, c := range r.chats {
		if filter.PublicID != nil && c.PublicID != *filter.PublicID {
			continue
		}
		if filter.SharePath != nil && (c.SharePath == nil || *c.SharePath != *filter.SharePath) {
			continue
		}
		found := *c
		return &found, nil
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "chat not found", nil)
}

func (r *memoryRepository) ListByUser(ctx context.Context, userID uint) ([]*chat.Chat, error) {
	return nil, nil
}

func (r *memoryRepository) Update(ctx context.Context, c *chat.Chat) error {
	stored := *c
	r.chats[c.ID] = &stored
	return nil
}

func (r *memoryRepository) Delete(ctx context.Context, id uint) error {
	delete(r.chats, id)
	return nil
}

func (r *memoryRepository) AddMessage(ctx context.Context, chatID uint, m *chat.Message) error {
	stored := *m
	r.messages[chatID] = append(r.messages[chatID], &stored)
	return nil
}

func (r *memoryRepository) ListMessages(ctx context.Context, chatID uint) ([]*chat.Message, error) {
	return append([]*chat.Message{}, r.messages[chatID]...), nil
}

func seedSharedChat(t *testing.T, repo *memoryRepository, svc *chat.Service) (publicID, sharePath string) {
	t.Helper()
	ctx := context.Background()

	c, err := svc.UpsertChat(ctx, "", 1)
	require.NoError(t, err)
	_, err = svc.AppendMessage(ctx, c.ID, chat.RoleUser, "what is the capital of Norway?", nil)
	require.NoError(t, err)
	_, err = svc.AppendMessage(ctx, c.ID, chat.RoleAssistant, "Oslo.", nil)
	require.NoError(t, err)
	require.NoError(t, svc.EnsureTitle(ctx, c, "what is the capital of Norway?"))

	path, err := svc.EnsureSharePath(ctx, c.PublicID, 1)
	require.NoError(t, err)
	return c.PublicID, path
}

func TestCreateShare_IdempotentForOwner(t *testing.T) {
	repo := newMemoryRepository()
	svc := chat.NewService(repo)
	handler := NewShareHandler(svc)

	c, err := svc.UpsertChat(context.Background(), "", 1)
	require.NoError(t, err)

	do := func(principal domain.Principal) *httptest.ResponseRecorder {
		recorder := httptest.NewRecorder()
		reqCtx, _ := gin.CreateTestContext(recorder)
		reqCtx.Request = httptest.NewRequest(http.MethodPost, "/v1/chats/"+c.PublicID+"/share", nil)
		reqCtx.Params = gin.Params{{Key: "chatId", Value: c.PublicID}}
		reqCtx.Set("principal", principal)
		handler.CreateShare(reqCtx)
		return recorder
	}

	owner := domain.Principal{UserID: 1, PublicID: "user_alice", Role: domain.RoleUser}
	first := do(owner)
	require.Equal(t, http.StatusOK, first.Code)
	var firstBody struct {
		SharePath string `json:"sharePath"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstBody))
	require.NotEmpty(t, firstBody.SharePath)

	second := do(owner)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), firstBody.SharePath)

	intruder := domain.Principal{UserID: 2, PublicID: "user_mallory", Role: domain.RoleUser}
	denied := do(intruder)
	assert.Equal(t, http.StatusNotFound, denied.Code)
}

func TestGetSharedChat_AnonymizedTranscript(t *testing.T) {
	repo := newMemoryRepository()
	svc := chat.NewService(repo)
	handler := NewShareHandler(svc)

	_, sharePath := seedSharedChat(t, repo, svc)

	recorder := httptest.NewRecorder()
	reqCtx, _ := gin.CreateTestContext(recorder)
	reqCtx.Request = httptest.NewRequest(http.MethodGet, "/public/shares/"+sharePath, nil)
	reqCtx.Params = gin.Params{{Key: "slug", Value: sharePath}}
	handler.GetSharedChat(reqCtx)

	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Title    string `json:"title"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "what is the capital of Norway?", body.Title)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "user", body.Messages[0].Role)
	assert.Equal(t, "Oslo.", body.Messages[1].Content)

	// No owner identity leaks through the public payload.
	assert.NotContains(t, recorder.Body.String(), "user_alice")
	assert.NotContains(t, recorder.Body.String(), "email")
}

func TestGetSharedChat_UnknownSlug(t *testing.T) {
	handler := NewShareHandler(chat.NewService(newMemoryRepository()))

	recorder := httptest.NewRecorder()
	reqCtx, _ := gin.CreateTestContext(recorder)
	reqCtx.Request = httptest.NewRequest(http.MethodGet, "/public/shares/nope", nil)
	reqCtx.Params = gin.Params{{Key: "slug", Value: "nope"}}
	handler.GetSharedChat(reqCtx)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
