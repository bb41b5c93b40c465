package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharz/dharz-ai/internal/domain/chat"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

// memoryRepository is an in-memory chat.Repository for testing.
type memoryRepository struct {
	nextChatID    uint
	nextMessageID uint
	chats         map[uint]*chat.Chat
	messages      map[uint][]*chat.Message
	failCreate    bool
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		chats:    make(map[uint]*chat.Chat),
		messages: make(map[uint][]*chat.Message),
	}
}

func (r *memoryRepository) Create(ctx context.Context, c *chat.Chat) error {
	if r.failCreate {
		return errors.New("create failed")
	}
	for _, existing := range r.chats {
		if existing.PublicID == c.PublicID {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	r.nextChatID++
	c.ID = r.nextChatID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	clone := *c
	r.chats[c.ID] = &clone
	return nil
}

func (r *memoryRepository) FindByFilter(ctx context.Context, filter chat.ChatFilter) (*chat.Chat, error) {
	for _, c := range r.chats {
		if filter.ID != nil && c.ID != *filter.ID {
			continue
		}
		if filter.PublicID != nil && c.PublicID != *filter.PublicID {
			continue
		}
		if filter.UserID != nil && c.UserID != *filter.UserID {
			continue
		}
		if filter.SharePath != nil && (c.SharePath == nil || *c.SharePath != *filter.SharePath) {
			continue
		}
		clone := *c
		return &clone, nil
	}
	return nil, errors.New("record not found")
}

func (r *memoryRepository) ListByUser(ctx context.Context, userID uint) ([]*chat.Chat, error) {
	var result []*chat.Chat
	for _, c := range r.chats {
		if c.UserID == userID {
			clone := *c
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (r *memoryRepository) Update(ctx context.Context, c *chat.Chat) error {
	stored, ok := r.chats[c.ID]
	if !ok {
		return errors.New("record not found")
	}
	*stored = *c
	return nil
}

func (r *memoryRepository) Delete(ctx context.Context, id uint) error {
	delete(r.chats, id)
	delete(r.messages, id)
	return nil
}

func (r *memoryRepository) AddMessage(ctx context.Context, chatID uint, m *chat.Message) error {
	if _, ok := r.chats[chatID]; !ok {
		return errors.New("chat not found")
	}
	r.nextMessageID++
	m.ID = r.nextMessageID
	m.CreatedAt = time.Now().Add(time.Duration(r.nextMessageID) * time.Millisecond)
	clone := *m
	r.messages[chatID] = append(r.messages[chatID], &clone)
	return nil
}

func (r *memoryRepository) ListMessages(ctx context.Context, chatID uint) ([]*chat.Message, error) {
	stored := r.messages[chatID]
	result := make([]*chat.Message, 0, len(stored))
	for _, m := range stored {
		clone := *m
		result = append(result, &clone)
	}
	return result, nil
}

func TestUpsertChat_CreatesNewWhenNoClientID(t *testing.T) {
	repo := newMemoryRepository()
	svc := chat.NewService(repo)

	c, err := svc.UpsertChat(context.Background(), "", 1)
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, uint(1), c.UserID)
	assert.Contains(t, c.PublicID, "chat_")
}

func TestUpsertChat_IdempotentOnClientID(t *testing.T) {
	repo := newMemoryRepository()
	svc := chat.NewService(repo)

	clientID := "chat_a3f8d2k9p1m4n7q2"
	first, err := svc.UpsertChat(context.Background(), clientID, 1)
	require.NoError(t, err)

	second, err := svc.UpsertChat(context.Background(), clientID, 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.PublicID, second.PublicID)
	assert.Len(t, repo.chats, 1)
}

func TestUpsertChat_NeverReturnsForeignChat(t *testing.T) {
	repo := newMemoryRepository()
	svc := chat.NewService(repo)

	clientID := "chat_a3f8d2k9p1m4n7q2"
	_, err := svc.UpsertChat(context.Background(), clientID, 1)
	require.NoError(t, err)

	_, err = svc.UpsertChat(context.Background(), clientID, 2)
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeNotFound, platformerrors.TypeOf(err))
	assert.Len(t, repo.chats, 1)
}

func TestUpsertChat_RejectsMalformedClientID(t *testing.T) {
	repo := newMemoryRepository()
	svc := chat.NewService(repo)

	_, err := svc.UpsertChat(context.Background(), "not-a-chat-id", 1)
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeValidation, platformerrors.TypeOf(err))
}

func TestAppendMessage_RejectsToolRole(t *testing.T) {
	repo := newMemoryRepository()
	svc := chat.NewService(repo)

	c, err := svc.UpsertChat(context.Background(), "", 1)
	require.NoError(t, err)

	_, err = svc.AppendMessage(context.Background(), c.ID, chat.RoleTool, "{}", nil)
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeValidation, platformerrors.TypeOf(err))
}

func TestHistory_PreservesAppendOrder(t *testing.T) {
	repo := newMemoryRepository()
	svc := chat.NewService(repo)

	c, err := svc.UpsertChat(context.Background(), "", 1)
	require.NoError(t, err)

	contents := []string{"first", "second", "third", "fourth"}
	for i, content := range contents {
		role := chat.RoleUser
		if i%2 == 1 {
			role = chat.RoleAssistant
		}
		_, err := svc.AppendMessage(context.Background(), c.ID, role, content, nil)
		require.NoError(t, err)
	}

	history, err := svc.History(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, history, len(contents))
	for i, m := range history {
		assert.Equal(t, contents[i], m.Content)
		if i > 0 {
			assert.True(t, !m.CreatedAt.Before(history[i-1].CreatedAt))
		}
	}
}

func TestDeleteChat_OwnerOnly(t *testing.T) {
	repo := newMemoryRepository()
	svc := chat.NewService(repo)

	c, err := svc.UpsertChat(context.Background(), "", 1)
	require.NoError(t, err)
	_, err = svc.AppendMessage(context.Background(), c.ID, chat.RoleUser, "hello", nil)
	require.NoError(t, err)

	err = svc.DeleteChat(context.Background(), c.PublicID, 2)
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeNotFound, platformerrors.TypeOf(err))

	err = svc.DeleteChat(context.Background(), c.PublicID, 1)
	require.NoError(t, err)
	assert.Empty(t, repo.chats)
	assert.Empty(t, repo.messages)
}

func TestEnsureSharePath_Idempotent(t *testing.T) {
	repo := newMemoryRepository()
	svc := chat.NewService(repo)

	c, err := svc.UpsertChat(context.Background(), "", 1)
	require.NoError(t, err)

	first, err := svc.EnsureSharePath(context.Background(), c.PublicID, 1)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := svc.EnsureSharePath(context.Background(), c.PublicID, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEnsureSharePath_OwnerOnly(t *testing.T) {
	repo := newMemoryRepository()
	svc := chat.NewService(repo)

	c, err := svc.UpsertChat(context.Background(), "", 1)
	require.NoError(t, err)

	_, err = svc.EnsureSharePath(context.Background(), c.PublicID, 2)
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeNotFound, platformerrors.TypeOf(err))
}

func TestGetSharedChat_ReadOnlyAccess(t *testing.T) {
	repo := newMemoryRepository()
	svc := chat.NewService(repo)

	c, err := svc.UpsertChat(context.Background(), "", 1)
	require.NoError(t, err)
	_, err = svc.AppendMessage(context.Background(), c.ID, chat.RoleUser, "hello", nil)
	require.NoError(t, err)
	_, err = svc.AppendMessage(context.Background(), c.ID, chat.RoleAssistant, "hi there", nil)
	require.NoError(t, err)

	token, err := svc.EnsureSharePath(context.Background(), c.PublicID, 1)
	require.NoError(t, err)

	shared, err := svc.GetSharedChat(context.Background(), token)
	require.NoError(t, err)
	require.Len(t, shared.Messages, 2)
	assert.Equal(t, "hello", shared.Messages[0].Content)
	assert.Equal(t, "hi there", shared.Messages[1].Content)

	_, err = svc.GetSharedChat(context.Background(), "nonexistent-token")
	require.Error(t, err)
}

func TestGetOwnedChat_ConflatesNotFoundAndForbidden(t *testing.T) {
	repo := newMemoryRepository()
	svc := chat.NewService(repo)

	c, err := svc.UpsertChat(context.Background(), "", 1)
	require.NoError(t, err)

	_, foreignErr := svc.GetOwnedChat(context.Background(), c.PublicID, 2)
	_, missingErr := svc.GetOwnedChat(context.Background(), "chat_doesnotexist01", 2)

	require.Error(t, foreignErr)
	require.Error(t, missingErr)
	assert.Equal(t, platformerrors.TypeOf(missingErr), platformerrors.TypeOf(foreignErr))
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "empty", content: "", want: "New Chat"},
		{name: "short message kept whole", content: "Hello there", want: "Hello there"},
		{
			name:    "long message breaks on word boundary",
			content: "What are the best restaurants in Lisbon for a family dinner on a budget",
			want:    "What are the best restaurants in Lisbon for a family dinner...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chat.DeriveTitle(tt.content))
		})
	}
}
