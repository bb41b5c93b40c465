package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/dharz/dharz-ai/internal/utils/idgen"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

const titleMaxLen = 60

// Service owns creation/continuation of chats and append-only message storage.
type Service struct {
	repo Repository
}

// NewService constructs a Service with required dependencies.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// UpsertChat resolves or creates the chat for a turn. When clientID is
// supplied and already names a chat owned by userID the existing chat is
// reused, so client retries and two-tab races stay idempotent on the id.
// A clientID owned by a different user yields NOT_FOUND rather than leaking
// the chat's existence. An empty clientID always creates a new chat.
func (s *Service) UpsertChat(ctx context.Context, clientID string, userID uint) (*Chat, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID != "" {
		existing, err := s.repo.FindByFilter(ctx, ChatFilter{PublicID: &clientID})
		if err == nil && existing != nil {
			if existing.UserID != userID {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "chat not found", nil)
			}
			return existing, nil
		}
	}

	publicID := clientID
	if publicID == "" {
		generated, err := idgen.GenerateSecureID("chat", 16)
		if err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "generate chat id")
		}
		publicID = generated
	} else if !idgen.ValidateIDFormat(publicID, "chat") {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid chat id", nil)
	}

	c := &Chat{
		PublicID: publicID,
		UserID:   userID,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		// A concurrent request may have created the same client-chosen id;
		// treat the unique-index violation as "already exists" and reuse.
		if clientID != "" {
			if existing, findErr := s.repo.FindByFilter(ctx, ChatFilter{PublicID: &clientID}); findErr == nil && existing != nil && existing.UserID == userID {
				return existing, nil
			}
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "create chat")
	}
	return c, nil
}

// AppendMessage appends one turn to a chat. Content holds the plain-text
// portion only; imageURL carries the attachment reference when present.
func (s *Service) AppendMessage(ctx context.Context, chatID uint, role Role, content string, imageURL *string) (*Message, error) {
	if role != RoleUser && role != RoleAssistant {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "only user and assistant turns are persisted", nil)
	}

	publicID, err := idgen.GenerateSecureID("msg", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "generate message id")
	}

	m := &Message{
		PublicID: publicID,
		ChatID:   chatID,
		Role:     role,
		Content:  content,
		ImageURL: imageURL,
	}
	if err := s.repo.AddMessage(ctx, chatID, m); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "append message")
	}
	return m, nil
}

// History returns a chat's turns in creation order.
func (s *Service) History(ctx context.Context, chatID uint) ([]*Message, error) {
	messages, err := s.repo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "list messages")
	}
	return messages, nil
}

func (s *Service) attachHistory(ctx context.Context, c *Chat) error {
	messages, err := s.History(ctx, c.ID)
	if err != nil {
		return err
	}
	c.Messages = make([]Message, 0, len(messages))
	for _, m := range messages {
		c.Messages = append(c.Messages, *m)
	}
	return nil
}

// GetOwnedChat fetches a chat with its messages, failing with NOT_FOUND when
// the chat does not exist or belongs to another user.
func (s *Service) GetOwnedChat(ctx context.Context, publicID string, userID uint) (*Chat, error) {
	c, err := s.repo.FindByFilter(ctx, ChatFilter{PublicID: &publicID})
	if err != nil || c == nil || c.UserID != userID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "chat not found", nil)
	}

	if err := s.attachHistory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListChats returns the chats owned by a user, newest first.
func (s *Service) ListChats(ctx context.Context, userID uint) ([]*Chat, error) {
	chats, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "list chats")
	}
	return chats, nil
}

// DeleteChat removes an owned chat and, by cascade, all of its messages.
func (s *Service) DeleteChat(ctx context.Context, publicID string, userID uint) error {
	c, err := s.repo.FindByFilter(ctx, ChatFilter{PublicID: &publicID})
	if err != nil || c == nil || c.UserID != userID {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "chat not found", nil)
	}

	if err := s.repo.Delete(ctx, c.ID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "delete chat")
	}
	return nil
}

// EnsureSharePath mints a share token for an owned chat, or returns the
// existing one unchanged. The token grants read-only public access.
func (s *Service) EnsureSharePath(ctx context.Context, publicID string, userID uint) (string, error) {
	c, err := s.repo.FindByFilter(ctx, ChatFilter{PublicID: &publicID})
	if err != nil || c == nil || c.UserID != userID {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "chat not found", nil)
	}

	if c.SharePath != nil && *c.SharePath != "" {
		return *c.SharePath, nil
	}

	token := uuid.NewString()
	c.SharePath = &token
	if err := s.repo.Update(ctx, c); err != nil {
		return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "set share path")
	}
	return token, nil
}

// GetSharedChat resolves a chat from its share token, with messages in
// creation order. No authentication is required; the share grants read-only
// access to turn content.
func (s *Service) GetSharedChat(ctx context.Context, sharePath string) (*Chat, error) {
	if strings.TrimSpace(sharePath) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "share path is required", nil)
	}

	c, err := s.repo.FindByFilter(ctx, ChatFilter{SharePath: &sharePath})
	if err != nil || c == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "shared chat not found", nil)
	}

	if err := s.attachHistory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// EnsureTitle derives a title from the first user message when the chat has
// none yet. Failures are reported but callers may ignore them.
func (s *Service) EnsureTitle(ctx context.Context, c *Chat, firstUserMessage string) error {
	if c == nil || (c.Title != nil && *c.Title != "") {
		return nil
	}

	title := DeriveTitle(firstUserMessage)
	if title == "" {
		return nil
	}
	c.Title = &title
	if err := s.repo.Update(ctx, c); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "update chat title")
	}
	return nil
}

// DeriveTitle truncates a message to a display title, breaking on a word
// boundary when one falls late enough.
func DeriveTitle(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return "New Chat"
	}
	if len(content) <= titleMaxLen {
		return content
	}

	truncated := content[:titleMaxLen]
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > titleMaxLen/2 {
		return content[:lastSpace] + "..."
	}
	return truncated + "..."
}
