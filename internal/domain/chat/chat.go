// Package chat contains the conversation thread and turn aggregates.
package chat

import (
	"context"
	"fmt"
	"time"
)

// Role tags a message with its author. Tool results appear on the wire but
// are never persisted; only user and assistant turns are stored.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ParseRole validates a wire role tag.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleUser, RoleAssistant, RoleTool:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown message role: %q", raw)
	}
}

// Chat is a persisted conversation thread owned by exactly one user.
type Chat struct {
	ID        uint
	PublicID  string
	UserID    uint
	Title     *string
	SharePath *string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn within a chat. Turns are append-only and ordered by
// CreatedAt ascending; ImageURL stores the attachment reference, never the
// encoded bytes.
type Message struct {
	ID        uint
	PublicID  string
	ChatID    uint
	Role      Role
	Content   string
	ImageURL  *string
	CreatedAt time.Time
}

// ChatFilter narrows repository lookups.
type ChatFilter struct {
	ID        *uint
	PublicID  *string
	UserID    *uint
	SharePath *string
}

// Repository defines storage operations for chats and their messages.
type Repository interface {
	Create(ctx context.Context, c *Chat) error
	FindByFilter(ctx context.Context, filter ChatFilter) (*Chat, error)
	ListByUser(ctx context.Context, userID uint) ([]*Chat, error)
	Update(ctx context.Context, c *Chat) error
	// Delete cascades to the chat's messages.
	Delete(ctx context.Context, id uint) error

	AddMessage(ctx context.Context, chatID uint, m *Message) error
	// ListMessages returns messages in CreatedAt ascending order.
	ListMessages(ctx context.Context, chatID uint) ([]*Message, error)
}
