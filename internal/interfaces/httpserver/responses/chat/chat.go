// Package chatresponses contains the JSON views for chats and their turns.
package chatresponses

import (
	"time"

	"github.com/dharz/dharz-ai/internal/domain/chat"
	"github.com/dharz/dharz-ai/internal/utils/functional"
)

type MessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	ImageURL  *string   `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type ChatResponse struct {
	ID        string            `json:"id"`
	Title     *string           `json:"title,omitempty"`
	SharePath *string           `json:"sharePath,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Messages  []MessageResponse `json:"messages,omitempty"`
}

type ChatListResponse struct {
	Chats []ChatResponse `json:"chats"`
}

func NewMessageResponse(m *chat.Message) MessageResponse {
	return MessageResponse{
		ID:        m.PublicID,
		Role:      string(m.Role),
		Content:   m.Content,
		ImageURL:  m.ImageURL,
		CreatedAt: m.CreatedAt,
	}
}

func NewChatResponse(c *chat.Chat) ChatResponse {
	resp := ChatResponse{
		ID:        c.PublicID,
		Title:     c.Title,
		SharePath: c.SharePath,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if len(c.Messages) > 0 {
		resp.Messages = make([]MessageResponse, 0, len(c.Messages))
		for i := range c.Messages {
			resp.Messages = append(resp.Messages, NewMessageResponse(&c.Messages[i]))
		}
	}
	return resp
}

func NewChatListResponse(chats []*chat.Chat) ChatListResponse {
	return ChatListResponse{
		Chats: functional.Map(chats, func(c *chat.Chat) ChatResponse {
			return NewChatResponse(c)
		}),
	}
}
