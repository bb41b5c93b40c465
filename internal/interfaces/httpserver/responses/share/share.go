// Package shareresponses contains the JSON views for share links.
package shareresponses

import (
	chatresponses "github.com/dharz/dharz-ai/internal/interfaces/httpserver/responses/chat"
)

type ShareResponse struct {
	SharePath string `json:"sharePath"`
}

// PublicShareResponse is the read-only view served to unauthenticated
// visitors of a share link.
type PublicShareResponse struct {
	Title    *string                         `json:"title,omitempty"`
	Messages []chatresponses.MessageResponse `json:"messages"`
}
