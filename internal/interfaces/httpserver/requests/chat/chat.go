// Package chatrequests contains the wire types accepted by the chat endpoint.
package chatrequests

// TurnPayload is one raw turn as sent by the client. Tool turns carry the
// encoded result of an earlier tool call in Content.
type TurnPayload struct {
	Role     string  `json:"role" binding:"required"`
	Content  string  `json:"content"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

// ChatRequest is the body of POST /v1/chat. ChatID, when set, continues an
// existing owned chat; ImageRef attaches one image to the newest user turn.
type ChatRequest struct {
	Messages         []TurnPayload `json:"messages" binding:"required,min=1"`
	ChatID           string        `json:"chatId,omitempty"`
	ImageRef         string        `json:"imageRef,omitempty"`
	WebSearchEnabled bool          `json:"webSearchEnabled,omitempty"`
}
