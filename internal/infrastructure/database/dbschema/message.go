package dbschema

import (
	"github.com/dharz/dharz-ai/internal/domain/chat"
	"github.com/dharz/dharz-ai/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Message{})
}

// Message represents a persisted conversation turn.
type Message struct {
	BaseModel
	PublicID string  `gorm:"type:varchar(50);uniqueIndex;not null"`
	ChatID   uint    `gorm:"index;not null"`
	Role     string  `gorm:"type:varchar(20);not null"`
	Content  string  `gorm:"type:text;not null"`
	ImageURL *string `gorm:"type:text"`
}

// NewSchemaMessage converts a domain message into a schema instance.
func NewSchemaMessage(m *chat.Message) *Message {
	if m == nil {
		return nil
	}

	return &Message{
		BaseModel: BaseModel{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
		},
		PublicID: m.PublicID,
		ChatID:   m.ChatID,
		Role:     string(m.Role),
		Content:  m.Content,
		ImageURL: m.ImageURL,
	}
}

// EtoD converts a schema message back to the domain representation.
func (m *Message) EtoD() *chat.Message {
	if m == nil {
		return nil
	}

	return &chat.Message{
		ID:        m.ID,
		PublicID:  m.PublicID,
		ChatID:    m.ChatID,
		Role:      chat.Role(m.Role),
		Content:   m.Content,
		ImageURL:  m.ImageURL,
		CreatedAt: m.CreatedAt,
	}
}
