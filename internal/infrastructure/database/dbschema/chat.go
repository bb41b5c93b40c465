package dbschema

import (
	"github.com/dharz/dharz-ai/internal/domain/chat"
	"github.com/dharz/dharz-ai/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Chat{})
}

// Chat represents the persisted conversation schema.
type Chat struct {
	BaseModel
	PublicID  string  `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID    uint    `gorm:"index;not null"`
	Title     *string `gorm:"type:varchar(255)"`
	SharePath *string `gorm:"type:varchar(100);uniqueIndex"`

	Messages []Message `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"`
}

// NewSchemaChat converts a domain chat into a schema instance.
func NewSchemaChat(c *chat.Chat) *Chat {
	if c == nil {
		return nil
	}

	return &Chat{
		BaseModel: BaseModel{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		PublicID:  c.PublicID,
		UserID:    c.UserID,
		Title:     c.Title,
		SharePath: c.SharePath,
	}
}

// EtoD converts a schema chat back to the domain representation. Messages
// are converted only when the association was preloaded.
func (c *Chat) EtoD() *chat.Chat {
	if c == nil {
		return nil
	}

	result := &chat.Chat{
		ID:        c.ID,
		PublicID:  c.PublicID,
		UserID:    c.UserID,
		Title:     c.Title,
		SharePath: c.SharePath,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}

	if len(c.Messages) > 0 {
		result.Messages = make([]chat.Message, 0, len(c.Messages))
		for i := range c.Messages {
			result.Messages = append(result.Messages, *c.Messages[i].EtoD())
		}
	}

	return result
}
