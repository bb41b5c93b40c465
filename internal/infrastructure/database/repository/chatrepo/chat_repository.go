package chatrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dharz/dharz-ai/internal/domain/chat"
	"github.com/dharz/dharz-ai/internal/infrastructure/database/dbschema"
	"github.com/dharz/dharz-ai/internal/utils/functional"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

type ChatGormRepository struct {
	db *gorm.DB
}

var _ chat.Repository = (*ChatGormRepository)(nil)

func NewChatGormRepository(db *gorm.DB) chat.Repository {
	return &ChatGormRepository{db}
}

// Create implements chat.Repository.
func (repo *ChatGormRepository) Create(ctx context.Context, c *chat.Chat) error {
	model := dbschema.NewSchemaChat(c)
	if err := repo.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, "chat already exists", err)
		}
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create chat")
	}
	c.ID = model.ID
	c.CreatedAt = model.CreatedAt
	c.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByFilter implements chat.Repository.
func (repo *ChatGormRepository) FindByFilter(ctx context.Context, filter chat.ChatFilter) (*chat.Chat, error) {
	var model dbschema.Chat
	err := repo.applyFilter(repo.db.WithContext(ctx), filter).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "chat not found", err)
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find chat")
	}
	return model.EtoD(), nil
}

// ListByUser implements chat.Repository. Chats come back newest first so the
// sidebar shows recent activity at the top.
func (repo *ChatGormRepository) ListByUser(ctx context.Context, userID uint) ([]*chat.Chat, error) {
	var rows []*dbschema.Chat
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list chats")
	}

	return functional.Map(rows, func(item *dbschema.Chat) *chat.Chat {
		return item.EtoD()
	}), nil
}

// Update implements chat.Repository.
func (repo *ChatGormRepository) Update(ctx context.Context, c *chat.Chat) error {
	model := dbschema.NewSchemaChat(c)
	if err := repo.db.WithContext(ctx).Save(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to update chat")
	}
	c.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete implements chat.Repository. Messages go with the chat through the
// ON DELETE CASCADE constraint on dharz.messages.
func (repo *ChatGormRepository) Delete(ctx context.Context, id uint) error {
	if err := repo.db.WithContext(ctx).Delete(&dbschema.Chat{}, id).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to delete chat")
	}
	return nil
}

// AddMessage implements chat.Repository.
func (repo *ChatGormRepository) AddMessage(ctx context.Context, chatID uint, m *chat.Message) error {
	m.ChatID = chatID
	model := dbschema.NewSchemaMessage(m)
	if err := repo.db.WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create message")
	}
	m.ID = model.ID
	m.CreatedAt = model.CreatedAt
	return nil
}

// ListMessages implements chat.Repository. Order is append order: CreatedAt
// ascending with the surrogate id as tiebreaker for same-timestamp turns.
func (repo *ChatGormRepository) ListMessages(ctx context.Context, chatID uint) ([]*chat.Message, error) {
	var rows []*dbschema.Message
	err := repo.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list messages")
	}

	return functional.Map(rows, func(item *dbschema.Message) *chat.Message {
		return item.EtoD()
	}), nil
}

// applyFilter applies filter conditions to the query
func (repo *ChatGormRepository) applyFilter(sql *gorm.DB, filter chat.ChatFilter) *gorm.DB {
	if filter.ID != nil {
		sql = sql.Where("id = ?", *filter.ID)
	}
	if filter.PublicID != nil {
		sql = sql.Where("public_id = ?", *filter.PublicID)
	}
	if filter.UserID != nil {
		sql = sql.Where("user_id = ?", *filter.UserID)
	}
	if filter.SharePath != nil {
		sql = sql.Where("share_path = ?", *filter.SharePath)
	}
	return sql
}
