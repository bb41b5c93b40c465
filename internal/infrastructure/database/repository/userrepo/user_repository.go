package userrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dharz/dharz-ai/internal/domain/user"
	"github.com/dharz/dharz-ai/internal/infrastructure/database/dbschema"
	"github.com/dharz/dharz-ai/internal/utils/functional"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

type UserGormRepository struct {
	db *gorm.DB
}

var _ user.Repository = (*UserGormRepository)(nil)

func NewUserGormRepository(db *gorm.DB) user.Repository {
	return &UserGormRepository{db}
}

// Create implements user.Repository.
func (repo *UserGormRepository) Create(ctx context.Context, u *user.User) error {
	model := dbschema.NewSchemaUser(u)
	if err := repo.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, "user already exists", err)
		}
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create user")
	}
	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByFilter implements user.Repository.
func (repo *UserGormRepository) FindByFilter(ctx context.Context, filter user.UserFilter) (*user.User, error) {
	var model dbschema.User
	err := repo.applyFilter(repo.db.WithContext(ctx), filter).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "user not found", err)
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find user")
	}
	return model.EtoD(), nil
}

// List implements user.Repository.
func (repo *UserGormRepository) List(ctx context.Context) ([]*user.User, error) {
	var rows []*dbschema.User
	err := repo.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list users")
	}

	return functional.Map(rows, func(item *dbschema.User) *user.User {
		return item.EtoD()
	}), nil
}

// Delete implements user.Repository. Owned chats and their messages are
// removed through the cascade constraints.
func (repo *UserGormRepository) Delete(ctx context.Context, id uint) error {
	if err := repo.db.WithContext(ctx).Delete(&dbschema.User{}, id).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to delete user")
	}
	return nil
}

// applyFilter applies filter conditions to the query
func (repo *UserGormRepository) applyFilter(sql *gorm.DB, filter user.UserFilter) *gorm.DB {
	if filter.ID != nil {
		sql = sql.Where("id = ?", *filter.ID)
	}
	if filter.PublicID != nil {
		sql = sql.Where("public_id = ?", *filter.PublicID)
	}
	if filter.Email != nil {
		sql = sql.Where("email = ?", *filter.Email)
	}
	return sql
}
