// Package user provides user domain models and behaviors.
package user

import (
	"context"
	"time"

	"github.com/dharz/dharz-ai/internal/domain"
)

// User models an application account with credentials-based sign in.
type User struct {
	ID           uint
	PublicID     string
	Name         string
	Email        string
	PasswordHash string
	Role         domain.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserFilter narrows repository lookups.
type UserFilter struct {
	ID       *uint
	PublicID *string
	Email    *string
}

// Repository defines storage operations for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByFilter(ctx context.Context, filter UserFilter) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Delete(ctx context.Context, id uint) error
}
