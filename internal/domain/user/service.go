package user

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dharz/dharz-ai/internal/domain"
	"github.com/dharz/dharz-ai/internal/utils/idgen"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

const bcryptCost = 10

// Service manages account registration, credential checks and admin operations.
type Service struct {
	repo Repository
}

// NewService constructs a Service with required dependencies.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Register creates a new account with a hashed password. The email must be
// unused; duplicates surface as CONFLICT.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" || email == "" || input.Password == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "name, email and password are required", nil)
	}

	if existing, err := s.repo.FindByFilter(ctx, UserFilter{Email: &email}); err == nil && existing != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "user with this email already exists", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "hash password")
	}

	publicID, err := idgen.GenerateSecureID("user", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "generate user id")
	}

	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}

	u := &User{
		PublicID:     publicID,
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "create user")
	}
	return u, nil
}

// Authenticate verifies credentials and returns the matching user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "email and password are required", nil)
	}

	u, err := s.repo.FindByFilter(ctx, UserFilter{Email: &email})
	if err != nil || u == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "invalid email or password", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "invalid email or password", nil)
	}
	return u, nil
}

// GetByPublicID resolves a user from its public identifier.
func (s *Service) GetByPublicID(ctx context.Context, publicID string) (*User, error) {
	u, err := s.repo.FindByFilter(ctx, UserFilter{PublicID: &publicID})
	if err != nil || u == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "user not found", err)
	}
	return u, nil
}

// List returns all accounts, for administrative use.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "list users")
	}
	return users, nil
}

// DeleteAccount removes a user. Requesters cannot delete their own account.
func (s *Service) DeleteAccount(ctx context.Context, publicID string, requester domain.Principal) error {
	if publicID == requester.PublicID {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "cannot delete your own account", nil)
	}

	u, err := s.repo.FindByFilter(ctx, UserFilter{PublicID: &publicID})
	if err != nil || u == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "user not found", err)
	}

	if err := s.repo.Delete(ctx, u.ID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "delete user")
	}
	return nil
}
