package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharz/dharz-ai/internal/domain"
	"github.com/dharz/dharz-ai/internal/domain/user"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testUser() *user.User {
	return &user.User{
		ID:       7,
		PublicID: "user_abc123",
		Email:    "dev@example.com",
		Role:     domain.RoleAdmin,
	}
}

func TestIssueAndValidate(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, "dharz-ai", "dharz-web")

	token, err := svc.Issue(context.Background(), testUser())
	require.NoError(t, err)

	claims, err := svc.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user_abc123", claims.Subject)
	assert.Equal(t, "dev@example.com", claims.Email)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestValidate_RejectsExpiredToken(t *testing.T) {
	svc := NewTokenService(testSecret, -time.Minute, "dharz-ai", "dharz-web")

	token, err := svc.Issue(context.Background(), testUser())
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), token)
	assert.Error(t, err)
}

func TestValidate_RejectsWrongAudience(t *testing.T) {
	issuer := NewTokenService(testSecret, time.Hour, "dharz-ai", "other-app")
	validator := NewTokenService(testSecret, time.Hour, "dharz-ai", "dharz-web")

	token, err := issuer.Issue(context.Background(), testUser())
	require.NoError(t, err)

	_, err = validator.Validate(context.Background(), token)
	assert.Error(t, err)
}

func TestValidate_RejectsTamperedToken(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, "dharz-ai", "dharz-web")

	token, err := svc.Issue(context.Background(), testUser())
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), token+"x")
	assert.Error(t, err)
}
