package adminhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharz/dharz-ai/internal/domain"
	"github.com/dharz/dharz-ai/internal/domain/user"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryUserRepository struct {
	nextID uint
	users  map[uint]*user.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{nextID: 1, users: map[uint]*user.User{}}
}

func (r *memoryUserRepository) Create(ctx context.Context, u *user.User) error {
	u.ID = r.nextID
	r.nextID++
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *memoryUserRepository) FindByFilter(ctx context.Context, filter user.UserFilter) (*user.User, error) {
	for _, u := range r.users {
		if filter.ID != nil && u.ID != *filter.ID {
			continue
		}
		if filter.PublicID != nil && u.PublicID != *filter.PublicID {
			continue
		}
		if filter.Email != nil && u.Email != *filter.Email {
			continue
		}
		found := *u
		return &found, nil
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "user not found", nil)
}

func (r *memoryUserRepository) List(ctx context.Context) ([]*user.User, error) {
	var out []*user.User
	for _, u := range r.users {
		found := *u
		out = append(out, &found)
	}
	return out, nil
}

func (r *memoryUserRepository) Delete(ctx context.Context, id uint) error {
	delete(r.users, id)
	return nil
}

func adminPrincipal(publicID string) domain.Principal {
	return domain.Principal{UserID: 1, PublicID: publicID, Role: domain.RoleAdmin}
}

func registerUser(t *testing.T, svc *user.Service, name, email string) *user.User {
	t.Helper()
	u, err := svc.Register(context.Background(), user.RegisterInput{
		Name:     name,
		Email:    email,
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	return u
}

func TestListUsers_ReturnsAllAccounts(t *testing.T) {
	repo := newMemoryUserRepository()
	svc := user.NewService(repo)
	handler := NewUsersHandler(svc)

	registerUser(t, svc, "Alice", "alice@example.com")
	registerUser(t, svc, "Bob", "bob@example.com")

	recorder := httptest.NewRecorder()
	reqCtx, _ := gin.CreateTestContext(recorder)
	reqCtx.Request = httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	reqCtx.Set("principal", adminPrincipal("user_admin"))
	handler.ListUsers(reqCtx)

	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Users []struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Len(t, body.Users, 2)
	// Password hashes never appear in the response.
	assert.NotContains(t, recorder.Body.String(), "password")
}

func TestCreateUser_DuplicateEmailConflicts(t *testing.T) {
	repo := newMemoryUserRepository()
	svc := user.NewService(repo)
	handler := NewUsersHandler(svc)

	registerUser(t, svc, "Alice", "alice@example.com")

	do := func(body string) *httptest.ResponseRecorder {
		recorder := httptest.NewRecorder()
		reqCtx, _ := gin.CreateTestContext(recorder)
		reqCtx.Request = httptest.NewRequest(http.MethodPost, "/v1/admin/users", strings.NewReader(body))
		reqCtx.Request.Header.Set("Content-Type", "application/json")
		reqCtx.Set("principal", adminPrincipal("user_admin"))
		handler.CreateUser(reqCtx)
		return recorder
	}

	created := do(`{"name":"Carol","email":"carol@example.com","password":"long enough pw","role":"ADMIN"}`)
	require.Equal(t, http.StatusCreated, created.Code)
	assert.Contains(t, created.Body.String(), `"role":"ADMIN"`)
	assert.NotContains(t, created.Body.String(), "password")

	duplicate := do(`{"name":"Alice Again","email":"alice@example.com","password":"long enough pw"}`)
	assert.Equal(t, http.StatusConflict, duplicate.Code)
}

func TestDeleteUser_RemovesAccount(t *testing.T) {
	repo := newMemoryUserRepository()
	svc := user.NewService(repo)
	handler := NewUsersHandler(svc)

	victim := registerUser(t, svc, "Bob", "bob@example.com")

	recorder := httptest.NewRecorder()
	reqCtx, _ := gin.CreateTestContext(recorder)
	reqCtx.Request = httptest.NewRequest(http.MethodDelete, "/v1/admin/users/"+victim.PublicID, nil)
	reqCtx.Params = gin.Params{{Key: "userId", Value: victim.PublicID}}
	reqCtx.Set("principal", adminPrincipal("user_admin"))
	handler.DeleteUser(reqCtx)
	// Flush the lazily recorded status: gin only writes it to the recorder on a
	// body write or when the middleware chain finishes, neither of which happens
	// when a handler is invoked directly and responds with no body.
	reqCtx.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Empty(t, repo.users)
}

func TestDeleteUser_SelfDeletionRejected(t *testing.T) {
	repo := newMemoryUserRepository()
	svc := user.NewService(repo)
	handler := NewUsersHandler(svc)

	admin := registerUser(t, svc, "Admin", "admin@example.com")

	recorder := httptest.NewRecorder()
	reqCtx, _ := gin.CreateTestContext(recorder)
	reqCtx.Request = httptest.NewRequest(http.MethodDelete, "/v1/admin/users/"+admin.PublicID, nil)
	reqCtx.Params = gin.Params{{Key: "userId", Value: admin.PublicID}}
	reqCtx.Set("principal", domain.Principal{UserID: admin.ID, PublicID: admin.PublicID, Role: domain.RoleAdmin})
	handler.DeleteUser(reqCtx)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Len(t, repo.users, 1)
}

func TestDeleteUser_UnknownUser(t *testing.T) {
	handler := NewUsersHandler(user.NewService(newMemoryUserRepository()))

	recorder := httptest.NewRecorder()
	reqCtx, _ := gin.CreateTestContext(recorder)
	reqCtx.Request = httptest.NewRequest(http.MethodDelete, "/v1/admin/users/user_ghost", nil)
	reqCtx.Params = gin.Params{{Key: "userId", Value: "user_ghost"}}
	reqCtx.Set("principal", adminPrincipal("user_admin"))
	handler.DeleteUser(reqCtx)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
