// Package adminhandler exposes administrative account management.
package adminhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dharz/dharz-ai/internal/domain"
	"github.com/dharz/dharz-ai/internal/domain/user"
	"github.com/dharz/dharz-ai/internal/infrastructure/observability"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/middlewares"
	adminrequests "github.com/dharz/dharz-ai/internal/interfaces/httpserver/requests/admin"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/responses"
	userresponses "github.com/dharz/dharz-ai/internal/interfaces/httpserver/responses/user"
	"github.com/dharz/dharz-ai/internal/utils/functional"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

// UsersHandler manages accounts on behalf of administrators. Authorization
// happens in the route middleware; handlers assume an admin principal.
type UsersHandler struct {
	users *user.Service
}

func NewUsersHandler(users *user.Service) *UsersHandler {
	return &UsersHandler{users: users}
}

// ListUsers returns every account.
func (h *UsersHandler) ListUsers(reqCtx *gin.Context) {
	ctx, span := observability.StartSpan(reqCtx.Request.Context(), "dharz-ai", "UsersHandler.ListUsers")
	defer span.End()

	users, err := h.users.List(ctx)
	if err != nil {
		observability.RecordError(ctx, err)
		responses.HandleError(reqCtx, err)
		return
	}

	reqCtx.JSON(http.StatusOK, gin.H{
		"users": functional.Map(users, func(u *user.User) userresponses.UserResponse {
			return userresponses.NewUserResponse(u)
		}),
	})
}

// CreateUser provisions an account, optionally with the ADMIN role. The
// response never carries the password hash.
func (h *UsersHandler) CreateUser(reqCtx *gin.Context) {
	ctx, span := observability.StartSpan(reqCtx.Request.Context(), "dharz-ai", "UsersHandler.CreateUser")
	defer span.End()

	var req adminrequests.CreateUserRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleError(reqCtx, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid request body", err))
		return
	}

	u, err := h.users.Register(ctx, user.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		observability.RecordError(ctx, err)
		responses.HandleError(reqCtx, err)
		return
	}

	reqCtx.JSON(http.StatusCreated, userresponses.NewUserResponse(u))
}

// DeleteUser removes an account and, through the schema cascade, its chats.
// Admins cannot delete themselves.
func (h *UsersHandler) DeleteUser(reqCtx *gin.Context) {
	ctx, span := observability.StartSpan(reqCtx.Request.Context(), "dharz-ai", "UsersHandler.DeleteUser")
	defer span.End()

	principal, ok := middlewares.PrincipalFromContext(reqCtx)
	if !ok {
		responses.HandleError(reqCtx, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeUnauthorized, "authentication required", nil))
		return
	}

	if err := h.users.DeleteAccount(ctx, reqCtx.Param("userId"), principal); err != nil {
		observability.RecordError(ctx, err)
		responses.HandleError(reqCtx, err)
		return
	}

	reqCtx.Status(http.StatusNoContent)
}
