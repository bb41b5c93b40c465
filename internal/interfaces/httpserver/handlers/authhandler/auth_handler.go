// Package authhandler exposes account registration and session endpoints.
package authhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dharz/dharz-ai/internal/domain/user"
	"github.com/dharz/dharz-ai/internal/infrastructure/auth"
	"github.com/dharz/dharz-ai/internal/infrastructure/metrics"
	"github.com/dharz/dharz-ai/internal/infrastructure/observability"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/middlewares"
	authrequests "github.com/dharz/dharz-ai/internal/interfaces/httpserver/requests/auth"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/responses"
	userresponses "github.com/dharz/dharz-ai/internal/interfaces/httpserver/responses/user"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

// AuthHandler handles registration, login and session introspection.
type AuthHandler struct {
	users  *user.Service
	tokens *auth.TokenService
}

func NewAuthHandler(users *user.Service, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// Register creates an account and returns a session token for it, so new
// users land signed in.
func (h *AuthHandler) Register(reqCtx *gin.Context) {
	ctx, span := observability.StartSpan(reqCtx.Request.Context(), "dharz-ai", "AuthHandler.Register")
	defer span.End()

	var req authrequests.RegisterRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		metrics.RecordAuthRequest("register", "invalid")
		responses.HandleError(reqCtx, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid request body", err))
		return
	}

	u, err := h.users.Register(ctx, user.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		metrics.RecordAuthRequest("register", "error")
		observability.RecordError(ctx, err)
		responses.HandleError(reqCtx, err)
		return
	}

	token, err := h.tokens.Issue(ctx, u)
	if err != nil {
		metrics.RecordAuthRequest("register", "error")
		observability.RecordError(ctx, err)
		responses.HandleError(reqCtx, err)
		return
	}

	metrics.RecordAuthRequest("register", "ok")
	reqCtx.JSON(http.StatusCreated, userresponses.SessionResponse{
		Token: token,
		User:  userresponses.NewUserResponse(u),
	})
}

// Login verifies credentials and returns a session token.
func (h *AuthHandler) Login(reqCtx *gin.Context) {
	ctx, span := observability.StartSpan(reqCtx.Request.Context(), "dharz-ai", "AuthHandler.Login")
	defer span.End()

	var req authrequests.LoginRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		metrics.RecordAuthRequest("login", "invalid")
		responses.HandleError(reqCtx, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid request body", err))
		return
	}

	u, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		metrics.RecordAuthRequest("login", "denied")
		responses.HandleError(reqCtx, err)
		return
	}

	token, err := h.tokens.Issue(ctx, u)
	if err != nil {
		metrics.RecordAuthRequest("login", "error")
		observability.RecordError(ctx, err)
		responses.HandleError(reqCtx, err)
		return
	}

	metrics.RecordAuthRequest("login", "ok")
	reqCtx.JSON(http.StatusOK, userresponses.SessionResponse{
		Token: token,
		User:  userresponses.NewUserResponse(u),
	})
}

// Me returns the account behind the presented session token.
func (h *AuthHandler) Me(reqCtx *gin.Context) {
	ctx, span := observability.StartSpan(reqCtx.Request.Context(), "dharz-ai", "AuthHandler.Me")
	defer span.End()

	principal, ok := middlewares.PrincipalFromContext(reqCtx)
	if !ok {
		responses.HandleError(reqCtx, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeUnauthorized, "authentication required", nil))
		return
	}

	u, err := h.users.GetByPublicID(ctx, principal.PublicID)
	if err != nil {
		observability.RecordError(ctx, err)
		responses.HandleError(reqCtx, err)
		return
	}

	reqCtx.JSON(http.StatusOK, userresponses.NewUserResponse(u))
}
