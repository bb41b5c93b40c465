package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dharz/dharz-ai/internal/domain"
	"github.com/dharz/dharz-ai/internal/domain/user"
	"github.com/dharz/dharz-ai/internal/infrastructure/auth"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/responses"
)

const principalContextKey = "principal"

// AuthMiddleware validates JWT bearer tokens and loads the caller's account.
// Requests without valid credentials are rejected.
func AuthMiddleware(tokens *auth.TokenService, users *user.Service, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := resolvePrincipal(c, tokens, users, logger)
		if !ok {
			responses.HandleErrorWithStatus(c, http.StatusUnauthorized, nil, "authentication required")
			return
		}
		setPrincipal(c, principal)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the principal when valid credentials are
// present and lets the request through anonymously otherwise. Chat turns use
// this: signed-in callers get persistence, anonymous callers stream only.
func OptionalAuthMiddleware(tokens *auth.TokenService, users *user.Service, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal, ok := resolvePrincipal(c, tokens, users, logger); ok {
			setPrincipal(c, principal)
		}
		c.Next()
	}
}

func resolvePrincipal(c *gin.Context, tokens *auth.TokenService, users *user.Service, logger zerolog.Logger) (domain.Principal, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return domain.Principal{}, false
	}

	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(tokenString) == "" {
		logger.Warn().Str("path", c.FullPath()).Msg("malformed authorization header")
		return domain.Principal{}, false
	}

	ctx := c.Request.Context()
	claims, err := tokens.Validate(ctx, strings.TrimSpace(tokenString))
	if err != nil {
		logger.Warn().Err(err).Str("path", c.FullPath()).Msg("token validation failed")
		return domain.Principal{}, false
	}

	u, err := users.GetByPublicID(ctx, claims.Subject)
	if err != nil {
		// Account deleted after the token was issued.
		logger.Warn().Err(err).Str("subject", claims.Subject).Msg("token subject no longer exists")
		return domain.Principal{}, false
	}

	return auth.PrincipalFromUser(u), true
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *gin.Context) (domain.Principal, bool) {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return domain.Principal{}, false
	}
	principal, ok := val.(domain.Principal)
	return principal, ok
}

func setPrincipal(c *gin.Context, principal domain.Principal) {
	c.Set(principalContextKey, principal)
	c.Set("user_id", principal.PublicID)
	c.Set("user_email", principal.Email)
}
