// Package auth issues and validates the bearer tokens used for sign-in.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dharz/dharz-ai/internal/domain"
	"github.com/dharz/dharz-ai/internal/domain/user"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

// Claims carries the identity attributes embedded in each token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience string
}

func NewTokenService(secret string, ttl time.Duration, issuer, audience string) *TokenService {
	return &TokenService{
		secret:   []byte(secret),
		ttl:      ttl,
		issuer:   issuer,
		audience: audience,
	}
}

// Issue signs a token for the given account. The subject is the user's
// public id, never the database surrogate key.
func (s *TokenService) Issue(ctx context.Context, u *user.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: u.Email,
		Role:  string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.PublicID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "sign token")
	}
	return signed, nil
}

// Validate parses and verifies a bearer token, returning its claims.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnauthorized, "invalid token", err)
	}
	return claims, nil
}

// PrincipalFromUser maps a stored account onto a request principal. The role
// is taken from the account so revoking admin takes effect on the next
// request, not at token expiry.
func PrincipalFromUser(u *user.User) domain.Principal {
	return domain.Principal{
		UserID:   u.ID,
		PublicID: u.PublicID,
		Email:    u.Email,
		Role:     u.Role,
	}
}
