package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	pkgauth "github.com/go-pkgz/auth/v2"
	"github.com/go-pkgz/auth/v2/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/krishkalaria12/recipe-serve/models"
)

const (
	Issuer   = "recipe-serve"
	Audience = "recipe-serve-app"
)

// TokenService issues and validates session tokens. The signing secret is
// fixed when the service is built and stays the same for the process
// lifetime.
type TokenService struct {
	svc      *pkgauth.Service
	duration time.Duration
}

func NewTokenService(secret, publicURL string, duration time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	svc := pkgauth.NewService(pkgauth.Opts{
		SecretReader: token.SecretFunc(func(string) (string, error) {
			return secret, nil
		}),
		TokenDuration:  duration,
		CookieDuration: duration * 7,
		Issuer:         Issuer,
		URL:            publicURL,
	})
	return &TokenService{svc: svc, duration: duration}, nil
}

func (t *TokenService) Duration() time.Duration {
	return t.duration
}

// Issue creates a signed token whose user id is the database id.
func (t *TokenService) Issue(user models.User) (string, error) {
	now := time.Now()
	claims := token.Claims{
		User: &token.User{
			ID:    strconv.FormatUint(uint64(user.ID), 10),
			Name:  user.Name,
			Email: user.Email,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  []string{Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(t.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenStr, err := t.svc.TokenService().Token(claims)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return tokenStr, nil
}

// Parse validates the token and returns the user id it was issued for.
func (t *TokenService) Parse(tokenStr string) (uint, error) {
	claims, err := t.svc.TokenService().Parse(tokenStr)
	if err != nil {
		return 0, fmt.Errorf("auth: invalid token: %w", err)
	}
	// the token service lets expired tokens through for its refresh flow
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return 0, errors.New("auth: token expired")
	}
	if claims.User == nil {
		return 0, errors.New("auth: token has no user")
	}
	id, err := strconv.ParseUint(claims.User.ID, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("auth: invalid user id %q", claims.User.ID)
	}
	return uint(id), nil
}
