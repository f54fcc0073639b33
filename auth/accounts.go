package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/krishkalaria12/recipe-serve/apperror"
	"github.com/krishkalaria12/recipe-serve/models"
)

type accountStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByVerificationToken(ctx context.Context, token string) (models.User, error)
}

// VerificationSender delivers the email verification link.
type VerificationSender interface {
	SendVerification(ctx context.Context, email, token string) error
}

// Accounts handles registration, email verification and login.
type Accounts struct {
	store  accountStore
	tokens *TokenService
	mailer VerificationSender
	logger *slog.Logger
}

func NewAccounts(store accountStore, tokens *TokenService, mailer VerificationSender, logger *slog.Logger) *Accounts {
	return &Accounts{store: store, tokens: tokens, mailer: mailer, logger: logger}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an unverified user and sends the verification email.
// A failed email is logged; the account still exists.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return models.User{}, apperror.ValidationFailed("", "Missing fields")
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil {
		return models.User{}, apperror.ValidationFailed("email", "invalid email address")
	}
	// "Name <addr>" forms keep only the address
	in.Email = addr.Address

	hash, err := HashPassword(in.Password)
	if err != nil {
		return models.User{}, apperror.ValidationFailed("password", err.Error())
	}
	verificationToken, err := newVerificationToken()
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Name:              in.Name,
		Email:             in.Email,
		Password:          hash,
		VerificationToken: &verificationToken,
	}
	if err := a.store.CreateUser(ctx, &user); err != nil {
		return models.User{}, err
	}

	if err := a.mailer.SendVerification(ctx, user.Email, verificationToken); err != nil {
		a.logger.Error("error sending verification email", "user_id", user.ID, "error", err)
	}
	return user, nil
}

// Verify marks the user owning token as verified and clears the token.
func (a *Accounts) Verify(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperror.ValidationFailed("token", "Invalid verification token")
	}
	user, err := a.store.FindUserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.ValidationFailed("token", "Invalid verification token")
		}
		return err
	}
	user.Verified = true
	user.VerificationToken = nil
	return a.store.SaveUser(ctx, &user)
}

// Login checks credentials and returns a signed token.
func (a *Accounts) Login(ctx context.Context, email, password string) (string, models.User, error) {
	user, err := a.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", models.User{}, apperror.Unauthorized("Invalid credentials")
		}
		return "", models.User{}, err
	}
	if !CheckPasswordHash(password, user.Password) {
		return "", models.User{}, apperror.Unauthorized("Invalid credentials")
	}

	tokenStr, err := a.tokens.Issue(user)
	if err != nil {
		return "", models.User{}, err
	}
	return tokenStr, user, nil
}

func newVerificationToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
