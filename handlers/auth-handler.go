package handler

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/recipe-serve/auth"
	"github.com/krishkalaria12/recipe-serve/middleware"
)

type AuthHandler struct {
	accounts       *auth.Accounts
	cookieDuration time.Duration
	logger         *slog.Logger
}

func NewAuthHandler(accounts *auth.Accounts, cookieDuration time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, cookieDuration: cookieDuration, logger: logger}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	type UserResponse struct {
		ID    uint   `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	input := new(auth.RegisterInput)
	if err := c.BodyParser(input); err != nil {
		return failure(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := h.accounts.Register(c.UserContext(), *input)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return success(c, fiber.StatusCreated, "Registration successful, check your email to verify your account", UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	})
}

func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	if err := h.accounts.Verify(c.UserContext(), c.Params("token")); err != nil {
		return respondError(c, h.logger, err)
	}
	return success(c, fiber.StatusOK, "Email verified successfully", nil)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	type LoginData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	type UserResponse struct {
		ID       uint   `json:"id"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Verified bool   `json:"verified"`
		Token    string `json:"token"`
	}

	input := new(LoginData)
	if err := c.BodyParser(input); err != nil {
		return failure(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if input.Email == "" || input.Password == "" {
		return failure(c, fiber.StatusBadRequest, "Email and password are required")
	}

	tokenStr, user, err := h.accounts.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    tokenStr,
		Expires:  time.Now().Add(h.cookieDuration),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return success(c, fiber.StatusOK, "Login successful", UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Verified: user.Verified,
		Token:    tokenStr,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return success(c, fiber.StatusOK, "Logout successful", nil)
}
