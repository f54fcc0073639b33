package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/recipe-serve/models"
)

type userStore interface {
	FindUserByID(ctx context.Context, id uint) (models.User, error)
	UserRecipeIDs(ctx context.Context, userID uint) ([]uint, error)
}

type UserHandler struct {
	store  userStore
	logger *slog.Logger
}

func NewUserHandler(store userStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{store: store, logger: logger}
}

// GetUser returns the public profile and the ids of the user's recipes.
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	type UserResponse struct {
		ID       uint   `json:"id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Verified bool   `json:"verified"`
		Recipes  []uint `json:"recipes"`
	}

	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	ctx := c.UserContext()
	user, err := h.store.FindUserByID(ctx, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	recipeIDs, err := h.store.UserRecipeIDs(ctx, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return success(c, fiber.StatusOK, "User found", UserResponse{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Verified: user.Verified,
		Recipes:  recipeIDs,
	})
}
