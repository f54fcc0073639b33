package store

import (
	"context"

	"github.com/krishkalaria12/recipe-serve/models"
)

// Store defines persistence operations for users and recipes.
// Lookups of missing rows return an apperror.ErrNotFound kind.
type Store interface {
	// users
	CreateUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uint) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByVerificationToken(ctx context.Context, token string) (models.User, error)
	UserRecipeIDs(ctx context.Context, userID uint) ([]uint, error)

	// recipes
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error
	AppendUserRecipe(ctx context.Context, userID, recipeID uint) error
	FindRecipeByID(ctx context.Context, id uint) (models.Recipe, error)
	ListRecipesByOwner(ctx context.Context, userID uint) ([]models.Recipe, error)
	ListFavoriteRecipes(ctx context.Context, userID uint) ([]models.Recipe, error)
	UpdateRecipeFields(ctx context.Context, id uint, fields models.RecipeFields) (models.Recipe, error)
	ToggleFavorite(ctx context.Context, id uint) (models.Recipe, error)
	DeleteRecipeByID(ctx context.Context, id uint) error
}
