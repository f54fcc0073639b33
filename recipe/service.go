package recipe

import (
	"context"
	"log/slog"

	"github.com/krishkalaria12/recipe-serve/apperror"
	"github.com/krishkalaria12/recipe-serve/models"
	"github.com/krishkalaria12/recipe-serve/storage"
	"github.com/krishkalaria12/recipe-serve/store"
)

// Service holds the recipe operations that follow creation.
type Service struct {
	*Creator
	store  store.Store
	assets storage.AssetStore
	logger *slog.Logger
}

func NewService(st store.Store, stager Stager, assets storage.AssetStore, logger *slog.Logger, uploadConcurrency int) *Service {
	return &Service{
		Creator: NewCreator(st, stager, assets, logger, uploadConcurrency),
		store:   st,
		assets:  assets,
		logger:  logger,
	}
}

func (s *Service) Get(ctx context.Context, id uint) (models.Recipe, error) {
	return s.store.FindRecipeByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uint) ([]models.Recipe, error) {
	return s.store.ListRecipesByOwner(ctx, ownerID)
}

func (s *Service) ListFavorites(ctx context.Context, ownerID uint) ([]models.Recipe, error) {
	return s.store.ListFavoriteRecipes(ctx, ownerID)
}

// Edit replaces title, ingredients and instructions. Images are untouched.
func (s *Service) Edit(ctx context.Context, id, ownerID uint, fields models.RecipeFields) (models.Recipe, error) {
	if err := ValidateFields(fields); err != nil {
		return models.Recipe{}, err
	}
	if _, err := s.owned(ctx, id, ownerID); err != nil {
		return models.Recipe{}, err
	}
	return s.store.UpdateRecipeFields(ctx, id, fields)
}

func (s *Service) ToggleFavorite(ctx context.Context, id, ownerID uint) (models.Recipe, error) {
	if _, err := s.owned(ctx, id, ownerID); err != nil {
		return models.Recipe{}, err
	}
	return s.store.ToggleFavorite(ctx, id)
}

// Delete removes the recipe row. Remote image cleanup is best effort: the
// database decides whether a recipe exists, so a failed bulk delete is
// logged and the row is deleted anyway.
func (s *Service) Delete(ctx context.Context, id, ownerID uint) error {
	recipe, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if ids := storage.AssetIDsFromRefs(recipe.Images); len(ids) > 0 {
		if err := s.assets.BulkDelete(ctx, storage.Namespace(recipe.UserID), ids); err != nil {
			s.logger.Warn("remote asset cleanup failed, deleting recipe anyway",
				"recipe_id", id, "owner_id", recipe.UserID, "assets", ids, "error", err)
		}
	}

	if err := s.store.DeleteRecipeByID(ctx, id); err != nil {
		return err
	}
	s.logger.Info("recipe deleted", "recipe_id", id, "owner_id", recipe.UserID)
	return nil
}

func (s *Service) owned(ctx context.Context, id, ownerID uint) (models.Recipe, error) {
	recipe, err := s.store.FindRecipeByID(ctx, id)
	if err != nil {
		return models.Recipe{}, err
	}
	if recipe.UserID != ownerID {
		return models.Recipe{}, apperror.Forbidden("recipe belongs to another user")
	}
	return recipe, nil
}
