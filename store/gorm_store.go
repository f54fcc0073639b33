package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/krishkalaria12/recipe-serve/apperror"
	"github.com/krishkalaria12/recipe-serve/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store using GORM.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return apperror.Conflict("user already exists")
	}

	return insertUser(s.db.WithContext(ctx), user)
}

// insertUser relies on the unique email index when two registrations race
// past the count above. The db must be opened with TranslateError.
func insertUser(db *gorm.DB, user *models.User) error {
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("user already exists")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *GormStore) SaveUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *GormStore) FindUserByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return user, notFoundOr(err, "user", id)
	}
	return user, nil
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	email = normalizeEmail(email)
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return user, notFoundOr(err, "user", email)
	}
	return user, nil
}

func (s *GormStore) FindUserByVerificationToken(ctx context.Context, token string) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("verification_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, apperror.NotFound("verification token", "provided")
		}
		return user, err
	}
	return user, nil
}

func (s *GormStore) UserRecipeIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := s.db.WithContext(ctx).
		Model(&models.UserRecipe{}).
		Where("user_id = ?", userID).
		Order("created_at ASC, recipe_id ASC").
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list user recipe ids: %w", err)
	}
	return ids, nil
}

// CreateRecipe persists the recipe and appends it to its owner's list in a
// single transaction. The owner must exist.
func (s *GormStore) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.Select("id").First(&owner, recipe.UserID).Error; err != nil {
			return notFoundOr(err, "user", recipe.UserID)
		}
		if err := tx.Create(recipe).Error; err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		return appendLink(tx, recipe.UserID, recipe.ID)
	})
}

func (s *GormStore) AppendUserRecipe(ctx context.Context, userID, recipeID uint) error {
	return appendLink(s.db.WithContext(ctx), userID, recipeID)
}

// appendLink is an idempotent insert, so concurrent appends for the same
// user never overwrite each other.
func appendLink(tx *gorm.DB, userID, recipeID uint) error {
	link := models.UserRecipe{UserID: userID, RecipeID: recipeID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
		return fmt.Errorf("link recipe to user: %w", err)
	}
	return nil
}

func (s *GormStore) FindRecipeByID(ctx context.Context, id uint) (models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		return recipe, notFoundOr(err, "recipe", id)
	}
	return recipe, nil
}

func (s *GormStore) ListRecipesByOwner(ctx context.Context, userID uint) ([]models.Recipe, error) {
	return s.listLinked(ctx, userID, false)
}

func (s *GormStore) ListFavoriteRecipes(ctx context.Context, userID uint) ([]models.Recipe, error) {
	return s.listLinked(ctx, userID, true)
}

func (s *GormStore) listLinked(ctx context.Context, userID uint, favoritesOnly bool) ([]models.Recipe, error) {
	if _, err := s.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).
		Joins("JOIN user_recipes ON user_recipes.recipe_id = recipes.id").
		Where("user_recipes.user_id = ?", userID)
	if favoritesOnly {
		q = q.Where("recipes.is_favorite = ?", true)
	}

	recipes := []models.Recipe{}
	if err := q.Order("user_recipes.created_at ASC, recipes.id ASC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

func (s *GormStore) UpdateRecipeFields(ctx context.Context, id uint, fields models.RecipeFields) (models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Recipe{}).Where("id = ?", id).Updates(map[string]interface{}{
			"title":        fields.Title,
			"ingredients":  datatypes.JSONSlice[string](nonNil(fields.Ingredients)),
			"instructions": datatypes.JSONSlice[string](nonNil(fields.Instructions)),
		})
		if res.Error != nil {
			return fmt.Errorf("update recipe: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("recipe", id)
		}
		return tx.First(&recipe, id).Error
	})
	return recipe, err
}

// ToggleFavorite flips the flag in a single UPDATE.
func (s *GormStore) ToggleFavorite(ctx context.Context, id uint) (models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Recipe{}).Where("id = ?", id).Update("is_favorite", gorm.Expr("NOT is_favorite"))
		if res.Error != nil {
			return fmt.Errorf("toggle favorite: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("recipe", id)
		}
		return tx.First(&recipe, id).Error
	})
	return recipe, err
}

// DeleteRecipeByID removes the recipe row and every list entry pointing at it.
func (s *GormStore) DeleteRecipeByID(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Delete(&models.Recipe{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete recipe: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("recipe", id)
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.UserRecipe{}).Error; err != nil {
			return fmt.Errorf("unlink recipe: %w", err)
		}
		return nil
	})
}

func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(resource, id)
	}
	return fmt.Errorf("find %s: %w", resource, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
