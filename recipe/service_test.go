package recipe

import (
	"context"
	"errors"
	"testing"

	"github.com/krishkalaria12/recipe-serve/apperror"
	"github.com/krishkalaria12/recipe-serve/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createSoup(t *testing.T, f *fixture) models.Recipe {
	t.Helper()
	recipe, err := f.svc.Create(context.Background(), CreateInput{
		Fields: soupFields(),
		Attachments: []Attachment{
			FromBytes("a.jpg", []byte("a")),
			FromBytes("b.jpg", []byte("b")),
		},
		ShowcaseIndex: intPtr(0),
		OwnerID:       1,
	})
	require.NoError(t, err)
	return recipe
}

func TestDeleteRemovesRecipeAndAssets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	recipe := createSoup(t, f)

	require.NoError(t, f.svc.Delete(ctx, recipe.ID, 1))

	_, err := f.svc.Get(ctx, recipe.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ElementsMatch(t, []string{"a", "b"}, f.assets.deleted["recipes/1"])
	assert.Empty(t, f.assets.keys())

	ids, err := f.store.UserRecipeIDs(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeleteSucceedsWhenRemoteCleanupFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	recipe := createSoup(t, f)
	f.assets.deleteErr = errors.New("remote store unavailable")

	require.NoError(t, f.svc.Delete(ctx, recipe.ID, 1))

	_, err := f.svc.Get(ctx, recipe.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteMissingAndForeignRecipes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	recipe := createSoup(t, f)

	assert.ErrorIs(t, f.svc.Delete(ctx, 999, 1), apperror.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, recipe.ID, 2), apperror.ErrForbidden)

	_, err := f.svc.Get(ctx, recipe.ID)
	assert.NoError(t, err)
	assert.Empty(t, f.assets.deleted)
}

func TestToggleFavoriteIsAnInvolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	recipe := createSoup(t, f)

	toggled, err := f.svc.ToggleFavorite(ctx, recipe.ID, 1)
	require.NoError(t, err)
	assert.True(t, toggled.IsFavorite)

	favs, err := f.svc.ListFavorites(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	toggled, err = f.svc.ToggleFavorite(ctx, recipe.ID, 1)
	require.NoError(t, err)
	assert.False(t, toggled.IsFavorite)

	_, err = f.svc.ToggleFavorite(ctx, recipe.ID, 2)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestEditReplacesFieldsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	recipe := createSoup(t, f)

	edited, err := f.svc.Edit(ctx, recipe.ID, 1, models.RecipeFields{
		Title:        "Stew",
		Ingredients:  []string{"beef"},
		Instructions: []string{"simmer"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Stew", edited.Title)
	assert.Equal(t, recipe.Images, edited.Images)
	assert.Equal(t, recipe.ShowcaseImage, edited.ShowcaseImage)

	_, err = f.svc.Edit(ctx, recipe.ID, 1, models.RecipeFields{Title: ""})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestListByOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := createSoup(t, f)
	second := createSoup(t, f)

	recipes, err := f.svc.ListByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, first.ID, recipes[0].ID)
	assert.Equal(t, second.ID, recipes[1].ID)

	_, err = f.svc.ListByOwner(ctx, 77)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
