package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/recipe-serve/middleware"
	"github.com/krishkalaria12/recipe-serve/models"
	"github.com/krishkalaria12/recipe-serve/recipe"
)

type RecipeHandler struct {
	recipes   *recipe.Service
	maxImages int
	logger    *slog.Logger
}

// NewRecipeHandler builds the recipe endpoints. maxImages caps the number of
// images per request; zero means no cap.
func NewRecipeHandler(recipes *recipe.Service, maxImages int, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, maxImages: maxImages, logger: logger}
}

// CreateRecipe accepts a multipart form with the recipe fields and up to
// maxImages files under "images".
func (h *RecipeHandler) CreateRecipe(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return failure(c, fiber.StatusUnauthorized, "Unauthorized Request")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return failure(c, fiber.StatusBadRequest, "Expected a multipart form")
	}

	fields, err := recipe.ParseFields(formValue(form, "title"), formValue(form, "ingredients"), formValue(form, "instructions"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	showcaseIndex, err := recipe.ParseShowcaseIndex(formValue(form, "showcaseIndex"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	policy, err := parsePolicy(form)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	files := imageFiles(form)
	if h.maxImages > 0 && len(files) > h.maxImages {
		return failure(c, fiber.StatusBadRequest, fmt.Sprintf("At most %d images are allowed", h.maxImages))
	}
	attachments := make([]recipe.Attachment, len(files))
	for i, fh := range files {
		attachments[i] = recipe.FromFileHeader(fh)
	}

	created, err := h.recipes.Create(c.UserContext(), recipe.CreateInput{
		Fields:        fields,
		Attachments:   attachments,
		ShowcaseIndex: showcaseIndex,
		OwnerID:       userID,
		Policy:        policy,
	})
	if err != nil {
		var attErr *recipe.AttachmentError
		if errors.As(err, &attErr) {
			h.logger.Error("recipe creation aborted", "owner_id", userID, "error", err)
			return failure(c, fiber.StatusInternalServerError, fmt.Sprintf("Failed to process image %q", attErr.Filename))
		}
		return respondError(c, h.logger, err)
	}

	return success(c, fiber.StatusCreated, "Recipe created successfully", created)
}

func (h *RecipeHandler) GetRecipe(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	found, err := h.recipes.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return success(c, fiber.StatusOK, "Recipe found", found)
}

func (h *RecipeHandler) ListUserRecipes(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	recipes, err := h.recipes.ListByOwner(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return success(c, fiber.StatusOK, "Recipes found", recipes)
}

func (h *RecipeHandler) ListFavoriteRecipes(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	recipes, err := h.recipes.ListFavorites(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return success(c, fiber.StatusOK, "Favorite recipes found", recipes)
}

// EditRecipe takes a JSON body with array fields, or form fields whose
// ingredients and instructions are JSON encoded arrays.
func (h *RecipeHandler) EditRecipe(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return failure(c, fiber.StatusUnauthorized, "Unauthorized Request")
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var fields models.RecipeFields
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		if err := c.BodyParser(&fields); err != nil {
			return failure(c, fiber.StatusBadRequest, "Invalid request body")
		}
	} else {
		fields, err = recipe.ParseFields(c.FormValue("title"), c.FormValue("ingredients"), c.FormValue("instructions"))
		if err != nil {
			return respondError(c, h.logger, err)
		}
	}
	fields.Title = strings.TrimSpace(fields.Title)

	updated, err := h.recipes.Edit(c.UserContext(), id, userID, fields)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return success(c, fiber.StatusOK, "Recipe updated successfully", updated)
}

func (h *RecipeHandler) ToggleFavorite(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return failure(c, fiber.StatusUnauthorized, "Unauthorized Request")
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	updated, err := h.recipes.ToggleFavorite(c.UserContext(), id, userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return success(c, fiber.StatusOK, "Favorite toggled", updated)
}

func (h *RecipeHandler) DeleteRecipe(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return failure(c, fiber.StatusUnauthorized, "Unauthorized Request")
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.recipes.Delete(c.UserContext(), id, userID); err != nil {
		return respondError(c, h.logger, err)
	}
	return success(c, fiber.StatusOK, "Recipe deleted successfully", nil)
}

func parsePolicy(form *multipart.Form) (recipe.Policy, error) {
	mode, err := recipe.ParseFailureMode(formValue(form, "onFailure"))
	if err != nil {
		return recipe.Policy{}, err
	}
	indexing, err := recipe.ParseShowcaseIndexing(formValue(form, "showcaseIndexing"))
	if err != nil {
		return recipe.Policy{}, err
	}
	return recipe.Policy{OnAttachmentFailure: mode, ShowcaseIndexing: indexing}, nil
}

// imageFiles collects uploads sent as "images" or "images[]" into a new slice
// so the parsed form is left untouched.
func imageFiles(form *multipart.Form) []*multipart.FileHeader {
	images, bracketed := form.File["images"], form.File["images[]"]
	files := make([]*multipart.FileHeader, 0, len(images)+len(bracketed))
	files = append(files, images...)
	return append(files, bracketed...)
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}
