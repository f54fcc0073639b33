package recipe

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/krishkalaria12/recipe-serve/apperror"
	"github.com/krishkalaria12/recipe-serve/models"
)

// ParseFields builds recipe fields from their form encoding, where
// ingredients and instructions are JSON string arrays.
func ParseFields(title, ingredients, instructions string) (models.RecipeFields, error) {
	fields := models.RecipeFields{Title: strings.TrimSpace(title)}

	var err error
	if fields.Ingredients, err = parseList("ingredients", ingredients); err != nil {
		return models.RecipeFields{}, err
	}
	if fields.Instructions, err = parseList("instructions", instructions); err != nil {
		return models.RecipeFields{}, err
	}
	if err := ValidateFields(fields); err != nil {
		return models.RecipeFields{}, err
	}
	return fields, nil
}

func ValidateFields(fields models.RecipeFields) error {
	if strings.TrimSpace(fields.Title) == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if fields.Ingredients == nil {
		return apperror.ValidationFailed("ingredients", "ingredients is required")
	}
	if fields.Instructions == nil {
		return apperror.ValidationFailed("instructions", "instructions is required")
	}
	return nil
}

func parseList(field, raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperror.ValidationFailed(field, field+" is required")
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, apperror.ValidationFailed(field, field+" must be a JSON array of strings")
	}
	if out == nil {
		return nil, apperror.ValidationFailed(field, field+" must be a JSON array of strings")
	}
	return out, nil
}

// ParseShowcaseIndex reads an optional index. Blank means no showcase.
func ParseShowcaseIndex(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" || raw == "undefined" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperror.ValidationFailed("showcaseIndex", "showcaseIndex must be an integer")
	}
	return &n, nil
}
