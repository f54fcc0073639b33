package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Recipe struct {
	gorm.Model
	Title         string                      `json:"title" gorm:"not null"`
	Ingredients   datatypes.JSONSlice[string] `json:"ingredients" gorm:"not null"`
	Instructions  datatypes.JSONSlice[string] `json:"instructions" gorm:"not null"`
	Images        datatypes.JSONSlice[string] `json:"images" gorm:"not null"`
	ShowcaseImage *string                     `json:"showcase_image"`
	IsFavorite    bool                        `json:"is_favorite" gorm:"not null;default:false"`
	UserID        uint                        `json:"user_id" gorm:"not null;index"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// UserRecipe links a user to the recipes in their list. The composite key
// keeps a recipe in a user's list at most once.
type UserRecipe struct {
	UserID    uint `gorm:"primaryKey;autoIncrement:false"`
	RecipeID  uint `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}

// RecipeFields are the user-editable parts of a recipe.
type RecipeFields struct {
	Title        string   `json:"title"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}
