package models

// All returns every model for auto migration.
func All() []interface{} {
	return []interface{}{&User{}, &Recipe{}, &UserRecipe{}}
}
