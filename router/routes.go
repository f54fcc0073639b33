package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	handler "github.com/krishkalaria12/recipe-serve/handlers"
	"github.com/krishkalaria12/recipe-serve/middleware"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Users   *handler.UserHandler
	Recipes *handler.RecipeHandler
}

func SetupRoutes(app *fiber.App, h Handlers, tokens middleware.TokenParser) {
	api := app.Group("/api", logger.New())
	requireAuth := middleware.AuthMiddleware(tokens)

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/logout", h.Auth.Logout)
	api.Get("/verify/:token", h.Auth.Verify)

	// User
	user := api.Group("/users")
	user.Get("/:id", h.Users.GetUser)
	user.Get("/:id/recipes", h.Recipes.ListUserRecipes)
	user.Get("/:id/recipes/favorite", h.Recipes.ListFavoriteRecipes)

	// Recipe
	recipes := api.Group("/recipes")
	recipes.Get("/:id", h.Recipes.GetRecipe)
	recipes.Post("/", requireAuth, h.Recipes.CreateRecipe)
	recipes.Put("/:id", requireAuth, h.Recipes.EditRecipe)
	recipes.Patch("/:id/favorite", requireAuth, h.Recipes.ToggleFavorite)
	recipes.Delete("/:id", requireAuth, h.Recipes.DeleteRecipe)
}
