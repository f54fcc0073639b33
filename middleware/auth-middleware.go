package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// CookieName holds the session token for web clients.
	CookieName = "JWT"

	userIDKey = "userID"
)

// TokenParser turns a session token into the id of the user it was issued for.
type TokenParser interface {
	Parse(tokenStr string) (uint, error)
}

// AuthMiddleware accepts a bearer token or the JWT cookie and stores the
// caller's user id in the request locals.
func AuthMiddleware(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenStr == "" {
			tokenStr = c.Cookies(CookieName)
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "You are not authorized!",
				"data":    nil,
			})
		}

		userID, err := tokens.Parse(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid token",
				"status":  "error",
				"data":    nil,
			})
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// CheckUserLoggedIn returns the user id stored by AuthMiddleware.
func CheckUserLoggedIn(c *fiber.Ctx) (uint, error) {
	userID, ok := c.Locals(userIDKey).(uint)
	if !ok || userID == 0 {
		return 0, errors.New("no authenticated user on request")
	}
	return userID, nil
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
