package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/recipe-serve/apperror"
)

func success(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func failure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

// respondError maps an error kind to a status code. Anything without a
// kind is an internal failure and its details stay in the log.
func respondError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			return failure(c, fiber.StatusNotFound, appErr.Message)
		case errors.Is(err, apperror.ErrValidation):
			return failure(c, fiber.StatusBadRequest, appErr.Message)
		case errors.Is(err, apperror.ErrConflict):
			return failure(c, fiber.StatusConflict, appErr.Message)
		case errors.Is(err, apperror.ErrForbidden):
			return failure(c, fiber.StatusForbidden, appErr.Message)
		case errors.Is(err, apperror.ErrUnauthorized):
			return failure(c, fiber.StatusUnauthorized, appErr.Message)
		}
	}

	logger.Error("request failed",
		"method", c.Method(), "path", c.Path(), "error", err)
	return failure(c, fiber.StatusInternalServerError, "Internal server error")
}

func idParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.ValidationFailed(name, "invalid "+name)
	}
	return uint(id), nil
}
