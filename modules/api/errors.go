package api

import (
	"errors"
	"log"

	"github.com/example/task-tracker/domain/errs"
	"github.com/gofiber/fiber/v2"
)

// respondError maps service error kinds to HTTP responses. Anything
// unrecognized is logged and answered with an opaque 500.
func respondError(c *fiber.Ctx, err error) error {
	var vErr *errs.ValidationError
	switch {
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusBadRequest).JSON(ValidationResponse{
			Error:  "validation_failed",
			Fields: vErr.Fields,
		})
	case errors.Is(err, errs.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "not_found",
		})
	case errors.Is(err, errs.ErrPermissionDenied):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "permission_denied",
			Message: "You may only modify your own resources",
		})
	case errors.Is(err, errs.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid credentials or token",
		})
	default:
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

// badRequest answers a malformed request body or query string.
func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}
