package api

import (
	"context"
	"strings"

	domain "github.com/example/task-tracker/domain/user"
	"github.com/gofiber/fiber/v2"
)

// UserContextKey is the fiber.Ctx locals key holding the authenticated
// principal.
const UserContextKey = "user"

// AuthPort is the slice of the auth service the transport needs.
type AuthPort interface {
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
}

// AuthMiddleware validates the Bearer token and stores the principal's
// claims in the request context.
func AuthMiddleware(authService AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Authorization header is required",
			})
		}

		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid authorization header format. Use: Bearer <token>",
			})
		}

		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := authService.ValidateToken(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// RequireAdmin rejects requests whose principal lacks the Admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := currentUser(c)
		if claims == nil || claims.Role != domain.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Error:   "permission_denied",
				Message: "Admin role required",
			})
		}
		return c.Next()
	}
}

// currentUser returns the authenticated principal, or nil outside the
// auth middleware.
func currentUser(c *fiber.Ctx) *domain.Claims {
	claims, _ := c.Locals(UserContextKey).(*domain.Claims)
	return claims
}
