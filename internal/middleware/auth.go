package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"propertyhub_backend/internal/model"
	"propertyhub_backend/pkg/utils/jwt"
)

// ClaimsFrom returns the claims stored by AuthMiddleware, if any.
func ClaimsFrom(c *fiber.Ctx) (*jwt.Claims, bool) {
	claims, ok := c.Locals("user").(*jwt.Claims)
	return claims, ok && claims != nil
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// AuthMiddleware requires a valid bearer token and stores its claims under "user".
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or malformed token",
			})
		}

		claims, err := jwt.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user", claims)
		return c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}
		if model.Role(claims.Role) != model.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access only",
			})
		}
		return c.Next()
	}
}
