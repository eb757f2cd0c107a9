package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"propertyhub_backend/internal/middleware"
	"propertyhub_backend/internal/model"
	"propertyhub_backend/internal/service"
	"propertyhub_backend/pkg/utils/jwt"
)

// respondError maps service errors to HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	if e, ok := service.AsError(err); ok {
		status := fiber.StatusInternalServerError
		switch e.Code {
		case service.ErrorCodeValidation:
			status = fiber.StatusBadRequest
		case service.ErrorCodeNotFound:
			status = fiber.StatusNotFound
		case service.ErrorCodeForbidden:
			status = fiber.StatusForbidden
		}
		return c.Status(status).JSON(fiber.Map{
			"error": e.Message,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

// queryParams flattens the query string into the parameter bag used by
// the listing filters.
func queryParams(c *fiber.Ctx) map[string]string {
	return c.Queries()
}

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func invalidID(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid " + what + " ID",
	})
}

func currentUser(c *fiber.Ctx) *jwt.Claims {
	claims, _ := middleware.ClaimsFrom(c)
	return claims
}

func currentActor(c *fiber.Ctx) service.Actor {
	claims := currentUser(c)
	return service.Actor{ID: claims.UserID, Admin: model.Role(claims.Role) == model.RoleAdmin}
}
