package middleware

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"propertyhub_backend/internal/model"
)

// CheckPropertyOwnership lets the request through only for the property's
// owner or an admin. The property id is read from the ":id" route param.
func CheckPropertyOwnership(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		propertyID, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid property ID",
			})
		}

		var property model.Property
		if err := db.WithContext(c.UserContext()).
			Select("id", "owner_id").
			First(&property, propertyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "Property not found",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not fetch property",
			})
		}

		if property.OwnerID != claims.UserID && model.Role(claims.Role) != model.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You don't have permission to access this property",
			})
		}

		return c.Next()
	}
}
