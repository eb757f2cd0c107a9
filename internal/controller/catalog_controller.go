package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"propertyhub_backend/internal/model"
)

// CatalogController serves the lookup lists used by listing forms.
type CatalogController struct {
	db *gorm.DB
}

func NewCatalogController(db *gorm.DB) *CatalogController {
	return &CatalogController{db: db}
}

func (cc *CatalogController) ListAmenities(c *fiber.Ctx) error {
	amenities := []model.Amenity{}
	if err := cc.db.WithContext(c.UserContext()).Order("name ASC").Find(&amenities).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch amenities",
		})
	}
	return c.JSON(fiber.Map{
		"amenities": amenities,
	})
}

func (cc *CatalogController) ListCategories(c *fiber.Ctx) error {
	categories := []model.Category{}
	if err := cc.db.WithContext(c.UserContext()).Order("name ASC").Find(&categories).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch categories",
		})
	}
	return c.JSON(fiber.Map{
		"categories": categories,
	})
}
