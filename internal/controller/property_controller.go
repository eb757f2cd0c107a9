package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"propertyhub_backend/internal/model"
	"propertyhub_backend/internal/service"
	"propertyhub_backend/pkg/export"
)

const maxExportRows = 10000

type PropertyController struct {
	properties *service.PropertyService
}

func NewPropertyController(properties *service.PropertyService) *PropertyController {
	return &PropertyController{properties: properties}
}

// ListProperties genel ilan listesi
func (p *PropertyController) ListProperties(c *fiber.Ctx) error {
	page, err := p.properties.ListProperties(c.UserContext(), queryParams(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (p *PropertyController) SearchProperties(c *fiber.Ctx) error {
	params := queryParams(c)
	amenities := service.ParseAmenityIDs(params["amenities"])

	page, err := p.properties.SearchProperties(c.UserContext(), params, amenities)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (p *PropertyController) FeaturedProperties(c *fiber.Ctx) error {
	page, err := p.properties.FeaturedProperties(c.UserContext(), queryParams(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (p *PropertyController) GetProperty(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "property")
	}

	property, err := p.properties.GetProperty(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(property)
}

// ListOwnerProperties bir kullanıcının tüm ilanları
func (p *PropertyController) ListOwnerProperties(c *fiber.Ctx) error {
	ownerID, ok := paramID(c, "owner_id")
	if !ok {
		return invalidID(c, "owner")
	}

	page, err := p.properties.ListOwnerProperties(c.UserContext(), ownerID, queryParams(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (p *PropertyController) ListMyProperties(c *fiber.Ctx) error {
	claims := currentUser(c)

	page, err := p.properties.ListOwnerProperties(c.UserContext(), claims.UserID, queryParams(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// CreateProperty accepts either a JSON body or a multipart form with the
// property JSON in "data" plus "images" and "documents" files.
func (p *PropertyController) CreateProperty(c *fiber.Ctx) error {
	actor := currentActor(c)

	input, uploads, err := parsePropertyRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	property, err := p.properties.CreateProperty(c.UserContext(), actor, input, uploads)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(property)
}

func (p *PropertyController) UpdateProperty(c *fiber.Ctx) error {
	actor := currentActor(c)
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "property")
	}

	input, uploads, err := parsePropertyRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	property, err := p.properties.UpdateProperty(c.UserContext(), id, actor, input, uploads)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(property)
}

type statusInput struct {
	Status model.PropertyStatus `json:"status"`
}

func (p *PropertyController) UpdateStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "property")
	}

	input := new(statusInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	property, err := p.properties.UpdateStatus(c.UserContext(), id, currentActor(c), input.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(property)
}

func (p *PropertyController) DeleteProperty(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "property")
	}

	if err := p.properties.DeleteProperty(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Property deleted successfully",
	})
}

func (p *PropertyController) VerifyProperty(c *fiber.Ctx) error {
	claims := currentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "property")
	}

	property, err := p.properties.VerifyProperty(c.UserContext(), id, claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(property)
}

type rejectInput struct {
	Reason string `json:"reason"`
}

func (p *PropertyController) RejectProperty(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "property")
	}

	input := new(rejectInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	property, err := p.properties.RejectProperty(c.UserContext(), id, input.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(property)
}

// ExportProperties streams the filtered listing as an XLSX workbook.
func (p *PropertyController) ExportProperties(c *fiber.Ctx) error {
	properties, err := p.properties.ExportProperties(c.UserContext(), queryParams(c), maxExportRows)
	if err != nil {
		return respondError(c, err)
	}

	buf, err := export.PropertiesXLSX(properties)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not build export",
		})
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="properties-%s.xlsx"`, time.Now().Format("20060102-150405")))
	return c.Send(buf.Bytes())
}

func parsePropertyRequest(c *fiber.Ctx) (service.PropertyInput, service.Uploads, error) {
	var input service.PropertyInput
	var uploads service.Uploads

	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		if err := c.BodyParser(&input); err != nil {
			return input, uploads, errors.New("Invalid input")
		}
		return input, uploads, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return input, uploads, errors.New("Invalid multipart form")
	}

	if data := firstValue(form, "data"); data != "" {
		if err := json.Unmarshal([]byte(data), &input); err != nil {
			return input, uploads, errors.New("Invalid property data")
		}
	}
	if meta := firstValue(form, "documents_meta"); meta != "" {
		if err := json.Unmarshal([]byte(meta), &uploads.DocumentMeta); err != nil {
			return input, uploads, errors.New("Invalid documents_meta")
		}
	}

	uploads.Images = formFiles(form, "images")
	uploads.Documents = formFiles(form, "documents")
	return input, uploads, nil
}

func firstValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// formFiles accepts both "images" and "images[]" field names.
func formFiles(form *multipart.Form, key string) []*multipart.FileHeader {
	files := append([]*multipart.FileHeader{}, form.File[key]...)
	return append(files, form.File[key+"[]"]...)
}
