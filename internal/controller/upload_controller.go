package controller

import (
	"github.com/gofiber/fiber/v2"

	"propertyhub_backend/internal/model"
	"propertyhub_backend/internal/service"
)

type MediaController struct {
	media *service.MediaService
}

func NewMediaController(media *service.MediaService) *MediaController {
	return &MediaController{media: media}
}

func (m *MediaController) ListImages(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "property")
	}

	images, err := m.media.ListImages(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"images": images,
	})
}

// UploadPropertyImages ilana bir veya daha fazla resim ekler
func (m *MediaController) UploadPropertyImages(c *fiber.Ctx) error {
	claims := currentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "property")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}
	files := formFiles(form, "images")
	files = append(files, form.File["image"]...)

	images, err := m.media.UploadImages(c.UserContext(), id, claims.UserID, files)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Images uploaded successfully",
		"images":  images,
	})
}

func (m *MediaController) DeletePropertyImage(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "property")
	}
	imageID, ok := paramID(c, "image_id")
	if !ok {
		return invalidID(c, "image")
	}

	if err := m.media.DeleteImage(c.UserContext(), id, imageID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Image deleted successfully",
	})
}

func (m *MediaController) ListDocuments(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "property")
	}

	documents, err := m.media.ListDocuments(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"documents": documents,
	})
}

// UploadPropertyDocument expects a "document" file plus optional
// "document_name" and "doc_type" form fields.
func (m *MediaController) UploadPropertyDocument(c *fiber.Ctx) error {
	claims := currentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "property")
	}

	file, err := c.FormFile("document")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	meta := service.DocumentInput{
		DocumentName: c.FormValue("document_name"),
		DocType:      model.DocumentType(c.FormValue("doc_type")),
	}

	document, err := m.media.UploadDocument(c.UserContext(), id, claims.UserID, file, meta)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(document)
}

func (m *MediaController) DeletePropertyDocument(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "property")
	}
	documentID, ok := paramID(c, "document_id")
	if !ok {
		return invalidID(c, "document")
	}

	if err := m.media.DeleteDocument(c.UserContext(), id, documentID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Document deleted successfully",
	})
}
