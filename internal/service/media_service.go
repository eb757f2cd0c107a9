package service

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"propertyhub_backend/internal/model"
	"propertyhub_backend/pkg/storage"
	"propertyhub_backend/pkg/utils/validation"
)

// MediaService manages the images and documents attached to a property.
type MediaService struct {
	db      *gorm.DB
	storage storage.Storage
	cleanup *CleanupService
	cache   ResultCache
	log     *log.Logger
}

func NewMediaService(db *gorm.DB, store storage.Storage, cleanup *CleanupService, c ResultCache, logger *log.Logger) *MediaService {
	if logger == nil {
		logger = log.Default()
	}
	return &MediaService{db: db, storage: store, cleanup: cleanup, cache: orDisabled(c), log: logger}
}

func imageFolder(propertyID uint) string {
	return fmt.Sprintf("properties/%d/images", propertyID)
}

func documentFolder(propertyID uint) string {
	return fmt.Sprintf("properties/%d/documents", propertyID)
}

func (s *MediaService) ListImages(ctx context.Context, propertyID uint) ([]model.PropertyImage, error) {
	if err := s.requireProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	images := []model.PropertyImage{}
	if err := s.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("display_order ASC, id ASC").
		Find(&images).Error; err != nil {
		return nil, newInternalError("could not fetch images", err)
	}
	return images, nil
}

func (s *MediaService) ListDocuments(ctx context.Context, propertyID uint) ([]model.PropertyDocument, error) {
	if err := s.requireProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	documents := []model.PropertyDocument{}
	if err := s.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("id ASC").
		Find(&documents).Error; err != nil {
		return nil, newInternalError("could not fetch documents", err)
	}
	return documents, nil
}

// UploadImages appends images after the current highest display order.
func (s *MediaService) UploadImages(ctx context.Context, propertyID, uploaderID uint, files []*multipart.FileHeader) ([]model.PropertyImage, error) {
	if len(files) == 0 {
		return nil, newValidationError("no images provided")
	}
	if err := validateUploads(Uploads{Images: files}); err != nil {
		return nil, err
	}
	if err := s.requireProperty(ctx, propertyID); err != nil {
		return nil, err
	}

	var images []model.PropertyImage
	var written []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		images, written, err = storeImages(ctx, tx, s.storage, propertyID, uploaderID, files)
		return err
	})
	if err != nil {
		discard(ctx, s.db, s.cleanup, s.log, written)
		s.log.Printf("image upload for property %d failed: %v", propertyID, err)
		return nil, err
	}

	invalidateListings(ctx, s.cache)
	s.log.Printf("stored %d images for property %d", len(images), propertyID)
	return images, nil
}

// UploadDocument stores one document. An empty name falls back to the
// original file name and an empty type to "other".
func (s *MediaService) UploadDocument(ctx context.Context, propertyID, uploaderID uint, file *multipart.FileHeader, meta DocumentInput) (*model.PropertyDocument, error) {
	if file == nil {
		return nil, newValidationError("%s", validation.ErrFileRequired)
	}
	if err := validateUploads(Uploads{Documents: []*multipart.FileHeader{file}}); err != nil {
		return nil, err
	}
	if err := validateDocType(meta.DocType); err != nil {
		return nil, err
	}
	if err := s.requireProperty(ctx, propertyID); err != nil {
		return nil, err
	}

	var documents []model.PropertyDocument
	var written []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		documents, written, err = storeDocuments(ctx, tx, s.storage, propertyID, uploaderID,
			[]*multipart.FileHeader{file}, []DocumentInput{meta})
		return err
	})
	if err != nil {
		discard(ctx, s.db, s.cleanup, s.log, written)
		s.log.Printf("document upload for property %d failed: %v", propertyID, err)
		return nil, err
	}
	invalidateListings(ctx, s.cache)
	return &documents[0], nil
}

// DeleteImage removes the metadata row and queues the backing file.
func (s *MediaService) DeleteImage(ctx context.Context, propertyID, imageID uint) error {
	var image model.PropertyImage
	if err := s.db.WithContext(ctx).
		Where("id = ? AND property_id = ?", imageID, propertyID).
		First(&image).Error; err != nil {
		return lookupError(err, "image")
	}
	return s.deleteWithFile(ctx, &image, image.FilePath)
}

func (s *MediaService) DeleteDocument(ctx context.Context, propertyID, documentID uint) error {
	var document model.PropertyDocument
	if err := s.db.WithContext(ctx).
		Where("id = ? AND property_id = ?", documentID, propertyID).
		First(&document).Error; err != nil {
		return lookupError(err, "document")
	}
	return s.deleteWithFile(ctx, &document, document.FilePath)
}

func (s *MediaService) deleteWithFile(ctx context.Context, row interface{}, filePath string) error {
	var jobs []model.FileCleanup
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(row).Error; err != nil {
			return newInternalError("could not delete record", err)
		}
		var err error
		jobs, err = s.cleanup.Enqueue(tx, filePath)
		if err != nil {
			return newInternalError("could not queue file cleanup", err)
		}
		return nil
	})
	if err != nil {
		s.log.Printf("delete of %s failed: %v", filePath, err)
		return err
	}
	s.cleanup.Process(ctx, jobs)
	invalidateListings(ctx, s.cache)
	return nil
}

func (s *MediaService) requireProperty(ctx context.Context, propertyID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Property{}).Where("id = ?", propertyID).Count(&count).Error; err != nil {
		return newInternalError("could not look up property", err)
	}
	if count == 0 {
		return newNotFoundError("property not found")
	}
	return nil
}

func validateDocType(t model.DocumentType) error {
	switch t {
	case "", model.DocumentTypeOwnership, model.DocumentTypeTax, model.DocumentTypeFloorPlan,
		model.DocumentTypeAgreement, model.DocumentTypeOther:
		return nil
	}
	return newValidationError("invalid doc_type %q", t)
}

// storeImages writes files to storage and inserts their rows inside tx. The
// returned paths include files written before a failure.
func storeImages(ctx context.Context, tx *gorm.DB, store storage.Storage, propertyID, uploaderID uint, files []*multipart.FileHeader) ([]model.PropertyImage, []string, error) {
	var written []string
	if len(files) == 0 {
		return nil, written, nil
	}

	var maxOrder int
	if err := tx.Model(&model.PropertyImage{}).
		Where("property_id = ?", propertyID).
		Select("COALESCE(MAX(display_order), 0)").
		Scan(&maxOrder).Error; err != nil {
		return nil, written, newInternalError("could not read image order", err)
	}

	images := make([]model.PropertyImage, 0, len(files))
	for i, file := range files {
		stored, err := store.Save(ctx, file, imageFolder(propertyID))
		if err != nil {
			return nil, written, newInternalError("could not store image "+file.Filename, err)
		}
		written = append(written, stored.Path)

		image := model.PropertyImage{
			PropertyID:   propertyID,
			FileName:     stored.FileName,
			OriginalName: stored.OriginalName,
			FilePath:     stored.Path,
			URL:          stored.URL,
			FileSize:     stored.Size,
			MimeType:     stored.MimeType,
			DisplayOrder: maxOrder + i + 1,
			UploadedBy:   uploaderID,
		}
		if err := tx.Create(&image).Error; err != nil {
			return nil, written, newInternalError("could not save image record", err)
		}
		images = append(images, image)
	}
	return images, written, nil
}

func storeDocuments(ctx context.Context, tx *gorm.DB, store storage.Storage, propertyID, uploaderID uint, files []*multipart.FileHeader, meta []DocumentInput) ([]model.PropertyDocument, []string, error) {
	var written []string
	documents := make([]model.PropertyDocument, 0, len(files))
	for i, file := range files {
		var m DocumentInput
		if i < len(meta) {
			m = meta[i]
		}
		if err := validateDocType(m.DocType); err != nil {
			return nil, written, err
		}

		stored, err := store.Save(ctx, file, documentFolder(propertyID))
		if err != nil {
			return nil, written, newInternalError("could not store document "+file.Filename, err)
		}
		written = append(written, stored.Path)

		name := strings.TrimSpace(m.DocumentName)
		if name == "" {
			name = filepath.Base(file.Filename)
		}
		docType := m.DocType
		if docType == "" {
			docType = model.DocumentTypeOther
		}

		document := model.PropertyDocument{
			PropertyID:   propertyID,
			DocumentName: name,
			DocType:      docType,
			FileName:     stored.FileName,
			FilePath:     stored.Path,
			URL:          stored.URL,
			FileSize:     stored.Size,
			MimeType:     stored.MimeType,
			UploadedBy:   uploaderID,
		}
		if err := tx.Create(&document).Error; err != nil {
			return nil, written, newInternalError("could not save document record", err)
		}
		documents = append(documents, document)
	}
	return documents, written, nil
}

// discard queues and removes files stored during a rolled back transaction.
func discard(ctx context.Context, db *gorm.DB, cleanup *CleanupService, logger *log.Logger, paths []string) {
	if len(paths) == 0 {
		return
	}
	jobs, err := cleanup.Enqueue(db.WithContext(ctx), paths...)
	if err != nil {
		logger.Printf("could not queue %d orphaned files: %v", len(paths), err)
		return
	}
	cleanup.Process(ctx, jobs)
}
