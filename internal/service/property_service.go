package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"propertyhub_backend/internal/model"
	"propertyhub_backend/pkg/storage"
	"propertyhub_backend/pkg/utils/validation"
)

const (
	featuredCachePrefix = "featured:"
	featuredCacheTTL    = 2 * time.Minute
)

type LocationInput struct {
	City        string   `json:"city"`
	Locality    string   `json:"locality"`
	FullAddress string   `json:"full_address"`
	Pincode     string   `json:"pincode"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

type FeatureInput struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// PropertyInput is shared by create and update. On update only non-nil
// fields are written; a non-nil Features or Amenities slice (even empty)
// replaces the stored set.
type PropertyInput struct {
	Title           *string               `json:"title"`
	Description     *string               `json:"description"`
	PropertyType    *model.PropertyType   `json:"property_type"`
	ListingType     *model.ListingType    `json:"listing_type"`
	Price           *float64              `json:"price"`
	MonthlyRent     *float64              `json:"monthly_rent"`
	SecurityDeposit *float64              `json:"security_deposit"`
	Area            *float64              `json:"area"`
	AreaUnit        *string               `json:"area_unit"`
	Bedroom         *int                  `json:"bedroom"`
	Bathroom        *int                  `json:"bathroom"`
	Balcony         *int                  `json:"balcony"`
	FurnishType     *model.FurnishType    `json:"furnish_type"`
	Status          *model.PropertyStatus `json:"status"`
	IsFeatured      *bool                 `json:"is_featured"`
	CategoryID      *uint                 `json:"category_id"`

	Location  *LocationInput `json:"location"`
	Features  []FeatureInput `json:"features"`
	Amenities []uint         `json:"amenities"`
}

// DocumentInput carries optional metadata for an uploaded document.
type DocumentInput struct {
	DocumentName string             `json:"document_name"`
	DocType      model.DocumentType `json:"doc_type"`
}

type Uploads struct {
	Images    []*multipart.FileHeader
	Documents []*multipart.FileHeader
	// Optional per-document metadata, matched by position.
	DocumentMeta []DocumentInput
}

// Actor is the authenticated caller of a write.
type Actor struct {
	ID    uint
	Admin bool
}

type PropertyService struct {
	db            *gorm.DB
	storage       storage.Storage
	cleanup       *CleanupService
	cache         ResultCache
	log           *log.Logger
	defaultStatus model.PropertyStatus
}

func NewPropertyService(db *gorm.DB, store storage.Storage, cleanup *CleanupService, c ResultCache, logger *log.Logger, defaultStatus model.PropertyStatus) *PropertyService {
	if logger == nil {
		logger = log.Default()
	}
	if !defaultStatus.Valid() {
		defaultStatus = model.PropertyStatusDraft
	}
	return &PropertyService{
		db:            db,
		storage:       store,
		cleanup:       cleanup,
		cache:         orDisabled(c),
		log:           logger,
		defaultStatus: defaultStatus,
	}
}

// ListProperties is the general listing: every filter, no pinned status.
func (s *PropertyService) ListProperties(ctx context.Context, params map[string]string) (*PropertyPage, error) {
	sort, err := ParseSort(params)
	if err != nil {
		return nil, err
	}
	page, err := s.runList(ctx, listQuery{
		filter:     BuildFilter(ScopeList, params, nil),
		sort:       sort,
		page:       ParsePage(params),
		imageLimit: listImageLimit,
	})
	if err != nil {
		s.log.Printf("list properties failed: %v", err)
		return nil, err
	}
	return page, nil
}

// SearchProperties only ever returns published listings.
func (s *PropertyService) SearchProperties(ctx context.Context, params map[string]string, amenityIDs []uint) (*PropertyPage, error) {
	sort, err := ParseSort(params)
	if err != nil {
		return nil, err
	}
	page, err := s.runList(ctx, listQuery{
		filter:     BuildFilter(ScopeSearch, params, amenityIDs),
		sort:       sort,
		page:       ParsePage(params),
		imageLimit: listImageLimit,
	})
	if err != nil {
		s.log.Printf("search properties failed: %v", err)
		return nil, err
	}
	return page, nil
}

// FeaturedProperties returns published, featured listings.
func (s *PropertyService) FeaturedProperties(ctx context.Context, params map[string]string) (*PropertyPage, error) {
	sort, err := ParseSort(params)
	if err != nil {
		return nil, err
	}
	page := ParsePage(params)
	filter := BuildFilter(ScopeFeatured, params, nil)

	cacheKey := ""
	if len(filter.Property) == 2 && !filter.HasLocation() {
		// only the unfiltered featured listing is cached
		cacheKey = fmt.Sprintf("%s%d:%d:%s:%t", featuredCachePrefix, page.Page, page.Limit, sort.Column, sort.Desc)
		var cached PropertyPage
		if s.cache.GetJSON(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	result, err := s.runList(ctx, listQuery{
		filter:     filter,
		sort:       sort,
		page:       page,
		imageLimit: compactImageLimit,
	})
	if err != nil {
		s.log.Printf("featured properties failed: %v", err)
		return nil, err
	}
	if cacheKey != "" {
		s.cache.SetJSON(ctx, cacheKey, result, featuredCacheTTL)
	}
	return result, nil
}

// ListOwnerProperties lists every listing of one owner, whatever its status.
func (s *PropertyService) ListOwnerProperties(ctx context.Context, ownerID uint, params map[string]string) (*PropertyPage, error) {
	sort, err := ParseSort(params)
	if err != nil {
		return nil, err
	}

	scoped := make(map[string]string, len(params)+1)
	for k, v := range params {
		scoped[k] = v
	}
	scoped["owner_id"] = fmt.Sprint(ownerID)

	page, err := s.runList(ctx, listQuery{
		filter:     BuildFilter(ScopeOwner, scoped, nil),
		sort:       sort,
		page:       ParsePage(params),
		imageLimit: compactImageLimit,
	})
	if err != nil {
		s.log.Printf("list properties of owner %d failed: %v", ownerID, err)
		return nil, err
	}
	return page, nil
}

// GetProperty returns the full property and then bumps its view counter.
// The returned value carries the count from before this view.
func (s *PropertyService) GetProperty(ctx context.Context, id uint) (*model.Property, error) {
	property, err := s.loadDetail(ctx, id)
	if err != nil {
		if !IsNotFound(err) {
			s.log.Printf("get property %d failed: %v", id, err)
		}
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&model.Property{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1)).Error; err != nil {
		s.log.Printf("could not increment views for property %d: %v", id, err)
	}

	return property, nil
}

// CreateProperty writes the property and all dependent rows in one
// transaction and returns the stored entity.
func (s *PropertyService) CreateProperty(ctx context.Context, actor Actor, input PropertyInput, uploads Uploads) (*model.Property, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if err := checkModeration(actor, &model.Property{}, input.Status, input.IsFeatured); err != nil {
		return nil, err
	}
	if err := validateUploads(uploads); err != nil {
		return nil, err
	}

	property := model.Property{
		OwnerID: actor.ID,
		Status:  s.defaultStatus,
	}
	applyInput(&property, input)

	var written []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&property).Error; err != nil {
			return newInternalError("could not create property", err)
		}
		if input.Location != nil {
			location := locationFromInput(property.ID, *input.Location)
			if err := tx.Create(&location).Error; err != nil {
				return newInternalError("could not save location", err)
			}
		}
		if input.Features != nil {
			if err := insertFeatures(tx, property.ID, input.Features); err != nil {
				return err
			}
		}
		if input.Amenities != nil {
			if err := replaceAmenities(tx, &property, input.Amenities); err != nil {
				return err
			}
		}
		return s.storeMedia(ctx, tx, property.ID, actor.ID, uploads, &written)
	})
	if err != nil {
		s.discardWritten(ctx, written)
		s.log.Printf("create property failed: %v", err)
		return nil, err
	}

	s.invalidate(ctx)
	return s.loadDetail(ctx, property.ID)
}

// UpdateProperty applies a partial update. Location is upserted, features
// and amenities are replaced when supplied, new files are appended.
func (s *PropertyService) UpdateProperty(ctx context.Context, id uint, actor Actor, input PropertyInput, uploads Uploads) (*model.Property, error) {
	if err := validateEnums(input); err != nil {
		return nil, err
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, newValidationError("title cannot be empty")
	}
	if err := validateUploads(uploads); err != nil {
		return nil, err
	}

	var property model.Property
	if err := s.db.WithContext(ctx).First(&property, id).Error; err != nil {
		return nil, lookupError(err, "property")
	}
	if err := checkModeration(actor, &property, input.Status, input.IsFeatured); err != nil {
		return nil, err
	}

	var written []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if updates := updateColumns(input); len(updates) > 0 {
			if err := tx.Model(&property).Updates(updates).Error; err != nil {
				return newInternalError("could not update property", err)
			}
		}
		if input.Location != nil {
			location := locationFromInput(property.ID, *input.Location)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "property_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"city", "locality", "full_address", "pincode", "latitude", "longitude", "updated_at"}),
			}).Create(&location).Error; err != nil {
				return newInternalError("could not save location", err)
			}
		}
		if input.Features != nil {
			if err := tx.Where("property_id = ?", property.ID).Delete(&model.PropertyFeature{}).Error; err != nil {
				return newInternalError("could not replace features", err)
			}
			if err := insertFeatures(tx, property.ID, input.Features); err != nil {
				return err
			}
		}
		if input.Amenities != nil {
			if err := replaceAmenities(tx, &property, input.Amenities); err != nil {
				return err
			}
		}
		return s.storeMedia(ctx, tx, property.ID, actor.ID, uploads, &written)
	})
	if err != nil {
		s.discardWritten(ctx, written)
		s.log.Printf("update property %d failed: %v", id, err)
		return nil, err
	}

	s.invalidate(ctx)
	return s.loadDetail(ctx, property.ID)
}

func (s *PropertyService) UpdateStatus(ctx context.Context, id uint, actor Actor, status model.PropertyStatus) (*model.Property, error) {
	if !status.Valid() {
		return nil, newValidationError("invalid status %q", status)
	}

	var property model.Property
	if err := s.db.WithContext(ctx).Select("id", "status", "is_featured").First(&property, id).Error; err != nil {
		return nil, lookupError(err, "property")
	}
	if err := checkModeration(actor, &property, &status, nil); err != nil {
		return nil, err
	}
	return s.updateFields(ctx, id, map[string]interface{}{"status": status})
}

// VerifyProperty marks the listing verified by adminID.
func (s *PropertyService) VerifyProperty(ctx context.Context, id, adminID uint) (*model.Property, error) {
	return s.updateFields(ctx, id, map[string]interface{}{
		"is_verified": true,
		"verified_by": adminID,
		"verified_at": time.Now(),
		"status":      model.PropertyStatusVerified,
	})
}

// RejectProperty records the reason and leaves is_verified untouched.
func (s *PropertyService) RejectProperty(ctx context.Context, id uint, reason string) (*model.Property, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, newValidationError("a rejection reason is required")
	}
	return s.updateFields(ctx, id, map[string]interface{}{
		"status":           model.PropertyStatusRejected,
		"rejection_reason": reason,
	})
}

func (s *PropertyService) updateFields(ctx context.Context, id uint, updates map[string]interface{}) (*model.Property, error) {
	var property model.Property
	if err := s.db.WithContext(ctx).First(&property, id).Error; err != nil {
		return nil, lookupError(err, "property")
	}
	if err := s.db.WithContext(ctx).Model(&property).Updates(updates).Error; err != nil {
		s.log.Printf("update of property %d failed: %v", id, err)
		return nil, newInternalError("could not update property", err)
	}
	s.invalidate(ctx)
	return s.loadDetail(ctx, id)
}

// DeleteProperty removes the property and every dependent row in one
// transaction. Backing files are queued for cleanup in the same transaction
// and removed best-effort afterwards.
func (s *PropertyService) DeleteProperty(ctx context.Context, id uint) error {
	var property model.Property
	if err := s.db.WithContext(ctx).First(&property, id).Error; err != nil {
		return lookupError(err, "property")
	}

	var jobs []model.FileCleanup
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var paths []string
		if err := tx.Model(&model.PropertyImage{}).Where("property_id = ?", id).Pluck("file_path", &paths).Error; err != nil {
			return newInternalError("could not list images", err)
		}
		var docPaths []string
		if err := tx.Model(&model.PropertyDocument{}).Where("property_id = ?", id).Pluck("file_path", &docPaths).Error; err != nil {
			return newInternalError("could not list documents", err)
		}

		var err error
		if jobs, err = s.cleanup.Enqueue(tx, append(paths, docPaths...)...); err != nil {
			return newInternalError("could not queue file cleanup", err)
		}

		for _, dependent := range []interface{}{
			&model.PropertyImage{},
			&model.PropertyDocument{},
			&model.PropertyFeature{},
			&model.Location{},
		} {
			if err := tx.Where("property_id = ?", id).Delete(dependent).Error; err != nil {
				return newInternalError("could not delete dependent rows", err)
			}
		}
		if err := tx.Model(&property).Association("Amenities").Clear(); err != nil {
			return newInternalError("could not unlink amenities", err)
		}
		if err := tx.Delete(&property).Error; err != nil {
			return newInternalError("could not delete property", err)
		}
		return nil
	})
	if err != nil {
		s.log.Printf("delete property %d failed: %v", id, err)
		return err
	}

	s.cleanup.Process(ctx, jobs)
	s.invalidate(ctx)
	return nil
}

// ExportProperties returns every property matching the general listing
// filter, up to limit rows, for spreadsheet export.
func (s *PropertyService) ExportProperties(ctx context.Context, params map[string]string, limit int) ([]model.Property, error) {
	sort, err := ParseSort(params)
	if err != nil {
		return nil, err
	}

	var properties []model.Property
	q := filtered(s.db.WithContext(ctx), BuildFilter(ScopeList, params, nil)).
		Select("properties.*").
		Order(sort.orderBy()).
		Limit(limit).
		Preload("Owner", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email")
		}).
		Preload("Location").
		Preload("Category")
	if err := q.Find(&properties).Error; err != nil {
		s.log.Printf("export properties failed: %v", err)
		return nil, newInternalError("could not export properties", err)
	}
	return properties, nil
}

func (s *PropertyService) invalidate(ctx context.Context) {
	invalidateListings(ctx, s.cache)
}

func (s *PropertyService) storeMedia(ctx context.Context, tx *gorm.DB, propertyID, uploaderID uint, uploads Uploads, written *[]string) error {
	_, paths, err := storeImages(ctx, tx, s.storage, propertyID, uploaderID, uploads.Images)
	*written = append(*written, paths...)
	if err != nil {
		return err
	}
	_, paths, err = storeDocuments(ctx, tx, s.storage, propertyID, uploaderID, uploads.Documents, uploads.DocumentMeta)
	*written = append(*written, paths...)
	return err
}

func (s *PropertyService) discardWritten(ctx context.Context, paths []string) {
	discard(ctx, s.db, s.cleanup, s.log, paths)
}

// checkModeration guards the review workflow fields. verified and rejected
// are only reachable through VerifyProperty and RejectProperty; blocking,
// unblocking and featuring need an admin. Values equal to the stored ones
// pass, so a client may resend a complete payload.
func checkModeration(actor Actor, current *model.Property, status *model.PropertyStatus, featured *bool) error {
	if status != nil && *status != current.Status {
		switch *status {
		case model.PropertyStatusVerified, model.PropertyStatusRejected:
			return newValidationError("status %q is set through the verify and reject actions", *status)
		case model.PropertyStatusBlocked:
			if !actor.Admin {
				return newForbiddenError("only an admin can block a listing")
			}
		}
		if current.Status == model.PropertyStatusBlocked && !actor.Admin {
			return newForbiddenError("a blocked listing can only be released by an admin")
		}
	}
	if featured != nil && *featured != current.IsFeatured && !actor.Admin {
		return newForbiddenError("only an admin can feature a listing")
	}
	return nil
}

func validateCreate(input PropertyInput) error {
	if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
		return newValidationError("title is required")
	}
	if input.PropertyType == nil {
		return newValidationError("property_type is required")
	}
	if input.ListingType == nil {
		return newValidationError("listing_type is required")
	}
	return validateEnums(input)
}

func validateEnums(input PropertyInput) error {
	if input.PropertyType != nil && !input.PropertyType.Valid() {
		return newValidationError("invalid property_type %q", *input.PropertyType)
	}
	if input.ListingType != nil && !input.ListingType.Valid() {
		return newValidationError("invalid listing_type %q", *input.ListingType)
	}
	if input.FurnishType != nil && *input.FurnishType != "" && !input.FurnishType.Valid() {
		return newValidationError("invalid furnish_type %q", *input.FurnishType)
	}
	if input.Status != nil && !input.Status.Valid() {
		return newValidationError("invalid status %q", *input.Status)
	}
	for i, f := range input.Features {
		if strings.TrimSpace(f.Name) == "" {
			return newValidationError("feature %d has no name", i+1)
		}
	}
	return nil
}

func validateUploads(uploads Uploads) error {
	if len(uploads.Images) > validation.MaxImagesPerRequest {
		return newValidationError("at most %d images can be uploaded at once", validation.MaxImagesPerRequest)
	}
	for _, f := range uploads.Images {
		if err := validation.ValidateImage(f); err != nil {
			return &Error{Code: ErrorCodeValidation, Message: err.Error()}
		}
	}
	for _, f := range uploads.Documents {
		if err := validation.ValidateDocument(f); err != nil {
			return &Error{Code: ErrorCodeValidation, Message: err.Error()}
		}
	}
	return nil
}

func applyInput(p *model.Property, in PropertyInput) {
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.PropertyType != nil {
		p.PropertyType = *in.PropertyType
	}
	if in.ListingType != nil {
		p.ListingType = *in.ListingType
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	p.MonthlyRent = in.MonthlyRent
	p.SecurityDeposit = in.SecurityDeposit
	if in.Area != nil {
		p.Area = *in.Area
	}
	if in.AreaUnit != nil {
		p.AreaUnit = *in.AreaUnit
	}
	if in.Bedroom != nil {
		p.Bedroom = *in.Bedroom
	}
	if in.Bathroom != nil {
		p.Bathroom = *in.Bathroom
	}
	if in.Balcony != nil {
		p.Balcony = *in.Balcony
	}
	if in.FurnishType != nil {
		p.FurnishType = *in.FurnishType
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	p.CategoryID = in.CategoryID
}

// updateColumns maps the supplied fields to column updates; a map is used so
// zero values (false, 0) are written too.
func updateColumns(in PropertyInput) map[string]interface{} {
	updates := make(map[string]interface{})
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.PropertyType != nil {
		updates["property_type"] = *in.PropertyType
	}
	if in.ListingType != nil {
		updates["listing_type"] = *in.ListingType
	}
	if in.Price != nil {
		updates["price"] = *in.Price
	}
	if in.MonthlyRent != nil {
		updates["monthly_rent"] = *in.MonthlyRent
	}
	if in.SecurityDeposit != nil {
		updates["security_deposit"] = *in.SecurityDeposit
	}
	if in.Area != nil {
		updates["area"] = *in.Area
	}
	if in.AreaUnit != nil {
		updates["area_unit"] = *in.AreaUnit
	}
	if in.Bedroom != nil {
		updates["bedroom"] = *in.Bedroom
	}
	if in.Bathroom != nil {
		updates["bathroom"] = *in.Bathroom
	}
	if in.Balcony != nil {
		updates["balcony"] = *in.Balcony
	}
	if in.FurnishType != nil {
		updates["furnish_type"] = *in.FurnishType
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	if in.CategoryID != nil {
		updates["category_id"] = *in.CategoryID
	}
	return updates
}

func locationFromInput(propertyID uint, in LocationInput) model.Location {
	return model.Location{
		PropertyID:  propertyID,
		City:        strings.TrimSpace(in.City),
		Locality:    strings.TrimSpace(in.Locality),
		FullAddress: in.FullAddress,
		Pincode:     in.Pincode,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	}
}

func insertFeatures(tx *gorm.DB, propertyID uint, inputs []FeatureInput) error {
	if len(inputs) == 0 {
		return nil
	}
	features := make([]model.PropertyFeature, len(inputs))
	for i, in := range inputs {
		value := datatypes.JSON("null")
		if len(in.Value) > 0 {
			value = datatypes.JSON(in.Value)
		}
		features[i] = model.PropertyFeature{
			PropertyID:   propertyID,
			Name:         strings.TrimSpace(in.Name),
			Value:        value,
			DisplayOrder: i + 1,
		}
	}
	if err := tx.Create(&features).Error; err != nil {
		return newInternalError("could not save features", err)
	}
	return nil
}

// replaceAmenities makes ids the exact amenity set of the property.
func replaceAmenities(tx *gorm.DB, property *model.Property, ids []uint) error {
	association := tx.Model(property).Association("Amenities")
	if len(ids) == 0 {
		if err := association.Clear(); err != nil {
			return newInternalError("could not clear amenities", err)
		}
		return nil
	}

	unique := make(map[uint]bool, len(ids))
	for _, id := range ids {
		unique[id] = true
	}

	var amenities []model.Amenity
	if err := tx.Where("id IN ?", ids).Find(&amenities).Error; err != nil {
		return newInternalError("could not load amenities", err)
	}
	if len(amenities) != len(unique) {
		return newValidationError("unknown amenity id in %v", ids)
	}
	if err := association.Replace(amenities); err != nil {
		return newInternalError("could not replace amenities", err)
	}
	return nil
}
