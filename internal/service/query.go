package service

import (
	"context"

	"gorm.io/gorm"

	"propertyhub_backend/internal/model"
)

// Per-property image caps for the different listings. Zero means unbounded.
const (
	listImageLimit    = 5
	compactImageLimit = 3
)

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func newPagination(page Page, total int64) Pagination {
	pages := 0
	if total > 0 {
		pages = int((total + int64(page.Limit) - 1) / int64(page.Limit))
	}
	return Pagination{Page: page.Page, Limit: page.Limit, Total: total, TotalPages: pages}
}

type PropertyPage struct {
	Properties []model.Property `json:"properties"`
	Pagination Pagination       `json:"pagination"`
}

type listQuery struct {
	filter     PropertyFilter
	sort       Sort
	page       Page
	imageLimit int
}

// filtered applies a filter to a fresh properties query. Location predicates
// use an inner join; amenity predicates are sub-selects so rows never fan out.
func filtered(db *gorm.DB, f PropertyFilter) *gorm.DB {
	q := db.Model(&model.Property{})
	for _, p := range f.Property {
		q = q.Where(p.Query, p.Args...)
	}
	if f.HasLocation() {
		q = q.Joins("JOIN locations ON locations.property_id = properties.id")
		for _, p := range f.Location {
			q = q.Where(p.Query, p.Args...)
		}
	}
	return q
}

func preloadSummary(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Category").
		Preload("Owner", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email")
		}).
		Preload("Location").
		Preload("Amenities")
}

func preloadDetail(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Category").
		Preload("Owner", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email", "phone")
		}).
		Preload("Verifier", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email")
		}).
		Preload("Location").
		Preload("Amenities").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("property_images.display_order ASC, property_images.id ASC")
		}).
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("property_documents.id ASC")
		}).
		Preload("Features", func(db *gorm.DB) *gorm.DB {
			return db.Order("property_features.display_order ASC, property_features.id ASC")
		})
}

func (s *PropertyService) runList(ctx context.Context, lq listQuery) (*PropertyPage, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := filtered(db, lq.filter).Distinct("properties.id").Count(&total).Error; err != nil {
		return nil, newInternalError("could not count properties", err)
	}

	properties := make([]model.Property, 0, lq.page.Limit)
	if total > int64(lq.page.Offset()) {
		q := filtered(db, lq.filter).
			Select("properties.*").
			Order(lq.sort.orderBy()).
			Order("properties.id DESC").
			Offset(lq.page.Offset()).
			Limit(lq.page.Limit)
		if err := preloadSummary(q).Find(&properties).Error; err != nil {
			return nil, newInternalError("could not fetch properties", err)
		}
		if err := attachImages(db, properties, lq.imageLimit); err != nil {
			return nil, newInternalError("could not fetch property images", err)
		}
	}

	return &PropertyPage{
		Properties: properties,
		Pagination: newPagination(lq.page, total),
	}, nil
}

// attachImages loads images for a page of properties in one query and keeps
// the first limit of each, by display order.
func attachImages(db *gorm.DB, properties []model.Property, limit int) error {
	if len(properties) == 0 {
		return nil
	}

	ids := make([]uint, len(properties))
	for i := range properties {
		ids[i] = properties[i].ID
	}

	var images []model.PropertyImage
	if err := db.Where("property_id IN ?", ids).
		Order("property_id ASC, display_order ASC, id ASC").
		Find(&images).Error; err != nil {
		return err
	}

	byProperty := make(map[uint][]model.PropertyImage, len(properties))
	for _, img := range images {
		bucket := byProperty[img.PropertyID]
		if limit > 0 && len(bucket) >= limit {
			continue
		}
		byProperty[img.PropertyID] = append(bucket, img)
	}
	for i := range properties {
		properties[i].Images = byProperty[properties[i].ID]
	}
	return nil
}

// loadDetail fetches one property with every relation.
func (s *PropertyService) loadDetail(ctx context.Context, id uint) (*model.Property, error) {
	var property model.Property
	if err := preloadDetail(s.db.WithContext(ctx)).First(&property, id).Error; err != nil {
		return nil, lookupError(err, "property")
	}
	return &property, nil
}
