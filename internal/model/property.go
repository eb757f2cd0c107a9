package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Property Types
type PropertyType string

const (
	PropertyTypeApartment PropertyType = "apartment"
	PropertyTypeVilla     PropertyType = "villa"
	PropertyTypeHouse     PropertyType = "house"
	PropertyTypePlot      PropertyType = "plot"
	PropertyTypeOffice    PropertyType = "office"
	PropertyTypeShop      PropertyType = "shop"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeApartment, PropertyTypeVilla, PropertyTypeHouse,
		PropertyTypePlot, PropertyTypeOffice, PropertyTypeShop:
		return true
	}
	return false
}

// Listing Types
type ListingType string

const (
	ListingTypeRent  ListingType = "rent"
	ListingTypeSale  ListingType = "sale"
	ListingTypeLease ListingType = "lease"
)

func (t ListingType) Valid() bool {
	switch t {
	case ListingTypeRent, ListingTypeSale, ListingTypeLease:
		return true
	}
	return false
}

type FurnishType string

const (
	FurnishTypeFurnished     FurnishType = "furnished"
	FurnishTypeSemiFurnished FurnishType = "semi_furnished"
	FurnishTypeUnfurnished   FurnishType = "unfurnished"
)

func (t FurnishType) Valid() bool {
	switch t {
	case FurnishTypeFurnished, FurnishTypeSemiFurnished, FurnishTypeUnfurnished:
		return true
	}
	return false
}

// Property Status
type PropertyStatus string

const (
	PropertyStatusDraft     PropertyStatus = "draft"
	PropertyStatusPublished PropertyStatus = "published"
	PropertyStatusBlocked   PropertyStatus = "blocked"
	PropertyStatusSold      PropertyStatus = "sold"
	PropertyStatusRented    PropertyStatus = "rented"
	PropertyStatusVerified  PropertyStatus = "verified"
	PropertyStatusRejected  PropertyStatus = "rejected"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyStatusDraft, PropertyStatusPublished, PropertyStatusBlocked,
		PropertyStatusSold, PropertyStatusRented, PropertyStatusVerified,
		PropertyStatusRejected:
		return true
	}
	return false
}

type Property struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Title           string         `json:"title" gorm:"not null"`
	Slug            string         `json:"slug" gorm:"uniqueIndex;not null"`
	Description     string         `json:"description" gorm:"type:text"`
	PropertyType    PropertyType   `json:"property_type" gorm:"index;not null"`
	ListingType     ListingType    `json:"listing_type" gorm:"index;not null"`
	Price           float64        `json:"price" gorm:"index"`
	MonthlyRent     *float64       `json:"monthly_rent"`
	SecurityDeposit *float64       `json:"security_deposit"`
	Area            float64        `json:"area"`
	AreaUnit        string         `json:"area_unit" gorm:"default:'sqft'"`
	Bedroom         int            `json:"bedroom"`
	Bathroom        int            `json:"bathroom"`
	Balcony         int            `json:"balcony"`
	FurnishType     FurnishType    `json:"furnish_type"`
	Status          PropertyStatus `json:"status" gorm:"index;not null"`
	IsFeatured      bool           `json:"is_featured" gorm:"default:false"`
	IsVerified      bool           `json:"is_verified" gorm:"default:false"`
	VerifiedBy      *uint          `json:"verified_by"`
	VerifiedAt      *time.Time     `json:"verified_at"`
	RejectionReason string         `json:"rejection_reason" gorm:"type:text"`
	OwnerID         uint           `json:"owner_id" gorm:"index;not null"`
	CategoryID      *uint          `json:"category_id" gorm:"index"`
	ViewsCount      int64          `json:"views_count" gorm:"default:0"`

	// Relations
	Owner     *User              `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Verifier  *User              `json:"verifier,omitempty" gorm:"foreignKey:VerifiedBy"`
	Category  *Category          `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Location  *Location          `json:"location,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	Images    []PropertyImage    `json:"images,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	Documents []PropertyDocument `json:"documents,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	Features  []PropertyFeature  `json:"features,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	Amenities []Amenity          `json:"amenities,omitempty" gorm:"many2many:property_amenities;constraint:OnDelete:CASCADE"`
}

// BeforeCreate fills in a unique slug derived from the title.
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.Slug == "" {
		p.Slug = GenerateSlug(p.Title)
	}
	return nil
}

// GenerateSlug returns a URL-safe identifier with a short random suffix so
// two listings with the same title never collide.
func GenerateSlug(title string) string {
	suffix := uuid.New().String()[:8]
	base := slug.Make(title)
	if base == "" {
		return suffix
	}
	if len(base) > 80 {
		base = base[:80]
	}
	return base + "-" + suffix
}

type Location struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	PropertyID  uint      `json:"property_id" gorm:"uniqueIndex;not null"`
	City        string    `json:"city" gorm:"index"`
	Locality    string    `json:"locality"`
	FullAddress string    `json:"full_address" gorm:"type:text"`
	Pincode     string    `json:"pincode"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
