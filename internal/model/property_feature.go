package model

import (
	"time"

	"gorm.io/datatypes"
)

type PropertyFeature struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	PropertyID   uint           `json:"property_id" gorm:"index;not null"`
	Name         string         `json:"name" gorm:"not null"`
	Value        datatypes.JSON `json:"value"` // string, number or array
	DisplayOrder int            `json:"display_order" gorm:"default:0"`
	CreatedAt    time.Time      `json:"created_at"`
}

type Amenity struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}
