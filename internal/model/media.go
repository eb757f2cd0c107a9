package model

import "time"

// Document Types
type DocumentType string

const (
	DocumentTypeOwnership DocumentType = "ownership"
	DocumentTypeTax       DocumentType = "tax"
	DocumentTypeFloorPlan DocumentType = "floor_plan"
	DocumentTypeAgreement DocumentType = "agreement"
	DocumentTypeOther     DocumentType = "other"
)

type PropertyImage struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	PropertyID   uint      `json:"property_id" gorm:"index;not null"`
	FileName     string    `json:"file_name" gorm:"not null"`
	OriginalName string    `json:"original_name"`
	FilePath     string    `json:"file_path" gorm:"not null"`
	URL          string    `json:"url"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	DisplayOrder int       `json:"display_order" gorm:"index;default:0"`
	UploadedBy   uint      `json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
}

type PropertyDocument struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	PropertyID   uint         `json:"property_id" gorm:"index;not null"`
	DocumentName string       `json:"document_name" gorm:"not null"`
	DocType      DocumentType `json:"doc_type" gorm:"default:'other'"`
	FileName     string       `json:"file_name" gorm:"not null"`
	FilePath     string       `json:"file_path" gorm:"not null"`
	URL          string       `json:"url"`
	FileSize     int64        `json:"file_size"`
	MimeType     string       `json:"mime_type"`
	UploadedBy   uint         `json:"uploaded_by"`
	CreatedAt    time.Time    `json:"created_at"`
}

// FileCleanup is a backing file whose metadata row is gone and which still
// has to be removed from storage.
type FileCleanup struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Path      string     `json:"path" gorm:"not null"`
	Attempts  int        `json:"attempts" gorm:"default:0"`
	LastError string     `json:"last_error" gorm:"type:text"`
	DoneAt    *time.Time `json:"done_at" gorm:"index"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
