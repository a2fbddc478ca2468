package models

import (
	"time"

	"gorm.io/datatypes"
)

// InspectionImage is metadata for a photo stored in the external object
// store. Rows are never mutated in place: a re-upload creates a new row.
// Deleting the inspection cascades to these rows, but removing the binary
// itself is a separate object-store call.
type InspectionImage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	InspectionID uint   `gorm:"not null;index:idx_inspection_images_inspection_id" json:"inspection_id"`
	FileName     string `gorm:"size:255;not null" json:"file_name"`
	StorageKey   string `gorm:"size:255;not null;index" json:"storage_key"`
	URL          string `gorm:"size:500" json:"url"`
	ImageType    string `gorm:"size:50;default:'defect_photo';index:idx_inspection_images_type" json:"image_type"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
	MimeType     string `gorm:"size:100" json:"mime_type,omitempty"`
	Format       string `gorm:"size:20;default:'jpg'" json:"format,omitempty"`
	IsPrivate    bool   `gorm:"default:true" json:"is_private"`
	UploadedBy   string `gorm:"size:255" json:"uploaded_by,omitempty"`
	// Vehicle grouping used for folder-style organization in the store.
	VehicleID       string         `gorm:"size:255" json:"vehicle_id,omitempty"`
	VehicleFolder   string         `gorm:"size:255" json:"vehicle_folder,omitempty"`
	ContextMetadata datatypes.JSON `gorm:"type:jsonb" json:"context_metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (InspectionImage) TableName() string {
	return "inspection_images"
}
