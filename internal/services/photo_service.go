package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vsrfleet/inspection-backend/internal/dto"
	"github.com/vsrfleet/inspection-backend/internal/models"
	"github.com/vsrfleet/inspection-backend/internal/storage"
	"gorm.io/gorm"
)

// PhotoService manages photo binaries and their metadata rows. Binaries go
// to object storage; the database only holds keys, URLs and dimensions.
type PhotoService struct {
	db    *gorm.DB
	store storage.ObjectStorage
}

func NewPhotoService(db *gorm.DB, store storage.ObjectStorage) *PhotoService {
	return &PhotoService{db: db, store: store}
}

// Upload stores a photo binary for an existing inspection and records its
// metadata. The inspection must exist first; orphan photos are rejected.
func (s *PhotoService) Upload(ctx context.Context, inspectionID uint, fileName, contentType string, file io.Reader, size int64, uploadedBy string) (*models.InspectionImage, error) {
	var inspection models.Inspection
	err := s.db.WithContext(ctx).Select("id", "vehicle").First(&inspection, inspectionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: inspection not found", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load inspection: %w", err)
	}

	key, url, err := s.store.Upload(ctx, inspectionID, fileName, contentType, file, size)
	if err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	image := models.InspectionImage{
		InspectionID: inspectionID,
		FileName:     fileName,
		StorageKey:   key,
		URL:          url,
		ImageType:    "defect_photo",
		FileSize:     size,
		MimeType:     contentType,
		IsPrivate:    true,
		UploadedBy:   uploadedBy,
		VehicleID:    inspection.Vehicle,
	}
	if err := s.db.WithContext(ctx).Create(&image).Error; err != nil {
		// The binary is already stored; try not to leak it.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			slog.Warn("orphaned photo binary after failed metadata insert",
				"storage_key", key, "error", delErr)
		}
		return nil, fmt.Errorf("save photo metadata: %w", err)
	}
	return &image, nil
}

// List returns the photo metadata for an inspection, newest first.
func (s *PhotoService) List(ctx context.Context, inspectionID uint) ([]models.InspectionImage, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Inspection{}).
		Where("id = ?", inspectionID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check inspection: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: inspection not found", ErrNotFound)
	}

	var images []models.InspectionImage
	err := s.db.WithContext(ctx).
		Where("inspection_id = ?", inspectionID).
		Order("created_at DESC").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return images, nil
}

// Delete removes a photo row and best-effort deletes its binary. A storage
// failure is logged but does not keep the metadata row alive.
func (s *PhotoService) Delete(ctx context.Context, photoID uint) error {
	var image models.InspectionImage
	err := s.db.WithContext(ctx).First(&image, photoID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: photo not found", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load photo: %w", err)
	}

	if image.StorageKey != "" {
		if err := s.store.Delete(ctx, image.StorageKey); err != nil {
			slog.Warn("failed to delete photo binary",
				"photo_id", photoID, "storage_key", image.StorageKey, "error", err)
		}
	}

	if err := s.db.WithContext(ctx).Delete(&models.InspectionImage{}, photoID).Error; err != nil {
		return fmt.Errorf("delete photo metadata: %w", err)
	}
	return nil
}

// FreshURL returns a URL usable right now: a presigned one for private
// photos with a storage key, otherwise the stored URL.
func (s *PhotoService) FreshURL(ctx context.Context, photoID uint) (*dto.FreshURLResponse, error) {
	var image models.InspectionImage
	err := s.db.WithContext(ctx).First(&image, photoID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: photo not found", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load photo: %w", err)
	}

	resp := dto.FreshURLResponse{
		PhotoID:   image.ID,
		FileName:  image.FileName,
		IsPrivate: image.IsPrivate,
	}

	if image.IsPrivate && image.StorageKey != "" {
		url, expiresAt, err := s.store.PresignedURL(ctx, image.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("presign photo url: %w", err)
		}
		resp.URL = url
		resp.ExpiresAt = &expiresAt
		return &resp, nil
	}

	if image.URL == "" {
		return nil, fmt.Errorf("%w: photo URL not available", ErrNotFound)
	}
	resp.URL = image.URL
	return &resp, nil
}
