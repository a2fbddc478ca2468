package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vsrfleet/inspection-backend/internal/dto"
	"github.com/vsrfleet/inspection-backend/internal/models"
	"gorm.io/gorm"
)

// InspectionService owns the vehicle_inspections table and its photo
// metadata.
type InspectionService struct {
	db       *gorm.DB
	identity *IdentityService
}

func NewInspectionService(db *gorm.DB, identity *IdentityService) *InspectionService {
	return &InspectionService{db: db, identity: identity}
}

// InspectionWithOwner is an inspection joined with its owner's email for
// the admin views.
type InspectionWithOwner struct {
	models.Inspection
	UserEmail string `json:"user_email"`
}

// Create records a new inspection for ownerID. The mechanic signature is
// stripped unless the owner currently holds the admin role — the check
// happens at write time, so a later demotion never invalidates a stored
// signature. Photo metadata failures are logged per photo and do not fail
// the creation: a missing photo is recoverable, a lost inspection is not.
func (s *InspectionService) Create(ctx context.Context, ownerID, ownerEmail string, req *dto.CreateInspectionRequest) (*models.Inspection, int, error) {
	if ownerID == "" || req.Vehicle == "" {
		return nil, 0, fmt.Errorf("%w: user id and vehicle are required", ErrInvalidRequest)
	}

	s.identity.EnsureIdentity(ctx, ownerID, ownerEmail)

	mechanicSignature := ""
	if strings.TrimSpace(req.MechanicSignature) != "" {
		isAdmin, err := s.identity.IsAdmin(ctx, ownerID)
		switch {
		case err != nil:
			// Cannot verify the role, so do not accept the signature.
			slog.Error("admin check for mechanic signature failed",
				"user_id", ownerID, "error", err.Error())
		case isAdmin:
			mechanicSignature = strings.TrimSpace(req.MechanicSignature)
		default:
			slog.Warn("mechanic signature rejected for non-admin", "user_id", ownerID)
		}
	}

	satisfactory := true
	if req.ConditionSatisfactory != nil {
		satisfactory = *req.ConditionSatisfactory
	}

	inspection := models.Inspection{
		UserID:                ownerID,
		Location:              req.Location,
		Date:                  parseInspectionDate(req.Date),
		Time:                  req.Time,
		Vehicle:               req.Vehicle,
		SpeedometerReading:    req.SpeedometerReading,
		DefectiveItems:        encodeChecklist(req.DefectiveItems),
		TruckTrailerItems:     encodeChecklist(req.TruckTrailerItems),
		TrailerNumber:         req.TrailerNumber,
		Remarks:               req.Remarks,
		ConditionSatisfactory: satisfactory,
		DriverSignature:       req.DriverSignature,
		DefectsCorrected:      req.DefectsCorrected,
		DefectsNeedCorrection: req.DefectsNeedCorrection,
		MechanicSignature:     mechanicSignature,
	}

	if err := s.db.WithContext(ctx).Create(&inspection).Error; err != nil {
		return nil, 0, fmt.Errorf("create inspection: %w", err)
	}

	stored := 0
	for _, photo := range req.Photos {
		image := buildImage(inspection.ID, ownerID, inspection.Vehicle, photo)
		if err := s.db.WithContext(ctx).Create(&image).Error; err != nil {
			slog.Error("failed to store photo metadata",
				"inspection_id", inspection.ID, "file", image.FileName, "error", err.Error())
			continue
		}
		stored++
	}

	return &inspection, stored, nil
}

// GetByID returns one inspection with its photos. When caller identity is
// present, the identity bookkeeping runs first (best-effort) so a
// pre-provisioned admin viewing their first inspection gets relinked.
func (s *InspectionService) GetByID(ctx context.Context, id uint, callerID, callerEmail string) (*InspectionWithOwner, error) {
	if callerID != "" {
		s.identity.EnsureIdentity(ctx, callerID, callerEmail)
	}

	var result InspectionWithOwner
	err := s.db.WithContext(ctx).Model(&models.Inspection{}).
		Select("vehicle_inspections.*, users.email AS user_email").
		Joins("LEFT JOIN users ON users.id = vehicle_inspections.user_id").
		Where("vehicle_inspections.id = ?", id).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: inspection %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get inspection: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Where("inspection_id = ?", id).
		Order("created_at DESC").
		Find(&result.Images).Error; err != nil {
		// Photos are decoration on the read path; the inspection itself
		// still comes back.
		slog.Error("failed to load inspection photos", "inspection_id", id, "error", err.Error())
		result.Images = []models.InspectionImage{}
	}

	normalizeChecklists(&result.Inspection)
	return &result, nil
}

// ListByOwner returns the caller's inspections, newest first.
func (s *InspectionService) ListByOwner(ctx context.Context, ownerID, ownerEmail string) ([]models.Inspection, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}

	s.identity.EnsureIdentity(ctx, ownerID, ownerEmail)

	var inspections []models.Inspection
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&inspections).Error
	if err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}
	for i := range inspections {
		normalizeChecklists(&inspections[i])
	}
	return inspections, nil
}

// AdminList returns every inspection with its owner's email.
func (s *InspectionService) AdminList(ctx context.Context, actingAdminID string) ([]InspectionWithOwner, error) {
	if err := s.identity.requireAdmin(ctx, actingAdminID); err != nil {
		return nil, err
	}

	var results []InspectionWithOwner
	err := s.db.WithContext(ctx).Model(&models.Inspection{}).
		Select("vehicle_inspections.*, users.email AS user_email").
		Joins("LEFT JOIN users ON users.id = vehicle_inspections.user_id").
		Order("vehicle_inspections.created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("list all inspections: %w", err)
	}
	for i := range results {
		normalizeChecklists(&results[i].Inspection)
	}
	return results, nil
}

// AdminGet is the admin view of a single inspection.
func (s *InspectionService) AdminGet(ctx context.Context, actingAdminID string, id uint) (*InspectionWithOwner, error) {
	if err := s.identity.requireAdmin(ctx, actingAdminID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id, "", "")
}

// Update merges the supplied fields over the stored row; omitted fields
// keep their values. A supplied photo list is applied idempotently: photos
// already present (by row id or storage key) are skipped, so resubmitting
// the same list never duplicates metadata.
func (s *InspectionService) Update(ctx context.Context, actingAdminID string, id uint, req *dto.UpdateInspectionRequest) (*InspectionWithOwner, error) {
	if err := s.identity.requireAdmin(ctx, actingAdminID); err != nil {
		return nil, err
	}

	var current models.Inspection
	err := s.db.WithContext(ctx).First(&current, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: inspection %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load inspection: %w", err)
	}

	updates := buildInspectionUpdates(req)
	updates["updated_by"] = actingAdminID
	if err := s.db.WithContext(ctx).Model(&models.Inspection{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update inspection: %w", err)
	}

	if req.Photos != nil {
		s.attachNewPhotos(ctx, id, actingAdminID, current.Vehicle, req.Photos)
	}

	return s.GetByID(ctx, id, "", "")
}

// attachNewPhotos inserts metadata only for photos not already recorded.
// Individual failures are logged and skipped; a photo problem must not fail
// the parent update.
func (s *InspectionService) attachNewPhotos(ctx context.Context, inspectionID uint, uploadedBy, vehicle string, photos []dto.PhotoPayload) {
	for _, photo := range photos {
		if photo.ID != 0 || photo.StorageKey != "" {
			var count int64
			err := s.db.WithContext(ctx).Model(&models.InspectionImage{}).
				Where("inspection_id = ?", inspectionID).
				Where("id = ? OR storage_key = ?", photo.ID, photo.StorageKey).
				Count(&count).Error
			if err != nil {
				slog.Error("photo existence check failed",
					"inspection_id", inspectionID, "error", err.Error())
				continue
			}
			if count > 0 {
				continue
			}
		}

		if photo.URL == "" || (photo.StorageKey == "" && photo.Name == "") {
			continue
		}

		image := buildImage(inspectionID, uploadedBy, vehicle, photo)
		if err := s.db.WithContext(ctx).Create(&image).Error; err != nil {
			slog.Error("failed to store photo metadata",
				"inspection_id", inspectionID, "file", image.FileName, "error", err.Error())
		}
	}
}

// Delete removes an inspection; photo metadata goes with it via the
// ON DELETE CASCADE constraint.
func (s *InspectionService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Inspection{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete inspection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: inspection %d", ErrNotFound, id)
	}
	return nil
}

// AdminDelete is Delete behind the role gate.
func (s *InspectionService) AdminDelete(ctx context.Context, actingAdminID string, id uint) error {
	if err := s.identity.requireAdmin(ctx, actingAdminID); err != nil {
		return err
	}
	return s.Delete(ctx, id)
}

func buildInspectionUpdates(req *dto.UpdateInspectionRequest) map[string]interface{} {
	updates := map[string]interface{}{}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Date != nil {
		updates["date"] = parseInspectionDate(*req.Date)
	}
	if req.Time != nil {
		updates["time"] = *req.Time
	}
	if req.Vehicle != nil {
		updates["vehicle"] = *req.Vehicle
	}
	if req.SpeedometerReading != nil {
		updates["speedometer_reading"] = *req.SpeedometerReading
	}
	if req.DefectiveItems != nil {
		updates["defective_items"] = encodeChecklist(*req.DefectiveItems)
	}
	if req.TruckTrailerItems != nil {
		updates["truck_trailer_items"] = encodeChecklist(*req.TruckTrailerItems)
	}
	if req.TrailerNumber != nil {
		updates["trailer_number"] = *req.TrailerNumber
	}
	if req.Remarks != nil {
		updates["remarks"] = *req.Remarks
	}
	if req.ConditionSatisfactory != nil {
		updates["condition_satisfactory"] = *req.ConditionSatisfactory
	}
	if req.DriverSignature != nil {
		updates["driver_signature"] = *req.DriverSignature
	}
	if req.DefectsCorrected != nil {
		updates["defects_corrected"] = *req.DefectsCorrected
	}
	if req.DefectsNeedCorrection != nil {
		updates["defects_need_correction"] = *req.DefectsNeedCorrection
	}
	if req.MechanicSignature != nil {
		updates["mechanic_signature"] = *req.MechanicSignature
	}
	return updates
}

func buildImage(inspectionID uint, uploadedBy, vehicle string, photo dto.PhotoPayload) models.InspectionImage {
	name := photo.Name
	if name == "" {
		name = fmt.Sprintf("photo_%d", time.Now().UnixMilli())
	}
	format := photo.Format
	if format == "" {
		format = "jpg"
	}
	isPrivate := true
	if photo.IsPrivate != nil {
		isPrivate = *photo.IsPrivate
	}
	vehicleID := photo.VehicleID
	if vehicleID == "" {
		vehicleID = vehicle
	}

	return models.InspectionImage{
		InspectionID:    inspectionID,
		FileName:        name,
		StorageKey:      photo.StorageKey,
		URL:             photo.URL,
		ImageType:       "defect_photo",
		Width:           photo.Width,
		Height:          photo.Height,
		FileSize:        photo.FileSize,
		Format:          format,
		IsPrivate:       isPrivate,
		UploadedBy:      uploadedBy,
		VehicleID:       vehicleID,
		VehicleFolder:   photo.VehicleFolder,
		ContextMetadata: encodeChecklist(photo.Context),
	}
}

// normalizeChecklists rewrites both checklist columns through the defensive
// decoder, so callers always see a JSON object even for legacy rows.
func normalizeChecklists(inspection *models.Inspection) {
	inspection.DefectiveItems = encodeChecklist(decodeChecklist(inspection.DefectiveItems))
	inspection.TruckTrailerItems = encodeChecklist(decodeChecklist(inspection.TruckTrailerItems))
}

func parseInspectionDate(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d
	}
	return time.Now()
}
