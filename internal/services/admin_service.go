package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vsrfleet/inspection-backend/internal/models"
	"gorm.io/gorm"
)

// AdminService computes aggregate reports over the inspection data.
type AdminService struct {
	db       *gorm.DB
	identity *IdentityService
}

func NewAdminService(db *gorm.DB, identity *IdentityService) *AdminService {
	return &AdminService{db: db, identity: identity}
}

// DefectCount is one entry of the defect frequency report.
type DefectCount struct {
	ItemKey string `json:"item_key"`
	Count   int    `json:"count"`
	Type    string `json:"type"`
	Label   string `json:"label"`
}

const (
	defectTypeCar          = "car"
	defectTypeTruckTrailer = "truck/trailer"
)

// DefectFrequencyReport counts, per checklist item, how many inspections
// flagged it as defective. Car and truck/trailer checklists are counted in
// separate namespaces — the same key can mean different things in each —
// and the merged result is sorted by frequency. An inspection whose
// checklist fails to parse is skipped for that checklist only.
func (s *AdminService) DefectFrequencyReport(ctx context.Context, actingAdminID string) ([]DefectCount, error) {
	if err := s.identity.requireAdmin(ctx, actingAdminID); err != nil {
		return nil, err
	}

	var inspections []models.Inspection
	err := s.db.WithContext(ctx).Model(&models.Inspection{}).
		Select("id", "defective_items", "truck_trailer_items").
		Order("created_at DESC").
		Find(&inspections).Error
	if err != nil {
		return nil, fmt.Errorf("scan inspections: %w", err)
	}

	carCounts := make(map[string]int)
	truckCounts := make(map[string]int)
	for _, inspection := range inspections {
		for key, value := range decodeChecklist(inspection.DefectiveItems) {
			if isDefectSelected(value) {
				carCounts[key]++
			}
		}
		for key, value := range decodeChecklist(inspection.TruckTrailerItems) {
			if isDefectSelected(value) {
				truckCounts[key]++
			}
		}
	}

	report := make([]DefectCount, 0, len(carCounts)+len(truckCounts))
	for key, count := range carCounts {
		report = append(report, DefectCount{
			ItemKey: key, Count: count, Type: defectTypeCar, Label: humanizeItemKey(key),
		})
	}
	for key, count := range truckCounts {
		report = append(report, DefectCount{
			ItemKey: key, Count: count, Type: defectTypeTruckTrailer, Label: humanizeItemKey(key),
		})
	}

	sort.Slice(report, func(i, j int) bool {
		if report[i].Count != report[j].Count {
			return report[i].Count > report[j].Count
		}
		return report[i].Label < report[j].Label
	})
	return report, nil
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalInspections     int64 `json:"total_inspections"`
	SatisfactoryCount    int64 `json:"satisfactory_count"`
	UnsatisfactoryCount  int64 `json:"unsatisfactory_count"`
	NeedsCorrectionCount int64 `json:"needs_correction_count"`
	TotalUsers           int64 `json:"total_users"`
	TodayInspections     int64 `json:"today_inspections"`
}

// Stats computes the dashboard numbers in a single aggregate pass.
func (s *AdminService) Stats(ctx context.Context, actingAdminID string) (*Stats, error) {
	if err := s.identity.requireAdmin(ctx, actingAdminID); err != nil {
		return nil, err
	}

	var stats Stats
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_inspections,
			COUNT(CASE WHEN condition_satisfactory = true THEN 1 END) AS satisfactory_count,
			COUNT(CASE WHEN condition_satisfactory = false THEN 1 END) AS unsatisfactory_count,
			COUNT(CASE WHEN defects_need_correction = true THEN 1 END) AS needs_correction_count,
			COUNT(DISTINCT user_id) AS total_users,
			COUNT(CASE WHEN DATE(created_at) = CURRENT_DATE THEN 1 END) AS today_inspections
		FROM vehicle_inspections`).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("inspection stats: %w", err)
	}
	return &stats, nil
}

// humanizeItemKey turns "parking_brake" into "Parking Brake" for display.
func humanizeItemKey(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
