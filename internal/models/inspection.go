package models

import (
	"time"

	"gorm.io/datatypes"
)

// Inspection is a driver's vehicle safety report. The two checklists are
// stored as raw JSONB: rows written by older clients may carry them as JSON
// strings, so readers decode defensively instead of trusting the column.
type Inspection struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	UserID                string         `gorm:"size:255;not null;index:idx_vehicle_inspections_user_id" json:"user_id"`
	Location              string         `gorm:"size:255" json:"location"`
	Date                  time.Time      `gorm:"type:date;not null;default:CURRENT_DATE;index:idx_vehicle_inspections_date" json:"date"`
	Time                  string         `gorm:"size:50" json:"time"`
	Vehicle               string         `gorm:"size:255" json:"vehicle"`
	SpeedometerReading    string         `gorm:"size:50" json:"speedometer_reading"`
	DefectiveItems        datatypes.JSON `gorm:"type:jsonb" json:"defective_items"`
	TruckTrailerItems     datatypes.JSON `gorm:"type:jsonb" json:"truck_trailer_items"`
	TrailerNumber         string         `gorm:"size:100" json:"trailer_number"`
	Remarks               string         `gorm:"type:text" json:"remarks"`
	ConditionSatisfactory bool           `gorm:"default:true" json:"condition_satisfactory"`
	DriverSignature       string         `gorm:"size:255" json:"driver_signature"`
	DefectsCorrected      bool           `gorm:"default:false" json:"defects_corrected"`
	DefectsNeedCorrection bool           `gorm:"default:false" json:"defects_need_correction"`
	// Only admins may sign as mechanic; enforced at write time, not stored
	// as a constraint, so later role changes never invalidate a signature.
	MechanicSignature string            `gorm:"size:255" json:"mechanic_signature"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	UpdatedBy         string            `gorm:"size:255" json:"updated_by,omitempty"`
	Images            []InspectionImage `gorm:"foreignKey:InspectionID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
}

func (Inspection) TableName() string {
	return "vehicle_inspections"
}
