package dto

// PhotoPayload is photo metadata submitted alongside an inspection. The
// binary itself has already been uploaded to the object store; this only
// describes it.
type PhotoPayload struct {
	ID            uint                   `json:"id,omitempty"`
	StorageKey    string                 `json:"storage_key,omitempty"`
	URL           string                 `json:"url,omitempty"`
	Name          string                 `json:"name,omitempty"`
	Width         int                    `json:"width,omitempty"`
	Height        int                    `json:"height,omitempty"`
	FileSize      int64                  `json:"file_size,omitempty"`
	Format        string                 `json:"format,omitempty"`
	IsPrivate     *bool                  `json:"is_private,omitempty"`
	VehicleID     string                 `json:"vehicle_id,omitempty"`
	VehicleFolder string                 `json:"vehicle_folder,omitempty"`
	Context       map[string]interface{} `json:"context,omitempty"`
}

type CreateInspectionRequest struct {
	Location              string                 `json:"location"`
	Date                  string                 `json:"date"`
	Time                  string                 `json:"time"`
	Vehicle               string                 `json:"vehicle" validate:"required"`
	SpeedometerReading    string                 `json:"speedometer_reading"`
	DefectiveItems        map[string]interface{} `json:"defective_items"`
	TruckTrailerItems     map[string]interface{} `json:"truck_trailer_items"`
	TrailerNumber         string                 `json:"trailer_number"`
	Remarks               string                 `json:"remarks"`
	ConditionSatisfactory *bool                  `json:"condition_satisfactory"`
	DriverSignature       string                 `json:"driver_signature"`
	DefectsCorrected      bool                   `json:"defects_corrected"`
	DefectsNeedCorrection bool                   `json:"defects_need_correction"`
	MechanicSignature     string                 `json:"mechanic_signature"`
	Photos                []PhotoPayload         `json:"photos"`
}

// UpdateInspectionRequest is a field-level merge: nil means "keep the
// stored value", so clients only send what they changed.
type UpdateInspectionRequest struct {
	Location              *string                 `json:"location"`
	Date                  *string                 `json:"date"`
	Time                  *string                 `json:"time"`
	Vehicle               *string                 `json:"vehicle"`
	SpeedometerReading    *string                 `json:"speedometer_reading"`
	DefectiveItems        *map[string]interface{} `json:"defective_items"`
	TruckTrailerItems     *map[string]interface{} `json:"truck_trailer_items"`
	TrailerNumber         *string                 `json:"trailer_number"`
	Remarks               *string                 `json:"remarks"`
	ConditionSatisfactory *bool                   `json:"condition_satisfactory"`
	DriverSignature       *string                 `json:"driver_signature"`
	DefectsCorrected      *bool                   `json:"defects_corrected"`
	DefectsNeedCorrection *bool                   `json:"defects_need_correction"`
	MechanicSignature     *string                 `json:"mechanic_signature"`
	Photos                []PhotoPayload          `json:"photos"`
}

type PromoteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type BootstrapRequest struct {
	Email     string `json:"email" validate:"required,email"`
	SecretKey string `json:"secret_key" validate:"required"`
}

type BackfillEmailsRequest struct {
	Updates []EmailUpdate `json:"updates" validate:"required,min=1,dive"`
}

type EmailUpdate struct {
	UserID string `json:"user_id" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
}
