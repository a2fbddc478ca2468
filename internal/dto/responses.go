package dto

import "time"

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}

type CreateInspectionResponse struct {
	Message        string      `json:"message"`
	Inspection     interface{} `json:"inspection"`
	PhotosUploaded int         `json:"photos_uploaded"`
}

type PromoteResponse struct {
	Message string      `json:"message"`
	User    interface{} `json:"user"`
	Outcome string      `json:"outcome"`
}

type BackfillEmailsResponse struct {
	Message      string   `json:"message"`
	UpdatedCount int      `json:"updated_count"`
	Errors       []string `json:"errors,omitempty"`
}

type FreshURLResponse struct {
	PhotoID   uint       `json:"photo_id"`
	URL       string     `json:"url"`
	FileName  string     `json:"file_name"`
	IsPrivate bool       `json:"is_private"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
