package dto

import "github.com/lifeline-health/lifeline-api/internal/models"

// CreateIntentRequest payload for a donor declaring a donation offer.
type CreateIntentRequest struct {
	OrganType         string `json:"organ_type" validate:"required"`
	DonorHospitalName string `json:"donor_hospital_name" validate:"required"`
}

// CreateMatchRequest payload for a hospital pairing an intent with a patient.
// RequestID is optional; when present the referenced organ request is moved to
// DONOR_MATCHED as part of the same operation.
type CreateMatchRequest struct {
	IntentID            string  `json:"intent_id" validate:"required"`
	RequestID           *string `json:"request_id,omitempty"`
	PatientID           string  `json:"patient_id" validate:"required"`
	PatientName         string  `json:"patient_name" validate:"required"`
	PatientHospitalName string  `json:"patient_hospital_name" validate:"required"`
}

// IntentQuery mirrors supported intent listing filters.
type IntentQuery struct {
	DonorID   string
	Status    []models.IntentStatus
	OrganType string
	Limit     int
	Offset    int
}

// MatchQuery mirrors supported match listing filters.
type MatchQuery struct {
	PatientID string
	DonorID   string
	State     []models.MatchState
	Limit     int
	Offset    int
}
