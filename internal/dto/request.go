package dto

import "github.com/lifeline-health/lifeline-api/internal/models"

// CreateOrganRequestRequest payload for a patient asking for an organ.
type CreateOrganRequestRequest struct {
	OrganType string                `json:"organ_type" validate:"required"`
	Urgency   models.RequestUrgency `json:"urgency" validate:"required"`
	Notes     string                `json:"notes"`
}

// DecideOrganRequestRequest captures the hospital verdict on an organ request.
type DecideOrganRequestRequest struct {
	Decision string `json:"decision" validate:"required,oneof=ACCEPTED REJECTED"`
}

// DeclareDonorMatchRequest attaches a donor to an accepted organ request.
type DeclareDonorMatchRequest struct {
	DonorID   string `json:"donor_id" validate:"required"`
	DonorName string `json:"donor_name" validate:"required"`
}

// CreateFundRequestRequest payload for a patient asking for financial help.
type CreateFundRequestRequest struct {
	Amount      float64           `json:"amount" validate:"required,gt=0"`
	Reason      models.FundReason `json:"reason" validate:"required"`
	Description string            `json:"description"`
}

// DecideFundRequestRequest captures the NGO verdict on a fund request.
type DecideFundRequestRequest struct {
	Decision string `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
}

// OrganRequestQuery mirrors supported organ request listing filters.
type OrganRequestQuery struct {
	PatientID  string
	HospitalID string
	Status     []models.OrganRequestStatus
	Urgency    models.RequestUrgency
	Limit      int
	Offset     int
}

// FundRequestQuery mirrors supported fund request listing filters.
type FundRequestQuery struct {
	PatientID string
	Status    []models.FundRequestStatus
	Limit     int
	Offset    int
}
