package models

import "time"

// OrganRequestStatus enumerates the organ request workflow states.
type OrganRequestStatus string

const (
	OrganRequestStatusPending      OrganRequestStatus = "PENDING_HOSPITAL_REVIEW"
	OrganRequestStatusAccepted     OrganRequestStatus = "ACCEPTED"
	OrganRequestStatusRejected     OrganRequestStatus = "REJECTED"
	OrganRequestStatusDonorMatched OrganRequestStatus = "DONOR_MATCHED"
)

// RequestUrgency grades how urgently a patient needs the organ.
type RequestUrgency string

const (
	UrgencyLow    RequestUrgency = "LOW"
	UrgencyMedium RequestUrgency = "MEDIUM"
	UrgencyHigh   RequestUrgency = "HIGH"
)

// OrganRequest is a patient's ask for an organ, reviewed by a hospital.
type OrganRequest struct {
	ID           string             `db:"id" json:"id"`
	PatientID    string             `db:"patient_id" json:"patient_id"`
	PatientName  string             `db:"patient_name" json:"patient_name"`
	OrganType    string             `db:"organ_type" json:"organ_type"`
	Urgency      RequestUrgency     `db:"urgency" json:"urgency"`
	Notes        string             `db:"notes" json:"notes"`
	HospitalID   *string            `db:"hospital_id" json:"hospital_id,omitempty"`
	HospitalName *string            `db:"hospital_name" json:"hospital_name,omitempty"`
	Status       OrganRequestStatus `db:"status" json:"status"`
	DonorID      *string            `db:"donor_id" json:"donor_id,omitempty"`
	DonorName    *string            `db:"donor_name" json:"donor_name,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
}

// FundRequestStatus enumerates the fund request decision states.
type FundRequestStatus string

const (
	FundRequestStatusPending  FundRequestStatus = "PENDING"
	FundRequestStatusApproved FundRequestStatus = "APPROVED"
	FundRequestStatusRejected FundRequestStatus = "REJECTED"
)

// FundReason categorises what the requested assistance pays for.
type FundReason string

const (
	FundReasonSurgery    FundReason = "SURGERY"
	FundReasonMedication FundReason = "MEDICATION"
	FundReasonTransport  FundReason = "TRANSPORT"
	FundReasonAftercare  FundReason = "AFTERCARE"
	FundReasonOther      FundReason = "OTHER"
)

// ValidFundReason reports whether the reason is a known category.
func ValidFundReason(reason FundReason) bool {
	switch reason {
	case FundReasonSurgery, FundReasonMedication, FundReasonTransport, FundReasonAftercare, FundReasonOther:
		return true
	default:
		return false
	}
}

// FundRequest is a patient's ask for NGO-provided financial assistance.
// The NGO decision is terminal; a decided request is never re-opened.
type FundRequest struct {
	ID          string            `db:"id" json:"id"`
	PatientID   string            `db:"patient_id" json:"patient_id"`
	PatientName string            `db:"patient_name" json:"patient_name"`
	Amount      float64           `db:"amount" json:"amount"`
	Reason      FundReason        `db:"reason" json:"reason"`
	Description string            `db:"description" json:"description"`
	Status      FundRequestStatus `db:"status" json:"status"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}

// OrganRequestFilter constrains organ request listing queries.
type OrganRequestFilter struct {
	PatientID  string
	HospitalID string
	Status     []OrganRequestStatus
	Urgency    RequestUrgency
	Limit      int
	Offset     int
}

// FundRequestFilter constrains fund request listing queries.
type FundRequestFilter struct {
	PatientID string
	Status    []FundRequestStatus
	Limit     int
	Offset    int
}
