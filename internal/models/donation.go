package models

import "time"

// IntentStatus captures the ordered lifecycle of a donation intent.
type IntentStatus string

const (
	IntentStatusAvailable IntentStatus = "AVAILABLE_FOR_DONATION"
	IntentStatusVerified  IntentStatus = "VERIFIED"
	IntentStatusMatched   IntentStatus = "MATCHED"
	IntentStatusCompleted IntentStatus = "COMPLETED"
)

// DonationIntent is a donor's declared willingness to donate a specific
// organ, pending hospital verification. Intents are never deleted; they form
// the immutable history of a donor's offers.
type DonationIntent struct {
	ID                string       `db:"id" json:"id"`
	DonorID           string       `db:"donor_id" json:"donor_id"`
	DonorName         string       `db:"donor_name" json:"donor_name"`
	OrganType         string       `db:"organ_type" json:"organ_type"`
	DonorHospitalName string       `db:"donor_hospital_name" json:"donor_hospital_name"`
	Status            IntentStatus `db:"status" json:"status"`
	HospitalVerified  bool         `db:"hospital_verified" json:"hospital_verified"`
	PaymentCompleted  bool         `db:"payment_completed" json:"payment_completed"`
	CertificateReady  bool         `db:"certificate_ready" json:"certificate_ready"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	CompletedAt       *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
}

// IntentFilter constrains intent listing queries.
type IntentFilter struct {
	DonorID   string
	Status    []IntentStatus
	OrganType string
	Limit     int
	Offset    int
}
