package models

import "time"

// MatchState is the single tagged lifecycle state of a match. It is always
// derived from the acceptance and payment facts via DeriveMatchState, never
// set independently, so the facts and the state cannot disagree.
type MatchState string

const (
	MatchStatePending         MatchState = "PENDING"
	MatchStateDonorAccepted   MatchState = "DONOR_ACCEPTED"
	MatchStatePatientAccepted MatchState = "PATIENT_ACCEPTED"
	MatchStateConfirmed       MatchState = "CONFIRMED"
	MatchStatePaymentDone     MatchState = "PAYMENT_DONE"
	MatchStateCompleted       MatchState = "COMPLETED"
)

// MatchParty identifies which side of a match performed an acceptance.
type MatchParty string

const (
	PartyPatient MatchParty = "PATIENT"
	PartyDonor   MatchParty = "DONOR"
)

// Match is the paired commitment between one donor intent and one accepted
// patient request. Acceptance and payment flags are monotonic: once set they
// are never cleared by any operation.
type Match struct {
	ID                  string     `db:"id" json:"id"`
	IntentID            string     `db:"intent_id" json:"intent_id"`
	RequestID           *string    `db:"request_id" json:"request_id,omitempty"`
	DonorID             string     `db:"donor_id" json:"donor_id"`
	DonorName           string     `db:"donor_name" json:"donor_name"`
	PatientID           string     `db:"patient_id" json:"patient_id"`
	PatientName         string     `db:"patient_name" json:"patient_name"`
	OrganType           string     `db:"organ_type" json:"organ_type"`
	PatientHospitalName string     `db:"patient_hospital_name" json:"patient_hospital_name"`
	DonorHospitalName   string     `db:"donor_hospital_name" json:"donor_hospital_name"`
	PatientAccepted     bool       `db:"patient_accepted" json:"patient_accepted"`
	DonorAccepted       bool       `db:"donor_accepted" json:"donor_accepted"`
	HospitalConfirmed   bool       `db:"hospital_confirmed" json:"hospital_confirmed"`
	PaymentCompleted    bool       `db:"payment_completed" json:"payment_completed"`
	State               MatchState `db:"state" json:"state"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	CompletedAt         *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// DeriveMatchState computes the lifecycle state from the recorded facts.
// completed dominates payment, payment dominates acceptance; the acceptance
// sub-states depend only on which flags are set, so any ordering of the two
// acceptances converges to the same state.
func DeriveMatchState(patientAccepted, donorAccepted, paymentCompleted, completed bool) MatchState {
	switch {
	case completed:
		return MatchStateCompleted
	case paymentCompleted:
		return MatchStatePaymentDone
	case patientAccepted && donorAccepted:
		return MatchStateConfirmed
	case donorAccepted:
		return MatchStateDonorAccepted
	case patientAccepted:
		return MatchStatePatientAccepted
	default:
		return MatchStatePending
	}
}

// Accepted reports whether the given party has already accepted.
func (m *Match) Accepted(party MatchParty) bool {
	if party == PartyPatient {
		return m.PatientAccepted
	}
	return m.DonorAccepted
}

// MatchFilter constrains match listing queries.
type MatchFilter struct {
	PatientID string
	DonorID   string
	State     []MatchState
	Limit     int
	Offset    int
}
