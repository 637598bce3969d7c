package models

// EventKind labels a completed ledger transition. Ledgers return events
// describing what changed; the coordinator is the only component that turns
// events into notifications, so state changes and notification fan-out cannot
// drift apart.
type EventKind string

const (
	EventIntentSubmitted       EventKind = "INTENT_SUBMITTED"
	EventIntentVerified        EventKind = "INTENT_VERIFIED"
	EventMatchCreated          EventKind = "MATCH_CREATED"
	EventMatchAccepted         EventKind = "MATCH_ACCEPTED"
	EventMatchConfirmed        EventKind = "MATCH_CONFIRMED"
	EventPaymentConfirmed      EventKind = "PAYMENT_CONFIRMED"
	EventDonationCompleted     EventKind = "DONATION_COMPLETED"
	EventOrganRequestSubmitted EventKind = "ORGAN_REQUEST_SUBMITTED"
	EventOrganRequestDecided   EventKind = "ORGAN_REQUEST_DECIDED"
	EventDonorMatchDeclared    EventKind = "DONOR_MATCH_DECLARED"
	EventFundRequestSubmitted  EventKind = "FUND_REQUEST_SUBMITTED"
	EventFundRequestDecided    EventKind = "FUND_REQUEST_DECIDED"
)

// TransitionEvent describes a single committed state transition. The display
// fields carry everything the coordinator needs to phrase notifications
// without reading the ledgers back.
type TransitionEvent struct {
	Kind        EventKind
	EntityID    string
	DonorName   string
	PatientName string
	OrganType   string
	Party       MatchParty
	Decision    string
	Amount      float64
	Urgency     RequestUrgency
}
