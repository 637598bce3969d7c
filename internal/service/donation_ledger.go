package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lifeline-health/lifeline-api/internal/dto"
	"github.com/lifeline-health/lifeline-api/internal/models"
	appErrors "github.com/lifeline-health/lifeline-api/pkg/errors"
)

type intentStore interface {
	Create(ctx context.Context, intent *models.DonationIntent) error
	GetByID(ctx context.Context, id string) (*models.DonationIntent, error)
	List(ctx context.Context, filter models.IntentFilter) ([]models.DonationIntent, error)
	MarkVerified(ctx context.Context, id string) error
	MarkMatched(ctx context.Context, id string) error
}

type matchStore interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	List(ctx context.Context, filter models.MatchFilter) ([]models.Match, error)
	RecordAcceptance(ctx context.Context, id string, party models.MatchParty, state models.MatchState) error
	RecordPayment(ctx context.Context, id string) error
	Complete(ctx context.Context, matchID, intentID string, completedAt time.Time) error
}

// DonationLedger validates and applies transitions on donation intents and
// matches. Every mutating operation returns the events it committed; a
// repeated operation that changes nothing returns zero events so callers
// never notify twice for the same fact.
type DonationLedger struct {
	intents   intentStore
	matches   matchStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDonationLedger constructs the ledger.
func NewDonationLedger(intents intentStore, matches matchStore, validate *validator.Validate, logger *zap.Logger) *DonationLedger {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DonationLedger{intents: intents, matches: matches, validator: validate, logger: logger}
}

// SubmitIntent records a donor's offer. The intent starts unverified.
func (s *DonationLedger) SubmitIntent(ctx context.Context, req dto.CreateIntentRequest, actor *models.JWTClaims) (*models.DonationIntent, []models.TransitionEvent, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intent payload")
	}
	intent := &models.DonationIntent{
		DonorID:           actor.UserID,
		DonorName:         actor.FullName,
		OrganType:         req.OrganType,
		DonorHospitalName: req.DonorHospitalName,
		Status:            models.IntentStatusAvailable,
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create donation intent")
	}
	events := []models.TransitionEvent{{
		Kind:      models.EventIntentSubmitted,
		EntityID:  intent.ID,
		DonorName: intent.DonorName,
		OrganType: intent.OrganType,
	}}
	return intent, events, nil
}

// VerifyIntent marks an intent as hospital-verified. Verifying an already
// verified intent is a no-op; the store guard resolves concurrent
// verifications to a single event.
func (s *DonationLedger) VerifyIntent(ctx context.Context, id string) (*models.DonationIntent, []models.TransitionEvent, error) {
	intent, err := s.getIntent(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if intent.HospitalVerified {
		return intent, nil, nil
	}
	if err := s.intents.MarkVerified(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.refetchIntent(ctx, id)
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify intent")
	}
	intent.HospitalVerified = true
	intent.Status = models.IntentStatusVerified
	events := []models.TransitionEvent{{
		Kind:      models.EventIntentVerified,
		EntityID:  intent.ID,
		DonorName: intent.DonorName,
		OrganType: intent.OrganType,
	}}
	return intent, events, nil
}

// CreateMatch pairs a verified intent with a patient. Hospital confirmation
// is implicit in creation: only a hospital can create a match, so the
// hospital_confirmed flag is set from the start.
func (s *DonationLedger) CreateMatch(ctx context.Context, req dto.CreateMatchRequest, actor *models.JWTClaims) (*models.Match, []models.TransitionEvent, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid match payload")
	}
	intent, err := s.getIntent(ctx, req.IntentID)
	if err != nil {
		return nil, nil, err
	}
	if intent.Status != models.IntentStatusVerified {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, "intent must be verified and unmatched")
	}
	if err := s.intents.MarkMatched(ctx, req.IntentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, "intent must be verified and unmatched")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve intent")
	}
	match := &models.Match{
		IntentID:            intent.ID,
		RequestID:           req.RequestID,
		DonorID:             intent.DonorID,
		DonorName:           intent.DonorName,
		PatientID:           req.PatientID,
		PatientName:         req.PatientName,
		OrganType:           intent.OrganType,
		PatientHospitalName: req.PatientHospitalName,
		DonorHospitalName:   intent.DonorHospitalName,
		HospitalConfirmed:   true,
		State:               models.MatchStatePending,
	}
	if err := s.matches.Create(ctx, match); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create match")
	}
	events := []models.TransitionEvent{{
		Kind:        models.EventMatchCreated,
		EntityID:    match.ID,
		DonorName:   match.DonorName,
		PatientName: match.PatientName,
		OrganType:   match.OrganType,
	}}
	return match, events, nil
}

// AcceptMatch records one party's acceptance. Acceptance is monotonic and
// commutative: repeating it changes nothing, and either ordering of the two
// acceptances lands the match in CONFIRMED with a single confirmation event.
func (s *DonationLedger) AcceptMatch(ctx context.Context, id string, party models.MatchParty) (*models.Match, []models.TransitionEvent, error) {
	if party != models.PartyPatient && party != models.PartyDonor {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "party must be PATIENT or DONOR")
	}
	match, err := s.getMatch(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if match.State == models.MatchStatePaymentDone || match.State == models.MatchStateCompleted {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, "match is past the acceptance stage")
	}
	if match.Accepted(party) {
		return match, nil, nil
	}

	patientAccepted := match.PatientAccepted || party == models.PartyPatient
	donorAccepted := match.DonorAccepted || party == models.PartyDonor
	newState := models.DeriveMatchState(patientAccepted, donorAccepted, false, false)

	if err := s.matches.RecordAcceptance(ctx, id, party, newState); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.refetchMatch(ctx, id)
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record acceptance")
	}
	match.PatientAccepted = patientAccepted
	match.DonorAccepted = donorAccepted
	match.State = newState

	events := []models.TransitionEvent{{
		Kind:        models.EventMatchAccepted,
		EntityID:    match.ID,
		DonorName:   match.DonorName,
		PatientName: match.PatientName,
		OrganType:   match.OrganType,
		Party:       party,
	}}
	if newState == models.MatchStateConfirmed {
		events = append(events, models.TransitionEvent{
			Kind:        models.EventMatchConfirmed,
			EntityID:    match.ID,
			DonorName:   match.DonorName,
			PatientName: match.PatientName,
			OrganType:   match.OrganType,
		})
	}
	return match, events, nil
}

// ConfirmPayment settles the payment on a confirmed match. Payment strictly
// requires both acceptances; settling an already settled match is a no-op.
func (s *DonationLedger) ConfirmPayment(ctx context.Context, id string) (*models.Match, []models.TransitionEvent, error) {
	match, err := s.getMatch(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if match.State == models.MatchStatePaymentDone {
		return match, nil, nil
	}
	if match.State != models.MatchStateConfirmed {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, "payment requires a confirmed match")
	}
	if err := s.matches.RecordPayment(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.refetchMatch(ctx, id)
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	match.PaymentCompleted = true
	match.State = models.MatchStatePaymentDone

	events := []models.TransitionEvent{{
		Kind:        models.EventPaymentConfirmed,
		EntityID:    match.ID,
		DonorName:   match.DonorName,
		PatientName: match.PatientName,
		OrganType:   match.OrganType,
	}}
	return match, events, nil
}

// CompleteDonation finalises a paid match. The match and its intent move to
// COMPLETED in one transaction, so a reader never sees one without the other.
func (s *DonationLedger) CompleteDonation(ctx context.Context, id string) (*models.Match, []models.TransitionEvent, error) {
	match, err := s.getMatch(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if match.State == models.MatchStateCompleted {
		return match, nil, nil
	}
	if match.State != models.MatchStatePaymentDone {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, "completion requires settled payment")
	}
	now := time.Now().UTC()
	if err := s.matches.Complete(ctx, match.ID, match.IntentID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.refetchMatch(ctx, id)
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete donation")
	}
	match.State = models.MatchStateCompleted
	match.CompletedAt = &now

	events := []models.TransitionEvent{{
		Kind:        models.EventDonationCompleted,
		EntityID:    match.ID,
		DonorName:   match.DonorName,
		PatientName: match.PatientName,
		OrganType:   match.OrganType,
	}}
	return match, events, nil
}

// GetIntent returns an intent enforcing donor scope.
func (s *DonationLedger) GetIntent(ctx context.Context, id string, actor *models.JWTClaims) (*models.DonationIntent, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	intent, err := s.getIntent(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleDonor && intent.DonorID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return intent, nil
}

// ListIntents returns intents visible to the actor.
func (s *DonationLedger) ListIntents(ctx context.Context, query dto.IntentQuery, actor *models.JWTClaims) ([]models.DonationIntent, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.IntentFilter{
		DonorID:   query.DonorID,
		Status:    query.Status,
		OrganType: query.OrganType,
		Limit:     query.Limit,
		Offset:    query.Offset,
	}
	switch actor.Role {
	case models.RoleDonor:
		filter.DonorID = actor.UserID
	case models.RoleHospital, models.RoleAdmin:
		// full visibility
	default:
		return nil, appErrors.ErrForbidden
	}
	intents, err := s.intents.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list intents")
	}
	return intents, nil
}

// GetMatch returns a match enforcing participant scope.
func (s *DonationLedger) GetMatch(ctx context.Context, id string, actor *models.JWTClaims) (*models.Match, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	match, err := s.getMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case models.RolePatient:
		if match.PatientID != actor.UserID {
			return nil, appErrors.ErrForbidden
		}
	case models.RoleDonor:
		if match.DonorID != actor.UserID {
			return nil, appErrors.ErrForbidden
		}
	case models.RoleHospital, models.RoleAdmin:
		// full visibility
	default:
		return nil, appErrors.ErrForbidden
	}
	return match, nil
}

// ListMatches returns matches visible to the actor.
func (s *DonationLedger) ListMatches(ctx context.Context, query dto.MatchQuery, actor *models.JWTClaims) ([]models.Match, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.MatchFilter{
		PatientID: query.PatientID,
		DonorID:   query.DonorID,
		State:     query.State,
		Limit:     query.Limit,
		Offset:    query.Offset,
	}
	switch actor.Role {
	case models.RolePatient:
		filter.PatientID = actor.UserID
	case models.RoleDonor:
		filter.DonorID = actor.UserID
	case models.RoleHospital, models.RoleAdmin:
		// full visibility
	default:
		return nil, appErrors.ErrForbidden
	}
	matches, err := s.matches.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list matches")
	}
	return matches, nil
}

func (s *DonationLedger) getIntent(ctx context.Context, id string) (*models.DonationIntent, error) {
	intent, err := s.intents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "donation intent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intent")
	}
	return intent, nil
}

func (s *DonationLedger) getMatch(ctx context.Context, id string) (*models.Match, error) {
	match, err := s.matches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "match not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load match")
	}
	return match, nil
}

// refetchIntent resolves a lost guarded update: the row moved concurrently,
// so return its current shape with no events.
func (s *DonationLedger) refetchIntent(ctx context.Context, id string) (*models.DonationIntent, []models.TransitionEvent, error) {
	intent, err := s.getIntent(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return intent, nil, nil
}

func (s *DonationLedger) refetchMatch(ctx context.Context, id string) (*models.Match, []models.TransitionEvent, error) {
	match, err := s.getMatch(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return match, nil, nil
}
