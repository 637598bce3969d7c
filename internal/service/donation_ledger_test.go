package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lifeline-health/lifeline-api/internal/dto"
	"github.com/lifeline-health/lifeline-api/internal/models"
	appErrors "github.com/lifeline-health/lifeline-api/pkg/errors"
)

type intentStoreStub struct {
	intents map[string]*models.DonationIntent
	filter  models.IntentFilter
}

func newIntentStoreStub() *intentStoreStub {
	return &intentStoreStub{intents: make(map[string]*models.DonationIntent)}
}

func (s *intentStoreStub) Create(ctx context.Context, intent *models.DonationIntent) error {
	if intent.ID == "" {
		intent.ID = fmt.Sprintf("intent-%d", len(s.intents)+1)
	}
	stored := *intent
	s.intents[intent.ID] = &stored
	return nil
}

func (s *intentStoreStub) GetByID(ctx context.Context, id string) (*models.DonationIntent, error) {
	if intent, ok := s.intents[id]; ok {
		copy := *intent
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *intentStoreStub) List(ctx context.Context, filter models.IntentFilter) ([]models.DonationIntent, error) {
	s.filter = filter
	result := make([]models.DonationIntent, 0, len(s.intents))
	for _, intent := range s.intents {
		result = append(result, *intent)
	}
	return result, nil
}

func (s *intentStoreStub) MarkVerified(ctx context.Context, id string) error {
	intent, ok := s.intents[id]
	if !ok || intent.HospitalVerified {
		return sql.ErrNoRows
	}
	intent.HospitalVerified = true
	intent.Status = models.IntentStatusVerified
	return nil
}

func (s *intentStoreStub) MarkMatched(ctx context.Context, id string) error {
	intent, ok := s.intents[id]
	if !ok || intent.Status != models.IntentStatusVerified {
		return sql.ErrNoRows
	}
	intent.Status = models.IntentStatusMatched
	return nil
}

type matchStoreStub struct {
	matches map[string]*models.Match
	intents *intentStoreStub
}

func newMatchStoreStub(intents *intentStoreStub) *matchStoreStub {
	return &matchStoreStub{matches: make(map[string]*models.Match), intents: intents}
}

func (s *matchStoreStub) Create(ctx context.Context, match *models.Match) error {
	if match.ID == "" {
		match.ID = fmt.Sprintf("match-%d", len(s.matches)+1)
	}
	stored := *match
	s.matches[match.ID] = &stored
	return nil
}

func (s *matchStoreStub) GetByID(ctx context.Context, id string) (*models.Match, error) {
	if match, ok := s.matches[id]; ok {
		copy := *match
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *matchStoreStub) List(ctx context.Context, filter models.MatchFilter) ([]models.Match, error) {
	result := make([]models.Match, 0, len(s.matches))
	for _, match := range s.matches {
		result = append(result, *match)
	}
	return result, nil
}

func (s *matchStoreStub) RecordAcceptance(ctx context.Context, id string, party models.MatchParty, state models.MatchState) error {
	match, ok := s.matches[id]
	if !ok {
		return sql.ErrNoRows
	}
	if party == models.PartyPatient {
		if match.PatientAccepted {
			return sql.ErrNoRows
		}
		match.PatientAccepted = true
	} else {
		if match.DonorAccepted {
			return sql.ErrNoRows
		}
		match.DonorAccepted = true
	}
	match.State = state
	return nil
}

func (s *matchStoreStub) RecordPayment(ctx context.Context, id string) error {
	match, ok := s.matches[id]
	if !ok || match.State != models.MatchStateConfirmed {
		return sql.ErrNoRows
	}
	match.PaymentCompleted = true
	match.State = models.MatchStatePaymentDone
	return nil
}

func (s *matchStoreStub) Complete(ctx context.Context, matchID, intentID string, completedAt time.Time) error {
	match, ok := s.matches[matchID]
	if !ok || match.State != models.MatchStatePaymentDone {
		return sql.ErrNoRows
	}
	intent, ok := s.intents.intents[intentID]
	if !ok || intent.Status != models.IntentStatusMatched {
		return sql.ErrNoRows
	}
	match.State = models.MatchStateCompleted
	match.CompletedAt = &completedAt
	intent.Status = models.IntentStatusCompleted
	intent.PaymentCompleted = true
	intent.CertificateReady = true
	intent.CompletedAt = &completedAt
	return nil
}

func donorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "donor-1", Role: models.RoleDonor, FullName: "Asha Rao"}
}

func hospitalClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "hospital-1", Role: models.RoleHospital, FullName: "City General"}
}

func newTestLedger() (*DonationLedger, *intentStoreStub, *matchStoreStub) {
	intents := newIntentStoreStub()
	matches := newMatchStoreStub(intents)
	return NewDonationLedger(intents, matches, nil, nil), intents, matches
}

func seedVerifiedIntent(t *testing.T, ledger *DonationLedger) *models.DonationIntent {
	t.Helper()
	intent, _, err := ledger.SubmitIntent(context.Background(), dto.CreateIntentRequest{
		OrganType:         "KIDNEY",
		DonorHospitalName: "City General",
	}, donorClaims())
	require.NoError(t, err)
	verified, events, err := ledger.VerifyIntent(context.Background(), intent.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	return verified
}

func seedMatch(t *testing.T, ledger *DonationLedger) *models.Match {
	t.Helper()
	intent := seedVerifiedIntent(t, ledger)
	match, events, err := ledger.CreateMatch(context.Background(), dto.CreateMatchRequest{
		IntentID:            intent.ID,
		PatientID:           "patient-1",
		PatientName:         "Ravi Kumar",
		PatientHospitalName: "St. Mary's",
	}, hospitalClaims())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, models.EventMatchCreated, events[0].Kind)
	return match
}

func TestSubmitIntentStartsUnverified(t *testing.T) {
	ledger, _, _ := newTestLedger()

	intent, events, err := ledger.SubmitIntent(context.Background(), dto.CreateIntentRequest{
		OrganType:         "LIVER",
		DonorHospitalName: "City General",
	}, donorClaims())
	require.NoError(t, err)
	require.Equal(t, models.IntentStatusAvailable, intent.Status)
	require.False(t, intent.HospitalVerified)
	require.Equal(t, "donor-1", intent.DonorID)
	require.Len(t, events, 1)
	require.Equal(t, models.EventIntentSubmitted, events[0].Kind)
}

func TestSubmitIntentRejectsMissingFields(t *testing.T) {
	ledger, _, _ := newTestLedger()

	_, _, err := ledger.SubmitIntent(context.Background(), dto.CreateIntentRequest{}, donorClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestVerifyIntentIsIdempotent(t *testing.T) {
	ledger, _, _ := newTestLedger()
	intent := seedVerifiedIntent(t, ledger)

	again, events, err := ledger.VerifyIntent(context.Background(), intent.ID)
	require.NoError(t, err)
	require.Empty(t, events)
	require.Equal(t, models.IntentStatusVerified, again.Status)
}

func TestVerifyIntentUnknownIDReturnsNotFound(t *testing.T) {
	ledger, _, _ := newTestLedger()

	_, _, err := ledger.VerifyIntent(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateMatchRequiresVerifiedIntent(t *testing.T) {
	ledger, _, _ := newTestLedger()
	intent, _, err := ledger.SubmitIntent(context.Background(), dto.CreateIntentRequest{
		OrganType:         "KIDNEY",
		DonorHospitalName: "City General",
	}, donorClaims())
	require.NoError(t, err)

	_, _, err = ledger.CreateMatch(context.Background(), dto.CreateMatchRequest{
		IntentID:            intent.ID,
		PatientID:           "patient-1",
		PatientName:         "Ravi Kumar",
		PatientHospitalName: "St. Mary's",
	}, hospitalClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestCreateMatchReservesIntent(t *testing.T) {
	ledger, intents, _ := newTestLedger()
	match := seedMatch(t, ledger)

	require.True(t, match.HospitalConfirmed)
	require.Equal(t, models.MatchStatePending, match.State)
	require.Equal(t, models.IntentStatusMatched, intents.intents[match.IntentID].Status)

	// the intent is consumed: a second match on it must fail
	_, _, err := ledger.CreateMatch(context.Background(), dto.CreateMatchRequest{
		IntentID:            match.IntentID,
		PatientID:           "patient-2",
		PatientName:         "Other Patient",
		PatientHospitalName: "St. Mary's",
	}, hospitalClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestAcceptMatchConvergesRegardlessOfOrder(t *testing.T) {
	orders := [][]models.MatchParty{
		{models.PartyDonor, models.PartyPatient},
		{models.PartyPatient, models.PartyDonor},
	}
	for _, order := range orders {
		ledger, _, _ := newTestLedger()
		match := seedMatch(t, ledger)

		first, events, err := ledger.AcceptMatch(context.Background(), match.ID, order[0])
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Equal(t, models.EventMatchAccepted, events[0].Kind)
		require.NotEqual(t, models.MatchStateConfirmed, first.State)

		second, events, err := ledger.AcceptMatch(context.Background(), match.ID, order[1])
		require.NoError(t, err)
		require.Len(t, events, 2)
		require.Equal(t, models.EventMatchAccepted, events[0].Kind)
		require.Equal(t, models.EventMatchConfirmed, events[1].Kind)
		require.Equal(t, models.MatchStateConfirmed, second.State)
	}
}

func TestAcceptMatchRepeatIsNoOp(t *testing.T) {
	ledger, _, _ := newTestLedger()
	match := seedMatch(t, ledger)

	_, events, err := ledger.AcceptMatch(context.Background(), match.ID, models.PartyDonor)
	require.NoError(t, err)
	require.Len(t, events, 1)

	again, events, err := ledger.AcceptMatch(context.Background(), match.ID, models.PartyDonor)
	require.NoError(t, err)
	require.Empty(t, events)
	require.True(t, again.DonorAccepted)
	require.Equal(t, models.MatchStateDonorAccepted, again.State)
}

func TestAcceptMatchAfterPaymentFails(t *testing.T) {
	ledger, _, matches := newTestLedger()
	match := seedMatch(t, ledger)
	acceptBoth(t, ledger, match.ID)

	_, _, err := ledger.ConfirmPayment(context.Background(), match.ID)
	require.NoError(t, err)
	require.Equal(t, models.MatchStatePaymentDone, matches.matches[match.ID].State)

	_, _, err = ledger.AcceptMatch(context.Background(), match.ID, models.PartyDonor)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestConfirmPaymentRequiresConfirmedMatch(t *testing.T) {
	ledger, _, _ := newTestLedger()
	match := seedMatch(t, ledger)

	_, _, err := ledger.ConfirmPayment(context.Background(), match.ID)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	_, events, err := ledger.AcceptMatch(context.Background(), match.ID, models.PartyDonor)
	require.NoError(t, err)
	require.Len(t, events, 1)

	// one acceptance is not enough
	_, _, err = ledger.ConfirmPayment(context.Background(), match.ID)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestConfirmPaymentRepeatIsNoOp(t *testing.T) {
	ledger, _, _ := newTestLedger()
	match := seedMatch(t, ledger)
	acceptBoth(t, ledger, match.ID)

	_, events, err := ledger.ConfirmPayment(context.Background(), match.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, models.EventPaymentConfirmed, events[0].Kind)

	_, events, err = ledger.ConfirmPayment(context.Background(), match.ID)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestCompleteDonationUpdatesMatchAndIntentTogether(t *testing.T) {
	ledger, intents, matches := newTestLedger()
	match := seedMatch(t, ledger)
	acceptBoth(t, ledger, match.ID)

	_, _, err := ledger.ConfirmPayment(context.Background(), match.ID)
	require.NoError(t, err)

	completed, events, err := ledger.CompleteDonation(context.Background(), match.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, models.EventDonationCompleted, events[0].Kind)
	require.Equal(t, models.MatchStateCompleted, completed.State)
	require.NotNil(t, completed.CompletedAt)

	intent := intents.intents[match.IntentID]
	require.Equal(t, models.IntentStatusCompleted, intent.Status)
	require.True(t, intent.PaymentCompleted)
	require.True(t, intent.CertificateReady)
	require.NotNil(t, intent.CompletedAt)
	require.Equal(t, models.MatchStateCompleted, matches.matches[match.ID].State)
}

func TestCompleteDonationRequiresSettledPayment(t *testing.T) {
	ledger, _, _ := newTestLedger()
	match := seedMatch(t, ledger)
	acceptBoth(t, ledger, match.ID)

	_, _, err := ledger.CompleteDonation(context.Background(), match.ID)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestCompleteDonationRepeatIsNoOp(t *testing.T) {
	ledger, _, _ := newTestLedger()
	match := seedMatch(t, ledger)
	acceptBoth(t, ledger, match.ID)

	_, _, err := ledger.ConfirmPayment(context.Background(), match.ID)
	require.NoError(t, err)
	_, events, err := ledger.CompleteDonation(context.Background(), match.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	again, events, err := ledger.CompleteDonation(context.Background(), match.ID)
	require.NoError(t, err)
	require.Empty(t, events)
	require.Equal(t, models.MatchStateCompleted, again.State)
}

func TestListIntentsScopesDonorToOwnRows(t *testing.T) {
	ledger, intents, _ := newTestLedger()
	_ = seedVerifiedIntent(t, ledger)

	_, err := ledger.ListIntents(context.Background(), dto.IntentQuery{}, donorClaims())
	require.NoError(t, err)
	require.Equal(t, "donor-1", intents.filter.DonorID)

	_, err = ledger.ListIntents(context.Background(), dto.IntentQuery{}, &models.JWTClaims{UserID: "p-1", Role: models.RolePatient})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestGetMatchEnforcesParticipantScope(t *testing.T) {
	ledger, _, _ := newTestLedger()
	match := seedMatch(t, ledger)

	_, err := ledger.GetMatch(context.Background(), match.ID, &models.JWTClaims{UserID: "patient-1", Role: models.RolePatient})
	require.NoError(t, err)

	_, err = ledger.GetMatch(context.Background(), match.ID, &models.JWTClaims{UserID: "patient-9", Role: models.RolePatient})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func acceptBoth(t *testing.T, ledger *DonationLedger, matchID string) {
	t.Helper()
	_, _, err := ledger.AcceptMatch(context.Background(), matchID, models.PartyDonor)
	require.NoError(t, err)
	_, _, err = ledger.AcceptMatch(context.Background(), matchID, models.PartyPatient)
	require.NoError(t, err)
}
