package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lifeline-health/lifeline-api/internal/dto"
	"github.com/lifeline-health/lifeline-api/internal/models"
	appErrors "github.com/lifeline-health/lifeline-api/pkg/errors"
)

type organStoreStub struct {
	requests map[string]*models.OrganRequest
	filter   models.OrganRequestFilter
}

func newOrganStoreStub() *organStoreStub {
	return &organStoreStub{requests: make(map[string]*models.OrganRequest)}
}

func (s *organStoreStub) Create(ctx context.Context, request *models.OrganRequest) error {
	if request.ID == "" {
		request.ID = fmt.Sprintf("organ-req-%d", len(s.requests)+1)
	}
	stored := *request
	s.requests[request.ID] = &stored
	return nil
}

func (s *organStoreStub) GetByID(ctx context.Context, id string) (*models.OrganRequest, error) {
	if request, ok := s.requests[id]; ok {
		copy := *request
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *organStoreStub) List(ctx context.Context, filter models.OrganRequestFilter) ([]models.OrganRequest, error) {
	s.filter = filter
	result := make([]models.OrganRequest, 0, len(s.requests))
	for _, request := range s.requests {
		result = append(result, *request)
	}
	return result, nil
}

func (s *organStoreStub) UpdateDecision(ctx context.Context, id string, status models.OrganRequestStatus, hospitalID, hospitalName string) error {
	request, ok := s.requests[id]
	if !ok || request.Status != models.OrganRequestStatusPending {
		return sql.ErrNoRows
	}
	request.Status = status
	request.HospitalID = &hospitalID
	request.HospitalName = &hospitalName
	return nil
}

func (s *organStoreStub) RecordDonorMatch(ctx context.Context, id, donorID, donorName string) error {
	request, ok := s.requests[id]
	if !ok || request.Status != models.OrganRequestStatusAccepted {
		return sql.ErrNoRows
	}
	request.Status = models.OrganRequestStatusDonorMatched
	request.DonorID = &donorID
	request.DonorName = &donorName
	return nil
}

type fundStoreStub struct {
	requests map[string]*models.FundRequest
	filter   models.FundRequestFilter
}

func newFundStoreStub() *fundStoreStub {
	return &fundStoreStub{requests: make(map[string]*models.FundRequest)}
}

func (s *fundStoreStub) Create(ctx context.Context, request *models.FundRequest) error {
	if request.ID == "" {
		request.ID = fmt.Sprintf("fund-req-%d", len(s.requests)+1)
	}
	stored := *request
	s.requests[request.ID] = &stored
	return nil
}

func (s *fundStoreStub) GetByID(ctx context.Context, id string) (*models.FundRequest, error) {
	if request, ok := s.requests[id]; ok {
		copy := *request
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *fundStoreStub) List(ctx context.Context, filter models.FundRequestFilter) ([]models.FundRequest, error) {
	s.filter = filter
	result := make([]models.FundRequest, 0, len(s.requests))
	for _, request := range s.requests {
		result = append(result, *request)
	}
	return result, nil
}

func (s *fundStoreStub) UpdateDecision(ctx context.Context, id string, status models.FundRequestStatus) error {
	request, ok := s.requests[id]
	if !ok || request.Status != models.FundRequestStatusPending {
		return sql.ErrNoRows
	}
	request.Status = status
	return nil
}

func patientClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "patient-1", Role: models.RolePatient, FullName: "Ravi Kumar"}
}

func ngoClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "ngo-1", Role: models.RoleNGO, FullName: "Hope Foundation"}
}

func newTestRequestLedger() (*RequestLedger, *organStoreStub, *fundStoreStub) {
	organs := newOrganStoreStub()
	funds := newFundStoreStub()
	return NewRequestLedger(organs, funds, nil, nil), organs, funds
}

func seedOrganRequest(t *testing.T, ledger *RequestLedger) *models.OrganRequest {
	t.Helper()
	request, events, err := ledger.SubmitOrganRequest(context.Background(), dto.CreateOrganRequestRequest{
		OrganType: "KIDNEY",
		Urgency:   models.UrgencyHigh,
		Notes:     "dialysis three times a week",
	}, patientClaims())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, models.EventOrganRequestSubmitted, events[0].Kind)
	return request
}

func TestSubmitOrganRequestStartsPending(t *testing.T) {
	ledger, _, _ := newTestRequestLedger()
	request := seedOrganRequest(t, ledger)

	require.Equal(t, models.OrganRequestStatusPending, request.Status)
	require.Equal(t, "patient-1", request.PatientID)
	require.Nil(t, request.HospitalID)
}

func TestSubmitOrganRequestRejectsUnknownUrgency(t *testing.T) {
	ledger, _, _ := newTestRequestLedger()

	_, _, err := ledger.SubmitOrganRequest(context.Background(), dto.CreateOrganRequestRequest{
		OrganType: "KIDNEY",
		Urgency:   "CRITICAL",
	}, patientClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDecideOrganRequestIsTerminalPerBranch(t *testing.T) {
	ledger, organs, _ := newTestRequestLedger()
	request := seedOrganRequest(t, ledger)

	decided, events, err := ledger.DecideOrganRequest(context.Background(), request.ID, dto.DecideOrganRequestRequest{
		Decision: "ACCEPTED",
	}, hospitalClaims())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, models.EventOrganRequestDecided, events[0].Kind)
	require.Equal(t, "ACCEPTED", events[0].Decision)
	require.Equal(t, models.OrganRequestStatusAccepted, decided.Status)
	require.NotNil(t, decided.HospitalID)
	require.Equal(t, models.OrganRequestStatusAccepted, organs.requests[request.ID].Status)

	_, _, err = ledger.DecideOrganRequest(context.Background(), request.ID, dto.DecideOrganRequestRequest{
		Decision: "REJECTED",
	}, hospitalClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestDecideOrganRequestUnknownIDReturnsNotFound(t *testing.T) {
	ledger, _, _ := newTestRequestLedger()

	_, _, err := ledger.DecideOrganRequest(context.Background(), "missing", dto.DecideOrganRequestRequest{
		Decision: "ACCEPTED",
	}, hospitalClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeclareDonorMatchRequiresAcceptedRequest(t *testing.T) {
	ledger, _, _ := newTestRequestLedger()
	request := seedOrganRequest(t, ledger)

	// still pending
	_, _, err := ledger.DeclareDonorMatch(context.Background(), request.ID, dto.DeclareDonorMatchRequest{
		DonorID:   "donor-1",
		DonorName: "Asha Rao",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	_, _, err = ledger.DecideOrganRequest(context.Background(), request.ID, dto.DecideOrganRequestRequest{
		Decision: "ACCEPTED",
	}, hospitalClaims())
	require.NoError(t, err)

	declared, events, err := ledger.DeclareDonorMatch(context.Background(), request.ID, dto.DeclareDonorMatchRequest{
		DonorID:   "donor-1",
		DonorName: "Asha Rao",
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, models.EventDonorMatchDeclared, events[0].Kind)
	require.Equal(t, models.OrganRequestStatusDonorMatched, declared.Status)
	require.Equal(t, "Asha Rao", *declared.DonorName)
}

func TestDeclareDonorMatchOnRejectedRequestFails(t *testing.T) {
	ledger, _, _ := newTestRequestLedger()
	request := seedOrganRequest(t, ledger)

	_, _, err := ledger.DecideOrganRequest(context.Background(), request.ID, dto.DecideOrganRequestRequest{
		Decision: "REJECTED",
	}, hospitalClaims())
	require.NoError(t, err)

	_, _, err = ledger.DeclareDonorMatch(context.Background(), request.ID, dto.DeclareDonorMatchRequest{
		DonorID:   "donor-1",
		DonorName: "Asha Rao",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestDecideFundRequestIsTerminal(t *testing.T) {
	ledger, _, funds := newTestRequestLedger()
	request, events, err := ledger.SubmitFundRequest(context.Background(), dto.CreateFundRequestRequest{
		Amount: 750,
		Reason: models.FundReasonSurgery,
	}, patientClaims())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, models.EventFundRequestSubmitted, events[0].Kind)

	approved, events, err := ledger.DecideFundRequest(context.Background(), request.ID, dto.DecideFundRequestRequest{
		Decision: "APPROVED",
	}, ngoClaims())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "APPROVED", events[0].Decision)
	require.Equal(t, models.FundRequestStatusApproved, approved.Status)
	require.Equal(t, models.FundRequestStatusApproved, funds.requests[request.ID].Status)

	_, _, err = ledger.DecideFundRequest(context.Background(), request.ID, dto.DecideFundRequestRequest{
		Decision: "REJECTED",
	}, ngoClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestSubmitFundRequestRejectsUnknownReason(t *testing.T) {
	ledger, _, _ := newTestRequestLedger()

	_, _, err := ledger.SubmitFundRequest(context.Background(), dto.CreateFundRequestRequest{
		Amount: 100,
		Reason: "HOLIDAY",
	}, patientClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListFundRequestsScopesPatient(t *testing.T) {
	ledger, _, funds := newTestRequestLedger()

	_, err := ledger.ListFundRequests(context.Background(), dto.FundRequestQuery{}, patientClaims())
	require.NoError(t, err)
	require.Equal(t, "patient-1", funds.filter.PatientID)

	_, err = ledger.ListFundRequests(context.Background(), dto.FundRequestQuery{}, donorClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
