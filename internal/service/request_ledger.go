package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lifeline-health/lifeline-api/internal/dto"
	"github.com/lifeline-health/lifeline-api/internal/models"
	appErrors "github.com/lifeline-health/lifeline-api/pkg/errors"
)

type organRequestStore interface {
	Create(ctx context.Context, request *models.OrganRequest) error
	GetByID(ctx context.Context, id string) (*models.OrganRequest, error)
	List(ctx context.Context, filter models.OrganRequestFilter) ([]models.OrganRequest, error)
	UpdateDecision(ctx context.Context, id string, status models.OrganRequestStatus, hospitalID, hospitalName string) error
	RecordDonorMatch(ctx context.Context, id, donorID, donorName string) error
}

type fundRequestStore interface {
	Create(ctx context.Context, request *models.FundRequest) error
	GetByID(ctx context.Context, id string) (*models.FundRequest, error)
	List(ctx context.Context, filter models.FundRequestFilter) ([]models.FundRequest, error)
	UpdateDecision(ctx context.Context, id string, status models.FundRequestStatus) error
}

// RequestLedger validates and applies transitions on organ and fund requests.
// Like the donation ledger it reports committed transitions as events and
// never emits events for operations that changed nothing.
type RequestLedger struct {
	organs    organRequestStore
	funds     fundRequestStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRequestLedger constructs the ledger.
func NewRequestLedger(organs organRequestStore, funds fundRequestStore, validate *validator.Validate, logger *zap.Logger) *RequestLedger {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestLedger{organs: organs, funds: funds, validator: validate, logger: logger}
}

// SubmitOrganRequest records a patient's ask for an organ.
func (s *RequestLedger) SubmitOrganRequest(ctx context.Context, req dto.CreateOrganRequestRequest, actor *models.JWTClaims) (*models.OrganRequest, []models.TransitionEvent, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid organ request payload")
	}
	switch req.Urgency {
	case models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh:
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "urgency must be LOW, MEDIUM, or HIGH")
	}
	request := &models.OrganRequest{
		PatientID:   actor.UserID,
		PatientName: actor.FullName,
		OrganType:   req.OrganType,
		Urgency:     req.Urgency,
		Notes:       req.Notes,
		Status:      models.OrganRequestStatusPending,
	}
	if err := s.organs.Create(ctx, request); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create organ request")
	}
	events := []models.TransitionEvent{{
		Kind:        models.EventOrganRequestSubmitted,
		EntityID:    request.ID,
		PatientName: request.PatientName,
		OrganType:   request.OrganType,
		Urgency:     request.Urgency,
	}}
	return request, events, nil
}

// DecideOrganRequest records the hospital verdict on a pending request.
func (s *RequestLedger) DecideOrganRequest(ctx context.Context, id string, req dto.DecideOrganRequestRequest, actor *models.JWTClaims) (*models.OrganRequest, []models.TransitionEvent, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "decision must be ACCEPTED or REJECTED")
	}
	status := models.OrganRequestStatus(req.Decision)
	request, err := s.getOrganRequest(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if request.Status != models.OrganRequestStatusPending {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, "organ request already decided")
	}
	if err := s.organs.UpdateDecision(ctx, id, status, actor.UserID, actor.FullName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, "organ request already decided")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}
	request.Status = status
	request.HospitalID = &actor.UserID
	request.HospitalName = &actor.FullName

	events := []models.TransitionEvent{{
		Kind:        models.EventOrganRequestDecided,
		EntityID:    request.ID,
		PatientName: request.PatientName,
		OrganType:   request.OrganType,
		Decision:    req.Decision,
	}}
	return request, events, nil
}

// DeclareDonorMatch attaches a donor to an accepted request. Declaring a
// match on a request in any other state is an invalid transition; the
// rejected and pending branches never silently succeed.
func (s *RequestLedger) DeclareDonorMatch(ctx context.Context, id string, req dto.DeclareDonorMatchRequest) (*models.OrganRequest, []models.TransitionEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid donor match payload")
	}
	request, err := s.getOrganRequest(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if request.Status != models.OrganRequestStatusAccepted {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, "donor can only be declared on an accepted request")
	}
	if err := s.organs.RecordDonorMatch(ctx, id, req.DonorID, req.DonorName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, "donor can only be declared on an accepted request")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record donor match")
	}
	request.Status = models.OrganRequestStatusDonorMatched
	request.DonorID = &req.DonorID
	request.DonorName = &req.DonorName

	events := []models.TransitionEvent{{
		Kind:        models.EventDonorMatchDeclared,
		EntityID:    request.ID,
		PatientName: request.PatientName,
		DonorName:   req.DonorName,
		OrganType:   request.OrganType,
	}}
	return request, events, nil
}

// SubmitFundRequest records a patient's ask for financial assistance.
func (s *RequestLedger) SubmitFundRequest(ctx context.Context, req dto.CreateFundRequestRequest, actor *models.JWTClaims) (*models.FundRequest, []models.TransitionEvent, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fund request payload")
	}
	if !models.ValidFundReason(req.Reason) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unsupported fund reason")
	}
	request := &models.FundRequest{
		PatientID:   actor.UserID,
		PatientName: actor.FullName,
		Amount:      req.Amount,
		Reason:      req.Reason,
		Description: req.Description,
		Status:      models.FundRequestStatusPending,
	}
	if err := s.funds.Create(ctx, request); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fund request")
	}
	events := []models.TransitionEvent{{
		Kind:        models.EventFundRequestSubmitted,
		EntityID:    request.ID,
		PatientName: request.PatientName,
		Amount:      request.Amount,
	}}
	return request, events, nil
}

// DecideFundRequest records the NGO verdict. The decision is terminal.
func (s *RequestLedger) DecideFundRequest(ctx context.Context, id string, req dto.DecideFundRequestRequest, actor *models.JWTClaims) (*models.FundRequest, []models.TransitionEvent, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "decision must be APPROVED or REJECTED")
	}
	status := models.FundRequestStatus(req.Decision)
	request, err := s.getFundRequest(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if request.Status != models.FundRequestStatusPending {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, "fund request already decided")
	}
	if err := s.funds.UpdateDecision(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, "fund request already decided")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}
	request.Status = status

	events := []models.TransitionEvent{{
		Kind:        models.EventFundRequestDecided,
		EntityID:    request.ID,
		PatientName: request.PatientName,
		Amount:      request.Amount,
		Decision:    req.Decision,
	}}
	return request, events, nil
}

// GetOrganRequest returns an organ request enforcing patient scope.
func (s *RequestLedger) GetOrganRequest(ctx context.Context, id string, actor *models.JWTClaims) (*models.OrganRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.getOrganRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RolePatient && request.PatientID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// ListOrganRequests returns organ requests visible to the actor.
func (s *RequestLedger) ListOrganRequests(ctx context.Context, query dto.OrganRequestQuery, actor *models.JWTClaims) ([]models.OrganRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.OrganRequestFilter{
		PatientID:  query.PatientID,
		HospitalID: query.HospitalID,
		Status:     query.Status,
		Urgency:    query.Urgency,
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	switch actor.Role {
	case models.RolePatient:
		filter.PatientID = actor.UserID
	case models.RoleHospital, models.RoleAdmin:
		// full visibility
	default:
		return nil, appErrors.ErrForbidden
	}
	requests, err := s.organs.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list organ requests")
	}
	return requests, nil
}

// GetFundRequest returns a fund request enforcing patient scope.
func (s *RequestLedger) GetFundRequest(ctx context.Context, id string, actor *models.JWTClaims) (*models.FundRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.getFundRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RolePatient && request.PatientID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// ListFundRequests returns fund requests visible to the actor.
func (s *RequestLedger) ListFundRequests(ctx context.Context, query dto.FundRequestQuery, actor *models.JWTClaims) ([]models.FundRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.FundRequestFilter{
		PatientID: query.PatientID,
		Status:    query.Status,
		Limit:     query.Limit,
		Offset:    query.Offset,
	}
	switch actor.Role {
	case models.RolePatient:
		filter.PatientID = actor.UserID
	case models.RoleNGO, models.RoleAdmin:
		// full visibility
	default:
		return nil, appErrors.ErrForbidden
	}
	requests, err := s.funds.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fund requests")
	}
	return requests, nil
}

func (s *RequestLedger) getOrganRequest(ctx context.Context, id string) (*models.OrganRequest, error) {
	request, err := s.organs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "organ request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organ request")
	}
	return request, nil
}

func (s *RequestLedger) getFundRequest(ctx context.Context, id string) (*models.FundRequest, error) {
	request, err := s.funds.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fund request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fund request")
	}
	return request, nil
}
