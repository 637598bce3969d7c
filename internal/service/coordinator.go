package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lifeline-health/lifeline-api/internal/dto"
	"github.com/lifeline-health/lifeline-api/internal/models"
	appErrors "github.com/lifeline-health/lifeline-api/pkg/errors"
)

// CertificateScheduler queues certificate generation for a completed match.
type CertificateScheduler interface {
	Schedule(match *models.Match) error
}

// LifecycleCoordinator is the single entry point for every lifecycle
// operation. It serialises writes per entity, delegates validation and state
// changes to the ledgers, and is the only component that turns committed
// transition events into notifications. Handlers never talk to the hub or
// ledgers directly for writes.
type LifecycleCoordinator struct {
	donations    *DonationLedger
	requests     *RequestLedger
	hub          *NotificationHub
	metrics      *MetricsService
	certificates CertificateScheduler
	logger       *zap.Logger
	locks        *keyedMutex
}

// NewLifecycleCoordinator constructs the coordinator.
func NewLifecycleCoordinator(donations *DonationLedger, requests *RequestLedger, hub *NotificationHub, metrics *MetricsService, certificates CertificateScheduler, logger *zap.Logger) *LifecycleCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleCoordinator{
		donations:    donations,
		requests:     requests,
		hub:          hub,
		metrics:      metrics,
		certificates: certificates,
		logger:       logger,
		locks:        newKeyedMutex(),
	}
}

// SubmitIntent records a donor offer and notifies hospital staff and the donor.
func (c *LifecycleCoordinator) SubmitIntent(ctx context.Context, req dto.CreateIntentRequest, actor *models.JWTClaims) (*models.DonationIntent, error) {
	intent, events, err := c.donations.SubmitIntent(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	c.dispatch(ctx, events)
	return intent, nil
}

// VerifyIntent marks an intent hospital-verified and notifies the donor.
// Re-verifying is a no-op and produces no notifications.
func (c *LifecycleCoordinator) VerifyIntent(ctx context.Context, id string) (*models.DonationIntent, error) {
	unlock := c.locks.Lock("intent:" + id)
	defer unlock()

	intent, events, err := c.donations.VerifyIntent(ctx, id)
	if err != nil {
		return nil, err
	}
	c.dispatch(ctx, events)
	return intent, nil
}

// CreateMatch pairs a verified intent with a patient. When the pairing
// fulfils an organ request the request moves to DONOR_MATCHED in the same
// operation; its declaration event feeds metrics but not notifications, since
// the match notifications already reach both parties.
func (c *LifecycleCoordinator) CreateMatch(ctx context.Context, req dto.CreateMatchRequest, actor *models.JWTClaims) (*models.Match, error) {
	if req.RequestID != nil {
		request, err := c.requests.GetOrganRequest(ctx, *req.RequestID, actor)
		if err != nil {
			return nil, err
		}
		if request.Status != models.OrganRequestStatusAccepted {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "linked organ request must be accepted")
		}
		if request.PatientID != req.PatientID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "linked organ request belongs to a different patient")
		}
	}

	unlock := c.locks.Lock("intent:" + req.IntentID)
	defer unlock()

	match, events, err := c.donations.CreateMatch(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	c.dispatch(ctx, events)

	if req.RequestID != nil {
		_, declareEvents, err := c.requests.DeclareDonorMatch(ctx, *req.RequestID, dto.DeclareDonorMatchRequest{
			DonorID:   match.DonorID,
			DonorName: match.DonorName,
		})
		if err != nil {
			c.logger.Error("match created but request linkage failed",
				zap.String("match_id", match.ID), zap.String("request_id", *req.RequestID), zap.Error(err))
		}
		for _, event := range declareEvents {
			c.metrics.RecordTransition(entityFor(event.Kind), event.Kind)
		}
	}
	return match, nil
}

// AcceptMatch records the acting party's acceptance. The party is derived
// from the actor's role; only match participants can accept. The counterpart
// is notified, and the hospital is notified once when the match confirms.
func (c *LifecycleCoordinator) AcceptMatch(ctx context.Context, id string, actor *models.JWTClaims) (*models.Match, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	var party models.MatchParty
	switch actor.Role {
	case models.RolePatient:
		party = models.PartyPatient
	case models.RoleDonor:
		party = models.PartyDonor
	default:
		return nil, appErrors.ErrForbidden
	}
	if _, err := c.donations.GetMatch(ctx, id, actor); err != nil {
		return nil, err
	}

	unlock := c.locks.Lock("match:" + id)
	defer unlock()

	match, events, err := c.donations.AcceptMatch(ctx, id, party)
	if err != nil {
		return nil, err
	}
	c.dispatch(ctx, events)
	return match, nil
}

// ConfirmPayment settles the payment on a confirmed match.
func (c *LifecycleCoordinator) ConfirmPayment(ctx context.Context, id string) (*models.Match, error) {
	unlock := c.locks.Lock("match:" + id)
	defer unlock()

	match, events, err := c.donations.ConfirmPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	c.dispatch(ctx, events)
	return match, nil
}

// CompleteDonation finalises a paid match and schedules the donor's
// certificate. Certificate generation runs off the request path; its failure
// never rolls back a completed donation.
func (c *LifecycleCoordinator) CompleteDonation(ctx context.Context, id string) (*models.Match, error) {
	unlock := c.locks.Lock("match:" + id)
	defer unlock()

	match, events, err := c.donations.CompleteDonation(ctx, id)
	if err != nil {
		return nil, err
	}
	c.dispatch(ctx, events)

	if len(events) > 0 && c.certificates != nil {
		if err := c.certificates.Schedule(match); err != nil {
			c.logger.Error("certificate scheduling failed", zap.String("match_id", match.ID), zap.Error(err))
		}
	}
	return match, nil
}

// SubmitOrganRequest records a patient's organ request and notifies hospital staff.
func (c *LifecycleCoordinator) SubmitOrganRequest(ctx context.Context, req dto.CreateOrganRequestRequest, actor *models.JWTClaims) (*models.OrganRequest, error) {
	request, events, err := c.requests.SubmitOrganRequest(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	c.dispatch(ctx, events)
	return request, nil
}

// DecideOrganRequest records the hospital verdict and notifies the patient.
func (c *LifecycleCoordinator) DecideOrganRequest(ctx context.Context, id string, req dto.DecideOrganRequestRequest, actor *models.JWTClaims) (*models.OrganRequest, error) {
	unlock := c.locks.Lock("organ-request:" + id)
	defer unlock()

	request, events, err := c.requests.DecideOrganRequest(ctx, id, req, actor)
	if err != nil {
		return nil, err
	}
	c.dispatch(ctx, events)
	return request, nil
}

// DeclareDonorMatch attaches a donor to an accepted organ request and
// notifies the patient.
func (c *LifecycleCoordinator) DeclareDonorMatch(ctx context.Context, id string, req dto.DeclareDonorMatchRequest) (*models.OrganRequest, error) {
	unlock := c.locks.Lock("organ-request:" + id)
	defer unlock()

	request, events, err := c.requests.DeclareDonorMatch(ctx, id, req)
	if err != nil {
		return nil, err
	}
	c.dispatch(ctx, events)
	return request, nil
}

// SubmitFundRequest records a patient's fund request and notifies the NGO.
func (c *LifecycleCoordinator) SubmitFundRequest(ctx context.Context, req dto.CreateFundRequestRequest, actor *models.JWTClaims) (*models.FundRequest, error) {
	request, events, err := c.requests.SubmitFundRequest(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	c.dispatch(ctx, events)
	return request, nil
}

// DecideFundRequest records the NGO verdict and notifies the patient.
func (c *LifecycleCoordinator) DecideFundRequest(ctx context.Context, id string, req dto.DecideFundRequestRequest, actor *models.JWTClaims) (*models.FundRequest, error) {
	unlock := c.locks.Lock("fund-request:" + id)
	defer unlock()

	request, events, err := c.requests.DecideFundRequest(ctx, id, req, actor)
	if err != nil {
		return nil, err
	}
	c.dispatch(ctx, events)
	return request, nil
}

// dispatch records transition metrics and publishes the notifications each
// event maps to. State changes are already committed when dispatch runs; a
// failed publish is logged and never surfaces to the caller.
func (c *LifecycleCoordinator) dispatch(ctx context.Context, events []models.TransitionEvent) {
	for _, event := range events {
		c.metrics.RecordTransition(entityFor(event.Kind), event.Kind)
		for _, notification := range notificationsFor(event) {
			n := notification
			if err := c.hub.Publish(ctx, &n); err != nil {
				c.logger.Error("notification publish failed",
					zap.String("event", string(event.Kind)), zap.String("entity_id", event.EntityID), zap.Error(err))
			}
		}
	}
}

// notificationsFor maps one committed event to the notifications it owes.
// This table is the full catalogue of lifecycle messaging; nothing else in
// the codebase creates notifications.
func notificationsFor(e models.TransitionEvent) []models.Notification {
	switch e.Kind {
	case models.EventIntentSubmitted:
		return []models.Notification{
			note(models.RoleHospital, models.NotificationInfo, "New donation offer",
				fmt.Sprintf("%s offered to donate a %s. Verification is pending.", e.DonorName, e.OrganType)),
			note(models.RolePatient, models.NotificationInfo, "New donor available",
				fmt.Sprintf("A donor has offered a %s and is awaiting hospital verification.", e.OrganType)),
		}
	case models.EventIntentVerified:
		return []models.Notification{
			note(models.RoleDonor, models.NotificationSuccess, "Donation offer verified",
				fmt.Sprintf("Your %s donation offer has been verified by the hospital.", e.OrganType)),
		}
	case models.EventMatchCreated:
		return []models.Notification{
			note(models.RoleDonor, models.NotificationInfo, "You have been matched",
				fmt.Sprintf("Your %s donation has been matched with %s. Please review and accept.", e.OrganType, e.PatientName)),
			note(models.RolePatient, models.NotificationInfo, "Donor matched",
				fmt.Sprintf("%s has been matched for your %s. Please review and accept.", e.DonorName, e.OrganType)),
		}
	case models.EventMatchAccepted:
		if e.Party == models.PartyDonor {
			return []models.Notification{
				note(models.RolePatient, models.NotificationInfo, "Donor accepted",
					fmt.Sprintf("%s accepted the %s match.", e.DonorName, e.OrganType)),
			}
		}
		return []models.Notification{
			note(models.RoleDonor, models.NotificationInfo, "Patient accepted",
				fmt.Sprintf("%s accepted the %s match.", e.PatientName, e.OrganType)),
		}
	case models.EventMatchConfirmed:
		return []models.Notification{
			note(models.RoleHospital, models.NotificationSuccess, "Match confirmed",
				fmt.Sprintf("Both parties accepted the %s match between %s and %s.", e.OrganType, e.DonorName, e.PatientName)),
		}
	case models.EventPaymentConfirmed:
		return []models.Notification{
			note(models.RolePatient, models.NotificationSuccess, "Payment received",
				fmt.Sprintf("Payment for the %s procedure has been received.", e.OrganType)),
			note(models.RoleHospital, models.NotificationInfo, "Payment settled",
				fmt.Sprintf("Payment settled for the %s match between %s and %s.", e.OrganType, e.DonorName, e.PatientName)),
		}
	case models.EventDonationCompleted:
		return []models.Notification{
			note(models.RoleDonor, models.NotificationSuccess, "Donation completed",
				fmt.Sprintf("Thank you, %s. Your %s donation is complete; your certificate is on its way.", e.DonorName, e.OrganType)),
			note(models.RolePatient, models.NotificationSuccess, "Donation completed",
				fmt.Sprintf("Your %s transplant process with donor %s is complete.", e.OrganType, e.DonorName)),
		}
	case models.EventOrganRequestSubmitted:
		return []models.Notification{
			note(models.RoleHospital, models.NotificationInfo, "New organ request",
				fmt.Sprintf("%s requested a %s (urgency: %s).", e.PatientName, e.OrganType, e.Urgency)),
		}
	case models.EventOrganRequestDecided:
		if e.Decision == string(models.OrganRequestStatusAccepted) {
			return []models.Notification{
				note(models.RolePatient, models.NotificationSuccess, "Organ request accepted",
					fmt.Sprintf("Your %s request has been accepted by the hospital.", e.OrganType)),
			}
		}
		return []models.Notification{
			note(models.RolePatient, models.NotificationWarning, "Organ request rejected",
				fmt.Sprintf("Your %s request was rejected by the hospital.", e.OrganType)),
		}
	case models.EventDonorMatchDeclared:
		return []models.Notification{
			note(models.RolePatient, models.NotificationSuccess, "Donor found",
				fmt.Sprintf("%s has been identified as a donor for your %s request.", e.DonorName, e.OrganType)),
		}
	case models.EventFundRequestSubmitted:
		return []models.Notification{
			note(models.RoleNGO, models.NotificationInfo, "New fund request",
				fmt.Sprintf("%s requested %s in assistance.", e.PatientName, formatAmount(e.Amount))),
		}
	case models.EventFundRequestDecided:
		if e.Decision == string(models.FundRequestStatusApproved) {
			return []models.Notification{
				note(models.RolePatient, models.NotificationSuccess, "Fund request approved",
					fmt.Sprintf("Your request for %s has been approved.", formatAmount(e.Amount))),
			}
		}
		return []models.Notification{
			note(models.RolePatient, models.NotificationWarning, "Fund request rejected",
				fmt.Sprintf("Your request for %s was rejected.", formatAmount(e.Amount))),
		}
	default:
		return nil
	}
}

func note(role models.UserRole, kind models.NotificationType, title, message string) models.Notification {
	return models.Notification{Type: kind, Title: title, Message: message, TargetRole: role}
}

func entityFor(kind models.EventKind) string {
	switch kind {
	case models.EventIntentSubmitted, models.EventIntentVerified:
		return "intent"
	case models.EventMatchCreated, models.EventMatchAccepted, models.EventMatchConfirmed,
		models.EventPaymentConfirmed, models.EventDonationCompleted:
		return "match"
	case models.EventOrganRequestSubmitted, models.EventOrganRequestDecided, models.EventDonorMatchDeclared:
		return "organ_request"
	case models.EventFundRequestSubmitted, models.EventFundRequestDecided:
		return "fund_request"
	default:
		return "unknown"
	}
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
