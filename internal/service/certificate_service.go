package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/lifeline-health/lifeline-api/internal/models"
	appErrors "github.com/lifeline-health/lifeline-api/pkg/errors"
	"github.com/lifeline-health/lifeline-api/pkg/export"
	"github.com/lifeline-health/lifeline-api/pkg/jobs"
	"github.com/lifeline-health/lifeline-api/pkg/storage"
)

type intentReader interface {
	GetByID(ctx context.Context, id string) (*models.DonationIntent, error)
}

type certificateStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

// CertificateService renders and serves donation certificates. Rendering
// happens on a background queue fed by the coordinator; downloads go through
// HMAC-signed tokens so certificate files need no authenticated session.
type CertificateService struct {
	intents  intentReader
	renderer *export.CertificateRenderer
	storage  certificateStorage
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	queue    *jobs.Queue
}

// NewCertificateService constructs the service and its render queue.
func NewCertificateService(intents intentReader, renderer *export.CertificateRenderer, store certificateStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &CertificateService{
		intents:  intents,
		renderer: renderer,
		storage:  store,
		signer:   signer,
		logger:   logger,
	}
	svc.queue = jobs.NewQueue("certificate-render", svc.render, jobs.QueueConfig{Workers: 1, Logger: logger})
	return svc
}

// Start launches the render workers.
func (s *CertificateService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the render workers.
func (s *CertificateService) Stop() {
	s.queue.Stop()
}

// certificateJob is the payload queued per completed match.
type certificateJob struct {
	IntentID     string
	DonorName    string
	OrganType    string
	HospitalName string
	CompletedAt  time.Time
}

// Schedule queues certificate rendering for a completed match. Implements the
// coordinator's CertificateScheduler.
func (s *CertificateService) Schedule(match *models.Match) error {
	if match == nil {
		return fmt.Errorf("match is required")
	}
	completedAt := time.Now().UTC()
	if match.CompletedAt != nil {
		completedAt = *match.CompletedAt
	}
	return s.queue.Enqueue(jobs.Job{
		ID:   match.IntentID,
		Type: "certificate",
		Payload: certificateJob{
			IntentID:     match.IntentID,
			DonorName:    match.DonorName,
			OrganType:    match.OrganType,
			HospitalName: match.DonorHospitalName,
			CompletedAt:  completedAt,
		},
	})
}

// SignedURL issues a download token for a finished certificate. Only the
// owning donor (or staff roles) can request one.
func (s *CertificateService) SignedURL(ctx context.Context, intentID string, actor *models.JWTClaims) (string, time.Time, error) {
	if actor == nil {
		return "", time.Time{}, appErrors.ErrUnauthorized
	}
	intent, err := s.intents.GetByID(ctx, intentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "donation intent not found")
		}
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intent")
	}
	switch actor.Role {
	case models.RoleDonor:
		if intent.DonorID != actor.UserID {
			return "", time.Time{}, appErrors.ErrForbidden
		}
	case models.RoleHospital, models.RoleAdmin:
	default:
		return "", time.Time{}, appErrors.ErrForbidden
	}
	if !intent.CertificateReady {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInvalidTransition, "certificate is not ready for this donation")
	}
	token, expiresAt, err := s.signer.Generate(intent.ID, certificatePath(intent.ID))
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign certificate url")
	}
	return token, expiresAt, nil
}

// Download validates a token and opens the certificate file.
func (s *CertificateService) Download(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired certificate token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate file not found")
	}
	return file, nil
}

func (s *CertificateService) render(_ context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(certificateJob)
	if !ok {
		return fmt.Errorf("unexpected certificate payload %T", job.Payload)
	}
	data, err := s.renderer.Render(export.CertificateData{
		CertificateID: payload.IntentID,
		DonorName:     payload.DonorName,
		OrganType:     payload.OrganType,
		HospitalName:  payload.HospitalName,
		CompletedAt:   payload.CompletedAt,
	})
	if err != nil {
		return err
	}
	if _, err := s.storage.Save(certificatePath(payload.IntentID), data); err != nil {
		return err
	}
	s.logger.Info("certificate rendered", zap.String("intent_id", payload.IntentID))
	return nil
}

func certificatePath(intentID string) string {
	return path.Join("certificates", intentID+".pdf")
}
