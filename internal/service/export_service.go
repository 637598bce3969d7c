package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lifeline-health/lifeline-api/internal/dto"
	"github.com/lifeline-health/lifeline-api/internal/models"
	appErrors "github.com/lifeline-health/lifeline-api/pkg/errors"
	"github.com/lifeline-health/lifeline-api/pkg/export"
)

// Report formats supported by the admin export endpoints.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ExportService renders admin reports over the ledgers.
type ExportService struct {
	donations *DonationLedger
	requests  *RequestLedger
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(donations *DonationLedger, requests *RequestLedger, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		donations: donations,
		requests:  requests,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// Report renders the named report in the requested format and returns the
// bytes together with their content type.
func (s *ExportService) Report(ctx context.Context, kind, format string, actor *models.JWTClaims) ([]byte, string, error) {
	var (
		dataset export.Dataset
		title   string
		err     error
	)
	switch kind {
	case "donations":
		dataset, err = s.donationDataset(ctx, actor)
		title = "Donation Intents"
	case "matches":
		dataset, err = s.matchDataset(ctx, actor)
		title = "Matches"
	case "fund-requests":
		dataset, err = s.fundDataset(ctx, actor)
		title = "Fund Requests"
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown report: %s", kind))
	}
	if err != nil {
		return nil, "", err
	}

	switch format {
	case FormatCSV, "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return payload, "text/csv", nil
	case FormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format: %s", format))
	}
}

func (s *ExportService) donationDataset(ctx context.Context, actor *models.JWTClaims) (export.Dataset, error) {
	intents, err := s.donations.ListIntents(ctx, dto.IntentQuery{Limit: 200}, actor)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{
		Headers: []string{"ID", "Donor", "Organ", "Hospital", "Status", "Verified", "Created"},
	}
	for _, intent := range intents {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":       intent.ID,
			"Donor":    intent.DonorName,
			"Organ":    intent.OrganType,
			"Hospital": intent.DonorHospitalName,
			"Status":   string(intent.Status),
			"Verified": strconv.FormatBool(intent.HospitalVerified),
			"Created":  intent.CreatedAt.Format(time.RFC3339),
		})
	}
	return dataset, nil
}

func (s *ExportService) matchDataset(ctx context.Context, actor *models.JWTClaims) (export.Dataset, error) {
	matches, err := s.donations.ListMatches(ctx, dto.MatchQuery{Limit: 200}, actor)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{
		Headers: []string{"ID", "Donor", "Patient", "Organ", "State", "Paid", "Created"},
	}
	for _, match := range matches {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":      match.ID,
			"Donor":   match.DonorName,
			"Patient": match.PatientName,
			"Organ":   match.OrganType,
			"State":   string(match.State),
			"Paid":    strconv.FormatBool(match.PaymentCompleted),
			"Created": match.CreatedAt.Format(time.RFC3339),
		})
	}
	return dataset, nil
}

func (s *ExportService) fundDataset(ctx context.Context, actor *models.JWTClaims) (export.Dataset, error) {
	requests, err := s.requests.ListFundRequests(ctx, dto.FundRequestQuery{Limit: 200}, actor)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{
		Headers: []string{"ID", "Patient", "Amount", "Reason", "Status", "Created"},
	}
	for _, request := range requests {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":      request.ID,
			"Patient": request.PatientName,
			"Amount":  formatAmount(request.Amount),
			"Reason":  string(request.Reason),
			"Status":  string(request.Status),
			"Created": request.CreatedAt.Format(time.RFC3339),
		})
	}
	return dataset, nil
}
