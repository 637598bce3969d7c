package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lifeline-health/lifeline-api/internal/models"
)

// OrganRequestRepository persists organ requests.
type OrganRequestRepository struct {
	db *sqlx.DB
}

// NewOrganRequestRepository constructs the repository.
func NewOrganRequestRepository(db *sqlx.DB) *OrganRequestRepository {
	return &OrganRequestRepository{db: db}
}

// Create inserts a new organ request row.
func (r *OrganRequestRepository) Create(ctx context.Context, request *models.OrganRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.OrganRequestStatusPending
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO organ_requests
	(id, patient_id, patient_name, organ_type, urgency, notes, hospital_id, hospital_name, status, donor_id, donor_name, created_at)
	VALUES (:id, :patient_id, :patient_name, :organ_type, :urgency, :notes, :hospital_id, :hospital_name, :status, :donor_id, :donor_name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create organ request: %w", err)
	}
	return nil
}

// GetByID fetches an organ request by identifier.
func (r *OrganRequestRepository) GetByID(ctx context.Context, id string) (*models.OrganRequest, error) {
	const query = `SELECT id, patient_id, patient_name, organ_type, urgency, notes, hospital_id, hospital_name,
       status, donor_id, donor_name, created_at
	FROM organ_requests WHERE id = $1`
	var request models.OrganRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns organ requests matching the filter (newest first).
func (r *OrganRequestRepository) List(ctx context.Context, filter models.OrganRequestFilter) ([]models.OrganRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 5)
	builder.WriteString(`SELECT id, patient_id, patient_name, organ_type, urgency, notes, hospital_id, hospital_name,
       status, donor_id, donor_name, created_at FROM organ_requests`)

	conditions := make([]string, 0, 4)
	if filter.PatientID != "" {
		args = append(args, filter.PatientID)
		conditions = append(conditions, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if filter.HospitalID != "" {
		args = append(args, filter.HospitalID)
		conditions = append(conditions, fmt.Sprintf("hospital_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Urgency != "" {
		args = append(args, filter.Urgency)
		conditions = append(conditions, fmt.Sprintf("urgency = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.OrganRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list organ requests: %w", err)
	}
	return requests, nil
}

// UpdateDecision records the hospital's accept or reject verdict. Only a
// request still under review can be decided; losers of a concurrent decision
// race see sql.ErrNoRows.
func (r *OrganRequestRepository) UpdateDecision(ctx context.Context, id string, status models.OrganRequestStatus, hospitalID, hospitalName string) error {
	const query = `UPDATE organ_requests SET status = $1, hospital_id = $2, hospital_name = $3
	WHERE id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, status, hospitalID, hospitalName, id, models.OrganRequestStatusPending)
	if err != nil {
		return fmt.Errorf("update organ request decision: %w", err)
	}
	return requireRowsAffected(result)
}

// RecordDonorMatch attaches a matched donor to an accepted request.
func (r *OrganRequestRepository) RecordDonorMatch(ctx context.Context, id, donorID, donorName string) error {
	const query = `UPDATE organ_requests SET status = $1, donor_id = $2, donor_name = $3
	WHERE id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, models.OrganRequestStatusDonorMatched, donorID, donorName, id, models.OrganRequestStatusAccepted)
	if err != nil {
		return fmt.Errorf("record donor match: %w", err)
	}
	return requireRowsAffected(result)
}
